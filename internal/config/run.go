package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// DefaultTimeoutSeconds is used when no --timeout is given. Full installers
// run to tens of gigabytes.
const DefaultTimeoutSeconds = 3600

// versionPattern is the release naming the vendor uses: 2024.1 or 2024.1.1.
var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ArgErrorKind enumerates command line validation failures.
type ArgErrorKind string

const (
	MissingVersion ArgErrorKind = "MISSING_VERSION"
	InvalidVersion ArgErrorKind = "INVALID_VERSION"
	InvalidTimeout ArgErrorKind = "INVALID_TIMEOUT"
	InvalidOutput  ArgErrorKind = "INVALID_OUTPUT"
)

// ArgError reports an unusable command line. It is always raised before any
// browser session exists.
type ArgError struct {
	Kind   ArgErrorKind
	Detail string
	Err    error
}

func (e *ArgError) Error() string {
	msg := fmt.Sprintf("argument error (%s)", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArgError) Unwrap() error { return e.Err }

// Flags carries the raw flag values as typed by the user.
type Flags struct {
	Version string
	Output  string
	Timeout string
	File    string
}

// RunConfig is the validated input of a single run.
type RunConfig struct {
	Version   string
	OutputDir string
	Timeout   time.Duration
	// File selects the installer by 1-based index or title substring. Empty means ask.
	File string
}

// HomeFunc returns the current user's home directory.
type HomeFunc func() (string, error)

// Resolve validates the flags and returns the run configuration. It touches
// nothing on disk.
func Resolve(f Flags, home HomeFunc) (RunConfig, error) {
	if home == nil {
		home = homedir.Dir
	}

	version := strings.TrimSpace(f.Version)
	if version == "" {
		return RunConfig{}, &ArgError{Kind: MissingVersion, Detail: "-v/--version is required"}
	}
	if !versionPattern.MatchString(version) {
		return RunConfig{}, &ArgError{
			Kind:   InvalidVersion,
			Detail: fmt.Sprintf("%q, expected MAJOR.MINOR or MAJOR.MINOR.PATCH (e.g. 2024.1)", version),
		}
	}

	timeout, err := parseTimeout(f.Timeout)
	if err != nil {
		return RunConfig{}, err
	}

	dir, err := resolveOutput(f.Output, home)
	if err != nil {
		return RunConfig{}, err
	}

	return RunConfig{
		Version:   version,
		OutputDir: dir,
		Timeout:   timeout,
		File:      strings.TrimSpace(f.File),
	}, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTimeoutSeconds * time.Second, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ArgError{Kind: InvalidTimeout, Detail: fmt.Sprintf("%q is not a whole number of seconds", raw)}
	}
	if secs <= 0 {
		return 0, &ArgError{Kind: InvalidTimeout, Detail: fmt.Sprintf("%d must be positive", secs)}
	}
	return time.Duration(secs) * time.Second, nil
}

func resolveOutput(raw string, home HomeFunc) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		dir, err := home()
		if err != nil {
			return "", &ArgError{Kind: InvalidOutput, Detail: "cannot determine home directory", Err: err}
		}
		return filepath.Clean(dir), nil
	}

	if raw == "~" || strings.HasPrefix(raw, "~/") {
		dir, err := home()
		if err != nil {
			return "", &ArgError{Kind: InvalidOutput, Detail: "cannot expand ~", Err: err}
		}
		raw = filepath.Join(dir, strings.TrimPrefix(raw, "~"))
	} else if expanded, err := homedir.Expand(raw); err == nil {
		raw = expanded
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", &ArgError{Kind: InvalidOutput, Detail: raw, Err: err}
	}
	return abs, nil
}
