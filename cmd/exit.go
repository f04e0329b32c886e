package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/browser"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
	"github.com/xkilldash9x/vivado-fetch/internal/navigator"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitArgError        = 2
	ExitLaunchError     = 3
	ExitPageUnreachable = 4
	ExitLoginFailed     = 5
	ExitVersionNotFound = 6
	ExitTimeout         = 7
)

// OutcomeError carries an unsuccessful download outcome out of the command.
type OutcomeError struct {
	Outcome schemas.DownloadOutcome
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("download did not complete: %s", e.Outcome)
}

// ExitCode maps the error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitFailure
	}

	var argErr *config.ArgError
	var launchErr *browser.LaunchError
	var navErr *navigator.NavError
	var outErr *OutcomeError

	switch {
	case errors.As(err, &argErr):
		return ExitArgError
	case errors.As(err, &launchErr):
		return ExitLaunchError
	case errors.As(err, &navErr):
		switch navErr.Kind {
		case navigator.PageUnreachable:
			return ExitPageUnreachable
		case navigator.LoginFailed:
			return ExitLoginFailed
		case navigator.VersionNotFound:
			return ExitVersionNotFound
		}
	case errors.As(err, &outErr):
		if outErr.Outcome.Reason == schemas.ReasonTimeout {
			return ExitTimeout
		}
	}
	return ExitFailure
}

// StatusLine renders the one line summary printed before exiting.
func StatusLine(err error) string {
	var argErr *config.ArgError
	var launchErr *browser.LaunchError
	var navErr *navigator.NavError
	var outErr *OutcomeError

	switch {
	case err == nil:
		return "OK: download complete"
	case errors.Is(err, context.Canceled):
		// An interrupted prompt or wait surfaces wrapped in the step's error.
		return "CANCELED: interrupted"
	case errors.As(err, &argErr):
		return fmt.Sprintf("ARG_ERROR: %v", err)
	case errors.As(err, &launchErr):
		return fmt.Sprintf("LAUNCH_ERROR %s: %v", launchErr.Kind, launchErr.Err)
	case errors.As(err, &navErr):
		return fmt.Sprintf("%s: %v", navErr.Kind, err)
	case errors.As(err, &outErr):
		if n := len(outErr.Outcome.FilePaths); n > 0 {
			return fmt.Sprintf("%s: %d partial file(s) left in place, e.g. %s", outErr.Outcome.Reason, n, outErr.Outcome.FilePaths[0])
		}
		return fmt.Sprintf("%s: no file was downloaded", outErr.Outcome.Reason)
	default:
		return fmt.Sprintf("ERROR: %v", err)
	}
}
