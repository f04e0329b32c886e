// Package version parses vendor release identifiers such as 2024.1 and
// 2024.1.1 and matches them against listing labels.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/coreos/go-semver/semver"
)

var pattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ErrPatchMismatch is returned when ordering a MAJOR.MINOR version against a
// MAJOR.MINOR.PATCH one. The vendor treats 2024.1 and 2024.1.0 as different releases.
var ErrPatchMismatch = errors.New("cannot compare a version with a patch level against one without")

// SoftwareVersion is a vendor release number.
type SoftwareVersion struct {
	sv       semver.Version
	hasPatch bool
}

// Parse validates s and returns the version.
func Parse(s string) (SoftwareVersion, error) {
	s = strings.TrimSpace(s)
	if !pattern.MatchString(s) {
		return SoftwareVersion{}, fmt.Errorf("invalid version %q: expected MAJOR.MINOR or MAJOR.MINOR.PATCH (e.g. 2024.1)", s)
	}
	hasPatch := strings.Count(s, ".") == 2
	full := s
	if !hasPatch {
		full += ".0"
	}
	sv, err := semver.NewVersion(full)
	if err != nil {
		return SoftwareVersion{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return SoftwareVersion{sv: *sv, hasPatch: hasPatch}, nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(s string) SoftwareVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// HasPatch reports whether the version carried a third component.
func (v SoftwareVersion) HasPatch() bool { return v.hasPatch }

// Compare returns -1, 0 or 1. Versions must agree on having a patch level.
func (v SoftwareVersion) Compare(o SoftwareVersion) (int, error) {
	if v.hasPatch != o.hasPatch {
		return 0, ErrPatchMismatch
	}
	return v.sv.Compare(o.sv), nil
}

// Newer reports whether v is strictly greater than o, comparing only the
// components both share when exactly one of them has a patch level.
func (v SoftwareVersion) Newer(o SoftwareVersion) bool {
	if v.hasPatch == o.hasPatch {
		return o.sv.LessThan(v.sv)
	}
	if v.sv.Major != o.sv.Major {
		return v.sv.Major > o.sv.Major
	}
	return v.sv.Minor > o.sv.Minor
}

func (v SoftwareVersion) String() string {
	if v.hasPatch {
		return fmt.Sprintf("%d.%d.%d", v.sv.Major, v.sv.Minor, v.sv.Patch)
	}
	return fmt.Sprintf("%d.%d", v.sv.Major, v.sv.Minor)
}
