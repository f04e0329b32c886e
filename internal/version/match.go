package version

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// leading picks the release number at the start of a listing label, e.g.
// "2024.1" out of "2024.1 - Vivado Design Suite".
var leading = regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)`)

// Normalize lower-cases a label and collapses its whitespace.
func Normalize(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// MatchKind says how a label matched.
type MatchKind int

const (
	NoMatch MatchKind = iota
	PrefixMatch
	ExactMatch
)

// Select returns the index of the label that best matches want, and how it
// matched. An exact match always wins over a prefix match regardless of list
// order; among equals the first one listed wins. A prefix match requires the
// label to continue with something other than a digit, so 2024.1 selects
// "2024.1.1" or "2024.1 Update 1" but never "2024.10".
func Select(want string, labels []string) (int, MatchKind) {
	want = Normalize(want)
	if want == "" {
		return -1, NoMatch
	}

	prefixIdx := -1
	for i, label := range labels {
		l := Normalize(label)
		if l == want {
			return i, ExactMatch
		}
		if prefixIdx < 0 && isBoundaryPrefix(l, want) {
			prefixIdx = i
		}
	}
	if prefixIdx >= 0 {
		return prefixIdx, PrefixMatch
	}
	return -1, NoMatch
}

func isBoundaryPrefix(label, want string) bool {
	if !strings.HasPrefix(label, want) || len(label) == len(want) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(label[len(want):])
	return !unicode.IsDigit(next)
}

// FromLabel extracts the release number a label starts with.
func FromLabel(label string) (SoftwareVersion, bool) {
	m := leading.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return SoftwareVersion{}, false
	}
	v, err := Parse(m[1])
	if err != nil {
		return SoftwareVersion{}, false
	}
	return v, true
}

// Highest returns the newest release among the labels that carry one.
func Highest(labels []string) (SoftwareVersion, bool) {
	var best SoftwareVersion
	found := false
	for _, label := range labels {
		v, ok := FromLabel(label)
		if !ok {
			continue
		}
		if !found || v.Newer(best) {
			best, found = v, true
		}
	}
	return best, found
}
