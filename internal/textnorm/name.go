package textnorm

import (
	"regexp"
	"strings"
)

var (
	honorifics   = regexp.MustCompile(`\b(dr|doctor|mr|mrs|ms|miss|prof)\b`)
	nonLetters   = regexp.MustCompile(`[^a-z]`)
	honorificSet = map[string]struct{}{
		"dr": {}, "doctor": {}, "mr": {}, "mrs": {}, "ms": {}, "miss": {}, "prof": {},
	}
)

// NormalizeName builds the matching key for a person's name: lowercase,
// honorifics removed, letters only. "Dr. John Smith" becomes "johnsmith".
func NormalizeName(raw string) string {
	s := strings.ToLower(raw)
	s = honorifics.ReplaceAllString(s, "")
	s = nonLetters.ReplaceAllString(s, "")
	// "D. R." collapses to "dr"; dropping it here keeps the key a fixed point.
	if _, ok := honorificSet[s]; ok {
		return ""
	}
	return s
}
