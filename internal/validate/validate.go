// Package validate holds the answer predicates for the onboarding questions.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	phoneRe = regexp.MustCompile(`^\+?\d{7,15}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Phone reports whether s is 7-15 decimal digits with an optional leading plus.
func Phone(s string) bool {
	return phoneRe.MatchString(strings.TrimSpace(s))
}

// Email reports whether s has the rough shape local@domain.tld. This is a
// deliberately shallow check, not RFC validation.
func Email(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// Country reports whether s is long enough to be a country name or code.
// Canonicalization is left to the country package.
func Country(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= 2
}
