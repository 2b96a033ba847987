// Package normalize canonicalizes user-supplied identifiers before they are
// stored or used in lookups.
package normalize

import "strings"

// Email trims and lowercases an email address. Account usernames are emails,
// so every lookup by username goes through here.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DNI strips dots, spaces and dashes from a national id number.
func DNI(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '-':
			return -1
		}
		return r
	}, s)
}
