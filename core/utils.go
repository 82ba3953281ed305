package core

import "strings"

// CleanString normalizes user-supplied text: it trims surrounding whitespace
// and optionally lowercases (usernames, emails, lookup keys).
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
