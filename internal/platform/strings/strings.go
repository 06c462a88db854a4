// Package strings provides string pointer and SQL-null helpers
package strings

import std "strings"

// Ptr returns a pointer to s, or nil if s is empty
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" if ps is nil, else *ps.
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// SQLNull returns nil if s is blank/whitespace, else the original string.
// Useful for query args where NULL is desired for blanks
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// SQLNullPtr returns nil if ps is nil, else the dereferenced string.
// Empty strings are preserved: a blank referer is still a value we observed
func SQLNullPtr(ps *string) any {
	if ps == nil {
		return nil
	}
	return *ps
}
