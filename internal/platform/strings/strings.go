// Package strings holds small string helpers shared by repos and modules
package strings

import std "strings"

// MustPrefix normalizes a route prefix like "issues/" to "/issues"; panics on the root
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("route prefix is required")
	}
	return s
}

// SQLNull returns nil for blank strings so they are stored as NULL
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Deref returns "" for nil
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// Ptr returns nil for "", otherwise &s
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compact drops separators ("_", "-", " ") so a name can be embedded in an identifier
func Compact(s string) string {
	return std.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
