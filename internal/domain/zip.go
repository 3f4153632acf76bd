package domain

import "strings"

// NormalizeZip strips everything but digits from a ZIP code string.
func NormalizeZip(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidZip reports whether s is a 5-digit US ZIP code.
func ValidZip(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
