// Package sender recovers the sender's email address from the element a user acted on.
package sender

import (
	"regexp"
	"strings"
)

var (
	validRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	angleRe = regexp.MustCompile(`<([^<>]+)>`)
	bareRe  = regexp.MustCompile(`[^\s@<>()"',;:\[\]]+@[^\s@<>()"',;:\[\]]+\.[^\s@<>()"',;:\[\]]+`)
)

// Valid reports whether addr has the local@domain.tld shape.
func Valid(addr string) bool {
	return validRe.MatchString(addr)
}

// ParseAddress pulls an address out of display text. It tries the
// "Name <addr>" form first, then scans for a bare address, then accepts
// the whole trimmed text. It returns "" when nothing validates.
func ParseAddress(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, m := range angleRe.FindAllStringSubmatch(text, -1) {
		if addr := strings.TrimSpace(m[1]); Valid(addr) {
			return addr
		}
	}
	for _, m := range bareRe.FindAllString(text, -1) {
		if addr := strings.Trim(m, "."); Valid(addr) {
			return addr
		}
	}
	if Valid(text) {
		return text
	}
	return ""
}
