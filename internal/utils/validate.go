package utils

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// IsEmail reports whether s looks like a well-formed email address.
func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// IsStrongPassword enforces the password complexity pattern: at least 8
// characters with one digit, one of !@#$%^&*, one uppercase and one
// lowercase letter.
func IsStrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var digit, symbol, upper, lower bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("!@#$%^&*", r):
			symbol = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		}
	}
	return digit && symbol && upper && lower
}
