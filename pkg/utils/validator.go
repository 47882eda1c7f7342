package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	userIDRegex  = regexp.MustCompile(`^[A-Za-z0-9._@\-]{1,64}$`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateUserID validates a caller identifier taken from request headers
func ValidateUserID(id string) error {
	if !userIDRegex.MatchString(id) {
		return fmt.Errorf("invalid user id: %q", id)
	}
	return nil
}

// SanitizeText strips control characters from free text and trims it.
// Newlines and tabs are kept.
func SanitizeText(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
