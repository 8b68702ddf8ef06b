package utils

import (
	"strings"
)

const MaxEmailLength = 254

// ValidateEmail performs a light syntax check on an email address.
// Rules: one "@" with non-empty local and domain parts, no whitespace, at most 254 characters.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}

	if len(email) > MaxEmailLength {
		return &ValidationError{Field: "email", Message: "email must be at most 254 characters"}
	}

	if strings.ContainsAny(email, " \t\r\n") {
		return &ValidationError{Field: "email", Message: "email must not contain whitespace"}
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return &ValidationError{Field: "email", Message: "email is not a valid address"}
	}

	return nil
}

// NormalizeEmail converts an email to lowercase for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
