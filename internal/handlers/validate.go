package handlers

import (
	"errors"
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
)

func validateNotEmpty(fields ...string) error {
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return errors.New("all fields are required")
		}
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-30 lowercase letters, digits, or underscores")
	}
	return nil
}

// validatePassword enforces minimum password strength: at least 8
// characters with an upper case letter, a lower case letter, a digit,
// and a special character.
func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return errors.New("password must contain upper and lower case letters, a digit, and a special character")
	}
	return nil
}
