// Package validate — credential rules.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhkim/snipstash/internal/apperror"
)

const (
	MaxEmailLen    = 255
	MinPasswordLen = 8
	// MaxPasswordBytes is bcrypt's input limit. The hash only covers the
	// first 72 bytes, so anything longer must fail here, as a field error,
	// rather than deep in the hashing layer.
	MaxPasswordBytes = 72
)

// Email validates and normalizes an email address (trimmed, lowercased).
//
// net/mail.ParseAddress accepts the full RFC 5322 grammar, including
// display names like `Kim <kim@example.com>`. We require the parsed address
// to equal the input so only a bare address passes.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))

	if email == "" {
		return "", apperror.ValidationFailed("email", "Email is required")
	}
	if utf8.RuneCountInString(email) > MaxEmailLen {
		return "", apperror.ValidationFailed("email", "Email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "Invalid email address")
	}

	return email, nil
}

// Login checks sign-in credentials: a valid email and a non-empty password.
// The password's strength rules apply only at signup — an account created
// under older rules must still be able to log in.
//
// Returns the normalized email, or an apperror.Fields covering every
// offending field.
func Login(email, password string) (string, error) {
	fields := apperror.Fields{}

	normalized, err := Email(email)
	if err != nil {
		fields.Set("email", errMessage(err))
	}
	if password == "" {
		fields.Set("password", "Password is required")
	}

	if err := fields.OrNil(); err != nil {
		return "", err
	}
	return normalized, nil
}

// Signup checks registration credentials: a valid email, a password of at
// least 8 characters (and at most 72 bytes) containing at least one
// uppercase letter, one lowercase letter, and one digit, and a matching
// confirmation.
//
// Returns the normalized email, or an apperror.Fields covering every
// offending field.
func Signup(email, password, confirm string) (string, error) {
	fields := apperror.Fields{}

	normalized, err := Email(email)
	if err != nil {
		fields.Set("email", errMessage(err))
	}

	switch {
	case utf8.RuneCountInString(password) < MinPasswordLen:
		fields.Set("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLen))
	case len(password) > MaxPasswordBytes:
		fields.Set("password", fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	case !passwordComplexEnough(password):
		fields.Set("password",
			"Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}

	if confirm == "" {
		fields.Set("confirmPassword", "Please confirm your password")
	} else if confirm != password {
		fields.Set("confirmPassword", "Passwords do not match")
	}

	if err := fields.OrNil(); err != nil {
		return "", err
	}
	return normalized, nil
}

// passwordComplexEnough reports whether the password contains an uppercase
// letter, a lowercase letter, and a digit. Unicode-aware — "Пароль1" counts.
func passwordComplexEnough(password string) bool {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// errMessage extracts the human-readable message from a validation error.
func errMessage(err error) string {
	return err.Error()
}
