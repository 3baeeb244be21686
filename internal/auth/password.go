// Package auth — password hashing.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used unless configured otherwise.
// Cost 12 takes roughly a quarter second on current server hardware —
// negligible per login, brutal for offline brute force. Tune it so hashing
// stays in the 200–300ms range as hardware improves.
const DefaultCost = 12

// PasswordService hashes and verifies passwords with bcrypt. bcrypt
// generates and embeds a per-hash random salt, so the stored string is
// self-contained — no separate salt column.
//
// The cost is injected so tests can use bcrypt.MinCost (4) and skip the
// quarter-second tax on every hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost;
// values outside bcrypt's valid range fall back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes plaintext with bcrypt. bcrypt silently truncates input over
// 72 bytes, so longer passwords are rejected explicitly instead — callers
// should never be silently protected by fewer characters than they typed.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash; nil means it
// does. The comparison is constant-time inside bcrypt, so response timing
// leaks nothing about how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
