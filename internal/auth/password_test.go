package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService uses bcrypt.MinCost so the suite doesn't pay the
// production work factor on every hash.
func newTestPasswordService() *PasswordService {
	return NewPasswordService(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "Sup3rSecret" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "Sup3rSecret"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
	if err := ps.Verify(hash, "WrongPassword1"); err == nil {
		t.Error("Verify() accepted the wrong password")
	}
}

// TestHash_Salted: two hashes of the same password differ, because bcrypt
// embeds a fresh random salt each time.
func TestHash_Salted(t *testing.T) {
	ps := newTestPasswordService()

	h1, err := ps.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical — salt missing?")
	}
}

// TestHash_RejectsOver72Bytes: bcrypt silently truncates longer input, so
// the service refuses it outright.
func TestHash_RejectsOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() accepted a 73-byte password")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() rejected a 72-byte password: %v", err)
	}
}

func TestVerify_EmptyHash(t *testing.T) {
	ps := newTestPasswordService()

	// GitHub-only accounts store an empty hash; no password can match it.
	if err := ps.Verify("", "anything"); err == nil {
		t.Fatal("Verify() accepted a password against an empty hash")
	}
}

func TestNewPasswordService_OutOfRangeCostFallsBack(t *testing.T) {
	ps := NewPasswordService(99)
	if ps.cost != DefaultCost {
		t.Errorf("cost = %d, want DefaultCost %d", ps.cost, DefaultCost)
	}
}
