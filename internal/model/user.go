// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are primarily email/password: PasswordHash holds the bcrypt hash
// and is never serialized (json:"-"). A user may additionally (or instead)
// be linked to a GitHub identity via OAuth, in which case GitHubID holds
// GitHub's numeric user ID.
//
// WHY GitHubID int64 WITH 0 AS "NOT LINKED"?
// GitHub user IDs are positive integers, so 0 is a safe sentinel for
// password-only accounts. The partial unique index in the schema only
// covers non-zero values, so any number of accounts can have github_id 0.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
