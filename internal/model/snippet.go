// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents a saved code snippet owned by a single user.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize
// this struct; the `db:"..."` tags document the corresponding SQLite column.
//
// Favorite is stored as an INTEGER (0/1) in SQLite — the driver converts it
// to/from bool transparently when scanning.
type Snippet struct {
	ID          string    `json:"id"          db:"id"`
	OwnerID     string    `json:"ownerId"     db:"owner_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"` // optional; empty string when unset
	Code        string    `json:"code"        db:"code"`
	Language    string    `json:"language"    db:"language"`
	Favorite    bool      `json:"favorite"    db:"favorite"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// SnippetWithTags is the denormalized view of a snippet plus its resolved
// tag set. It is assembled at read time by joining the snippet row with its
// snippet_tags links — it is never persisted in this shape.
//
// EMBEDDING:
// Snippet is embedded (no field name), so SnippetWithTags "inherits" all of
// Snippet's fields and JSON keys. The Tags field is added alongside them,
// producing flat JSON: {"id":...,"title":...,"tags":[...]}.
type SnippetWithTags struct {
	Snippet
	Tags []Tag `json:"tags"`
}
