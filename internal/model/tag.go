package model

import "time"

// Tag is a short label attachable to many snippets via the snippet_tags
// association table. Names are stored trimmed and lowercased — "React" and
// "react" are the same tag.
//
// OwnerKey scopes the name's uniqueness. With per-owner tags (the default)
// it is the owner's user ID; with the global namespace it is the empty
// string for every row. One schema serves both scopes, and the unique index
// is always (owner_key, name). The key is an implementation detail, so it
// is excluded from JSON.
type Tag struct {
	ID        string    `json:"id"        db:"id"`
	OwnerKey  string    `json:"-"         db:"owner_key"`
	Name      string    `json:"name"      db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SnippetTag is one row of the many-to-many association between snippets
// and tags. The (SnippetID, TagID) pair is the composite primary key — a
// given pair can never be duplicated.
type SnippetTag struct {
	SnippetID string    `json:"snippetId" db:"snippet_id"`
	TagID     string    `json:"tagId"     db:"tag_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TagWithCount augments a tag with the number of snippets currently linked
// to it. Used by the tags overview listing.
type TagWithCount struct {
	Tag
	SnippetCount int `json:"snippetCount" db:"snippet_count"`
}
