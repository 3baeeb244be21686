// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage implements them; tests substitute
// in-memory mocks. Services never import a concrete driver.
package repository

import (
	"context"

	"github.com/dhkim/snipstash/internal/model"
)

// SnippetRepository persists snippets. Implementations fill in ID and
// timestamps on Create and bump UpdatedAt on Update.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// ListByOwner returns the owner's snippets newest-first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error)
	// ListByIDs returns the snippets with the given IDs, newest-first.
	// Missing IDs are skipped, not an error.
	ListByIDs(ctx context.Context, ids []string) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	Delete(ctx context.Context, id string) error
	// DeleteByOwner removes all of an owner's snippets and returns how
	// many were deleted. Association rows cascade.
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// TagRepository persists tags and the snippet↔tag association.
//
// ownerKey scopes tag-name uniqueness: the owner's user ID under per-owner
// tags, or "" under the global namespace. Callers obtain it from the
// service layer's scope configuration.
type TagRepository interface {
	// UpsertByName resolves name (already validated and case-folded) to a
	// tag, creating it if absent. Atomic: two concurrent calls for the
	// same new name both return the single surviving row.
	UpsertByName(ctx context.Context, ownerKey, name string) (*model.Tag, error)
	GetByID(ctx context.Context, id string) (*model.Tag, error)
	// ListByOwner returns the scope's tags with usage counts, by name.
	ListByOwner(ctx context.Context, ownerKey string) ([]model.TagWithCount, error)
	Rename(ctx context.Context, id, name string) (*model.Tag, error)
	Delete(ctx context.Context, id string) error

	// ReplaceSnippetLinks atomically replaces the snippet's association
	// set with links to exactly the given tag IDs.
	ReplaceSnippetLinks(ctx context.Context, snippetID string, tagIDs []string) error
	TagsForSnippet(ctx context.Context, snippetID string) ([]model.Tag, error)
	SnippetIDsForTag(ctx context.Context, tagID string) ([]string, error)
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertByGitHubID inserts the user on first GitHub login and updates
	// the email on subsequent logins, keyed on the stable GitHub ID.
	// After the call user.ID is populated either way.
	UpsertByGitHubID(ctx context.Context, user *model.User) error
}
