package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/dhkim/snipstash/internal/apperror"
	"github.com/dhkim/snipstash/internal/model"
	"github.com/dhkim/snipstash/internal/repository"
)

// Compile-time check that *SnippetStore satisfies the interface.
var _ repository.SnippetRepository = (*SnippetStore)(nil)

const snippetColumns = `id, owner_id, title, description, code, language, favorite, created_at, updated_at`

// Create inserts a new snippet, generating its ID and timestamps in place.
//
// IDs come from rs/xid: 20 URL-safe characters, sortable by creation time.
// The caller's struct is mutated (pointer receiver argument) so the handler
// can return the stored row without a second query.
func (db *SnippetStore) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.OwnerID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		snippet.Favorite,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet. sql.ErrNoRows is translated to the
// domain's NotFound so handlers can map it to 404 without knowing SQL.
func (db *SnippetStore) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	snippet, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return snippet, nil
}

// ListByOwner returns all of the owner's snippets, newest first. The
// fetch-join in the service layer resolves tags per row afterwards.
func (db *SnippetStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListByIDs returns the snippets with the given IDs, newest first.
// IDs with no matching row are silently skipped.
func (db *SnippetStore) ListByIDs(ctx context.Context, ids []string) ([]model.Snippet, error) {
	if len(ids) == 0 {
		return []model.Snippet{}, nil
	}

	// database/sql has no slice expansion, so build the placeholder list
	// by hand. The values still go through ?-binding — no injection risk.
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE id IN (`+placeholders+`)
		 ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets by ids: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// Update rewrites the snippet's mutable fields and bumps updated_at.
// ID, owner and created_at are immutable. RowsAffected distinguishes
// "updated" from "no such row" without a second query.
func (db *SnippetStore) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, favorite = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		snippet.Favorite,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// SetFavorite flips only the favorite flag (and updated_at), leaving the
// rest of the row alone. Used by the favorite toggle endpoint.
func (db *SnippetStore) SetFavorite(ctx context.Context, id string, favorite bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET favorite = ?, updated_at = ? WHERE id = ?`,
		favorite, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting favorite on snippet %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// Delete removes a snippet. Its snippet_tags rows cascade via the foreign
// key, so no orphaned associations survive.
func (db *SnippetStore) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// DeleteByOwner removes every snippet the owner has. Zero deletions is not
// an error — "delete all" on an empty account is a successful no-op.
func (db *SnippetStore) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting snippets for owner %s: %w", ownerID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return affected, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(s scanner) (*model.Snippet, error) {
	var snippet model.Snippet
	err := s.Scan(
		&snippet.ID,
		&snippet.OwnerID,
		&snippet.Title,
		&snippet.Description,
		&snippet.Code,
		&snippet.Language,
		&snippet.Favorite,
		&snippet.CreatedAt,
		&snippet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &snippet, nil
}

func collectSnippets(rows *sql.Rows) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}
