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

var _ repository.TagRepository = (*TagStore)(nil)

// UpsertByName resolves a tag name to its row, creating the row if absent.
//
// THE LOOK-THEN-CREATE RACE:
// A naive "SELECT, and INSERT if missing" lets two concurrent writers both
// miss the SELECT and race on the INSERT; the loser hits the unique
// constraint and has to retry. Instead we use SQLite's upsert:
//
//	INSERT ... ON CONFLICT(owner_key, name) DO UPDATE SET name = excluded.name
//	RETURNING ...
//
// The DO UPDATE is a no-op touch — it exists so that RETURNING yields the
// surviving row on the conflict path too (DO NOTHING would return nothing).
// One round trip, atomic, no retry loop.
func (db *TagStore) UpsertByName(ctx context.Context, ownerKey, name string) (*model.Tag, error) {
	tag := model.Tag{OwnerKey: ownerKey}

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO tags (id, owner_key, name, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner_key, name) DO UPDATE SET name = excluded.name
		 RETURNING id, name, created_at`,
		xid.New().String(), ownerKey, name, time.Now().UTC(),
	).Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting tag %q: %w", name, err)
	}

	return &tag, nil
}

// GetByID retrieves a single tag.
func (db *TagStore) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_key, name, created_at FROM tags WHERE id = ?`, id,
	).Scan(&tag.ID, &tag.OwnerKey, &tag.Name, &tag.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}
	return &tag, nil
}

// ListByOwner returns the scope's tags alphabetically, each with the number
// of snippets currently linked to it. LEFT JOIN keeps unused tags in the
// result with a count of zero.
func (db *TagStore) ListByOwner(ctx context.Context, ownerKey string) ([]model.TagWithCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.owner_key, t.name, t.created_at, COUNT(st.snippet_id)
		 FROM tags t
		 LEFT JOIN snippet_tags st ON st.tag_id = t.id
		 WHERE t.owner_key = ?
		 GROUP BY t.id, t.owner_key, t.name, t.created_at
		 ORDER BY t.name`,
		ownerKey,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []model.TagWithCount{}
	for rows.Next() {
		var t model.TagWithCount
		if err := rows.Scan(&t.ID, &t.OwnerKey, &t.Name, &t.CreatedAt, &t.SnippetCount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

// Rename changes a tag's name. A clash with an existing name in the same
// scope surfaces as a Conflict; merging tags is deliberately not implied.
func (db *TagStore) Rename(ctx context.Context, id, name string) (*model.Tag, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("tag", name)
		}
		return nil, fmt.Errorf("sqlite: renaming tag %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("tag", id)
	}

	return db.GetByID(ctx, id)
}

// Delete removes a tag; its snippet_tags rows cascade.
func (db *TagStore) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tag %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("tag", id)
	}
	return nil
}

// ReplaceSnippetLinks replaces the snippet's association set with links to
// exactly the given tag IDs.
//
// The delete and the inserts run in one transaction. The client this
// service descends from had no transactions and could crash between the
// delete and the inserts, leaving a snippet with no tags at all; a rolled
// back transaction leaves the prior set fully intact instead.
func (db *TagStore) ReplaceSnippetLinks(ctx context.Context, snippetID string, tagIDs []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning link transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op, so the defer is safe
	// on every path.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippetID); err != nil {
		return fmt.Errorf("sqlite: clearing links for snippet %s: %w", snippetID, err)
	}

	now := time.Now().UTC()
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snippet_tags (snippet_id, tag_id, created_at) VALUES (?, ?, ?)`,
			snippetID, tagID, now); err != nil {
			return fmt.Errorf("sqlite: linking snippet %s to tag %s: %w", snippetID, tagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing link transaction: %w", err)
	}
	return nil
}

// TagsForSnippet resolves a snippet's association rows to Tag values,
// alphabetically. The set is order-irrelevant to callers; sorting just
// keeps responses deterministic.
func (db *TagStore) TagsForSnippet(ctx context.Context, snippetID string) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.owner_key, t.name, t.created_at
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 WHERE st.snippet_id = ?
		 ORDER BY t.name`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: resolving tags for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.OwnerKey, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet tags: %w", err)
	}
	return tags, nil
}

// SnippetIDsForTag returns the IDs of every snippet linked to the tag.
func (db *TagStore) SnippetIDsForTag(ctx context.Context, tagID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT snippet_id FROM snippet_tags WHERE tag_id = ?`, tagID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for tag %s: %w", tagID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippet ids: %w", err)
	}
	return ids, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite embeds the SQLite message text; matching on it avoids
// importing the driver's error type here.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
