package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/dhkim/snipstash/internal/apperror"
)

// =========================================================================
// UPSERT TESTS
// =========================================================================

func TestTagUpsertByName_CreatesWhenAbsent(t *testing.T) {
	db := newTestDB(t)

	tag, err := db.Tags().UpsertByName(context.Background(), "owner-1", "react")
	if err != nil {
		t.Fatalf("UpsertByName() error = %v", err)
	}
	if tag.ID == "" {
		t.Error("UpsertByName() did not set an ID")
	}
	if tag.Name != "react" {
		t.Errorf("Name = %q, want react", tag.Name)
	}
}

// TestTagUpsertByName_ReturnsExistingRow: the second upsert for the same
// name resolves to the first row instead of creating a duplicate.
func TestTagUpsertByName_ReturnsExistingRow(t *testing.T) {
	db := newTestDB(t)

	first, err := db.Tags().UpsertByName(context.Background(), "owner-1", "react")
	if err != nil {
		t.Fatalf("first UpsertByName() error = %v", err)
	}
	second, err := db.Tags().UpsertByName(context.Background(), "owner-1", "react")
	if err != nil {
		t.Fatalf("second UpsertByName() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("IDs differ: %q vs %q — upsert created a duplicate", first.ID, second.ID)
	}
}

// TestTagUpsertByName_ScopedByOwnerKey: the same name under two owner keys
// is two distinct tags.
func TestTagUpsertByName_ScopedByOwnerKey(t *testing.T) {
	db := newTestDB(t)

	kims, err := db.Tags().UpsertByName(context.Background(), "kim", "react")
	if err != nil {
		t.Fatalf("UpsertByName() error = %v", err)
	}
	lees, err := db.Tags().UpsertByName(context.Background(), "lee", "react")
	if err != nil {
		t.Fatalf("UpsertByName() error = %v", err)
	}

	if kims.ID == lees.ID {
		t.Error("tags from different scopes share an ID")
	}
}

// =========================================================================
// LIST / COUNT TESTS
// =========================================================================

func TestTagListByOwner_CountsAndOrder(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")

	react, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "react")
	db.Tags().UpsertByName(context.Background(), owner.ID, "zig")
	algorithms, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "algorithms")

	s1 := createTestSnippet(t, db, owner.ID, "one")
	s2 := createTestSnippet(t, db, owner.ID, "two")
	mustReplaceLinks(t, db, s1.ID, react.ID)
	mustReplaceLinks(t, db, s2.ID, react.ID, algorithms.ID)

	list, err := db.Tags().ListByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d tags, want 3", len(list))
	}

	// Alphabetical, and the unused tag stays in with count 0.
	wantNames := []string{"algorithms", "react", "zig"}
	wantCounts := []int{1, 2, 0}
	for i := range list {
		if list[i].Name != wantNames[i] {
			t.Errorf("tag[%d] = %q, want %q", i, list[i].Name, wantNames[i])
		}
		if list[i].SnippetCount != wantCounts[i] {
			t.Errorf("tag %q count = %d, want %d", list[i].Name, list[i].SnippetCount, wantCounts[i])
		}
	}
}

func mustReplaceLinks(t *testing.T, db *DB, snippetID string, tagIDs ...string) {
	t.Helper()
	if err := db.Tags().ReplaceSnippetLinks(context.Background(), snippetID, tagIDs); err != nil {
		t.Fatalf("ReplaceSnippetLinks() error = %v", err)
	}
}

// =========================================================================
// RENAME TESTS
// =========================================================================

func TestTagRename(t *testing.T) {
	db := newTestDB(t)

	tag, _ := db.Tags().UpsertByName(context.Background(), "owner-1", "raect")

	renamed, err := db.Tags().Rename(context.Background(), tag.ID, "react")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "react" {
		t.Errorf("Name = %q, want react", renamed.Name)
	}
	if renamed.ID != tag.ID {
		t.Errorf("ID changed across rename: %q vs %q", renamed.ID, tag.ID)
	}
}

// TestTagRename_Clash: renaming onto an existing name in the same scope is
// a conflict, not an implicit merge.
func TestTagRename_Clash(t *testing.T) {
	db := newTestDB(t)

	db.Tags().UpsertByName(context.Background(), "owner-1", "react")
	other, _ := db.Tags().UpsertByName(context.Background(), "owner-1", "hooks")

	_, err := db.Tags().Rename(context.Background(), other.ID, "react")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestTagRename_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Tags().Rename(context.Background(), "nonexistent", "anything")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LINK TESTS
// =========================================================================

func TestReplaceSnippetLinks_Exactness(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "linked")

	react, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "react")
	hooks, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "hooks")
	perf, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "performance")

	// First set: react + hooks.
	mustReplaceLinks(t, db, snippet.ID, react.ID, hooks.ID)

	// Replacement set: hooks + performance. react must be unlinked.
	mustReplaceLinks(t, db, snippet.ID, hooks.ID, perf.ID)

	tags, err := db.Tags().TagsForSnippet(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("TagsForSnippet() error = %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	// Alphabetical.
	if tags[0].Name != "hooks" || tags[1].Name != "performance" {
		t.Errorf("tags = [%s %s], want [hooks performance]", tags[0].Name, tags[1].Name)
	}
}

func TestReplaceSnippetLinks_EmptyClearsAll(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "untagged")

	react, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "react")
	mustReplaceLinks(t, db, snippet.ID, react.ID)
	mustReplaceLinks(t, db, snippet.ID)

	tags, err := db.Tags().TagsForSnippet(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("TagsForSnippet() error = %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("got %d tags, want 0", len(tags))
	}
}

// TestReplaceSnippetLinks_FailureLeavesPriorSet: a bad tag ID violates the
// foreign key mid-transaction; the rollback must leave the previous links
// untouched, not a half-written set.
func TestReplaceSnippetLinks_FailureLeavesPriorSet(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "stable")

	react, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "react")
	mustReplaceLinks(t, db, snippet.ID, react.ID)

	err := db.Tags().ReplaceSnippetLinks(context.Background(), snippet.ID, []string{"no-such-tag"})
	if err == nil {
		t.Fatal("ReplaceSnippetLinks() accepted a nonexistent tag ID")
	}

	tags, err := db.Tags().TagsForSnippet(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("TagsForSnippet() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "react" {
		t.Errorf("prior link set damaged: %+v", tags)
	}
}

// =========================================================================
// DELETE / CASCADE TESTS
// =========================================================================

func TestTagDelete_CascadesLinks(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "loses a tag")

	react, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "react")
	hooks, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "hooks")
	mustReplaceLinks(t, db, snippet.ID, react.ID, hooks.ID)

	if err := db.Tags().Delete(context.Background(), react.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	tags, _ := db.Tags().TagsForSnippet(context.Background(), snippet.ID)
	if len(tags) != 1 || tags[0].Name != "hooks" {
		t.Errorf("tags after delete = %+v, want only hooks", tags)
	}

	// The snippet itself is untouched.
	if _, err := db.Snippets().GetByID(context.Background(), snippet.ID); err != nil {
		t.Errorf("snippet gone after tag delete: %v", err)
	}
}

func TestSnippetDelete_CascadesLinks(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "doomed")

	react, _ := db.Tags().UpsertByName(context.Background(), owner.ID, "react")
	mustReplaceLinks(t, db, snippet.ID, react.ID)

	if err := db.Snippets().Delete(context.Background(), snippet.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	ids, err := db.Tags().SnippetIDsForTag(context.Background(), react.ID)
	if err != nil {
		t.Fatalf("SnippetIDsForTag() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("association rows survived the snippet delete: %v", ids)
	}

	// The tag itself survives with a count of zero.
	if _, err := db.Tags().GetByID(context.Background(), react.ID); err != nil {
		t.Errorf("tag gone after snippet delete: %v", err)
	}
}
