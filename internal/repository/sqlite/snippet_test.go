package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/dhkim/snipstash/internal/apperror"
	"github.com/dhkim/snipstash/internal/model"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
// ":memory:" databases live only as long as the connection, so every test
// starts clean and nothing touches disk.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts an account and returns it. Snippets reference
// users by foreign key, so snippet tests need a real owner row.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestSnippet(t *testing.T, db *DB, ownerID, title string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		OwnerID:  ownerID,
		Title:    title,
		Code:     "fmt.Println(42)",
		Language: "go",
	}
	if err := db.Snippets().Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return snippet
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestSnippetCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")

	snippet := &model.Snippet{
		OwnerID:  owner.ID,
		Title:    "Hello World",
		Code:     `fmt.Println("hello")`,
		Language: "go",
	}

	if err := db.Snippets().Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The struct is filled in-place.
	if snippet.ID == "" {
		t.Error("Create() did not set snippet.ID")
	}
	if snippet.CreatedAt.IsZero() || snippet.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestSnippetCreate_VerifyPersistence(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	original := createTestSnippet(t, db, owner.ID, "persist me")

	found, err := db.Snippets().GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != original.Title {
		t.Errorf("Title = %q, want %q", found.Title, original.Title)
	}
	if found.OwnerID != owner.ID {
		t.Errorf("OwnerID = %q, want %q", found.OwnerID, owner.ID)
	}
}

// TestSnippetCreate_UnknownOwner: the owner foreign key is enforced.
func TestSnippetCreate_UnknownOwner(t *testing.T) {
	db := newTestDB(t)

	snippet := &model.Snippet{OwnerID: "ghost", Title: "x", Code: "y", Language: "go"}
	if err := db.Snippets().Create(context.Background(), snippet); err == nil {
		t.Fatal("Create() accepted a snippet with a nonexistent owner")
	}
}

// =========================================================================
// GET / LIST TESTS
// =========================================================================

func TestSnippetGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Snippets().GetByID(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("GetByID() should error for nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSnippetListByOwner_ScopedAndOrdered(t *testing.T) {
	db := newTestDB(t)
	kim := createTestUser(t, db, "kim@example.com")
	lee := createTestUser(t, db, "lee@example.com")

	first := createTestSnippet(t, db, kim.ID, "first")
	second := createTestSnippet(t, db, kim.ID, "second")
	createTestSnippet(t, db, lee.ID, "not kims")

	list, err := db.Snippets().ListByOwner(context.Background(), kim.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}

	if len(list) != 2 {
		t.Fatalf("got %d snippets, want 2", len(list))
	}
	// Newest first.
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order = [%s %s], want [%s %s]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
}

func TestSnippetListByOwner_Empty(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")

	list, err := db.Snippets().ListByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d snippets, want 0", len(list))
	}
}

func TestSnippetListByIDs(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	a := createTestSnippet(t, db, owner.ID, "a")
	createTestSnippet(t, db, owner.ID, "b")
	c := createTestSnippet(t, db, owner.ID, "c")

	// Missing IDs are skipped, not an error.
	list, err := db.Snippets().ListByIDs(context.Background(), []string{a.ID, c.ID, "missing"})
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d snippets, want 2", len(list))
	}
}

func TestSnippetListByIDs_EmptyInput(t *testing.T) {
	db := newTestDB(t)

	list, err := db.Snippets().ListByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d snippets, want 0", len(list))
	}
}

// =========================================================================
// UPDATE / FAVORITE TESTS
// =========================================================================

func TestSnippetUpdate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "before")

	snippet.Title = "after"
	snippet.Favorite = true
	if err := db.Snippets().Update(context.Background(), snippet); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.Snippets().GetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "after" {
		t.Errorf("Title = %q, want %q", found.Title, "after")
	}
	if !found.Favorite {
		t.Error("Favorite = false, want true")
	}
	if found.UpdatedAt.Before(found.CreatedAt) {
		t.Error("UpdatedAt was not bumped")
	}
}

func TestSnippetUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Snippets().Update(context.Background(), &model.Snippet{ID: "nonexistent", Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSnippetSetFavorite(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "fav me")

	if err := db.Snippets().SetFavorite(context.Background(), snippet.ID, true); err != nil {
		t.Fatalf("SetFavorite() error = %v", err)
	}

	found, _ := db.Snippets().GetByID(context.Background(), snippet.ID)
	if !found.Favorite {
		t.Error("Favorite = false after SetFavorite(true)")
	}
	// The rest of the row is untouched.
	if found.Title != "fav me" {
		t.Errorf("Title = %q, want unchanged", found.Title)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestSnippetDelete(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")
	snippet := createTestSnippet(t, db, owner.ID, "doomed")

	if err := db.Snippets().Delete(context.Background(), snippet.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Snippets().GetByID(context.Background(), snippet.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
}

func TestSnippetDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Snippets().Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSnippetDeleteByOwner(t *testing.T) {
	db := newTestDB(t)
	kim := createTestUser(t, db, "kim@example.com")
	lee := createTestUser(t, db, "lee@example.com")

	createTestSnippet(t, db, kim.ID, "one")
	createTestSnippet(t, db, kim.ID, "two")
	keeper := createTestSnippet(t, db, lee.ID, "survivor")

	deleted, err := db.Snippets().DeleteByOwner(context.Background(), kim.ID)
	if err != nil {
		t.Fatalf("DeleteByOwner() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	// Other owners' snippets survive.
	if _, err := db.Snippets().GetByID(context.Background(), keeper.ID); err != nil {
		t.Errorf("other owner's snippet gone: %v", err)
	}
}

// TestSnippetDeleteByOwner_EmptyIsNoOp: deleting everything from an empty
// account succeeds with a count of zero.
func TestSnippetDeleteByOwner_EmptyIsNoOp(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "kim@example.com")

	deleted, err := db.Snippets().DeleteByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("DeleteByOwner() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}
