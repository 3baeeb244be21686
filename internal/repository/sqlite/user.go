package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/dhkim/snipstash/internal/apperror"
	"github.com/dhkim/snipstash/internal/model"
	"github.com/dhkim/snipstash/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, password_hash, github_id, created_at, updated_at`

// Create inserts a new user account, generating ID and timestamps.
// A duplicate email surfaces as Conflict — the service treats that as
// "account already exists", not as a server fault.
func (db *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (db *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := db.scanUserRow(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by (already normalized, lowercased) email.
func (db *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := db.scanUserRow(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// UpsertByGitHubID inserts on first GitHub login and refreshes the email on
// later logins, keyed on GitHub's stable numeric ID. Uses the same upsert
// primitive as tags, so two racing callbacks for one account cannot create
// two rows.
func (db *UserStore) UpsertByGitHubID(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("sqlite: upserting user: github_id must be non-zero")
	}

	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, ?)
		 ON CONFLICT (github_id) WHERE github_id != 0
		 DO UPDATE SET email = excluded.email, updated_at = excluded.updated_at
		 RETURNING id, created_at, updated_at`,
		xid.New().String(), user.Email, user.GitHubID, now, now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

func (db *UserStore) scanUserRow(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.GitHubID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
