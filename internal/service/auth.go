// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the user repository /
// token machinery:
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT)
//	                   ↘ PasswordService (bcrypt)
//	                   ↘ session.Mirror (session events)
//
// Every successful sign-in, sign-out, and refresh publishes an event to
// the session mirror, which is how the rest of the process observes the
// session without asking this service.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dhkim/snipstash/internal/apperror"
	"github.com/dhkim/snipstash/internal/auth"
	"github.com/dhkim/snipstash/internal/model"
	"github.com/dhkim/snipstash/internal/repository"
	"github.com/dhkim/snipstash/internal/session"
	"github.com/dhkim/snipstash/internal/validate"
)

// AuthService handles signup, login, logout, token refresh, and the GitHub
// OAuth path.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mirror    *session.Mirror
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mirror *session.Mirror,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		mirror:    mirror,
		logger:    logger,
	}
}

// AuthResult bundles the user and the freshly issued JWT so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a new email/password account and signs it in.
//
// Validation covers the structural rules (email shape, password strength,
// confirmation match); the repository's unique constraint covers the
// duplicate-email race — a second racing signup surfaces as Conflict, not
// as a second row.
func (s *AuthService) Signup(ctx context.Context, email, password, confirm string) (*AuthResult, error) {
	normalizedEmail, err := validate.Signup(email, password, confirm)
	if err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        normalizedEmail,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("account", normalizedEmail)
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// Login authenticates email/password credentials.
//
// A missing account and a wrong password both come back as the same
// Unauthorized message — distinguishing them would confirm to a prober
// which addresses have accounts here.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalizedEmail, err := validate.Login(email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		// GitHub-only account; there is no password to check.
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// LoginOrRegisterGitHub completes the GitHub OAuth callback: upsert the
// account keyed on the stable GitHub ID (insert on first login, refresh
// email on later ones), then issue a session.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		Email:    ghUser.Email,
		GitHubID: ghUser.ID,
	}
	if err := s.users.UpsertByGitHubID(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	return s.issueSession(user)
}

// Refresh issues a fresh token for an already-authenticated user and
// publishes a refresh event to the mirror.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.mirror.Refreshed(session.Principal{UserID: user.ID, Email: user.Email})

	return &AuthResult{User: user, Token: token}, nil
}

// Logout publishes a sign-out event. Cookie clearing is the handler's job;
// the JWT itself stays valid until expiry (stateless tokens have no
// server-side revocation list here).
func (s *AuthService) Logout(userID string) {
	s.mirror.SignedOut()
	s.logger.Info("user logged out", slog.String("userID", userID))
}

// GetUserByID returns the user for an internal ID. Used by /api/me after
// the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// issueSession generates the JWT and publishes the sign-in event.
func (s *AuthService) issueSession(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.mirror.SignedIn(session.Principal{UserID: user.ID, Email: user.Email})

	return &AuthResult{User: user, Token: token}, nil
}
