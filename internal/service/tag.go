// Package service — tag management.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dhkim/snipstash/internal/apperror"
	"github.com/dhkim/snipstash/internal/config"
	"github.com/dhkim/snipstash/internal/model"
	"github.com/dhkim/snipstash/internal/repository"
	"github.com/dhkim/snipstash/internal/validate"
)

// TagService handles the tags overview: listing with usage counts,
// renaming, and deleting. Tag creation happens implicitly through snippet
// reconciliation, never directly.
type TagService struct {
	tags     repository.TagRepository
	tagScope string
	logger   *slog.Logger
}

// NewTagService creates a TagService. tagScope follows the same
// config.TagScope* convention as SnippetService.
func NewTagService(tags repository.TagRepository, tagScope string, logger *slog.Logger) *TagService {
	return &TagService{
		tags:     tags,
		tagScope: tagScope,
		logger:   logger,
	}
}

func (s *TagService) tagOwnerKey(ownerID string) string {
	if s.tagScope == config.TagScopeGlobal {
		return ""
	}
	return ownerID
}

// List returns the caller's visible tags alphabetically, each with its
// snippet usage count. Under the global namespace every user sees the
// whole shared set — that is the namespace choice, not a leak.
func (s *TagService) List(ctx context.Context, ownerID string) ([]model.TagWithCount, error) {
	tags, err := s.tags.ListByOwner(ctx, s.tagOwnerKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// Rename validates and applies a new name to a tag the caller may manage.
// The name is folded through the same rules as reconciliation, so a rename
// can never produce a tag that snippet submission couldn't. A clash with
// an existing tag is a Conflict — merging is a separate decision the user
// has to make by retagging.
func (s *TagService) Rename(ctx context.Context, ownerID, tagID, newName string) (*model.Tag, error) {
	name, err := validate.TagName(newName)
	if err != nil {
		return nil, err
	}

	if _, err := s.getManaged(ctx, ownerID, tagID); err != nil {
		return nil, err
	}

	tag, err := s.tags.Rename(ctx, tagID, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tag renamed",
		slog.String("id", tagID),
		slog.String("name", name),
	)
	return tag, nil
}

// Delete removes a tag the caller may manage. Its snippet links cascade;
// the snippets themselves are untouched.
func (s *TagService) Delete(ctx context.Context, ownerID, tagID string) error {
	if _, err := s.getManaged(ctx, ownerID, tagID); err != nil {
		return err
	}

	if err := s.tags.Delete(ctx, tagID); err != nil {
		return err
	}

	s.logger.Info("tag deleted", slog.String("id", tagID))
	return nil
}

// getManaged fetches a tag and checks the caller may manage it. Under the
// global namespace the owner key is "" for everyone, so every tag passes —
// matching the shared-namespace semantics that scope opts into.
func (s *TagService) getManaged(ctx context.Context, ownerID, tagID string) (*model.Tag, error) {
	if tagID == "" {
		return nil, apperror.ValidationFailed("id", "Tag ID is required")
	}

	tag, err := s.tags.GetByID(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if tag.OwnerKey != s.tagOwnerKey(ownerID) {
		return nil, apperror.Forbidden("tag belongs to another user")
	}
	return tag, nil
}
