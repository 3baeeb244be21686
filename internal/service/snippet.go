// Package service contains the business logic layer.
//
// THE LAYERS:
//
//	Handler (HTTP)      → parses requests, writes responses
//	Service (this pkg)  → validates, enforces ownership, orchestrates
//	Repository (data)   → reads/writes SQLite
//
// Services accept plain values and context.Context, return domain models
// and apperror values, and know nothing about HTTP. They receive repository
// interfaces, never concrete drivers, so tests inject in-memory mocks.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhkim/snipstash/internal/apperror"
	"github.com/dhkim/snipstash/internal/config"
	"github.com/dhkim/snipstash/internal/model"
	"github.com/dhkim/snipstash/internal/repository"
	"github.com/dhkim/snipstash/internal/validate"
)

// tagFetchConcurrency bounds the per-snippet tag queries resolved in
// parallel during the fetch-join. SQLite serves them from one file; past a
// handful of workers extra goroutines just queue on the pool.
const tagFetchConcurrency = 8

// deleteAllConfirmation is the exact phrase the delete-everything
// operation requires. A typed confirmation replaces the blocking browser
// prompt the feature descends from.
const deleteAllConfirmation = "DELETE ALL"

// SnippetService handles snippet CRUD, the snippet/tag fetch-join, tag
// reconciliation, and export assembly.
type SnippetService struct {
	snippets repository.SnippetRepository
	tags     repository.TagRepository
	tagScope string
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService. tagScope is one of the
// config.TagScope* values and decides whether tag names are unique per
// owner or across all users.
func NewSnippetService(
	snippets repository.SnippetRepository,
	tags repository.TagRepository,
	tagScope string,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		tags:     tags,
		tagScope: tagScope,
		logger:   logger,
	}
}

// tagOwnerKey maps an owner to the key scoping tag-name uniqueness:
// the owner's ID under per-owner tags, "" under the global namespace.
func (s *SnippetService) tagOwnerKey(ownerID string) string {
	if s.tagScope == config.TagScopeGlobal {
		return ""
	}
	return ownerID
}

// Create validates, persists, and tags a new snippet for ownerID,
// returning the denormalized result.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in validate.SnippetInput) (*model.SnippetWithTags, error) {
	normalized, err := validate.Snippet(in)
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		OwnerID:     ownerID,
		Title:       normalized.Title,
		Description: normalized.Description,
		Code:        normalized.Code,
		Language:    normalized.Language,
		Favorite:    normalized.Favorite,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	tags, err := s.reconcileTags(ctx, snippet.ID, ownerID, normalized.Tags)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("owner", ownerID),
		slog.Int("tags", len(tags)),
	)

	return &model.SnippetWithTags{Snippet: *snippet, Tags: tags}, nil
}

// Update applies a full replacement payload to an existing snippet the
// caller owns, including its tag set.
func (s *SnippetService) Update(ctx context.Context, ownerID, id string, in validate.SnippetInput) (*model.SnippetWithTags, error) {
	snippet, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	normalized, err := validate.Snippet(in)
	if err != nil {
		return nil, err
	}

	snippet.Title = normalized.Title
	snippet.Description = normalized.Description
	snippet.Code = normalized.Code
	snippet.Language = normalized.Language
	snippet.Favorite = normalized.Favorite

	if err := s.snippets.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	tags, err := s.reconcileTags(ctx, snippet.ID, ownerID, normalized.Tags)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snippet updated", slog.String("id", id))

	return &model.SnippetWithTags{Snippet: *snippet, Tags: tags}, nil
}

// ToggleFavorite flips the favorite flag on a snippet the caller owns and
// returns the updated row.
func (s *SnippetService) ToggleFavorite(ctx context.Context, ownerID, id string) (*model.Snippet, error) {
	snippet, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	snippet.Favorite = !snippet.Favorite
	if err := s.snippets.SetFavorite(ctx, id, snippet.Favorite); err != nil {
		return nil, fmt.Errorf("toggling favorite: %w", err)
	}

	return snippet, nil
}

// Delete removes a snippet the caller owns. Association rows cascade in
// the store, so no orphaned links survive.
func (s *SnippetService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.getOwned(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// DeleteAll removes every snippet the caller owns. The confirmation phrase
// must match exactly — destructive, irreversible operations do not run on
// a stray click.
func (s *SnippetService) DeleteAll(ctx context.Context, ownerID, confirmation string) (int64, error) {
	if confirmation != deleteAllConfirmation {
		return 0, apperror.ValidationFailed("confirm",
			fmt.Sprintf("Type %q to confirm", deleteAllConfirmation))
	}

	deleted, err := s.snippets.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting all snippets: %w", err)
	}

	s.logger.Info("all snippets deleted",
		slog.String("owner", ownerID),
		slog.Int64("count", deleted),
	)
	return deleted, nil
}

// GetWithTags returns one snippet the caller owns, with its tag set
// resolved.
func (s *SnippetService) GetWithTags(ctx context.Context, ownerID, id string) (*model.SnippetWithTags, error) {
	snippet, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	joined := s.withTags(ctx, []model.Snippet{*snippet})
	return &joined[0], nil
}

// ListWithTags returns all of the owner's snippets, newest first, each
// with its resolved tag set. See withTags for the join semantics.
func (s *SnippetService) ListWithTags(ctx context.Context, ownerID string) ([]model.SnippetWithTags, error) {
	snippets, err := s.snippets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return s.withTags(ctx, snippets), nil
}

// ListByTag returns the caller's snippets linked to the given tag, newest
// first, with resolved tag sets. Snippets belonging to other owners (a
// possibility under the global tag namespace) are filtered out.
func (s *SnippetService) ListByTag(ctx context.Context, ownerID, tagID string) ([]model.SnippetWithTags, error) {
	tag, err := s.tags.GetByID(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if tag.OwnerKey != s.tagOwnerKey(ownerID) {
		return nil, apperror.Forbidden("tag belongs to another user")
	}

	ids, err := s.tags.SnippetIDsForTag(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("listing snippets for tag: %w", err)
	}

	snippets, err := s.snippets.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing snippets for tag: %w", err)
	}

	owned := snippets[:0]
	for _, sn := range snippets {
		if sn.OwnerID == ownerID {
			owned = append(owned, sn)
		}
	}

	return s.withTags(ctx, owned), nil
}

// ExportDocument is the JSON backup produced by Export: metadata plus the
// full denormalized snippet list. Assembled entirely from already-fetched
// data — there is no separate export storage format.
type ExportDocument struct {
	ExportedAt    time.Time               `json:"exportedAt"`
	Email         string                  `json:"email"`
	SnippetsCount int                     `json:"snippetsCount"`
	Snippets      []model.SnippetWithTags `json:"snippets"`
}

// Export builds the backup document for the owner.
func (s *SnippetService) Export(ctx context.Context, ownerID, email string) (*ExportDocument, error) {
	snippets, err := s.ListWithTags(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("exporting snippets: %w", err)
	}

	s.logger.Info("snippets exported",
		slog.String("owner", ownerID),
		slog.Int("count", len(snippets)),
	)

	return &ExportDocument{
		ExportedAt:    time.Now().UTC(),
		Email:         email,
		SnippetsCount: len(snippets),
		Snippets:      snippets,
	}, nil
}

// getOwned fetches a snippet and verifies the caller owns it. Returns
// NotFound for missing rows and Forbidden for rows owned by someone else —
// two different answers, because "that's not yours" should not masquerade
// as "that doesn't exist" in logs. The handler maps both to non-200s.
func (s *SnippetService) getOwned(ctx context.Context, ownerID, id string) (*model.Snippet, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "Snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.OwnerID != ownerID {
		return nil, apperror.Forbidden("snippet belongs to another user")
	}
	return snippet, nil
}

// withTags performs the fetch-join: for each snippet, independently and
// concurrently, resolve its tag associations to Tag values.
//
// Guarantees, in order of importance:
//   - result length equals len(snippets), in the same order
//   - a failed per-snippet tag query degrades that snippet's tag set to
//     empty (logged) rather than failing the whole batch
//   - each tag set reflects the association table at the moment its query
//     ran, which under concurrent mutation may lag the snippet row; that
//     staleness is accepted, not corrected
func (s *SnippetService) withTags(ctx context.Context, snippets []model.Snippet) []model.SnippetWithTags {
	joined := make([]model.SnippetWithTags, len(snippets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tagFetchConcurrency)

	for i, snippet := range snippets {
		g.Go(func() error {
			tags, err := s.tags.TagsForSnippet(gctx, snippet.ID)
			if err != nil {
				s.logger.Warn("failed to resolve snippet tags, degrading to empty set",
					slog.String("snippet", snippet.ID),
					slog.String("error", err.Error()),
				)
				tags = []model.Tag{}
			}
			joined[i] = model.SnippetWithTags{Snippet: snippet, Tags: tags}
			return nil
		})
	}

	// The goroutines never return errors (degradation, not failure), so
	// Wait only synchronizes.
	_ = g.Wait()

	return joined
}

// reconcileTags makes the snippet's association set match names exactly.
//
// names arrive validated, case-folded, and de-duplicated (validate.Snippet
// guarantees this). Each name is resolved or created atomically — the
// repository's upsert returns the surviving row even when a concurrent
// writer creates the same name first. The link set is then replaced in a
// single transaction, so a failure leaves the previous set intact rather
// than a half-written one.
//
// Post-condition: exactly one link per distinct name, no duplicates, no
// leftovers from the prior set.
func (s *SnippetService) reconcileTags(ctx context.Context, snippetID, ownerID string, names []string) ([]model.Tag, error) {
	key := s.tagOwnerKey(ownerID)

	tags := make([]model.Tag, 0, len(names))
	tagIDs := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := s.tags.UpsertByName(ctx, key, name)
		if err != nil {
			return nil, fmt.Errorf("resolving tag %q: %w", name, err)
		}
		tags = append(tags, *tag)
		tagIDs = append(tagIDs, tag.ID)
	}

	if err := s.tags.ReplaceSnippetLinks(ctx, snippetID, tagIDs); err != nil {
		return nil, fmt.Errorf("replacing tag links: %w", err)
	}

	return tags, nil
}
