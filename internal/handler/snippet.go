// Package handler contains the HTTP layer: request parsing, response
// writing, and nothing else. Business rules live in internal/service.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dhkim/snipstash/internal/auth"
	"github.com/dhkim/snipstash/internal/service"
	"github.com/dhkim/snipstash/internal/validate"
	"github.com/dhkim/snipstash/internal/view"
)

// SnippetHandler serves the snippet CRUD endpoints plus the filtered/
// sorted listing and the stats endpoint.
//
// The listing applies view.Filter and view.Sort server-side from query
// parameters; the view package itself stays pure, the handler just feeds
// it.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleList returns the caller's snippets with tags resolved.
//
// HTTP: GET /api/snippets?q=&language=&favorites=&sort=
//
//	q         free-text query over title/description/code/tags
//	language  exact language, or "all"/empty for any
//	favorites "true" to keep only favorites
//	sort      newest | oldest | title-asc | title-desc | language
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.snippets.ListWithTags(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filtered := view.Filter(snippets, view.Query{
		Text:          q.Get("q"),
		Language:      q.Get("language"),
		FavoritesOnly: q.Get("favorites") == "true",
	})
	sorted := view.Sort(filtered, view.ParseSortKey(q.Get("sort")))

	writeJSON(w, http.StatusOK, sorted)
}

// HandleStats returns aggregate statistics over the caller's full snippet
// list (unfiltered — the dashboard cards describe the whole collection).
//
// HTTP: GET /api/snippets/stats
func (h *SnippetHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.snippets.ListWithTags(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Stats(snippets))
}

// HandleGetByID returns a single snippet with tags.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.GetWithTags(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate stores a new snippet.
//
// HTTP: POST /api/snippets
// BODY: {"title":..., "description":..., "code":..., "language":..., "tags":[...], "favorite":false}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in validate.SnippetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "bad_request", Message: "Invalid JSON body",
		})
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces a snippet's content and tag set.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in validate.SnippetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "bad_request", Message: "Invalid JSON body",
		})
		return
	}

	snippet, err := h.snippets.Update(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleToggleFavorite flips the favorite flag.
//
// HTTP: PATCH /api/snippets/{id}/favorite
func (h *SnippetHandler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.ToggleFavorite(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes one snippet.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteAll removes every snippet the caller owns. The body must
// carry the typed confirmation phrase; anything else is a validation
// failure.
//
// HTTP: DELETE /api/snippets
// BODY: {"confirm":"DELETE ALL"}
func (h *SnippetHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var body struct {
		Confirm string `json:"confirm"`
	}
	// An empty or malformed body just fails the confirmation check below.
	_ = json.NewDecoder(r.Body).Decode(&body)

	deleted, err := h.snippets.DeleteAll(r.Context(), userID, body.Confirm)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
