package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dhkim/snipstash/internal/auth"
	"github.com/dhkim/snipstash/internal/service"
)

// TagHandler serves the tags overview: listing with counts, per-tag
// snippet drill-down, rename, and delete.
type TagHandler struct {
	tags     *service.TagService
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewTagHandler creates a TagHandler. It takes both services: tag
// management from TagService, the per-tag snippet listing from
// SnippetService (it is a snippet query that happens to start from a tag).
func NewTagHandler(tags *service.TagService, snippets *service.SnippetService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, snippets: snippets, logger: logger}
}

// HandleList returns the caller's tags with usage counts, alphabetically.
//
// HTTP: GET /api/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	tags, err := h.tags.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}

// HandleSnippetsByTag returns the caller's snippets linked to one tag.
//
// HTTP: GET /api/tags/{id}/snippets
func (h *TagHandler) HandleSnippetsByTag(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.snippets.ListByTag(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleRename changes a tag's name.
//
// HTTP: PUT /api/tags/{id}
// BODY: {"name":"new-name"}
func (h *TagHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "bad_request", Message: "Invalid JSON body",
		})
		return
	}

	tag, err := h.tags.Rename(r.Context(), userID, r.PathValue("id"), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tag)
}

// HandleDelete removes a tag; snippets linked to it keep their other tags.
//
// HTTP: DELETE /api/tags/{id}
func (h *TagHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.tags.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
