package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhkim/snipstash/internal/auth"
	"github.com/dhkim/snipstash/internal/service"
)

// ExportHandler serves the JSON backup download.
type ExportHandler struct {
	snippets *service.SnippetService
	authSvc  *service.AuthService
	logger   *slog.Logger
}

func NewExportHandler(snippets *service.SnippetService, authSvc *service.AuthService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{snippets: snippets, authSvc: authSvc, logger: logger}
}

// HandleExport streams the caller's full snippet collection as a JSON
// attachment named snippets-backup-YYYY-MM-DD.json.
//
// HTTP: GET /api/export
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.snippets.Export(r.Context(), userID, user.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("snippets-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		h.logger.Error("export: encoding failed", slog.String("error", err.Error()))
	}
}
