package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/scriptdesk/internal/document"
	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/types"
)

// maxJSONBodyBytes bounds goal request bodies and is the floor for script
// bodies.
const maxJSONBodyBytes = 1 << 20

// scriptBodyHeadroom covers the fields of a script body other than content.
const scriptBodyHeadroom = 64 << 10

// scriptBodyLimit bounds POST and PUT /api/scripts bodies. It scales with the
// upload limit because converted documents are saved through these routes.
func scriptBodyLimit(maxUploadBytes int64) int64 {
	return max(maxJSONBodyBytes, 4*maxUploadBytes+scriptBodyHeadroom)
}

// Converter turns an uploaded document into script content.
type Converter interface {
	Convert(ctx context.Context, data []byte, mimeType string) (*document.Result, error)
}

// Catalog serves starter script templates.
type Catalog interface {
	List(category types.ScriptCategory) []types.Template
	All() []types.Template
}

// Handler implements the API handlers
type Handler struct {
	store          store.Store
	converter      Converter
	catalog        Catalog
	version        string
	maxUploadBytes int64
	maxScriptBody  int64
}

// NewHandler creates a new Handler with store.Store interface
func NewHandler(s store.Store, conv Converter, cat Catalog, version string, maxUploadBytes int64) *Handler {
	return &Handler{
		store:          s,
		converter:      conv,
		catalog:        cat,
		version:        version,
		maxUploadBytes: maxUploadBytes,
		maxScriptBody:  scriptBodyLimit(maxUploadBytes),
	}
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health stats failed", "request_id", GetRequestID(r.Context()), "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		ScriptCount: stats.ScriptCount,
	})
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a JSON body of at most limit bytes into dst. On failure it
// writes the problem response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	body := http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		WriteProblem(w, r, http.StatusBadRequest, "Request body is required")
	default:
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
	}
	return false
}
