package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/hyperengineering/scriptdesk/internal/document"
	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/types"
	"github.com/hyperengineering/scriptdesk/internal/validation"
)

// normalizeID trims a script ID and folds it to the canonical ULID case.
func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ListScripts handles GET /api/scripts
func (h *Handler) ListScripts(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromQuery(r)
	category := types.ScriptCategory(r.URL.Query().Get("category"))

	var c validation.Collector
	c.Add(validation.ValidateOwner(owner))
	if category != "" {
		c.Add(validation.ValidateCategory("category", category))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	scripts, err := h.store.ListScripts(r.Context(), owner, category)
	if err != nil {
		requestLogger(r, owner).Error("list scripts failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	if scripts == nil {
		scripts = []types.Script{}
	}

	writeJSON(w, http.StatusOK, scripts)
}

// CreateScript handles POST /api/scripts
func (h *Handler) CreateScript(w http.ResponseWriter, r *http.Request) {
	var req types.CreateScriptRequest
	if !decodeJSON(w, r, &req, h.maxScriptBody) {
		return
	}

	if errs := validation.ValidateCreateScript(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	owner := req.Owner()
	script, err := h.store.CreateScript(r.Context(), types.NewScript{
		Owner:      owner,
		Name:       req.Name,
		Content:    req.Content,
		Category:   req.Category,
		IsPrimary:  req.IsPrimary,
		IsSelected: req.IsSelected,
	})
	if err != nil {
		requestLogger(r, owner).Error("create script failed", "category", req.Category, "error", err)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, script)
}

// UpdateScript handles PUT /api/scripts
func (h *Handler) UpdateScript(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateScriptRequest
	if !decodeJSON(w, r, &req, h.maxScriptBody) {
		return
	}

	if errs := validation.ValidateUpdateScript(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	owner := req.Owner()
	id := normalizeID(req.ID)
	script, err := h.store.UpdateScript(r.Context(), id, owner, req.Patch())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			requestLogger(r, owner).Error("update script failed", "script_id", id, "error", err)
		}
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, script)
}

// DeleteScript handles DELETE /api/scripts
func (h *Handler) DeleteScript(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromQuery(r)
	id := normalizeID(r.URL.Query().Get("id"))

	if errs := validation.ValidateScriptLocator(id, owner); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := h.store.DeleteScript(r.Context(), id, owner); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			requestLogger(r, owner).Error("delete script failed", "script_id", id, "error", err)
		}
		MapStoreError(w, r, err)
		return
	}

	requestLogger(r, owner).Info("script deleted", "script_id", id)
	writeJSON(w, http.StatusOK, types.DeleteResponse{Success: true})
}

// ConvertDocument handles POST /api/scripts/convert. The multipart "file"
// part is converted to script content; nothing is stored.
func (h *Handler) ConvertDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			WriteProblem(w, r, http.StatusRequestEntityTooLarge, "File exceeds the upload limit")
			return
		}
		WriteProblem(w, r, http.StatusBadRequest, "Expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "file", Message: "is required"},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	mimeType := document.DetectType(header.Filename, header.Header.Get("Content-Type"))
	result, err := h.converter.Convert(r.Context(), data, mimeType)
	if err != nil {
		requestLogger(r, types.Owner{}).Warn("document conversion failed",
			"mime_type", mimeType, "size_bytes", len(data), "error", err)
		MapConvertError(w, r, err)
		return
	}

	// Converted content must fit a script body once JSON-encoded.
	encoded, err := json.Marshal(result.Content)
	if err != nil || int64(len(encoded))+scriptBodyHeadroom > h.maxScriptBody {
		requestLogger(r, types.Owner{}).Warn("converted content too large",
			"mime_type", mimeType, "size_bytes", len(data), "content_bytes", len(result.Content))
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, "Converted content exceeds the script size limit")
		return
	}

	writeJSON(w, http.StatusOK, types.ConvertResponse{
		Name:    header.Filename,
		Content: result.Content,
		Format:  string(result.Format),
	})
}

// ListTemplates handles GET /api/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	category := types.ScriptCategory(r.URL.Query().Get("category"))
	if category == "" {
		writeJSON(w, http.StatusOK, types.TemplatesResponse{Templates: h.catalog.All()})
		return
	}

	if err := validation.ValidateCategory("category", category); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*err})
		return
	}

	writeJSON(w, http.StatusOK, types.TemplatesResponse{Templates: h.catalog.List(category)})
}
