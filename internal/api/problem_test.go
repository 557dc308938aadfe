package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperengineering/scriptdesk/internal/document"
	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/validation"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) ProblemWithErrors {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v (body %s)", err, w.Body.String())
	}
	return p
}

func TestWriteProblem_BodyFormat(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/scripts", nil)

	WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	p := decodeProblem(t, w)
	if p.Type != "https://scriptdesk.dev/errors/unauthorized" {
		t.Errorf("type = %q", p.Type)
	}
	if p.Title != "Unauthorized" || p.Status != 401 || p.Instance != "/api/scripts" {
		t.Errorf("problem = %+v", p.Problem)
	}
	if p.Detail != "Missing or invalid API key" {
		t.Errorf("detail = %q", p.Detail)
	}
}

func TestWriteProblem_TypeURIs(t *testing.T) {
	tests := []struct {
		status int
		slug   string
	}{
		{http.StatusBadRequest, "bad-request"},
		{http.StatusNotFound, "not-found"},
		{http.StatusRequestEntityTooLarge, "payload-too-large"},
		{http.StatusUnprocessableEntity, "unprocessable"},
		{http.StatusTooManyRequests, "rate-limit"},
		{http.StatusInternalServerError, "internal-error"},
		{http.StatusTeapot, "unknown"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteProblem(w, httptest.NewRequest(http.MethodGet, "/api/health", nil), tt.status, "x")

			p := decodeProblem(t, w)
			if want := problemBaseURI + tt.slug; p.Type != want {
				t.Errorf("type = %q, want %q", p.Type, want)
			}
			if p.Title == "" {
				t.Error("title is empty")
			}
		})
	}
}

func TestWriteProblemWithErrors_400(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/scripts", nil)

	WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
		{Field: "category", Message: "must be one of: Wholesaling"},
		{Field: "teamId", Message: "teamId or memberId is required"},
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", w.Code)
	}
	p := decodeProblem(t, w)
	if len(p.Errors) != 2 || p.Errors[0].Field != "category" || p.Errors[1].Field != "teamId" {
		t.Errorf("errors = %+v", p.Errors)
	}
}

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("update: %w", store.ErrNotFound), http.StatusNotFound},
		{"invalid owner", store.ErrInvalidOwner, http.StatusBadRequest},
		{"invalid category", store.ErrInvalidCategory, http.StatusBadRequest},
		{"empty patch", store.ErrEmptyPatch, http.StatusBadRequest},
		{"unknown", errors.New("database is locked: /var/lib/scriptdesk.db"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MapStoreError(w, httptest.NewRequest(http.MethodPut, "/api/scripts", nil), tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if strings.Contains(w.Body.String(), "database is locked") {
				t.Errorf("internal error leaked: %s", w.Body.String())
			}
		})
	}
}

func TestMapConvertError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{fmt.Errorf("%w: pdf", document.ErrUnsupportedType), http.StatusUnprocessableEntity, "Unsupported file type"},
		{fmt.Errorf("%w: zip", document.ErrConversionFailed), http.StatusUnprocessableEntity, "Could not process file"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		MapConvertError(w, httptest.NewRequest(http.MethodPost, "/api/scripts/convert", nil), tt.err)

		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
		if p := decodeProblem(t, w); p.Detail != tt.detail {
			t.Errorf("%v: detail = %q, want %q", tt.err, p.Detail, tt.detail)
		}
	}
}
