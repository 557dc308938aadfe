package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/scriptdesk/internal/document"
	"github.com/hyperengineering/scriptdesk/internal/store"
	"github.com/hyperengineering/scriptdesk/internal/validation"
)

// problemBaseURI prefixes every RFC 7807 type URI.
const problemBaseURI = "https://scriptdesk.dev/errors/"

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	slug  string
	title string
}

// problemTypes maps HTTP status codes to RFC 7807 type slugs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest:            {"bad-request", "Bad Request"},
	http.StatusUnauthorized:          {"unauthorized", "Unauthorized"},
	http.StatusNotFound:              {"not-found", "Not Found"},
	http.StatusRequestEntityTooLarge: {"payload-too-large", "Payload Too Large"},
	http.StatusUnprocessableEntity:   {"unprocessable", "Unprocessable Entity"},
	http.StatusTooManyRequests:       {"rate-limit", "Too Many Requests"},
	http.StatusInternalServerError:   {"internal-error", "Internal Server Error"},
}

func lookupProblemType(status int) problemType {
	if pt, ok := problemTypes[status]; ok {
		return pt
	}
	return problemType{slug: "unknown", title: http.StatusText(status)}
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt := lookupProblemType(status)
	return Problem{
		Type:     problemBaseURI + pt.slug,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 400 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemBody(w, http.StatusBadRequest, ProblemWithErrors{
		Problem: newProblem(r, http.StatusBadRequest, detail),
		Errors:  errs,
	})
}

// MapStoreError converts domain errors to Problem Details responses.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Script not found")
	case errors.Is(err, store.ErrInvalidOwner):
		WriteProblem(w, r, http.StatusBadRequest, "teamId or memberId is required")
	case errors.Is(err, store.ErrInvalidCategory):
		WriteProblem(w, r, http.StatusBadRequest, "Unknown script category")
	case errors.Is(err, store.ErrEmptyPatch):
		WriteProblem(w, r, http.StatusBadRequest, "No fields to update")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

// MapConvertError converts document conversion errors to Problem Details responses.
func MapConvertError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, document.ErrUnsupportedType):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Unsupported file type")
	case errors.Is(err, document.ErrConversionFailed):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Could not process file")
	default:
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
