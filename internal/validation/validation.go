package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateText rejects values SQLite TEXT columns and JSON clients cannot
// round-trip: invalid UTF-8 and embedded NUL bytes.
func ValidateText(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return invalid(field, "must be valid UTF-8")
	}
	if strings.ContainsRune(value, 0) {
		return invalid(field, "must not contain null bytes")
	}
	return nil
}

// ValidateID returns an error unless value parses as a ULID. Case is ignored.
func ValidateID(field, value string) *ValidationError {
	if _, err := ulid.ParseStrict(value); err != nil {
		return invalid(field, "must be a valid ULID (26 characters)")
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// ValidatePresent returns an error if a required optional-typed value is nil.
func ValidatePresent[T any](field string, value *T) *ValidationError {
	if value == nil {
		return invalid(field, "is required")
	}
	return nil
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if value < min || value > max {
		return invalid(field, "must be between %g and %g", min, max)
	}
	return nil
}
