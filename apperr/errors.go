// Package apperr defines the error kinds shared by the use cases and the
// HTTP layer, and the single mapping from those kinds to responses.
// Callers match kinds with errors.Is and read field maps with errors.As.
package apperr

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidFile        = errors.New("invalid file")
	ErrInvalidType        = errors.New("invalid type")
	ErrInternal           = errors.New("internal error")
)

// FieldError carries per-field messages for user-correctable errors.
type FieldError struct {
	Kind   error
	Fields map[string]string
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Kind.Error() + ": " + strings.Join(keys, ", ")
}

func (e *FieldError) Unwrap() error { return e.Kind }

// Validation returns a field-keyed ErrValidation, or nil for an empty map.
func Validation(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &FieldError{Kind: ErrValidation, Fields: fields}
}

// Conflict returns a field-keyed ErrConflict.
func Conflict(fields map[string]string) error {
	return &FieldError{Kind: ErrConflict, Fields: fields}
}

// Fields extracts the field map from err, if any.
func Fields(err error) map[string]string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

// Body is the JSON shape of every error response.
type Body struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Response maps err to an HTTP status and body. Unknown errors become a
// generic 500 without internal detail.
func Response(err error) (int, Body) {
	fields := Fields(err)
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, Body{Code: "validation", Message: "Invalid input.", Fields: fields}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, Body{Code: "conflict", Message: "Resource already exists or was changed concurrently.", Fields: fields}
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, Body{Code: "invalid_credentials", Message: "Invalid username or password."}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, Body{Code: "unauthorized", Message: "Authentication required."}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, Body{Code: "forbidden", Message: "Do not have an authorization."}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, Body{Code: "not_found", Message: "Resource not found."}
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest, Body{Code: "invalid_file", Message: "Invalid file."}
	case errors.Is(err, ErrInvalidType):
		return http.StatusBadRequest, Body{Code: "invalid_type", Message: "Invalid type."}
	default:
		return http.StatusInternalServerError, Body{Code: "internal", Message: "Error occurred."}
	}
}
