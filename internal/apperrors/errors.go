package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the service, repository and API layers.
// Compare with errors.Is; callers may wrap them with extra context.
var (
	ErrNotFound          = errors.New("not_found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
	ErrInUse             = errors.New("in_use")
	ErrInvalidTransition = errors.New("invalid_transition")
)

// Error codes returned to API clients.
const (
	CodeInvalidPayload    = "invalid_payload"
	CodeValidation        = "validation_error"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeConflict          = "row_version_conflict"
	CodeInUse             = "in_use"
	CodeInvalidTransition = "invalid_transition"
	CodeInternal          = "internal_server_error"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError accumulates field-level failures. A request that
// produces one is rejected as a whole.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failure for field.
func (v *ValidationError) Add(field, message, code string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message, Code: code})
}

// HasErrors reports whether any field failed.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// Has reports whether field has at least one recorded failure.
func (v *ValidationError) Has(field string) bool {
	if v == nil {
		return false
	}
	for _, f := range v.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Merge appends the failures carried by err when it is a
// *ValidationError and reports whether it was one.
func (v *ValidationError) Merge(err error) bool {
	other, ok := AsValidation(err)
	if !ok {
		return false
	}
	v.Fields = append(v.Fields, other.Fields...)
	return true
}

// OrNil returns v as an error when it carries failures, nil otherwise.
// It avoids the typed-nil-in-interface trap at call sites.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// Field builds a ValidationError carrying a single failure.
func Field(field, message, code string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message, code)
	return v
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
