package editor

import (
	"fmt"
	"strings"

	"github.com/mapleerp/employee-portal/pkg/errors"
)

// Mode is the editing state of a session
type Mode string

const (
	ModeNew  Mode = "new"
	ModeEdit Mode = "edit"
)

// Result is the outcome of validating one field
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Valid is the passing result
func Valid() Result { return Result{Valid: true} }

// Invalid is a failing result with a user-facing reason
func Invalid(reason string) Result { return Result{Reason: reason} }

// IssueKind classifies a local validation failure
type IssueKind string

const (
	RequiredFieldMissing IssueKind = "REQUIRED_FIELD_MISSING"
	InvalidValue         IssueKind = "INVALID_VALUE"
)

// Issue is one local validation failure
type Issue struct {
	Field  string    `json:"field"`
	Kind   IssueKind `json:"kind"`
	Reason string    `json:"reason"`
}

// ValidationError blocks a submission before any request is made.
// Focus is the first invalid field in form order.
type ValidationError struct {
	Issues []Issue `json:"issues"`
	Focus  string  `json:"focus"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		fields[i] = is.Field
	}
	return fmt.Sprintf("local validation failed: %s", strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error { return errors.ErrLocalValidation }

// Missing lists fields reported as RequiredFieldMissing
func (e *ValidationError) Missing() []string {
	var out []string
	for _, is := range e.Issues {
		if is.Kind == RequiredFieldMissing {
			out = append(out, is.Field)
		}
	}
	return out
}

// Has reports whether field has an issue of the given kind
func (e *ValidationError) Has(field string, kind IssueKind) bool {
	for _, is := range e.Issues {
		if is.Field == field && is.Kind == kind {
			return true
		}
	}
	return false
}

func (e *ValidationError) appError() *errors.AppError {
	details := make(map[string]string, len(e.Issues))
	for _, is := range e.Issues {
		details[is.Field] = is.Reason
	}
	return errors.LocalValidation(e, details)
}

// AsValidationError extracts the field issues from a submission error
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
