package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mapleerp/employee-portal/pkg/i18n"
)

// Error codes
const (
	CodeNetwork         = "NETWORK_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeServer          = "SERVER_ERROR"
	CodeUnavailable     = "UNAVAILABLE"
	CodeGeneric         = "GENERIC_ERROR"
	CodeLocalValidation = "LOCAL_VALIDATION"
	CodeInvalidFormat   = "CEP_INVALID_FORMAT"
	CodeLookupNotFound  = "CEP_NOT_FOUND"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternal        = "INTERNAL_ERROR"
	CodeFeatureDisabled = "FEATURE_DISABLED"
)

// Standard error types
var (
	ErrNetwork         = errors.New("network error")
	ErrValidation      = errors.New("validation error")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource conflict")
	ErrServer          = errors.New("server error")
	ErrUnavailable     = errors.New("service unavailable")
	ErrGeneric         = errors.New("unexpected status")
	ErrLocalValidation = errors.New("local validation failed")
	ErrInvalidFormat   = errors.New("invalid postal code format")
	ErrLookupNotFound  = errors.New("postal code not found")
	ErrUpstream        = errors.New("upstream error")
	ErrBadRequest      = errors.New("bad request")
	ErrInternal        = errors.New("internal error")
	ErrFeatureDisabled = errors.New("feature disabled")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`

	// UpstreamStatus is the HTTP status returned by the backend, 0 for transport failures.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize renders the message in the request locale. Errors built from a
// literal message, e.g. a backend validation text, are returned unchanged.
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// LocalizeWith renders the message with l, for callers without a request context
func (e *AppError) LocalizeWith(l *i18n.Localizer) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return l.T(e.MessageKey, e.Params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithKey creates a new AppError with an i18n key
func NewWithKey(code string, messageKey string, statusCode int, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	return &AppError{
		Code:       code,
		Message:    i18n.T(messageKey, p),
		MessageKey: messageKey,
		Params:     p,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Messages holds the configurable fallback texts used by FromStatus.
type Messages struct {
	Default string
	Network string
	Server  string
}

func (m Messages) pick(configured, key string) (string, string) {
	if configured != "" {
		return configured, ""
	}
	return i18n.T(key), key
}

// FromStatus maps a backend HTTP status onto the error taxonomy.
// Status 0 means the request never produced a response.
// backendMsg is the message found in the backend body, if any.
func FromStatus(status int, backendMsg string, m Messages) *AppError {
	e := &AppError{UpstreamStatus: status}

	switch status {
	case 0:
		e.Err, e.Code, e.StatusCode = ErrNetwork, CodeNetwork, http.StatusBadGateway
		e.Message, e.MessageKey = m.pick(m.Network, "errors.network")
	case http.StatusBadRequest:
		e.Err, e.Code, e.StatusCode = ErrValidation, CodeValidation, http.StatusBadRequest
		if backendMsg != "" {
			e.Message = backendMsg
		} else {
			e.Message, e.MessageKey = i18n.T("errors.validation"), "errors.validation"
		}
	case http.StatusForbidden:
		e.Err, e.Code, e.StatusCode = ErrForbidden, CodeForbidden, http.StatusForbidden
		e.Message, e.MessageKey = i18n.T("errors.forbidden"), "errors.forbidden"
	case http.StatusNotFound:
		e.Err, e.Code, e.StatusCode = ErrNotFound, CodeNotFound, http.StatusNotFound
		e.Message, e.MessageKey = i18n.T("errors.not_found"), "errors.not_found"
	case http.StatusConflict:
		e.Err, e.Code, e.StatusCode = ErrConflict, CodeConflict, http.StatusConflict
		e.Message, e.MessageKey = i18n.T("errors.conflict"), "errors.conflict"
	case http.StatusInternalServerError:
		e.Err, e.Code, e.StatusCode = ErrServer, CodeServer, http.StatusBadGateway
		e.Message, e.MessageKey = m.pick(m.Server, "errors.server")
	case http.StatusServiceUnavailable:
		e.Err, e.Code, e.StatusCode = ErrUnavailable, CodeUnavailable, http.StatusServiceUnavailable
		e.Message, e.MessageKey = i18n.T("errors.unavailable"), "errors.unavailable"
	default:
		msg := backendMsg
		if msg == "" {
			msg, _ = m.pick(m.Default, "errors.default")
		}
		params := map[string]string{"status": strconv.Itoa(status), "message": msg}
		e.Err, e.Code, e.StatusCode = ErrGeneric, CodeGeneric, http.StatusBadGateway
		e.Message = i18n.T("errors.generic_status", params)
		e.MessageKey, e.Params = "errors.generic_status", params
	}

	return e
}

// keyed builds an AppError whose message is looked up again per request locale
func keyed(sentinel error, code, messageKey string, statusCode int) *AppError {
	return &AppError{
		Err:        sentinel,
		Code:       code,
		Message:    i18n.T(messageKey),
		MessageKey: messageKey,
		StatusCode: statusCode,
	}
}

func NotFound(messageKey string) *AppError {
	return keyed(ErrNotFound, CodeNotFound, messageKey, http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       CodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// BadRequestWithKey creates a bad request error whose message is the localized key
func BadRequestWithKey(messageKey string, params ...map[string]string) *AppError {
	e := NewWithKey(CodeBadRequest, messageKey, http.StatusBadRequest, params...)
	e.Err = ErrBadRequest
	return e
}

func Conflict(messageKey string) *AppError {
	return keyed(ErrConflict, CodeConflict, messageKey, http.StatusConflict)
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       CodeInternal,
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

// Validation reports request-level validation failures (bad DTOs)
func Validation(details map[string]string) *AppError {
	return keyed(ErrValidation, CodeValidation, "validation.failed", http.StatusBadRequest).WithDetails(details)
}

// LocalValidation reports form validation failures detected before any network call.
// cause, when non-nil, should itself wrap ErrLocalValidation.
func LocalValidation(cause error, details map[string]string) *AppError {
	if cause == nil {
		cause = ErrLocalValidation
	}
	return keyed(cause, CodeLocalValidation, "validation.failed", http.StatusUnprocessableEntity).WithDetails(details)
}

// InvalidFormat reports a postal code rejected before lookup
func InvalidFormat(messageKey string) *AppError {
	return keyed(ErrInvalidFormat, CodeInvalidFormat, messageKey, http.StatusBadRequest)
}

func LookupNotFound() *AppError {
	return keyed(ErrLookupNotFound, CodeLookupNotFound, "cep.not_found", http.StatusNotFound)
}

// Network wraps a transport failure. err stays reachable through errors.Is,
// so a cancelled context still matches context.Canceled.
func Network(err error, message string) *AppError {
	e := FromStatus(0, "", Messages{Network: message})
	if err != nil {
		e.Err = fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return e
}

// Upstream reports an unexpected HTTP failure from a third-party service
func Upstream(status int, message string) *AppError {
	if message == "" {
		message = i18n.T("cep.lookup_failed")
	}
	return &AppError{
		Err:            ErrUpstream,
		Code:           CodeUpstream,
		Message:        message,
		StatusCode:     http.StatusBadGateway,
		UpstreamStatus: status,
	}
}

// FeatureDisabled answers 404 so a disabled route looks absent to the frontend
func FeatureDisabled() *AppError {
	return keyed(ErrFeatureDisabled, CodeFeatureDisabled, "errors.feature_disabled", http.StatusNotFound)
}

// Is and As forward to the standard library so callers need one errors import
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// CodeOf returns the AppError code carried by err, or "" when err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
