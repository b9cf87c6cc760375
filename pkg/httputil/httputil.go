package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/i18n"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Notice  string      `json:"notice,omitempty"`
}

// ErrorBody represents an error in the response
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	Page    int   `json:"page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
	HasMore bool  `json:"has_more"`
}

// maxJSONBody caps editor and validation request bodies
const maxJSONBody = 1 << 20

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, Response{Success: ok(statusCode), Data: data})
}

// JSONWithMeta sends a list page with its pagination meta
func JSONWithMeta(w http.ResponseWriter, statusCode int, data interface{}, meta *Meta) {
	write(w, statusCode, Response{Success: ok(statusCode), Data: data, Meta: meta})
}

// JSONWithNotice sends data with the transient notice the frontend shows as a toast
func JSONWithNotice(w http.ResponseWriter, statusCode int, data interface{}, notice string) {
	write(w, statusCode, Response{Success: ok(statusCode), Data: data, Notice: notice})
}

func ok(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func write(w http.ResponseWriter, statusCode int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// ErrorLocalized sends a localized error response using request context
func ErrorLocalized(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		write(w, appErr.StatusCode, Response{
			Success: false,
			Error: &ErrorBody{
				Code:    appErr.Code,
				Message: appErr.Localize(r.Context()),
				Details: appErr.Details,
			},
		})
		return
	}

	write(w, http.StatusInternalServerError, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    errors.CodeInternal,
			Message: i18n.TFromContext(r.Context(), "errors.internal"),
		},
	})
}

// File sends a download. Names with accents, e.g. "cracha_João_Silva_1.pdf",
// get an ASCII fallback plus an RFC 6266 filename* parameter.
func File(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func attachment(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return '_'
		}
		return r
	}, name)
	if fallback == name {
		return fmt.Sprintf("attachment; filename=%q", name)
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(name))
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// DecodeJSONLocalized decodes a JSON body of at most 1 MiB. Any decode
// failure becomes a localized 400.
func DecodeJSONLocalized(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.BadRequest(i18n.TFromContext(r.Context(), "errors.invalid_json"))
	}
	return nil
}
