package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewHTTPRequest builds a handler request. A non-nil body is sent as JSON.
func NewHTTPRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewMultipartRequest builds a request carrying a single file part, the way
// the editor receives photos
func NewMultipartRequest(t *testing.T, method, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func WithLanguage(req *http.Request, lang string) *http.Request {
	req.Header.Set("Accept-Language", lang)
	return req
}

func ExecuteRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertStatus fails with the body attached so envelope errors show up in the output
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code. Body: %s", rr.Body.String())
}

func AssertBodyContains(t *testing.T, rr *httptest.ResponseRecorder, expected string) {
	t.Helper()
	assert.Contains(t, rr.Body.String(), expected)
}

// EnvelopeError is the error object of a failed portal response
type EnvelopeError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// Envelope mirrors the portal response envelope with a raw data field
type Envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Notice  string                 `json:"notice"`
	Error   *EnvelopeError         `json:"error"`
	Meta    map[string]interface{} `json:"meta"`
}

// ParseEnvelope parses the response envelope and, when target is non-nil, its data
func ParseEnvelope(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "failed to parse response body: %s", rr.Body.String())
	if target != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, target), "failed to parse data: %s", env.Data)
	}
	return env
}

// AssertErrorCode checks status and envelope error code and returns the error
// for further checks on its message or details
func AssertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) *EnvelopeError {
	t.Helper()
	AssertStatus(t, rr, status)
	env := ParseEnvelope(t, rr, nil)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "no error in body: %s", rr.Body.String())
	assert.Equal(t, code, env.Error.Code)
	return env.Error
}

// RequireEventually polls condition until it holds or timeout passes
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatal(msg)
}
