package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// EmployeeClient calls the Maple ERP backend employee endpoints.
// Every failure is returned as *errors.AppError.
type EmployeeClient struct {
	baseURL    string
	endpoints  config.EndpointsConfig
	httpClient *http.Client
	messages   errors.Messages
	retryDelay time.Duration
	logger     *logger.Logger
}

// NewEmployeeClient creates a client for the backend resolved from cfg
func NewEmployeeClient(cfg *config.Config, log *logger.Logger) *EmployeeClient {
	timeout := cfg.Timeouts.Request
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmployeeClient{
		baseURL:    cfg.BackendURL(),
		endpoints:  cfg.Endpoints,
		httpClient: &http.Client{Timeout: timeout},
		messages:   cfg.Messages.ErrorMessages(),
		retryDelay: 200 * time.Millisecond,
		logger:     log,
	}
}

// SearchFilter narrows a search; zero values are omitted from the query
type SearchFilter struct {
	Name        string
	JobFunction string
	Status      string
	Limit       int
	Offset      int
}

func (f SearchFilter) query() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.JobFunction != "" {
		q.Set("jobFunction", f.JobFunction)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// SearchResult is one page of a search
type SearchResult struct {
	Employees []domain.Employee `json:"employees"`
	Total     int               `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// CreateRequest is the multipart create payload. Photo is mandatory.
type CreateRequest struct {
	FullName     string
	TagName      string
	TagLastName  string
	JobFunctions string
	Birthday     string
	Photo        *domain.Photo
}

// DeleteResult is the backend acknowledgement of a delete
type DeleteResult struct {
	Message   string    `json:"message"`
	DeletedID domain.ID `json:"deletedId"`
}

// HealthStatus is the backend health-check payload
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Download is a binary response
type Download struct {
	Data        []byte
	ContentType string
	// Filename comes from Content-Disposition when the backend sends one
	Filename string
}

// photoPart is the multipart part the backend reads the employee photo from
const photoPart = "file"

// Export formats produced by the backend
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// List returns every employee
func (c *EmployeeClient) List(ctx context.Context) ([]domain.Employee, error) {
	var out []domain.Employee
	if err := c.getJSON(ctx, c.endpoints.Employees, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search returns a filtered page of employees
func (c *EmployeeClient) Search(ctx context.Context, filter SearchFilter) (*SearchResult, error) {
	var out SearchResult
	if err := c.getJSON(ctx, c.endpoints.Employees+"/search", filter.query(), &out); err != nil {
		return nil, err
	}
	if out.Employees == nil {
		out.Employees = []domain.Employee{}
	}
	return &out, nil
}

// GetByID fetches a single employee
func (c *EmployeeClient) GetByID(ctx context.Context, id domain.ID) (*domain.Employee, error) {
	var out domain.Employee
	if err := c.getJSON(ctx, c.employeePath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create submits a new employee as multipart/form-data
func (c *EmployeeClient) Create(ctx context.Context, req CreateRequest) (*domain.Employee, error) {
	if req.Photo == nil || len(req.Photo.Data) == 0 {
		return nil, errors.LocalValidation(nil, map[string]string{
			"photo": i18n.TFromContext(ctx, "validation.photo_required"),
		})
	}

	body, contentType, err := req.encode()
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to encode employee: %v", err))
	}

	resp, err := c.send(ctx, http.MethodPost, c.endpoints.Employees, nil, body, contentType)
	if err != nil {
		return nil, err
	}

	var out domain.Employee
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	c.logger.Info().Int("employee_id", int(out.ID)).Msg("employee created")
	return &out, nil
}

func (r CreateRequest) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"fullName", r.FullName},
		{"tagName", r.TagName},
		{"tagLastName", r.TagLastName},
		{"jobFunctions", r.JobFunctions},
		{"birthday", dateOnly(r.Birthday)},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	filename := r.Photo.Filename
	if filename == "" {
		filename = "photo"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     photoPart,
		"filename": filename,
	}))
	if r.Photo.ContentType != "" {
		h.Set("Content-Type", r.Photo.ContentType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(r.Photo.Data); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// dateOnly trims ISO timestamps to YYYY-MM-DD
func dateOnly(s string) string {
	if len(s) > 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

// Update sends a partial JSON update
func (c *EmployeeClient) Update(ctx context.Context, id domain.ID, patch domain.Patch) (*domain.Employee, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to marshal patch: %v", err))
	}

	resp, err := c.send(ctx, http.MethodPut, c.employeePath(id), nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	var out domain.Employee
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("employee_id", int(id)).
		Strs("fields", patch.Fields()).
		Msg("employee updated")
	return &out, nil
}

// Delete removes an employee
func (c *EmployeeClient) Delete(ctx context.Context, id domain.ID) (*DeleteResult, error) {
	resp, err := c.send(ctx, http.MethodDelete, c.employeePath(id), nil, nil, "")
	if err != nil {
		return nil, err
	}

	var out DeleteResult
	if len(resp.body) > 0 {
		if err := decode(resp, &out); err != nil {
			return nil, err
		}
	}
	if out.DeletedID == 0 {
		out.DeletedID = id
	}

	c.logger.Info().Int("employee_id", int(id)).Msg("employee deleted")
	return &out, nil
}

// GenerateBadge downloads the badge PDF of one employee
func (c *EmployeeClient) GenerateBadge(ctx context.Context, id domain.ID) (*Download, error) {
	return c.download(ctx, http.MethodGet, c.employeePath(id)+"/badge", nil, nil)
}

// GenerateDocument downloads the accountant document PDF of one employee
func (c *EmployeeClient) GenerateDocument(ctx context.Context, id domain.ID) (*Download, error) {
	return c.download(ctx, http.MethodGet, c.employeePath(id)+"/document", nil, nil)
}

// GenerateBadges downloads one PDF with the badges of all ids
func (c *EmployeeClient) GenerateBadges(ctx context.Context, ids []domain.ID) (*Download, error) {
	payload, err := json.Marshal(map[string][]domain.ID{"employeeIds": ids})
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to marshal ids: %v", err))
	}
	return c.download(ctx, http.MethodPost, c.endpoints.Employees+"/badges", nil, payload)
}

// Export downloads the backend export in csv or json, optionally filtered by status
func (c *EmployeeClient) Export(ctx context.Context, format, status string) (*Download, error) {
	if format != FormatCSV && format != FormatJSON {
		return nil, errors.BadRequestWithKey("validation.oneof", map[string]string{"values": "csv, json"})
	}
	q := url.Values{"format": {format}}
	if status != "" {
		q.Set("status", status)
	}
	return c.download(ctx, http.MethodGet, c.endpoints.Employees+"/export", q, nil)
}

// HealthCheck calls the backend health endpoint
func (c *EmployeeClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.getJSON(ctx, c.endpoints.HealthCheck, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *EmployeeClient) employeePath(id domain.ID) string {
	return c.endpoints.Employees + "/" + id.String()
}

func (c *EmployeeClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *EmployeeClient) download(ctx context.Context, method, path string, query url.Values, payload []byte) (*Download, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}

	d := &Download{Data: resp.body, ContentType: resp.header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	return d, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func decode(resp *response, out interface{}) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		return errors.Wrap(err, errors.CodeServer, "failed to decode backend response", http.StatusBadGateway)
	}
	return nil
}

// send performs the request. GETs are retried once on network failure or 503.
func (c *EmployeeClient) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*response, error) {
	resp, err := c.roundTrip(ctx, method, path, query, body, contentType)
	if err == nil || method != http.MethodGet || !retryable(err) || ctx.Err() != nil {
		return resp, err
	}

	c.logger.Debug().Err(err).Str("path", path).Msg("retrying backend read")

	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, errors.Network(ctx.Err(), c.messages.Network)
	case <-timer.C:
	}

	return c.roundTrip(ctx, method, path, query, nil, contentType)
}

func retryable(err error) bool {
	return errors.Is(err, errors.ErrNetwork) || errors.Is(err, errors.ErrUnavailable)
}

func (c *EmployeeClient) roundTrip(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to create request: %v", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if id := httputil.GetRequestID(ctx); id != "" {
		req.Header.Set(httputil.RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Network(ctx.Err(), c.messages.Network)
		}
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return nil, errors.Network(err, c.messages.Network)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Network(err, c.messages.Network)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := errors.FromStatus(resp.StatusCode, backendMessage(data), c.messages)
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("code", appErr.Code).
			Msg("backend returned an error")
		return nil, appErr
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// backendMessage extracts {"message": ...}; the backend sends either a
// string or a list of strings for validation failures.
func backendMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Message, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(payload.Message, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
