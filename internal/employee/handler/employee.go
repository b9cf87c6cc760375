package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/service"
	"github.com/mapleerp/employee-portal/internal/employee/view"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// EmployeeHandler handles the list and detail endpoints
type EmployeeHandler struct {
	service    *service.PortalService
	pagination config.PaginationConfig
	logger     *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.PortalService, pagination config.PaginationConfig, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service:    svc,
		pagination: pagination,
		logger:     log,
	}
}

func employeeID(r *http.Request) (domain.ID, error) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errors.BadRequestWithKey("errors.invalid_id")
	}
	return id, nil
}

func (h *EmployeeHandler) filter(r *http.Request) (view.Filter, error) {
	q := r.URL.Query()
	p := httputil.ParsePagination(r, h.pagination.DefaultPageSize, h.pagination.MaxPageSize)
	f := view.Filter{
		Name:        q.Get("name"),
		JobFunction: q.Get("jobFunction"),
		Status:      strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Limit:       p.Limit,
		Offset:      p.Offset,
	}
	if err := httputil.Validate(f); err != nil {
		return view.Filter{}, err
	}
	return f, nil
}

// List returns one page of employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	page, err := h.service.Search(r.Context(), f)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, page.Rows, &httputil.Meta{
		Limit:   page.Filter.Limit,
		Offset:  page.Filter.Offset,
		Total:   int64(page.Total),
		Page:    page.Number,
		Pages:   page.Pages,
		HasMore: page.HasNext,
	})
}

// Get returns the formatted detail of one employee
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, detail)
}

// Delete removes an employee. The caller must pass ?confirm=true.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	res, err := h.service.Delete(r.Context(), id, confirmed)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithNotice(w, http.StatusOK, res, res.Message)
}

// Badge downloads the printed badge
func (h *EmployeeHandler) Badge(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	h.sendFile(w, r)(h.service.DownloadBadge(r.Context(), id))
}

// BadgePreview renders the badge locally
func (h *EmployeeHandler) BadgePreview(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	h.sendFile(w, r)(h.service.BadgePreview(r.Context(), id))
}

// Document downloads the accountant document
func (h *EmployeeHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	h.sendFile(w, r)(h.service.DownloadDocument(r.Context(), id))
}

// BadgesRequest selects the employees printed on one PDF
type BadgesRequest struct {
	EmployeeIDs []domain.ID `json:"employeeIds" validate:"required,min=1"`
}

// Badges downloads one PDF with several badges
func (h *EmployeeHandler) Badges(w http.ResponseWriter, r *http.Request) {
	var req BadgesRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	h.sendFile(w, r)(h.service.DownloadBadges(r.Context(), req.EmployeeIDs))
}

// Export downloads the list as ?format=csv|json|xlsx
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	h.sendFile(w, r)(h.service.Export(r.Context(), f, format, f.Status))
}

// Activity lists what the portal recorded for an employee
func (h *EmployeeHandler) Activity(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.service.Activity(r.Context(), id, limit)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, list)
}

// BackendHealth reports the backend health check
func (h *EmployeeHandler) BackendHealth(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.BackendHealth(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, status)
}

func (h *EmployeeHandler) sendFile(w http.ResponseWriter, r *http.Request) func(*view.File, error) {
	return func(f *view.File, err error) {
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
		httputil.File(w, f.Name, f.ContentType, f.Data)
	}
}
