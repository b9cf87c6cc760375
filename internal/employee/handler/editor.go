package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/editor"
	"github.com/mapleerp/employee-portal/internal/employee/service"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// photoField is the multipart part carrying the employee photo
const photoField = "photo"

// EditorHandler exposes editor sessions over HTTP
type EditorHandler struct {
	service *service.PortalService
	upload  config.UploadConfig
	logger  *logger.Logger
}

func NewEditorHandler(svc *service.PortalService, upload config.UploadConfig, log *logger.Logger) *EditorHandler {
	return &EditorHandler{service: svc, upload: upload, logger: log}
}

// OpenRequest opens a session; a missing employeeId starts a New form
type OpenRequest struct {
	EmployeeID domain.ID `json:"employeeId"`
}

// FieldsResponse carries per-field results with the updated snapshot
type FieldsResponse struct {
	Results  map[string]editor.Result `json:"results"`
	Snapshot *editor.Snapshot         `json:"snapshot"`
}

type BlurResponse struct {
	*editor.BlurResult
	Snapshot *editor.Snapshot `json:"snapshot"`
}

// IndexResponse reports the position of an added contact or dependent
type IndexResponse struct {
	Index    int              `json:"index"`
	Snapshot *editor.Snapshot `json:"snapshot"`
}

func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	s, err := h.service.Session(chi.URLParam(r, "sid"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return nil, false
	}
	return s, true
}

func index(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		return 0, errors.BadRequestWithKey("editor.index_out_of_range")
	}
	return i, nil
}

// Open starts a New or Edit session
func (h *EditorHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
	}

	s, err := h.service.OpenEditor(r.Context(), req.EmployeeID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, s.Snapshot())
}

// Get returns the session snapshot
func (h *EditorHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.JSON(w, http.StatusOK, s.Snapshot())
}

// Close disposes the session
func (h *EditorHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseSession(chi.URLParam(r, "sid")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// SetFields stores a batch of field values
func (h *EditorHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var values map[string]string
	if err := httputil.DecodeJSONLocalized(r, &values); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	results, err := s.SetValues(values)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, FieldsResponse{Results: results, Snapshot: s.Snapshot()})
}

// Blur marks a field touched and runs the postal code autofill
func (h *EditorHandler) Blur(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := s.Blur(r.Context(), chi.URLParam(r, "field"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, BlurResponse{BlurResult: res, Snapshot: s.Snapshot()})
}

// Photo receives the multipart photo of a new employee
func (h *EditorHandler) Photo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	// One extra MiB for the multipart envelope; the exact limit is checked on the bytes
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxFileSize+1<<20)
	file, header, err := r.FormFile(photoField)
	if err != nil {
		h.logger.Debug().Err(err).Msg("photo upload rejected")
		httputil.ErrorLocalized(w, r, errors.BadRequestWithKey("errors.photo_upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequestWithKey("errors.photo_upload"))
		return
	}

	photo := &domain.Photo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := s.SetPhoto(photo); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s.Snapshot())
}

func (h *EditorHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var c domain.EmergencyContact
	if err := httputil.DecodeJSONLocalized(r, &c); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	i, err := s.AddContact(c)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, IndexResponse{Index: i, Snapshot: s.Snapshot()})
}

func (h *EditorHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, err := index(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	var c domain.EmergencyContact
	if err := httputil.DecodeJSONLocalized(r, &c); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := s.UpdateContact(i, c); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s.Snapshot())
}

// RemoveContact refuses to remove the last contact
func (h *EditorHandler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, err := index(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := s.RemoveContact(i); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s.Snapshot())
}

func (h *EditorHandler) AddDependent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var d domain.Dependent
	if err := httputil.DecodeJSONLocalized(r, &d); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	i, err := s.AddDependent(d)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, IndexResponse{Index: i, Snapshot: s.Snapshot()})
}

func (h *EditorHandler) UpdateDependent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, err := index(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	var d domain.Dependent
	if err := httputil.DecodeJSONLocalized(r, &d); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := s.UpdateDependent(i, d); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s.Snapshot())
}

func (h *EditorHandler) RemoveDependent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, err := index(r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := s.RemoveDependent(i); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s.Snapshot())
}

// Submit sends the form to the backend
func (h *EditorHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := s.Submit(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Mode == editor.ModeNew && !res.Skipped {
		status = http.StatusCreated
	}
	httputil.JSONWithNotice(w, status, res, res.Notice)
}
