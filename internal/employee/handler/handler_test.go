package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleerp/employee-portal/internal/cep"
	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/editor"
	"github.com/mapleerp/employee-portal/internal/employee/events"
	"github.com/mapleerp/employee-portal/internal/employee/handler"
	"github.com/mapleerp/employee-portal/internal/employee/service"
	"github.com/mapleerp/employee-portal/internal/employee/validation"
	"github.com/mapleerp/employee-portal/internal/employee/view"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/messaging"
	"github.com/mapleerp/employee-portal/pkg/testutil"
)

type testEnv struct {
	router  http.Handler
	backend *testutil.FakeBackend
	viacep  *testutil.FakeViaCEP
	pub     *testutil.MockPublisher
}

func newEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	via := testutil.NewFakeViaCEP(t)

	cfg := &config.Config{
		Server:     config.ServerConfig{Environment: config.EnvDevelopment},
		API:        config.APIConfig{URL: backend.URL},
		App:        config.AppConfig{Name: "Maple ERP Frontend"},
		Endpoints:  config.EndpointsConfig{Employees: "/employees", HealthCheck: "/health-check"},
		ViaCEP:     config.ViaCEPConfig{BaseURL: via.URL, Timeout: 2 * time.Second},
		Features:   config.FeaturesConfig{HealthCheck: true, Export: true, BadgeGeneration: true, MultiBadge: true},
		Upload:     config.UploadConfig{MaxFileSize: 5 << 20, AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg"}},
		Pagination: config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Timeouts:   config.TimeoutsConfig{Request: 2 * time.Second},
		Session:    config.SessionConfig{TTL: time.Minute, CleanupInterval: time.Minute},
	}
	for _, m := range mutate {
		m(cfg)
	}

	log := logger.Nop()
	pub := testutil.NewMockPublisher()
	recorder := events.NewRecorder(events.NewEmployeeEventPublisher(pub, log), nil, log)
	svc := service.NewPortalService(
		cfg,
		client.NewEmployeeClient(cfg, log),
		cep.New(cfg.ViaCEP, log),
		editor.NewStore(cfg.Session, log),
		service.Options{Recorder: recorder},
		log,
	)

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(i18n.Middleware)
	r.Route("/api/v1", handler.Handlers{
		Employees:  handler.NewEmployeeHandler(svc, cfg.Pagination, log),
		Editor:     handler.NewEditorHandler(svc, cfg.Upload, log),
		Validation: handler.NewValidationHandler(validation.NewBrazilianValidator(), svc, log),
	}.Mount)

	return &testEnv{router: r, backend: backend, viacep: via, pub: pub}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.ExecuteRequest(e.router, req)
}

func TestListEmployees(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employees(3)...)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees?limit=2", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var rows []view.Row
	env := testutil.ParseEnvelope(t, rr, &rows)
	assert.True(t, env.Success)
	require.Len(t, rows, 2)
	assert.Equal(t, "529.982.247-25", rows[0].CPF)
	assert.Equal(t, "/employees/1", rows[0].DetailPath)
	assert.EqualValues(t, 3, env.Meta["total"])
	assert.EqualValues(t, 2, env.Meta["pages"])
	assert.Equal(t, true, env.Meta["has_more"])
}

func TestListEmployees_InvalidStatus(t *testing.T) {
	e := newEnv(t)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees?status=gone", nil))
	appErr := testutil.AssertErrorCode(t, rr, http.StatusBadRequest, errors.CodeValidation)
	assert.Contains(t, appErr.Details, "status")
	assert.Zero(t, e.backend.Count("GET /employees/search"))
}

func TestGetEmployee(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employee())

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/1", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var detail view.Detail
	testutil.ParseEnvelope(t, rr, &detail)
	assert.Equal(t, "Maria Silva 1", detail.FullName)
	assert.Equal(t, "(11) 98765-4321", detail.Mobile)
	assert.Equal(t, "/employees/edit/1", detail.EditPath)
}

func TestGetEmployee_Errors(t *testing.T) {
	e := newEnv(t)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/abc", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/999", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	env := testutil.ParseEnvelope(t, rr, nil)
	assert.Equal(t, "Funcionário não encontrado", env.Error.Message)
}

func TestDeleteEmployee(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employee())

	rr := e.do(testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/employees/1", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Zero(t, e.backend.Count("DELETE /employees/{id}"))

	rr = e.do(testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/employees/1?confirm=true", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.ParseEnvelope(t, rr, nil)
	assert.Equal(t, "Funcionário removido com sucesso", env.Notice)

	_, exists := e.backend.Employee(1)
	assert.False(t, exists)
	e.pub.AssertEventPublished(t, messaging.EventEmployeeDeleted)
}

func TestDownloads(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employees(2)...)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/1/badge", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="cracha_Maria_Silva_1.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 badge 1", rr.Body.String())
	e.pub.AssertEventPublished(t, messaging.EventBadgeGenerated)

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/2/document", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="documento_contabil_Maria_Silva_2.pdf"`, rr.Header().Get("Content-Disposition"))
	e.pub.AssertEventPublished(t, messaging.EventDocumentGenerated)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/employees/badges", map[string]interface{}{"employeeIds": []int{1, 2}}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="crachas.pdf"`, rr.Header().Get("Content-Disposition"))

	rr = e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/employees/badges", map[string]interface{}{"employeeIds": []int{}}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestBadgePreview(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employee())

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/1/badge/preview", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", rr.Body.String()[:4])
	assert.Zero(t, e.backend.Count("GET /employees/{id}/badge"))
}

func TestFeatureToggles(t *testing.T) {
	e := newEnv(t, func(c *config.Config) {
		c.Features = config.FeaturesConfig{}
	})
	e.backend.Seed(testutil.NewFixtureFactory().Employee())

	for _, path := range []string{
		"/api/v1/employees/1/badge",
		"/api/v1/employees/1/badge/preview",
		"/api/v1/employees/export?format=csv",
		"/api/v1/backend/health",
	} {
		t.Run(path, func(t *testing.T) {
			rr := e.do(testutil.NewHTTPRequest(http.MethodGet, path, nil))
			testutil.AssertErrorCode(t, rr, http.StatusNotFound, errors.CodeFeatureDisabled)
		})
	}
	assert.Zero(t, e.backend.Count("GET /employees/{id}/badge"))
	assert.Zero(t, e.backend.Count("GET /health-check"))
}

func TestMultiBadgeToggle(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.Features.MultiBadge = false })

	rr := e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/employees/badges", map[string]interface{}{"employeeIds": []int{1}}))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employees(2)...)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/export?format=csv&status=active", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="funcionarios.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), "id,fullName,status")
	req, ok := e.backend.Last("GET /employees/export")
	require.True(t, ok)
	assert.Contains(t, req.Query, "status=ACTIVE")

	ev, ok := e.pub.Find(messaging.EventEmployeesExported)
	require.True(t, ok)
	assert.Equal(t, "csv", ev.Payload.(messaging.EmployeesExportedEvent).Format)

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/export?format=xlsx&name=silva", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, `attachment; filename="funcionarios.xlsx"`, rr.Header().Get("Content-Disposition"))
	search, ok := e.backend.Last("GET /employees/search")
	require.True(t, ok)
	assert.Contains(t, search.Query, "name=silva")

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/export?format=pdf", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestBackendHealth(t *testing.T) {
	e := newEnv(t)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/backend/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var status client.HealthStatus
	testutil.ParseEnvelope(t, rr, &status)
	assert.Equal(t, "ok", status.Status)
}

func TestActivity_DisabledWithoutDatabase(t *testing.T) {
	e := newEnv(t)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/employees/1/activity", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestLookupCEP(t *testing.T) {
	e := newEnv(t)

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/cep/01310-100", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, "Avenida Paulista")

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/cep/99999999", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	env := testutil.ParseEnvelope(t, rr, nil)
	assert.Equal(t, "CEP não encontrado", env.Error.Message)

	hits := e.viacep.Hits()
	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/cep/123", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, hits, e.viacep.Hits())
}

func TestValidationEndpoints(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		path      string
		body      map[string]string
		valid     bool
		formatted string
	}{
		{"/api/v1/validate/cpf", map[string]string{"cpf": "52998224725"}, true, "529.982.247-25"},
		{"/api/v1/validate/cpf", map[string]string{"cpf": "111.111.111-11"}, false, ""},
		{"/api/v1/validate/phone", map[string]string{"phone": "11987654321"}, true, "(11) 98765-4321"},
		{"/api/v1/validate/phone", map[string]string{"phone": "123"}, false, ""},
		{"/api/v1/validate/cep", map[string]string{"cep": "01310100"}, true, "01310-100"},
		{"/api/v1/validate/cep", map[string]string{"cep": "00000000"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.formatted, func(t *testing.T) {
			rr := e.do(testutil.NewHTTPRequest(http.MethodPost, tt.path, tt.body))
			testutil.AssertStatus(t, rr, http.StatusOK)

			var res validation.ValidationResult
			testutil.ParseEnvelope(t, rr, &res)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.formatted, res.Formatted)
			if !tt.valid {
				assert.NotEmpty(t, res.Message)
			}
		})
	}

	rr := e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/validate/cpf", map[string]string{}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestLocalizedErrors(t *testing.T) {
	e := newEnv(t)

	req := testutil.WithLanguage(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/cep/99999999", nil), "en-US")
	rr := e.do(req)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	env := testutil.ParseEnvelope(t, rr, nil)
	assert.NotEqual(t, "CEP não encontrado", env.Error.Message)
}

func openSession(t *testing.T, e *testEnv, body interface{}) editor.Snapshot {
	t.Helper()
	rr := e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/editor/sessions", body))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var snap editor.Snapshot
	testutil.ParseEnvelope(t, rr, &snap)
	require.NotEmpty(t, snap.ID)
	return snap
}

func TestEditor_CreateFlow(t *testing.T) {
	e := newEnv(t)
	snap := openSession(t, e, nil)
	assert.Equal(t, editor.ModeNew, snap.Mode)
	base := "/api/v1/editor/sessions/" + snap.ID

	rr := e.do(testutil.NewHTTPRequest(http.MethodPatch, base+"/fields", map[string]string{
		"fullName":     "Ana Paula Souza",
		"tagName":      "Ana",
		"tagLastName":  "Souza",
		"jobFunctions": "Secretária",
		"birthday":     "1992-01-15",
		"cpf":          "123",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var fields handler.FieldsResponse
	testutil.ParseEnvelope(t, rr, &fields)
	assert.True(t, fields.Results["fullName"].Valid)
	assert.False(t, fields.Results["cpf"].Valid)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPatch, base+"/fields", map[string]string{"cpf": "529.982.247-25"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = e.do(testutil.NewMultipartRequest(t, http.MethodPut, base+"/photo", "photo", "ana.png", testutil.PNGHeader))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.ParseEnvelope(t, rr, &snap)
	require.NotNil(t, snap.Photo)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPost, base+"/submit", nil))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var res editor.SubmitResult
	env := testutil.ParseEnvelope(t, rr, &res)
	assert.Equal(t, "Funcionário cadastrado com sucesso!", env.Notice)
	require.NotNil(t, res.Employee)
	assert.Equal(t, domain.ID(1), res.Employee.ID)
	assert.Equal(t, 1, e.backend.Count("POST /employees"))

	created, ok := e.backend.Employee(1)
	require.True(t, ok)
	assert.Equal(t, "52998224725", created.CPF)
	e.pub.AssertEventPublished(t, messaging.EventEmployeeCreated)
}

func TestEditor_SubmitMissingFields(t *testing.T) {
	e := newEnv(t)
	snap := openSession(t, e, nil)

	rr := e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/editor/sessions/"+snap.ID+"/submit", nil))
	appErr := testutil.AssertErrorCode(t, rr, http.StatusUnprocessableEntity, errors.CodeLocalValidation)
	assert.Contains(t, appErr.Details, "photo")
	assert.Contains(t, appErr.Details, "fullName")
	assert.Empty(t, e.backend.Requests())
}

func TestEditor_EditExisting(t *testing.T) {
	e := newEnv(t)
	e.backend.Seed(testutil.NewFixtureFactory().Employee())

	snap := openSession(t, e, map[string]int{"employeeId": 1})
	assert.Equal(t, editor.ModeEdit, snap.Mode)
	assert.Equal(t, "Maria Silva 1", snap.Values["fullName"])
	base := "/api/v1/editor/sessions/" + snap.ID

	rr := e.do(testutil.NewHTTPRequest(http.MethodPost, base+"/submit", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var res editor.SubmitResult
	testutil.ParseEnvelope(t, rr, &res)
	assert.True(t, res.Skipped)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPatch, base+"/fields", map[string]string{"fullName": "Maria Souza"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPost, base+"/submit", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	updated, _ := e.backend.Employee(1)
	assert.Equal(t, "Maria Souza", updated.FullName)
	e.pub.AssertEventPublished(t, messaging.EventEmployeeUpdated)
}

func TestEditor_OpenMissingEmployee(t *testing.T) {
	e := newEnv(t)

	rr := e.do(testutil.NewHTTPRequest(http.MethodPost, "/api/v1/editor/sessions", map[string]int{"employeeId": 42}))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestEditor_SessionLifecycle(t *testing.T) {
	e := newEnv(t)
	snap := openSession(t, e, nil)
	path := "/api/v1/editor/sessions/" + snap.ID

	rr := e.do(testutil.NewHTTPRequest(http.MethodGet, path, nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = e.do(testutil.NewHTTPRequest(http.MethodDelete, path, nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, path, nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = e.do(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/editor/sessions/unknown", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestEditor_BlurFillsAddress(t *testing.T) {
	e := newEnv(t)
	snap := openSession(t, e, nil)
	base := "/api/v1/editor/sessions/" + snap.ID

	rr := e.do(testutil.NewHTTPRequest(http.MethodPatch, base+"/fields", map[string]string{"cep": "01310-100"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPost, base+"/blur/cep", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var res handler.BlurResponse
	testutil.ParseEnvelope(t, rr, &res)
	require.NotNil(t, res.BlurResult)
	require.NotNil(t, res.Address)
	assert.Equal(t, "Avenida Paulista", res.Snapshot.Values["employeeAddress"])
	assert.Equal(t, "SP", res.Snapshot.Values["employeeAddressState"])
	assert.Equal(t, 1, e.viacep.Hits())
}

func TestEditor_Contacts(t *testing.T) {
	e := newEnv(t)
	snap := openSession(t, e, nil)
	base := "/api/v1/editor/sessions/" + snap.ID
	require.Len(t, snap.Contacts, 1)

	rr := e.do(testutil.NewHTTPRequest(http.MethodDelete, base+"/contacts/0", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPost, base+"/contacts", domain.EmergencyContact{Name: "Carlos", Phone: "11988887777"}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var added handler.IndexResponse
	testutil.ParseEnvelope(t, rr, &added)
	assert.Equal(t, 1, added.Index)
	assert.Len(t, added.Snapshot.Contacts, 2)

	rr = e.do(testutil.NewHTTPRequest(http.MethodDelete, base+"/contacts/0", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPatch, base+"/contacts/5", domain.EmergencyContact{Name: "X"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = e.do(testutil.NewHTTPRequest(http.MethodDelete, base+"/dependents/x", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestEditor_PhotoRejected(t *testing.T) {
	e := newEnv(t)
	snap := openSession(t, e, nil)
	base := "/api/v1/editor/sessions/" + snap.ID

	rr := e.do(testutil.NewMultipartRequest(t, http.MethodPut, base+"/photo", "photo", "notes.txt", []byte("plain text")))
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)

	rr = e.do(testutil.NewHTTPRequest(http.MethodPut, base+"/photo", map[string]string{"photo": "x"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
