package client

import (
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/testutil"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: config.EnvDevelopment},
		API:    config.APIConfig{URL: url},
		Endpoints: config.EndpointsConfig{
			Employees:   "/employees",
			HealthCheck: "/health-check",
		},
		Timeouts: config.TimeoutsConfig{Request: 2 * time.Second},
		Messages: config.MessagesConfig{
			DefaultError: "Ocorreu um erro inesperado. Tente novamente.",
			NetworkError: "Erro de conexão. Verifique sua internet.",
			ServerError:  "Erro interno do servidor. Tente novamente mais tarde.",
		},
	}
}

func setup(t *testing.T) (*EmployeeClient, *testutil.FakeBackend, *testutil.FixtureFactory) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	c := NewEmployeeClient(testConfig(backend.URL), logger.Nop())
	c.retryDelay = time.Millisecond
	return c, backend, testutil.NewFixtureFactory()
}

func photo() *domain.Photo {
	return &domain.Photo{Filename: "maria.png", ContentType: "image/png", Data: testutil.PNGHeader}
}

func TestSearch_OmitsEmptyFilters(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee(), f.Employee(testutil.WithStatus(domain.StatusInactive)))

	res, err := c.Search(context.Background(), SearchFilter{Name: "maria", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Employees, 2)

	last, ok := backend.Last("GET /employees/search")
	require.True(t, ok)
	assert.Equal(t, "limit=10&name=maria", last.Query)

	res, err = c.Search(context.Background(), SearchFilter{Status: "INACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	last, _ = backend.Last("GET /employees/search")
	assert.Equal(t, "status=INACTIVE", last.Query)
}

func TestList(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employees(3)...)

	list, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, domain.ID(1), list[0].ID)
}

func TestGetByID_NotFound(t *testing.T) {
	c, _, _ := setup(t)

	_, err := c.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, "Recurso não encontrado.", err.(*errors.AppError).Message)
}

func TestStatusTable(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		message  string
		wantErr  error
		wantCode string
		wantMsg  string
	}{
		{"network", testutil.DropConnection, "", errors.ErrNetwork, errors.CodeNetwork, "Erro de conexão. Verifique sua internet."},
		{"400 with backend message", 400, "CPF já cadastrado", errors.ErrValidation, errors.CodeValidation, "CPF já cadastrado"},
		{"400 without message", 400, "", errors.ErrValidation, errors.CodeValidation, "Dados inválidos. Verifique os campos obrigatórios."},
		{"403", 403, "nope", errors.ErrForbidden, errors.CodeForbidden, "Erro de CORS. Verifique se a URL está configurada no backend."},
		{"404", 404, "", errors.ErrNotFound, errors.CodeNotFound, "Recurso não encontrado."},
		{"409", 409, "duplicate", errors.ErrConflict, errors.CodeConflict, "Dados duplicados. Verifique se o funcionário já existe."},
		{"500", 500, "boom", errors.ErrServer, errors.CodeServer, "Erro interno do servidor. Tente novamente mais tarde."},
		{"503", 503, "", errors.ErrUnavailable, errors.CodeUnavailable, "Serviços indisponíveis. Tente novamente mais tarde."},
		{"418 with message", 418, "teapot", errors.ErrGeneric, errors.CodeGeneric, "Erro 418: teapot"},
		{"422 without message", 422, "", errors.ErrGeneric, errors.CodeGeneric, "Erro 422: Ocorreu um erro inesperado. Tente novamente."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, f := setup(t)
			backend.Seed(f.Employee())
			backend.FailTimes("GET /employees/{id}", tt.status, tt.message, -1)

			_, err := c.GetByID(context.Background(), 1)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestRead_RetriedOnceOnUnavailable(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee())
	backend.Fail("GET /employees/{id}", http.StatusServiceUnavailable, "")

	e, err := c.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ID(1), e.ID)
	assert.Equal(t, 2, backend.Count("GET /employees/{id}"))
}

func TestRead_NotRetriedOnClientErrors(t *testing.T) {
	c, backend, _ := setup(t)

	_, err := c.GetByID(context.Background(), 7)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, 1, backend.Count("GET /employees/{id}"))
}

func TestMutation_NeverRetried(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee())
	backend.Fail("PUT /employees/{id}", http.StatusServiceUnavailable, "")

	_, err := c.Update(context.Background(), 1, domain.Patch{"email": "novo@escola.com.br"})
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, 1, backend.Count("PUT /employees/{id}"))
}

func TestCreate_RequiresPhotoWithoutRequest(t *testing.T) {
	c, backend, _ := setup(t)

	_, err := c.Create(context.Background(), CreateRequest{FullName: "Ana Souza", TagName: "Ana", TagLastName: "Souza"})
	assert.ErrorIs(t, err, errors.ErrLocalValidation)
	assert.Equal(t, "Selecione uma foto", err.(*errors.AppError).Details["photo"])
	assert.Empty(t, backend.Requests())
}

func TestCreate_Multipart(t *testing.T) {
	c, backend, _ := setup(t)

	e, err := c.Create(context.Background(), CreateRequest{
		FullName:    "Ana Souza",
		TagName:     "Ana",
		TagLastName: "Souza",
		Birthday:    "1992-03-04T00:00:00.000Z",
		Photo:       photo(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ID(1), e.ID)
	assert.Equal(t, domain.StatusActive, e.Status)

	last, ok := backend.Last("POST /employees")
	require.True(t, ok)
	mediaType, params, err := mime.ParseMediaType(last.ContentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(strings.NewReader(string(last.Body)), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Souza"}, form.Value["fullName"])
	assert.Equal(t, []string{"1992-03-04"}, form.Value["birthday"])
	assert.NotContains(t, form.Value, "jobFunctions")
	assert.NotContains(t, form.File, "photo")
	require.Len(t, form.File["file"], 1)
	assert.Equal(t, "maria.png", form.File["file"][0].Filename)
	assert.Equal(t, "image/png", form.File["file"][0].Header.Get("Content-Type"))
}

func TestCreate_Conflict(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee(testutil.WithFullName("Ana Souza")))

	_, err := c.Create(context.Background(), CreateRequest{FullName: "Ana Souza", TagName: "Ana", TagLastName: "Souza", Photo: photo()})
	assert.ErrorIs(t, err, errors.ErrConflict)
	assert.Equal(t, "Dados duplicados. Verifique se o funcionário já existe.", err.(*errors.AppError).Message)
}

func TestUpdate_SendsPatchAsJSON(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee())

	e, err := c.Update(context.Background(), 1, domain.Patch{"email": "novo@escola.com.br", "salary": 3500.5})
	require.NoError(t, err)
	assert.Equal(t, "novo@escola.com.br", e.Email)
	require.NotNil(t, e.Salary)
	assert.Equal(t, domain.Decimal(3500.5), *e.Salary)

	last, _ := backend.Last("PUT /employees/{id}")
	assert.Equal(t, "application/json", last.ContentType)
	assert.JSONEq(t, `{"email":"novo@escola.com.br","salary":3500.5}`, string(last.Body))
}

func TestDelete(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee())

	res, err := c.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ID(1), res.DeletedID)
	assert.Equal(t, "Funcionário removido com sucesso", res.Message)

	_, ok := backend.Employee(1)
	assert.False(t, ok)
}

func TestDownloads(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employees(2)...)
	ctx := context.Background()

	badge, err := c.GenerateBadge(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", badge.ContentType)
	assert.Equal(t, "%PDF-1.4 badge 1", string(badge.Data))

	doc, err := c.GenerateDocument(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 document 2", string(doc.Data))

	all, err := c.GenerateBadges(ctx, []domain.ID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 badges [1 2]", string(all.Data))
	last, _ := backend.Last("POST /employees/badges")
	assert.JSONEq(t, `{"employeeIds":[1,2]}`, string(last.Body))
}

func TestExport(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee(), f.Employee(testutil.WithStatus(domain.StatusInactive)))

	csv, err := c.Export(context.Background(), FormatCSV, "ACTIVE")
	require.NoError(t, err)
	assert.Equal(t, "id,fullName,status\n1,Maria Silva 1,ACTIVE\n", string(csv.Data))

	js, err := c.Export(context.Background(), FormatJSON, "")
	require.NoError(t, err)
	var rows []domain.Employee
	require.NoError(t, json.Unmarshal(js.Data, &rows))
	assert.Len(t, rows, 2)

	_, err = c.Export(context.Background(), "xml", "")
	assert.ErrorIs(t, err, errors.ErrBadRequest)
	assert.Equal(t, 2, backend.Count("GET /employees/export"))
}

func TestHealthCheck(t *testing.T) {
	c, _, _ := setup(t)

	h, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestRequestIDForwarded(t *testing.T) {
	c, backend, _ := setup(t)
	ctx := httputil.WithRequestID(context.Background(), "req-123")

	_, _ = c.List(ctx)
	last, _ := backend.Last("GET /employees")
	assert.Equal(t, "req-123", last.RequestID)
}

func TestBackendMessage(t *testing.T) {
	assert.Equal(t, "a", backendMessage([]byte(`{"message":"a"}`)))
	assert.Equal(t, "a; b", backendMessage([]byte(`{"message":["a","b"]}`)))
	assert.Equal(t, "", backendMessage([]byte(`{"error":"x"}`)))
	assert.Equal(t, "", backendMessage([]byte(`not json`)))
}

func TestIDAcceptsQuotedNumbers(t *testing.T) {
	var e domain.Employee
	require.NoError(t, json.Unmarshal([]byte(`{"id":"12","salary":"1500.00","employeeContact":[{"contactId":3}]}`), &e))
	assert.Equal(t, domain.ID(12), e.ID)
	assert.Equal(t, domain.Decimal(1500), *e.Salary)
	assert.Equal(t, domain.Ref("3"), e.Contacts[0].ContactID)
}

func TestGetByID_CancelledContextIsNotRetried(t *testing.T) {
	c, backend, f := setup(t)
	backend.Seed(f.Employee())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetByID(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errors.CodeNetwork, errors.CodeOf(err))
	assert.Zero(t, backend.Count("GET /employees/{id}"))
}
