package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleerp/employee-portal/internal/cep"
	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/editor"
	"github.com/mapleerp/employee-portal/internal/employee/events"
	"github.com/mapleerp/employee-portal/internal/employee/repository"
	"github.com/mapleerp/employee-portal/internal/employee/service"
	"github.com/mapleerp/employee-portal/internal/employee/view"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/messaging"
	"github.com/mapleerp/employee-portal/pkg/testutil"
)

type activityStub struct {
	recorded []*repository.Activity
	listErr  error
}

func (a *activityStub) Record(_ context.Context, act *repository.Activity) error {
	a.recorded = append(a.recorded, act)
	return nil
}

func (a *activityStub) ListByEmployee(_ context.Context, employeeID, limit int) ([]repository.Activity, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	var out []repository.Activity
	for _, act := range a.recorded {
		if act.EmployeeID == employeeID {
			out = append(out, *act)
		}
	}
	return out, nil
}

type fixture struct {
	svc      *service.PortalService
	backend  *testutil.FakeBackend
	pub      *testutil.MockPublisher
	activity *activityStub
}

func setup(t *testing.T, features config.FeaturesConfig) *fixture {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	via := testutil.NewFakeViaCEP(t)
	cfg := &config.Config{
		API:        config.APIConfig{URL: backend.URL},
		App:        config.AppConfig{Name: "Maple ERP Frontend"},
		Endpoints:  config.EndpointsConfig{Employees: "/employees", HealthCheck: "/health-check"},
		ViaCEP:     config.ViaCEPConfig{BaseURL: via.URL, Timeout: 2 * time.Second},
		Features:   features,
		Upload:     config.UploadConfig{MaxFileSize: 5 << 20, AllowedTypes: []string{"image/png"}},
		Pagination: config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 50},
		Timeouts:   config.TimeoutsConfig{Request: 2 * time.Second},
	}

	log := logger.Nop()
	pub := testutil.NewMockPublisher()
	activity := &activityStub{}
	svc := service.NewPortalService(
		cfg,
		client.NewEmployeeClient(cfg, log),
		cep.New(cfg.ViaCEP, log),
		editor.NewStore(cfg.Session, log),
		service.Options{
			Recorder: events.NewRecorder(events.NewEmployeeEventPublisher(pub, log), activity, log),
			Activity: activity,
		},
		log,
	)
	return &fixture{svc: svc, backend: backend, pub: pub, activity: activity}
}

func allFeatures() config.FeaturesConfig {
	return config.FeaturesConfig{HealthCheck: true, Export: true, BadgeGeneration: true, MultiBadge: true}
}

func TestFeatureGates(t *testing.T) {
	f := setup(t, config.FeaturesConfig{BadgeGeneration: true})
	ctx := context.Background()

	_, err := f.svc.BackendHealth(ctx)
	assert.ErrorIs(t, err, errors.ErrFeatureDisabled)

	_, err = f.svc.Export(ctx, view.Filter{}, "csv", "")
	assert.ErrorIs(t, err, errors.ErrFeatureDisabled)

	_, err = f.svc.DownloadBadges(ctx, []domain.ID{1})
	assert.ErrorIs(t, err, errors.ErrFeatureDisabled)

	assert.Empty(t, f.backend.Requests())
	assert.Equal(t, config.FeaturesConfig{BadgeGeneration: true}, f.svc.Features())
}

func TestDownloadsAreRecorded(t *testing.T) {
	f := setup(t, allFeatures())
	f.backend.Seed(testutil.NewFixtureFactory().Employees(2)...)
	ctx := context.Background()

	file, err := f.svc.DownloadBadge(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "cracha_Maria_Silva_1.pdf", file.Name)

	_, err = f.svc.DownloadBadges(ctx, []domain.ID{1, 2})
	require.NoError(t, err)

	list, err := f.svc.Activity(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, repository.ActionBadge, list[0].Action)

	ev, ok := f.pub.Find(messaging.EventBadgeGenerated)
	require.True(t, ok)
	assert.Equal(t, []int{1}, ev.Payload.(messaging.DocumentGeneratedEvent).EmployeeIDs)
}

func TestDelete(t *testing.T) {
	f := setup(t, allFeatures())
	f.backend.Seed(testutil.NewFixtureFactory().Employee())
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, 1, false)
	require.Error(t, err)
	assert.Zero(t, f.backend.Count("DELETE /employees/{id}"))

	res, err := f.svc.Delete(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "Funcionário removido com sucesso", res.Message)

	list, err := f.svc.Activity(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, repository.ActionDeleted, list[0].Action)
}

func TestActivity_ListFailure(t *testing.T) {
	f := setup(t, allFeatures())
	f.activity.listErr = assert.AnError

	_, err := f.svc.Activity(context.Background(), 1, 10)
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(err))
}

func TestEditorSessions(t *testing.T) {
	f := setup(t, allFeatures())
	f.backend.Seed(testutil.NewFixtureFactory().Employee())
	ctx := context.Background()

	s, err := f.svc.OpenEditor(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, editor.ModeNew, s.Mode())

	got, err := f.svc.Session(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	edit, err := f.svc.OpenEditor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, editor.ModeEdit, edit.Mode())
	assert.Equal(t, domain.ID(1), edit.EmployeeID())

	require.NoError(t, f.svc.CloseSession(s.ID()))
	_, err = f.svc.Session(s.ID())
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, f.svc.CloseSession(s.ID()), errors.ErrNotFound)

	_, err = f.svc.OpenEditor(ctx, 99)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLookupAddress(t *testing.T) {
	f := setup(t, allFeatures())

	addr, err := f.svc.LookupAddress(context.Background(), "01310100")
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "SP", addr.State)
}
