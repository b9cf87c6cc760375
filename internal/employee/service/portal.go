// Package service wires the portal use cases: the employee API client,
// postal code lookup, editor sessions, list and detail views and the
// optional event and activity log side effects.
package service

import (
	"context"
	"fmt"

	"github.com/mapleerp/employee-portal/internal/employee/badge"
	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/display"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/editor"
	"github.com/mapleerp/employee-portal/internal/employee/events"
	"github.com/mapleerp/employee-portal/internal/employee/repository"
	"github.com/mapleerp/employee-portal/internal/employee/view"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// Backend is the full employee API surface used by the portal
type Backend interface {
	editor.Backend
	view.Backend
	HealthCheck(ctx context.Context) (*client.HealthStatus, error)
}

// ActivityLog reads the optional activity log
type ActivityLog interface {
	ListByEmployee(ctx context.Context, employeeID, limit int) ([]repository.Activity, error)
}

// PortalService handles portal use cases
type PortalService struct {
	cfg      *config.Config
	backend  Backend
	lookup   editor.AddressLookup
	sessions *editor.Store
	recorder *events.Recorder
	activity ActivityLog
	logger   *logger.Logger
}

// Options carries the optional collaborators
type Options struct {
	Recorder *events.Recorder
	// Activity is nil when no database is configured
	Activity ActivityLog
}

// NewPortalService creates a new portal service
func NewPortalService(
	cfg *config.Config,
	backend Backend,
	lookup editor.AddressLookup,
	sessions *editor.Store,
	opts Options,
	log *logger.Logger,
) *PortalService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Recorder == nil {
		opts.Recorder = events.NewRecorder(nil, nil, log)
	}
	return &PortalService{
		cfg:      cfg,
		backend:  backend,
		lookup:   lookup,
		sessions: sessions,
		recorder: opts.Recorder,
		activity: opts.Activity,
		logger:   log,
	}
}

// Features returns the active feature toggles
func (s *PortalService) Features() config.FeaturesConfig {
	return s.cfg.Features
}

// BackendHealth calls the backend health check when the toggle is on
func (s *PortalService) BackendHealth(ctx context.Context) (*client.HealthStatus, error) {
	if !s.cfg.Features.HealthCheck {
		return nil, errors.FeatureDisabled()
	}
	return s.backend.HealthCheck(ctx)
}

// LookupAddress resolves a postal code
func (s *PortalService) LookupAddress(ctx context.Context, raw string) (*domain.AddressData, error) {
	return s.lookup.Lookup(ctx, raw)
}

// Views are created per request; the request context is their lifetime.

func (s *PortalService) ListView(ctx context.Context) *view.ListView {
	return view.NewListView(s.backend, s.cfg.Pagination, i18n.LocalizerFromContext(ctx), s.logger)
}

func (s *PortalService) DetailView(ctx context.Context) *view.DetailView {
	return view.NewDetailView(s.backend, i18n.LocalizerFromContext(ctx), s.logger)
}

// Search loads one page of the list view
func (s *PortalService) Search(ctx context.Context, f view.Filter) (*view.Page, error) {
	v := s.ListView(ctx)
	defer v.Dispose()
	return v.Load(ctx, f)
}

// Detail loads the formatted detail of one employee
func (s *PortalService) Detail(ctx context.Context, id domain.ID) (*view.Detail, error) {
	v := s.DetailView(ctx)
	defer v.Dispose()
	return v.Load(ctx, id)
}

// Delete removes an employee after explicit confirmation
func (s *PortalService) Delete(ctx context.Context, id domain.ID, confirmed bool) (*client.DeleteResult, error) {
	v := s.ListView(ctx)
	defer v.Dispose()

	res, err := v.Delete(ctx, id, confirmed)
	if err != nil {
		return nil, err
	}
	s.recorder.Deleted(ctx, id)
	return res, nil
}

// DownloadBadge fetches the printed badge from the backend
func (s *PortalService) DownloadBadge(ctx context.Context, id domain.ID) (*view.File, error) {
	if !s.cfg.Features.BadgeGeneration {
		return nil, errors.FeatureDisabled()
	}
	v := s.ListView(ctx)
	defer v.Dispose()

	f, err := v.DownloadBadge(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Downloaded(ctx, events.KindBadge, []domain.ID{id}, f.Name, len(f.Data))
	return f, nil
}

// DownloadDocument fetches the accountant document
func (s *PortalService) DownloadDocument(ctx context.Context, id domain.ID) (*view.File, error) {
	v := s.ListView(ctx)
	defer v.Dispose()

	f, err := v.DownloadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Downloaded(ctx, events.KindDocument, []domain.ID{id}, f.Name, len(f.Data))
	return f, nil
}

// DownloadBadges fetches one PDF with several badges
func (s *PortalService) DownloadBadges(ctx context.Context, ids []domain.ID) (*view.File, error) {
	if !s.cfg.Features.BadgeGeneration || !s.cfg.Features.MultiBadge {
		return nil, errors.FeatureDisabled()
	}
	v := s.ListView(ctx)
	defer v.Dispose()

	f, err := v.DownloadBadges(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.recorder.Downloaded(ctx, events.KindBadges, ids, f.Name, len(f.Data))
	return f, nil
}

// Export downloads the employee list as csv, json or xlsx
func (s *PortalService) Export(ctx context.Context, f view.Filter, format, status string) (*view.File, error) {
	if !s.cfg.Features.Export {
		return nil, errors.FeatureDisabled()
	}
	v := s.ListView(ctx)
	defer v.Dispose()

	// xlsx renders the page selected by the filter
	v.SetFilter(f)

	file, err := v.Export(ctx, format, status)
	if err != nil {
		return nil, err
	}
	s.recorder.Exported(ctx, format, status, len(file.Data))
	return file, nil
}

// BadgePreview renders the badge locally
func (s *PortalService) BadgePreview(ctx context.Context, id domain.ID) (*view.File, error) {
	if !s.cfg.Features.BadgeGeneration {
		return nil, errors.FeatureDisabled()
	}
	v := s.DetailView(ctx)
	defer v.Dispose()

	d, err := v.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	l := i18n.LocalizerFromContext(ctx)
	data, err := badge.NewRenderer(s.cfg.App.Name, l).Render(d.Employee)
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to render badge: %v", err))
	}
	name := display.FileName("cracha_preview", d.Employee.FullName, "pdf")
	return &view.File{Name: name, ContentType: "application/pdf", Data: data}, nil
}

// Activity lists the recorded portal activity of an employee
func (s *PortalService) Activity(ctx context.Context, id domain.ID, limit int) ([]repository.Activity, error) {
	if s.activity == nil {
		return nil, errors.FeatureDisabled()
	}
	list, err := s.activity.ListByEmployee(ctx, int(id), limit)
	if err != nil {
		s.logger.Error().Err(err).Int("employee_id", int(id)).Msg("failed to list activity")
		return nil, errors.Internal(err.Error())
	}
	return list, nil
}

func (s *PortalService) editorDeps() editor.Deps {
	return editor.Deps{
		Backend:  s.backend,
		Lookup:   s.lookup,
		Upload:   s.cfg.Upload,
		Recorder: s.recorder,
		Logger:   s.logger.WithComponent("editor"),
	}
}

// OpenEditor starts an editor session. A zero id opens a blank New form.
func (s *PortalService) OpenEditor(ctx context.Context, id domain.ID) (*editor.Session, error) {
	var sess *editor.Session
	if id == 0 {
		sess = editor.NewSession(ctx, s.editorDeps())
	} else {
		var err error
		sess, err = editor.OpenSession(ctx, s.editorDeps(), id)
		if err != nil {
			return nil, err
		}
	}
	s.sessions.Add(sess)
	s.logger.Debug().Str("session_id", sess.ID()).Str("mode", string(sess.Mode())).Msg("editor session opened")
	return sess, nil
}

// Session returns a live editor session
func (s *PortalService) Session(id string) (*editor.Session, error) {
	return s.sessions.Get(id)
}

// CloseSession disposes an editor session; in-flight results are dropped
func (s *PortalService) CloseSession(id string) error {
	if !s.sessions.Delete(id) {
		return errors.NotFound("editor.session_not_found")
	}
	return nil
}
