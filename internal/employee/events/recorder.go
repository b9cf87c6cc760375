package events

import (
	"context"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/repository"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// ActivityStore persists activity entries
type ActivityStore interface {
	Record(ctx context.Context, a *repository.Activity) error
}

// Recorder fans successful portal operations out to the event publisher
// and, when configured, the activity log.
type Recorder struct {
	publisher *EmployeeEventPublisher
	activity  ActivityStore
	logger    *logger.Logger
}

// NewRecorder creates a recorder. activity may be nil.
func NewRecorder(publisher *EmployeeEventPublisher, activity ActivityStore, log *logger.Logger) *Recorder {
	if publisher == nil {
		publisher = NewEmployeeEventPublisher(nil, log)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{publisher: publisher, activity: activity, logger: log}
}

// Created records a multipart create and the partial update that followed it
func (r *Recorder) Created(ctx context.Context, e *domain.Employee, followUp []string) {
	r.publisher.PublishEmployeeCreated(ctx, e, followUp)
	r.record(ctx, e.ID, repository.ActionCreated, followUp)
}

func (r *Recorder) Updated(ctx context.Context, id domain.ID, fields []string) {
	r.publisher.PublishEmployeeUpdated(ctx, id, fields)
	r.record(ctx, id, repository.ActionUpdated, fields)
}

func (r *Recorder) Deleted(ctx context.Context, id domain.ID) {
	r.publisher.PublishEmployeeDeleted(ctx, id)
	r.record(ctx, id, repository.ActionDeleted, nil)
}

// Downloaded records a badge or accountant document download
func (r *Recorder) Downloaded(ctx context.Context, kind string, ids []domain.ID, fileName string, size int) {
	r.publisher.PublishDocumentGenerated(ctx, kind, ids, fileName, size)

	action := repository.ActionDocument
	if kind == KindBadge || kind == KindBadges {
		action = repository.ActionBadge
	}
	for _, id := range ids {
		r.record(ctx, id, action, nil)
	}
}

// Exported is published only; exports are not tied to one employee
func (r *Recorder) Exported(ctx context.Context, format, status string, size int) {
	r.publisher.PublishEmployeesExported(ctx, format, status, size)
}

func (r *Recorder) record(ctx context.Context, id domain.ID, action string, fields []string) {
	if r.activity == nil {
		return
	}
	a := &repository.Activity{
		EmployeeID: int(id),
		Action:     action,
		Fields:     fields,
		RequestID:  httputil.GetRequestID(ctx),
	}
	if err := r.activity.Record(ctx, a); err != nil {
		r.logger.WithRequestID(a.RequestID).Warn().Err(err).Int("employee_id", int(id)).Str("action", action).Msg("failed to record activity")
	}
}
