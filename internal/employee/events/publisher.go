package events

import (
	"context"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/messaging"
)

// Document kinds
const (
	KindBadge    = "badge"
	KindBadges   = "badges"
	KindDocument = "document"
)

// EmployeeEventPublisher publishes employee lifecycle events. Failures are
// logged and never reach the caller: the backend already accepted the change.
type EmployeeEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

func NewEmployeeEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *EmployeeEventPublisher {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EmployeeEventPublisher{publisher: publisher, logger: log}
}

// NewRabbitPublisher declares the exchange and publishes to it
func NewRabbitPublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*EmployeeEventPublisher, error) {
	if exchange == "" {
		exchange = messaging.ExchangePortalEvents
	}
	publisher, err := messaging.NewPublisher(rmq, exchange, "employee-portal", log)
	if err != nil {
		return nil, err
	}
	return NewEmployeeEventPublisher(publisher, log), nil
}

// publish correlates the event with the portal request that caused it
func (p *EmployeeEventPublisher) publish(ctx context.Context, eventType string, data interface{}) error {
	if id := httputil.GetRequestID(ctx); id != "" {
		ctx = messaging.WithCorrelationID(ctx, id)
	}
	return p.publisher.Publish(ctx, eventType, data)
}

// PublishEmployeeCreated publishes an employee created event
func (p *EmployeeEventPublisher) PublishEmployeeCreated(ctx context.Context, e *domain.Employee, followUp []string) {
	data := messaging.EmployeeCreatedEvent{
		EmployeeID:     int(e.ID),
		FullName:       e.FullName,
		FollowUpFields: followUp,
	}

	if err := p.publish(ctx, messaging.EventEmployeeCreated, data); err != nil {
		p.logger.Error().Err(err).Int("employee_id", int(e.ID)).Msg("failed to publish employee created event")
	}
}

// PublishEmployeeUpdated publishes the names of the fields sent in an update
func (p *EmployeeEventPublisher) PublishEmployeeUpdated(ctx context.Context, id domain.ID, fields []string) {
	data := messaging.EmployeeUpdatedEvent{
		EmployeeID: int(id),
		Fields:     fields,
	}

	if err := p.publish(ctx, messaging.EventEmployeeUpdated, data); err != nil {
		p.logger.Error().Err(err).Int("employee_id", int(id)).Msg("failed to publish employee updated event")
	}
}

func (p *EmployeeEventPublisher) PublishEmployeeDeleted(ctx context.Context, id domain.ID) {
	data := messaging.EmployeeDeletedEvent{EmployeeID: int(id)}

	if err := p.publish(ctx, messaging.EventEmployeeDeleted, data); err != nil {
		p.logger.Error().Err(err).Int("employee_id", int(id)).Msg("failed to publish employee deleted event")
	}
}

// PublishDocumentGenerated publishes a badge or accountant document download
func (p *EmployeeEventPublisher) PublishDocumentGenerated(ctx context.Context, kind string, ids []domain.ID, fileName string, size int) {
	employeeIDs := make([]int, len(ids))
	for i, id := range ids {
		employeeIDs[i] = int(id)
	}
	data := messaging.DocumentGeneratedEvent{
		EmployeeIDs: employeeIDs,
		Kind:        kind,
		FileName:    fileName,
		Size:        size,
	}

	eventType := messaging.EventDocumentGenerated
	if kind == KindBadge || kind == KindBadges {
		eventType = messaging.EventBadgeGenerated
	}

	if err := p.publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("kind", kind).Msg("failed to publish document generated event")
	}
}

func (p *EmployeeEventPublisher) PublishEmployeesExported(ctx context.Context, format, status string, size int) {
	data := messaging.EmployeesExportedEvent{Format: format, Status: status, Size: size}

	if err := p.publish(ctx, messaging.EventEmployeesExported, data); err != nil {
		p.logger.Error().Err(err).Str("format", format).Msg("failed to publish employees exported event")
	}
}
