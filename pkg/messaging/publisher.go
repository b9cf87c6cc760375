package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mapleerp/employee-portal/pkg/logger"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Publisher publishes portal events to a topic exchange. A closed channel
// triggers one reconnect and a single retry of the publish.
type Publisher struct {
	rmq      *RabbitMQ
	exchange string
	source   string
	logger   *logger.Logger
}

// NewPublisher creates a new publisher for the given exchange
func NewPublisher(rmq *RabbitMQ, exchange, source string, log *logger.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		rmq:      rmq,
		exchange: exchange,
		source:   source,
		logger:   log,
	}, nil
}

// Publish publishes an event to the exchange, using the event type as routing key
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	correlationID := CorrelationID(ctx)

	event, err := NewEvent(eventType, p.source, correlationID, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: correlationID,
		MessageId:     event.ID,
		Body:          body,
	}

	err = p.send(ctx, eventType, msg)
	if errors.Is(err, amqp.ErrClosed) {
		p.logger.Warn().Str("event_type", eventType).Msg("channel closed, reconnecting before retry")
		if rerr := p.rmq.Reconnect(ctx); rerr != nil {
			return fmt.Errorf("failed to publish event: %w", rerr)
		}
		err = p.send(ctx, eventType, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("correlation_id", correlationID).
		Msg("event published")

	return nil
}

func (p *Publisher) send(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	ch := p.rmq.Channel()
	if ch == nil {
		return amqp.ErrClosed
	}
	return ch.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
}

// NopPublisher drops every event. Used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID sets the correlation ID stamped on published events
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationID returns the ID set by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}
