package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

const (
	maxReconnectAttempts = 5
	heartbeat            = 10 * time.Second
)

var errPermanentlyClosed = errors.New("rabbitmq connection is permanently closed")

// RabbitMQ owns the portal's publishing connection. Reconnects are lazy: the
// publisher asks for one when it finds the channel closed.
type RabbitMQ struct {
	name   string
	config config.RabbitMQConfig
	logger *logger.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	lastErr error
	closed  bool
}

// New dials the broker. name shows up as the connection name in the management UI.
func New(cfg config.RabbitMQConfig, name string, log *logger.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		name:   name,
		config: cfg,
		logger: log.WithComponent("rabbitmq"),
	}
	if err := rmq.connect(); err != nil {
		return nil, err
	}
	return rmq, nil
}

// connect must be called with mu held, or before the value is shared
func (r *RabbitMQ) connect() error {
	conn, err := amqp.DialConfig(r.config.URL, amqp.Config{
		Heartbeat:  heartbeat,
		Properties: amqp.Table{"connection_name": r.name},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	r.conn, r.channel, r.lastErr = conn, ch, nil
	go r.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	r.logger.Info().Str("connection", r.name).Msg("connected to RabbitMQ")
	return nil
}

// watch records why the broker dropped the connection so Health can report it.
// A clean Close delivers no error.
func (r *RabbitMQ) watch(closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	if !ok || amqpErr == nil {
		return
	}
	r.logger.Warn().Int("code", amqpErr.Code).Str("reason", amqpErr.Reason).Msg("RabbitMQ connection lost")

	r.mu.Lock()
	r.lastErr = amqpErr
	r.mu.Unlock()
}

func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports the connection state and the last broker close reason
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := map[string]string{"status": "up", "exchange": r.config.Exchange}
	if r.conn == nil || r.conn.IsClosed() {
		status["status"] = "down"
	}
	if r.lastErr != nil {
		status["error"] = r.lastErr.Error()
	}
	return status
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	ch := r.Channel()
	if ch == nil {
		return amqp.ErrClosed
	}
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}

// Reconnect replaces a dropped connection. Concurrent callers wait for the
// first one and return at once when it already succeeded.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errPermanentlyClosed
	}
	if r.conn != nil && !r.conn.IsClosed() && r.channel != nil && !r.channel.IsClosed() {
		return nil
	}
	// channel died on a live connection
	if r.conn != nil && !r.conn.IsClosed() {
		r.conn.Close()
	}

	var err error
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		if err = r.connect(); err == nil {
			return nil
		}
		r.logger.Warn().Err(err).Int("attempt", attempt).Msg("reconnection attempt failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config.ReconnectDelay):
		}
	}
	r.lastErr = err
	return fmt.Errorf("failed to reconnect after %d attempts: %w", maxReconnectAttempts, err)
}
