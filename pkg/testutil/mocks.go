package testutil

import (
	"context"
	"database/sql/driver"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/mapleerp/employee-portal/pkg/database"
	"github.com/mapleerp/employee-portal/pkg/logger"
	"github.com/mapleerp/employee-portal/pkg/messaging"
)

// MockDB is a sqlmock-backed handle for activity repository tests.
// Expected statements are matched literally, not as regular expressions.
type MockDB struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB(t *testing.T) *MockDB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &MockDB{DB: sqlx.NewDb(db, "postgres"), Mock: mock}
}

// Database wraps the mock the way the portal wraps a real connection
func (m *MockDB) Database() *database.DB {
	return database.Wrap(m.DB, logger.Nop())
}

func (m *MockDB) Close() error {
	return m.DB.Close()
}

func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

func (m *MockDB) ExpectBegin() *sqlmock.ExpectedBegin {
	return m.Mock.ExpectBegin()
}

func (m *MockDB) ExpectCommit() *sqlmock.ExpectedCommit {
	return m.Mock.ExpectCommit()
}

func (m *MockDB) ExpectRollback() *sqlmock.ExpectedRollback {
	return m.Mock.ExpectRollback()
}

func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	if err := m.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// AnyUUID matches the generated activity IDs
type AnyUUID struct{}

func (AnyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && uuidPattern.MatchString(s)
}

// PublishedEvent is one call seen by MockPublisher
type PublishedEvent struct {
	Type          string
	Payload       interface{}
	CorrelationID string
}

// MockPublisher stands in for the RabbitMQ publisher and keeps every event in order.
// Safe for concurrent use.
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	// Err is returned by every Publish call after recording the event
	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{
		Type:          eventType,
		Payload:       payload,
		CorrelationID: messaging.CorrelationID(ctx),
	})
	return m.Err
}

func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.events...)
}

// Find returns the first event of the given type
func (m *MockPublisher) Find(eventType string) (PublishedEvent, bool) {
	for _, e := range m.Events() {
		if e.Type == eventType {
			return e, true
		}
	}
	return PublishedEvent{}, false
}

func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	if _, ok := m.Find(eventType); !ok {
		t.Errorf("expected event %q, got %v", eventType, m.types())
	}
}

func (m *MockPublisher) types() []string {
	var out []string
	for _, e := range m.Events() {
		out = append(out, e.Type)
	}
	return out
}
