package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventEmployeeCreated   = "portal.employee.created"
	EventEmployeeUpdated   = "portal.employee.updated"
	EventEmployeeDeleted   = "portal.employee.deleted"
	EventBadgeGenerated    = "portal.employee.badge.generated"
	EventDocumentGenerated = "portal.employee.document.generated"
	EventEmployeesExported = "portal.employees.exported"
)

// ExchangePortalEvents is the default topic exchange
const ExchangePortalEvents = "maple.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// EmployeeCreatedEvent is published after the backend accepted a new employee
type EmployeeCreatedEvent struct {
	EmployeeID int    `json:"employee_id"`
	FullName   string `json:"full_name"`
	// FollowUpFields lists fields sent in the partial update that follows the create
	FollowUpFields []string `json:"follow_up_fields,omitempty"`
}

// EmployeeUpdatedEvent carries the names of the changed fields, never their values
type EmployeeUpdatedEvent struct {
	EmployeeID int      `json:"employee_id"`
	Fields     []string `json:"fields"`
}

type EmployeeDeletedEvent struct {
	EmployeeID int `json:"employee_id"`
}

// DocumentGeneratedEvent is published for badge and accountant document downloads
type DocumentGeneratedEvent struct {
	EmployeeIDs []int  `json:"employee_ids"`
	Kind        string `json:"kind"`
	FileName    string `json:"file_name"`
	Size        int    `json:"size"`
}

type EmployeesExportedEvent struct {
	Format string `json:"format"`
	Status string `json:"status,omitempty"`
	Size   int    `json:"size"`
}
