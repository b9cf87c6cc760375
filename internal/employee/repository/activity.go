package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mapleerp/employee-portal/pkg/database"
)

// Activity actions
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionBadge    = "badge"
	ActionDocument = "document"
)

// Activity is one portal operation that reached the backend successfully.
// Only field names are stored, never their values.
type Activity struct {
	ID         string         `db:"id" json:"id"`
	EmployeeID int            `db:"employee_id" json:"employee_id"`
	Action     string         `db:"action" json:"action"`
	Fields     pq.StringArray `db:"fields" json:"fields"`
	RequestID  string         `db:"request_id" json:"request_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

const createTable = `
	CREATE TABLE IF NOT EXISTS portal_activity (
		id          UUID PRIMARY KEY,
		employee_id INTEGER NOT NULL,
		action      TEXT NOT NULL,
		fields      TEXT[] NOT NULL DEFAULT '{}',
		request_id  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const createIndex = `
	CREATE INDEX IF NOT EXISTS idx_portal_activity_employee
		ON portal_activity (employee_id, created_at DESC)`

// ActivityRepository handles activity log persistence
type ActivityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// EnsureSchema creates the activity table when it does not exist
func (r *ActivityRepository) EnsureSchema(ctx context.Context) error {
	return r.db.Migrate(ctx, "portal_activity", createTable, createIndex)
}

// Record inserts an activity entry, assigning its ID and creation time
func (r *ActivityRepository) Record(ctx context.Context, a *Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Fields == nil {
		a.Fields = pq.StringArray{}
	}

	query := `
		INSERT INTO portal_activity (id, employee_id, action, fields, request_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.EmployeeID,
		a.Action,
		a.Fields,
		a.RequestID,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// ListByEmployee returns the newest entries for an employee first
func (r *ActivityRepository) ListByEmployee(ctx context.Context, employeeID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, employee_id, action, fields, request_id, created_at
		FROM portal_activity
		WHERE employee_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	activities := []Activity{}
	if err := r.db.SelectContext(ctx, &activities, query, employeeID, limit); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return activities, nil
}
