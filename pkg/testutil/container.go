// Package testutil provides testing utilities for the employee portal:
// a PostgreSQL testcontainer for the activity log, sqlmock helpers,
// in-memory fakes of the Maple ERP backend and ViaCEP, and fixtures.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/database"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// PostgresContainer is a throwaway activity log database
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "maple_portal_test",
		Username: "maple",
		Password: "maple",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections.
// Callers own Terminate.
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	def := DefaultPostgresConfig()
	if cfg.Image == "" {
		cfg.Image = def.Image
	}
	if cfg.Database == "" {
		cfg.Database = def.Database
	}
	if cfg.Username == "" {
		cfg.Username = def.Username
	}
	if cfg.Password == "" {
		cfg.Password = def.Password
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Database opens the container through database.New, as the portal does at startup
func (c *PostgresContainer) Database(log *logger.Logger) (*database.DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := database.New(config.DatabaseConfig{URL: c.DSN, MaxOpenConns: 4}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Truncate empties tables between tests
func Truncate(ctx context.Context, db *database.DB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = pq.QuoteIdentifier(t)
	}
	_, err := db.ExecContext(ctx, "TRUNCATE "+strings.Join(quoted, ", "))
	return err
}

func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}
