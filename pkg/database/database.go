package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// healthTimeout bounds the ping issued by Health
const healthTimeout = time.Second

// DB is the portal's PostgreSQL handle. It only backs the optional activity log.
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// New connects to PostgreSQL using the configured URL and pool limits
func New(cfg config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("connected to activity database")
	return Wrap(db, log), nil
}

// Wrap adapts an existing sqlx handle, e.g. one backed by sqlmock
func Wrap(db *sqlx.DB, log *logger.Logger) *DB {
	if log == nil {
		log = logger.Nop()
	}
	return &DB{DB: db, logger: log.WithComponent("database")}
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Health pings the database and reports pool usage
func (db *DB) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	stats := db.Stats()
	status := map[string]string{
		"status":     "up",
		"open_conns": fmt.Sprint(stats.OpenConnections),
		"in_use":     fmt.Sprint(stats.InUse),
		"wait_count": fmt.Sprint(stats.WaitCount),
	}
	if err := db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}
	return status
}

// Migrate applies idempotent DDL statements in one transaction.
// name only labels the log lines.
func (db *DB) Migrate(ctx context.Context, name string, statements ...string) error {
	start := time.Now()
	err := db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	db.logger.Debug().
		Str("migration", name).
		Int("statements", len(statements)).
		Dur("duration", time.Since(start)).
		Msg("migration applied")
	return nil
}

// Transaction runs fn and commits, rolling back when fn fails
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
