package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New creates a new logger instance.
// Development uses a human-readable console writer; every other environment logs JSON.
func New(serviceName string, environment string) *Logger {
	return NewWithWriter(serviceName, environment, os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(serviceName, environment string, w io.Writer) *Logger {
	output := w
	if environment == "development" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// SetDebug toggles debug-level output
func (l *Logger) SetDebug(enabled bool) *Logger {
	level := zerolog.InfoLevel
	if enabled {
		level = zerolog.DebugLevel
	}
	return &Logger{Logger: l.Logger.Level(level)}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("request_id", requestID).Logger(),
	}
}

// WithSessionID returns a logger with the editor session ID attached
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("session_id", sessionID).Logger(),
	}
}

// WithEmployeeID returns a logger with the employee ID attached
func (l *Logger) WithEmployeeID(employeeID int) *Logger {
	return &Logger{
		Logger: l.Logger.With().Int("employee_id", employeeID).Logger(),
	}
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("component", component).Logger(),
	}
}

