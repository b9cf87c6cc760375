// Package view holds the employee list and detail screens.
// Every request raises the loading flag until it completes. Results that
// arrive after the view was disposed or its context cancelled are dropped.
package view

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

var (
	// ErrDisposed is returned for results that arrived after Dispose
	ErrDisposed = stderrors.New("view disposed")
	// ErrConfirmationRequired is carried by deletes that were not confirmed
	ErrConfirmationRequired = stderrors.New("delete not confirmed")
)

// Backend is the part of the employee API the views need
type Backend interface {
	Search(ctx context.Context, filter client.SearchFilter) (*client.SearchResult, error)
	GetByID(ctx context.Context, id domain.ID) (*domain.Employee, error)
	Delete(ctx context.Context, id domain.ID) (*client.DeleteResult, error)
	GenerateBadge(ctx context.Context, id domain.ID) (*client.Download, error)
	GenerateDocument(ctx context.Context, id domain.ID) (*client.Download, error)
	GenerateBadges(ctx context.Context, ids []domain.ID) (*client.Download, error)
	Export(ctx context.Context, format, status string) (*client.Download, error)
}

// File is a download ready to be saved
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

const contentTypePDF = "application/pdf"

func fileFrom(d *client.Download, name, fallbackType string) *File {
	ct := d.ContentType
	if ct == "" {
		ct = fallbackType
	}
	return &File{Name: name, ContentType: ct, Data: d.Data}
}

// state is the loading and disposal bookkeeping shared by the views
type state struct {
	mu        sync.Mutex
	l         *i18n.Localizer
	log       *logger.Logger
	loading   int
	disposed  bool
	lastError string
}

func (s *state) init(l *i18n.Localizer, log *logger.Logger) {
	if l == nil {
		l = i18n.NewLocalizer(i18n.DefaultLocale)
	}
	if log == nil {
		log = logger.Nop()
	}
	s.l, s.log = l, log
}

func (s *state) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	s.loading++
	s.lastError = ""
	return nil
}

func (s *state) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

// settleLocked decides whether a finished request may touch the view
func (s *state) settleLocked(ctx context.Context, err error) error {
	if s.disposed {
		return ErrDisposed
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.lastError = s.message(err)
	}
	return err
}

func (s *state) message(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.LocalizeWith(s.l)
	}
	return err.Error()
}

// Loading reports whether a request is in flight
func (s *state) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// LastError is the message of the last failed request
func (s *state) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *state) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}
