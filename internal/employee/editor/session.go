package editor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/validation"
	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// ListPath is where a successful submission sends the user
const ListPath = "/employees"

// Sentinel errors carried by editor AppErrors
var (
	ErrSubmitInProgress = stderrors.New("submission already in progress")
	ErrSessionClosed    = stderrors.New("editor session closed")
	ErrLastContact      = stderrors.New("last emergency contact")
)

// Backend is the part of the employee API the editor needs
type Backend interface {
	GetByID(ctx context.Context, id domain.ID) (*domain.Employee, error)
	Create(ctx context.Context, req client.CreateRequest) (*domain.Employee, error)
	Update(ctx context.Context, id domain.ID, patch domain.Patch) (*domain.Employee, error)
}

// AddressLookup resolves postal codes
type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*domain.AddressData, error)
}

// Recorder is notified after the backend accepted a submission
type Recorder interface {
	Created(ctx context.Context, e *domain.Employee, followUp []string)
	Updated(ctx context.Context, id domain.ID, fields []string)
}

// Deps are the collaborators shared by every session
type Deps struct {
	Backend  Backend
	Lookup   AddressLookup
	Upload   config.UploadConfig
	Recorder Recorder
	Logger   *logger.Logger
}

var validate = validation.New()

// Session is the state of one employee form. All methods are safe for
// concurrent use; network calls run without holding the lock.
type Session struct {
	mu   sync.Mutex
	id   string
	deps Deps
	l    *i18n.Localizer
	log  *logger.Logger

	mode       Mode
	employeeID domain.ID

	values   map[string]string
	baseline map[string]string
	touched  map[string]bool

	contacts       []domain.EmergencyContact
	baseContacts   []domain.EmergencyContact
	dependents     []domain.Dependent
	baseDependents []domain.Dependent
	photo          *domain.Photo

	submitting  bool
	lookingUp   int
	lookupSeq   map[string]int
	lookupError string
	disposed    bool
	lastAccess  time.Time
}

func newSession(ctx context.Context, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	id := uuid.NewString()
	return &Session{
		id:         id,
		deps:       deps,
		log:        deps.Logger.WithSessionID(id),
		l:          i18n.LocalizerFromContext(ctx),
		values:     map[string]string{},
		baseline:   map[string]string{},
		touched:    map[string]bool{},
		lookupSeq:  map[string]int{},
		lastAccess: time.Now(),
	}
}

// NewSession starts a blank form for a new employee
func NewSession(ctx context.Context, deps Deps) *Session {
	s := newSession(ctx, deps)
	s.mode = ModeNew
	for k, v := range newDefaults {
		s.values[k] = v
		s.baseline[k] = v
	}
	s.contacts = []domain.EmergencyContact{{}}
	return s
}

// OpenSession loads an existing employee into an edit form
func OpenSession(ctx context.Context, deps Deps, id domain.ID) (*Session, error) {
	e, err := deps.Backend.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s := newSession(ctx, deps)
	s.mode = ModeEdit
	s.employeeID = e.ID
	if s.employeeID == 0 {
		s.employeeID = id
	}
	s.log = s.log.WithEmployeeID(int(s.employeeID))

	values, err := valuesOf(e)
	if err != nil {
		return nil, errors.Internal(fmt.Sprintf("failed to load employee: %v", err))
	}
	s.values = values
	s.baseline = copyValues(values)

	s.baseContacts = filledContacts(e.Contacts)
	s.contacts = append([]domain.EmergencyContact(nil), e.Contacts...)
	if len(s.contacts) == 0 {
		s.contacts = []domain.EmergencyContact{{}}
	}
	s.baseDependents = filledDependents(e.Dependents)
	s.dependents = append([]domain.Dependent(nil), e.Dependents...)

	return s, nil
}

// valuesOf flattens an employee into normalized form values
func valuesOf(e *domain.Employee) (map[string]string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(registry))
	for _, f := range registry {
		var v string
		switch x := m[f.ID].(type) {
		case nil:
			continue
		case string:
			v = x
		case bool:
			v = strconv.FormatBool(x)
		case float64:
			v = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			v = fmt.Sprint(x)
		}
		values[f.ID] = f.normalize(v)
	}
	for k, v := range newDefaults {
		if values[k] == "" {
			values[k] = v
		}
	}
	return values, nil
}

// ID identifies the session in the editor routes
func (s *Session) ID() string { return s.id }

// Mode is ModeNew until a create succeeds, then ModeEdit
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// EmployeeID is zero until the employee exists in the backend
func (s *Session) EmployeeID() domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employeeID
}

// Dispose discards the session; late results are ignored
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

// Disposed reports whether Dispose was called
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) closedError() *errors.AppError {
	e := errors.NewWithKey(errors.CodeNotFound, "editor.session_closed", http.StatusGone)
	e.Err = ErrSessionClosed
	return e
}

// Set stores one value and returns its validation result
func (s *Session) Set(field, value string) (Result, error) {
	results, err := s.SetValues(map[string]string{field: value})
	if err != nil {
		return Result{}, err
	}
	return results[field], nil
}

// SetValues stores several values at once. Unknown fields reject the whole batch.
func (s *Session) SetValues(values map[string]string) (map[string]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, s.closedError()
	}
	for id := range values {
		if _, ok := Lookup(id); !ok {
			return nil, errors.BadRequestWithKey("editor.unknown_field", map[string]string{"field": id})
		}
	}

	results := make(map[string]Result, len(values))
	for id, raw := range values {
		f, _ := Lookup(id)
		s.values[id] = f.normalize(raw)
	}
	for id := range values {
		f, _ := Lookup(id)
		results[id] = s.resultLocked(f)
	}
	return results, nil
}

// Value returns the current raw value of a field, hidden or not
func (s *Session) Value(field string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[field]
}

// Validate returns the result for one field. Hidden fields are always valid.
func (s *Session) Validate(field string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := Lookup(field)
	if !ok {
		return Invalid(s.l.T("editor.unknown_field", map[string]string{"field": field}))
	}
	return s.resultLocked(f)
}

// SectionValid aggregates the results of the visible fields of a section
func (s *Session) SectionValid(section Section) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range registry {
		if f.Section == section && !s.resultLocked(f).Valid {
			return false
		}
	}
	return true
}

func (s *Session) resultLocked(f Field) Result {
	if f.Gate != "" && s.values[f.Gate] != "true" {
		return Valid()
	}
	return s.check(f, s.values[f.ID])
}

func (s *Session) required(f Field) bool {
	if s.mode != ModeNew {
		return false
	}
	for _, id := range requiredOnCreate {
		if id == f.ID {
			return true
		}
	}
	return false
}

func (s *Session) check(f Field, v string) Result {
	if v == "" {
		if s.required(f) {
			return Invalid(s.l.T("validation.required"))
		}
		return Valid()
	}
	if f.Rule == "" {
		return Valid()
	}
	if err := validate.Var(v, f.Rule); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
			return Invalid(httputil.FieldErrorMessage(s.l, ves[0]))
		}
		return Invalid(s.l.T("validation.invalid"))
	}
	return Valid()
}

// validateLocked collects every issue that blocks submission, in form order
func (s *Session) validateLocked() *ValidationError {
	var issues []Issue

	if s.mode == ModeNew && (s.photo == nil || len(s.photo.Data) == 0) {
		issues = append(issues, Issue{Field: "photo", Kind: RequiredFieldMissing, Reason: s.l.T("validation.photo_required")})
	}

	for _, f := range registry {
		if f.Gate != "" && s.values[f.Gate] != "true" {
			continue
		}
		v := s.values[f.ID]
		if v == "" && s.required(f) {
			issues = append(issues, Issue{Field: f.ID, Kind: RequiredFieldMissing, Reason: s.l.T("validation.required")})
			continue
		}
		if r := s.check(f, v); !r.Valid {
			issues = append(issues, Issue{Field: f.ID, Kind: InvalidValue, Reason: r.Reason})
		}
	}

	for i, c := range s.contacts {
		if !c.IsBlank() {
			issues = append(issues, s.structIssues(fmt.Sprintf("employeeContact[%d]", i), c)...)
		}
	}
	for i, d := range s.dependents {
		if !d.IsBlank() {
			issues = append(issues, s.structIssues(fmt.Sprintf("employeeDependent[%d]", i), d)...)
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues, Focus: issues[0].Field}
}

func (s *Session) structIssues(prefix string, v interface{}) []Issue {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Issue{{Field: prefix, Kind: InvalidValue, Reason: s.l.T("validation.invalid")}}
	}
	issues := make([]Issue, 0, len(ves))
	for _, fe := range ves {
		issues = append(issues, Issue{
			Field:  prefix + "." + fe.Field(),
			Kind:   InvalidValue,
			Reason: httputil.FieldErrorMessage(s.l, fe),
		})
	}
	return issues
}

// BlurResult reports the field result and, for postal codes, the autofill outcome
type BlurResult struct {
	Field       string              `json:"field"`
	Result      Result              `json:"result"`
	Address     *domain.AddressData `json:"address,omitempty"`
	LookupError string              `json:"lookupError,omitempty"`
	// Discarded is set when a newer edit or disposal superseded the lookup
	Discarded bool  `json:"discarded,omitempty"`
	Err       error `json:"-"`
}

// Blur marks a field touched. Leaving a valid postal code field looks the
// address up and fills the matching section; lookup failures are reported
// in the result and never block the form.
func (s *Session) Blur(ctx context.Context, field string) (*BlurResult, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, s.closedError()
	}
	f, ok := Lookup(field)
	if !ok {
		s.mu.Unlock()
		return nil, errors.BadRequestWithKey("editor.unknown_field", map[string]string{"field": field})
	}

	s.touched[field] = true
	res := s.resultLocked(f)
	out := &BlurResult{Field: field, Result: res}

	target, isPostal := addressTargets[field]
	raw := s.values[field]
	if !isPostal || raw == "" || !res.Valid || s.deps.Lookup == nil {
		s.mu.Unlock()
		return out, nil
	}

	s.lookupSeq[field]++
	seq := s.lookupSeq[field]
	s.lookingUp++
	s.lookupError = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.lookingUp--
		s.mu.Unlock()
	}()

	addr, err := s.deps.Lookup.Lookup(ctx, raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.lookupSeq[field] != seq || s.values[field] != raw || ctx.Err() != nil {
		out.Discarded = true
		return out, nil
	}
	if err != nil {
		out.Err = err
		out.LookupError = s.message(err)
		s.lookupError = out.LookupError
		s.log.Debug().Err(err).Str("field", field).Msg("postal code lookup failed")
		return out, nil
	}

	s.values[target.street] = addr.Street
	s.values[target.neighborhood] = addr.Neighborhood
	s.values[target.city] = addr.City
	s.values[target.state] = addr.State
	s.values[target.complement] = appendComplement(s.values[target.complement], addr.Complement)
	out.Address = addr
	return out, nil
}

func appendComplement(existing, extra string) string {
	extra = strings.TrimSpace(extra)
	switch {
	case extra == "":
		return existing
	case existing == "":
		return extra
	case strings.Contains(existing, extra):
		return existing
	default:
		return existing + " - " + extra
	}
}

func (s *Session) message(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.LocalizeWith(s.l)
	}
	return err.Error()
}

// SetPhoto validates and stores the photo sent with a new employee
func (s *Session) SetPhoto(p *domain.Photo) error {
	if err := CheckPhoto(p, s.deps.Upload, s.l); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return s.closedError()
	}
	s.photo = p
	return nil
}

// CheckPhoto enforces the configured size limit and MIME types
func CheckPhoto(p *domain.Photo, cfg config.UploadConfig, l *i18n.Localizer) error {
	if p == nil || len(p.Data) == 0 {
		return errors.LocalValidation(nil, map[string]string{"photo": l.T("validation.photo_required")})
	}
	p.Size = int64(len(p.Data))

	if cfg.MaxFileSize > 0 && p.Size > cfg.MaxFileSize {
		maxMB := strconv.FormatFloat(float64(cfg.MaxFileSize)/(1<<20), 'f', -1, 64)
		return errors.LocalValidation(nil, map[string]string{
			"photo": l.T("validation.photo_size", map[string]string{"max": maxMB}),
		})
	}

	ct := strings.TrimSpace(strings.SplitN(p.ContentType, ";", 2)[0])
	if ct == "" || ct == "application/octet-stream" {
		ct = strings.SplitN(http.DetectContentType(p.Data), ";", 2)[0]
	}
	p.ContentType = ct
	if len(cfg.AllowedTypes) > 0 && !domain.Contains(cfg.AllowedTypes, ct) {
		return errors.LocalValidation(nil, map[string]string{
			"photo": l.T("validation.photo_type", map[string]string{"types": strings.Join(cfg.AllowedTypes, ", ")}),
		})
	}
	return nil
}
