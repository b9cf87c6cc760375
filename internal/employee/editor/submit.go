package editor

import (
	"context"
	"reflect"

	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/errors"
)

const (
	contactsKey   = "employeeContact"
	dependentsKey = "employeeDependent"
)

// SubmitResult describes an accepted submission
type SubmitResult struct {
	Mode     Mode             `json:"mode"`
	Employee *domain.Employee `json:"employee,omitempty"`
	// Fields lists what was sent in the JSON update
	Fields []string `json:"fields,omitempty"`
	// Skipped is set when an edit had nothing to send
	Skipped  bool   `json:"skipped,omitempty"`
	Notice   string `json:"notice,omitempty"`
	Navigate string `json:"navigate,omitempty"`
}

// plan is an immutable copy of everything a submission sends
type plan struct {
	mode       Mode
	id         domain.ID
	values     map[string]string
	contacts   []domain.EmergencyContact
	dependents []domain.Dependent
	create     client.CreateRequest
	patch      domain.Patch
}

// Submit validates the form and sends it. A new employee is created with a
// multipart request, then the remaining filled fields follow as one partial
// update. An edit sends only the changed, non-empty fields.
// Only one submission runs at a time per session.
func (s *Session) Submit(ctx context.Context) (*SubmitResult, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, s.closedError()
	}
	if s.submitting {
		s.mu.Unlock()
		e := errors.Conflict("editor.submit_in_progress")
		e.Err = ErrSubmitInProgress
		return nil, e
	}

	if verr := s.validateLocked(); verr != nil {
		for id, visible := range VisibleFields(s.values) {
			if visible {
				s.touched[id] = true
			}
		}
		s.mu.Unlock()
		return nil, verr.appError()
	}

	p := s.planLocked()
	if p.mode == ModeEdit && p.patch.IsEmpty() {
		s.mu.Unlock()
		return &SubmitResult{Mode: ModeEdit, Skipped: true, Notice: s.l.T("editor.nothing_to_update")}, nil
	}

	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if p.mode == ModeNew {
		return s.create(ctx, p)
	}
	return s.update(ctx, p)
}

// Submitting reports whether a submission is in flight
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) planLocked() *plan {
	p := &plan{
		mode:       s.mode,
		id:         s.employeeID,
		values:     copyValues(s.values),
		contacts:   filledContacts(s.contacts),
		dependents: filledDependents(s.dependents),
	}

	exclude := map[string]bool{}
	if p.mode == ModeNew {
		exclude = multipartFields
		p.create = client.CreateRequest{
			FullName:     p.values["fullName"],
			TagName:      p.values["tagName"],
			TagLastName:  p.values["tagLastName"],
			JobFunctions: p.values["jobFunctions"],
			Birthday:     p.values["birthday"],
			Photo:        s.photo,
		}
	}

	p.patch = s.changesLocked(p, exclude)
	return p
}

// changesLocked builds the patch of visible fields that are filled and differ from the baseline
func (s *Session) changesLocked(p *plan, exclude map[string]bool) domain.Patch {
	visible := VisibleFields(p.values)
	patch := domain.Patch{}

	for _, f := range registry {
		if !visible[f.ID] || exclude[f.ID] {
			continue
		}
		v := p.values[f.ID]
		if v == "" || v == s.baseline[f.ID] {
			continue
		}
		patch[f.ID] = f.encode(v)
	}

	if !reflect.DeepEqual(p.contacts, s.baseContacts) {
		patch[contactsKey] = nonNil(p.contacts)
	}
	if !reflect.DeepEqual(p.dependents, s.baseDependents) {
		patch[dependentsKey] = nonNilDependents(p.dependents)
	}
	return patch
}

func nonNil(c []domain.EmergencyContact) []domain.EmergencyContact {
	if c == nil {
		return []domain.EmergencyContact{}
	}
	return c
}

func nonNilDependents(d []domain.Dependent) []domain.Dependent {
	if d == nil {
		return []domain.Dependent{}
	}
	return d
}

func (s *Session) create(ctx context.Context, p *plan) (*SubmitResult, error) {
	created, err := s.deps.Backend.Create(ctx, p.create)
	if err != nil {
		s.log.Warn().Err(err).Msg("employee creation failed")
		return nil, err
	}

	followUp := p.patch.Fields()
	var followErr error
	if len(followUp) > 0 {
		updated, err := s.deps.Backend.Update(ctx, created.ID, p.patch)
		if err != nil {
			followErr = err
		} else {
			created = updated
		}
	}

	s.mu.Lock()
	if !s.disposed {
		// the session continues as an edit of the record that now exists
		s.mode = ModeEdit
		s.employeeID = created.ID
		sent := make([]string, 0, len(multipartFields)+len(followUp))
		for id := range multipartFields {
			sent = append(sent, id)
		}
		if followErr == nil {
			sent = append(sent, followUp...)
		}
		s.commitLocked(p, sent)
	}
	s.mu.Unlock()

	if followErr != nil {
		s.log.Warn().
			Err(followErr).
			Int("employee_id", int(created.ID)).
			Strs("fields", followUp).
			Msg("employee created but details were not saved")
		if s.deps.Recorder != nil {
			s.deps.Recorder.Created(ctx, created, nil)
		}
		return nil, followErr
	}

	if s.deps.Recorder != nil {
		s.deps.Recorder.Created(ctx, created, followUp)
	}

	return &SubmitResult{
		Mode:     ModeNew,
		Employee: created,
		Fields:   followUp,
		Notice:   s.l.T("editor.created"),
		Navigate: ListPath,
	}, nil
}

func (s *Session) update(ctx context.Context, p *plan) (*SubmitResult, error) {
	fields := p.patch.Fields()

	updated, err := s.deps.Backend.Update(ctx, p.id, p.patch)
	if err != nil {
		s.log.Warn().Err(err).Int("employee_id", int(p.id)).Msg("employee update failed")
		return nil, err
	}

	s.mu.Lock()
	if !s.disposed {
		s.commitLocked(p, fields)
	}
	s.mu.Unlock()

	if s.deps.Recorder != nil {
		s.deps.Recorder.Updated(ctx, p.id, fields)
	}

	return &SubmitResult{
		Mode:     ModeEdit,
		Employee: updated,
		Fields:   fields,
		Notice:   s.l.T("editor.updated"),
		Navigate: ListPath,
	}, nil
}

// commitLocked moves the baseline of the sent fields to the values that were sent
func (s *Session) commitLocked(p *plan, sent []string) {
	for _, id := range sent {
		switch id {
		case contactsKey:
			s.baseContacts = p.contacts
		case dependentsKey:
			s.baseDependents = p.dependents
		default:
			s.baseline[id] = p.values[id]
		}
	}
}
