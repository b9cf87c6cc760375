package editor

import (
	"net/http"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/errors"
)

func indexError() *errors.AppError {
	return errors.NotFound("editor.index_out_of_range")
}

// AddContact appends an emergency contact and returns its index
func (s *Session) AddContact(c domain.EmergencyContact) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, s.closedError()
	}
	c.Phone = normalizeAs("phone", c.Phone)
	s.contacts = append(s.contacts, c)
	return len(s.contacts) - 1, nil
}

// UpdateContact replaces the contact at index i, keeping its backend IDs
func (s *Session) UpdateContact(i int, c domain.EmergencyContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return s.closedError()
	}
	if i < 0 || i >= len(s.contacts) {
		return indexError()
	}
	c.ContactID, c.EmployeeID = s.contacts[i].ContactID, s.contacts[i].EmployeeID
	c.Phone = normalizeAs("phone", c.Phone)
	s.contacts[i] = c
	return nil
}

// RemoveContact deletes the contact at index i. The last contact cannot be removed.
func (s *Session) RemoveContact(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return s.closedError()
	}
	if i < 0 || i >= len(s.contacts) {
		return indexError()
	}
	if len(s.contacts) == 1 {
		e := errors.NewWithKey(errors.CodeBadRequest, "editor.last_contact", http.StatusBadRequest)
		e.Err = ErrLastContact
		return e
	}
	s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
	return nil
}

// Contacts returns a copy of the emergency contacts
func (s *Session) Contacts() []domain.EmergencyContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EmergencyContact(nil), s.contacts...)
}

// AddDependent appends a dependent and returns its index
func (s *Session) AddDependent(d domain.Dependent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, s.closedError()
	}
	d.CPF = normalizeAs("cpf", d.CPF)
	s.dependents = append(s.dependents, d)
	return len(s.dependents) - 1, nil
}

// UpdateDependent replaces the dependent at index i, keeping its backend IDs
func (s *Session) UpdateDependent(i int, d domain.Dependent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return s.closedError()
	}
	if i < 0 || i >= len(s.dependents) {
		return indexError()
	}
	d.DependentID, d.EmployeeID = s.dependents[i].DependentID, s.dependents[i].EmployeeID
	d.CPF = normalizeAs("cpf", d.CPF)
	s.dependents[i] = d
	return nil
}

// RemoveDependent deletes the dependent at index i. Unlike contacts, the list may end up empty.
func (s *Session) RemoveDependent(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return s.closedError()
	}
	if i < 0 || i >= len(s.dependents) {
		return indexError()
	}
	s.dependents = append(s.dependents[:i], s.dependents[i+1:]...)
	return nil
}

// Dependents returns a copy of the dependents
func (s *Session) Dependents() []domain.Dependent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Dependent(nil), s.dependents...)
}

// normalizeAs applies the normalization of the registry field id to v
func normalizeAs(id, v string) string {
	f, _ := Lookup(id)
	return f.normalize(v)
}

// filledContacts drops blank rows; nil when nothing is filled
func filledContacts(in []domain.EmergencyContact) []domain.EmergencyContact {
	var out []domain.EmergencyContact
	for _, c := range in {
		if !c.IsBlank() {
			out = append(out, c)
		}
	}
	return out
}

func filledDependents(in []domain.Dependent) []domain.Dependent {
	var out []domain.Dependent
	for _, d := range in {
		if !d.IsBlank() {
			out = append(out, d)
		}
	}
	return out
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
