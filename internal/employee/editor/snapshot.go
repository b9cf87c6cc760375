package editor

import (
	"github.com/mapleerp/employee-portal/internal/employee/domain"
)

// PhotoInfo describes the selected photo without its bytes
type PhotoInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Snapshot is the renderable state of a session
type Snapshot struct {
	ID         string            `json:"id"`
	Mode       Mode              `json:"mode"`
	EmployeeID domain.ID         `json:"employeeId,omitempty"`
	Values     map[string]string `json:"values"`
	// Visible lists the shown fields in form order
	Visible  []string          `json:"visible"`
	Touched  []string          `json:"touched,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Sections map[Section]bool  `json:"sections"`

	Contacts   []domain.EmergencyContact `json:"employeeContact"`
	Dependents []domain.Dependent        `json:"employeeDependent"`
	Photo      *PhotoInfo                `json:"photo,omitempty"`

	Valid       bool   `json:"valid"`
	Submitting  bool   `json:"submitting"`
	LookingUp   bool   `json:"lookingUp"`
	LookupError string `json:"lookupError,omitempty"`
}

// Snapshot copies the current state. Hidden fields are left out even when
// they still hold values. Errors are reported for touched fields only.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := VisibleFields(s.values)
	snap := &Snapshot{
		ID:          s.id,
		Mode:        s.mode,
		EmployeeID:  s.employeeID,
		Values:      make(map[string]string, len(visible)),
		Errors:      map[string]string{},
		Sections:    make(map[Section]bool, len(Sections)),
		Contacts:    append([]domain.EmergencyContact{}, s.contacts...),
		Dependents:  append([]domain.Dependent{}, s.dependents...),
		Submitting:  s.submitting,
		LookingUp:   s.lookingUp > 0,
		LookupError: s.lookupError,
	}
	for _, sec := range Sections {
		snap.Sections[sec] = true
	}

	for _, f := range registry {
		if !visible[f.ID] {
			continue
		}
		snap.Visible = append(snap.Visible, f.ID)
		if v, ok := s.values[f.ID]; ok {
			snap.Values[f.ID] = v
		}
		r := s.resultLocked(f)
		if !r.Valid {
			snap.Sections[f.Section] = false
			if s.touched[f.ID] {
				snap.Errors[f.ID] = r.Reason
			}
		}
		if s.touched[f.ID] {
			snap.Touched = append(snap.Touched, f.ID)
		}
	}

	if s.photo != nil {
		snap.Photo = &PhotoInfo{Filename: s.photo.Filename, ContentType: s.photo.ContentType, Size: s.photo.Size}
	}
	snap.Valid = s.validateLocked() == nil
	return snap
}
