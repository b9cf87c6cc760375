// Package display formats employee data for people to read.
package display

import (
	"regexp"
	"strings"
	"time"

	"github.com/mapleerp/employee-portal/internal/cep"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/validation"
	"github.com/mapleerp/employee-portal/pkg/i18n"
)

// DefaultAvatar is shown when an employee has no photo
const DefaultAvatar = "assets/images/default-avatar.svg"

// DateLayout is how dates are shown
const DateLayout = "02/01/2006"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	validation.DateLayout,
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate reads the date part of a backend date or timestamp
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders dd/mm/yyyy
func Date(raw string, l *i18n.Localizer) string {
	if strings.TrimSpace(raw) == "" {
		return l.T("view.not_informed")
	}
	t, ok := ParseDate(raw)
	if !ok {
		return l.T("view.invalid_date")
	}
	return t.Format(DateLayout)
}

// CPF renders 000.000.000-00. Values without 11 digits are shown as stored.
func CPF(raw string, l *i18n.Localizer) string {
	if raw == "" {
		return l.T("view.not_informed")
	}
	return validation.FormatCPF(raw)
}

func Phone(raw string, l *i18n.Localizer) string {
	if raw == "" {
		return l.T("view.not_informed")
	}
	return validation.FormatPhone(raw)
}

func CEP(raw string, l *i18n.Localizer) string {
	if raw == "" {
		return l.T("view.not_informed")
	}
	return cep.Format(raw)
}

// Text returns s or the not-informed label
func Text(s string, l *i18n.Localizer) string {
	if strings.TrimSpace(s) == "" {
		return l.T("view.not_informed")
	}
	return s
}

// Status returns the label of a known status, the raw value otherwise
func Status(s domain.Status, l *i18n.Localizer) string {
	if s == "" {
		return l.T("view.not_informed")
	}
	if s.Valid() {
		return l.T("view.status." + string(s))
	}
	return string(s)
}

func Photo(e *domain.Employee) string {
	if p := e.Photo(); p != "" {
		return p
	}
	return DefaultAvatar
}

// FileName builds download names like cracha_Maria_Silva.pdf
func FileName(prefix, fullName, ext string) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(fullName), "_")
	if name == "" {
		name = "funcionario"
	}
	return prefix + "_" + name + "." + ext
}
