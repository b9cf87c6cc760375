package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mapleerp/employee-portal/internal/cep"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	apperrors "github.com/mapleerp/employee-portal/pkg/errors"
)

// DateLayout is the wire format of every date field edited by the portal
const DateLayout = "2006-01-02"

// BrazilianValidator provides Brazilian document and contact validation
type BrazilianValidator struct{}

// NewBrazilianValidator creates a new Brazilian validator
func NewBrazilianValidator() *BrazilianValidator {
	return &BrazilianValidator{}
}

// ValidationResult contains the result of a validation
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// ValidateCPF validates a CPF (11 digits, two mod-11 check digits)
func (v *BrazilianValidator) ValidateCPF(cpf string) *ValidationResult {
	if !IsValidCPF(cpf) {
		return &ValidationResult{Valid: false, Message: "CPF inválido"}
	}
	return &ValidationResult{Valid: true, Formatted: FormatCPF(cpf)}
}

// ValidatePhone validates a landline (10 digits) or mobile (11 digits) number with area code
func (v *BrazilianValidator) ValidatePhone(phone string) *ValidationResult {
	if !IsValidPhone(phone) {
		return &ValidationResult{Valid: false, Message: "Telefone inválido"}
	}
	return &ValidationResult{Valid: true, Formatted: FormatPhone(phone)}
}

// ValidateCEP validates a postal code without looking it up
func (v *BrazilianValidator) ValidateCEP(raw string) *ValidationResult {
	if _, err := cep.Validate(raw); err != nil {
		msg := "CEP inválido"
		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) {
			msg = appErr.Message
		}
		return &ValidationResult{Valid: false, Message: msg}
	}
	return &ValidationResult{Valid: true, Formatted: cep.Format(raw)}
}

// OnlyDigits strips everything but ASCII digits
func OnlyDigits(s string) string {
	return cep.Normalize(s)
}

// IsValidCPF checks length, repeated digits and both check digits
func IsValidCPF(raw string) bool {
	cpf := OnlyDigits(raw)
	if len(cpf) != 11 {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return false
	}

	d := make([]int, 11)
	for i := range cpf {
		d[i] = int(cpf[i] - '0')
	}

	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

// checkDigit weights digits from startWeight down to 2
func checkDigit(digits []int, startWeight int) int {
	sum := 0
	for i, n := range digits {
		sum += n * (startWeight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}

// FormatCPF renders 11 digits as 000.000.000-00; anything else is returned as given
func FormatCPF(raw string) string {
	cpf := OnlyDigits(raw)
	if len(cpf) != 11 {
		return raw
	}
	return cpf[:3] + "." + cpf[3:6] + "." + cpf[6:9] + "-" + cpf[9:]
}

// IsValidPhone accepts 10 or 11 digits after stripping formatting
func IsValidPhone(raw string) bool {
	n := len(OnlyDigits(raw))
	return n == 10 || n == 11
}

// FormatPhone applies (00) 00000-0000 or (00) 0000-0000
func FormatPhone(raw string) string {
	p := OnlyDigits(raw)
	switch len(p) {
	case 11:
		return "(" + p[:2] + ") " + p[2:7] + "-" + p[7:]
	case 10:
		return "(" + p[:2] + ") " + p[2:6] + "-" + p[6:]
	default:
		return raw
	}
}

// IsISODate reports whether s is a calendar date in YYYY-MM-DD
func IsISODate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Funcs returns the custom validator tags used by employee forms
func Funcs() map[string]validator.Func {
	return map[string]validator.Func{
		"cpf":   func(fl validator.FieldLevel) bool { return IsValidCPF(fl.Field().String()) },
		"phone": func(fl validator.FieldLevel) bool { return IsValidPhone(fl.Field().String()) },
		"cep":   func(fl validator.FieldLevel) bool { return cep.IsValid(fl.Field().String()) },
		"isodate": func(fl validator.FieldLevel) bool {
			return IsISODate(fl.Field().String())
		},
		"relationship": func(fl validator.FieldLevel) bool {
			return domain.Contains(domain.Relationships, fl.Field().String())
		},
	}
}

// Register installs Funcs through register, e.g. httputil.RegisterCustomValidation
func Register(register func(tag string, fn validator.Func) error) error {
	for tag, fn := range Funcs() {
		if err := register(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// New returns a validator with the custom tags installed.
// Field names in errors are the JSON names.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = Register(func(tag string, fn validator.Func) error {
		return v.RegisterValidation(tag, fn)
	})
	return v
}
