package httputil

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/i18n"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate validates a struct using go-playground/validator.
// Details are keyed by JSON field name.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}
		l := i18n.NewLocalizer(i18n.DefaultLocale)
		details := make(map[string]string)

		for _, e := range validationErrors {
			details[e.Field()] = FieldErrorMessage(l, e)
		}

		return errors.Validation(details)
	}
	return nil
}

// FieldErrorMessage renders a validator failure as a user-facing message
func FieldErrorMessage(l *i18n.Localizer, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return l.T("validation.required")
	case "email":
		return l.T("validation.email")
	case "min":
		return l.T("validation.min_length", map[string]string{"min": e.Param()})
	case "max":
		return l.T("validation.max_length", map[string]string{"max": e.Param()})
	case "oneof":
		return l.T("validation.oneof", map[string]string{"values": strings.ReplaceAll(e.Param(), " ", ", ")})
	case "cpf":
		return l.T("validation.cpf")
	case "phone":
		return l.T("validation.phone")
	case "cep":
		return l.T("validation.cep")
	case "isodate":
		return l.T("validation.date")
	case "numeric", "number", "gte", "lte":
		return l.T("validation.number")
	default:
		return l.T("validation.invalid")
	}
}

// RegisterCustomValidation registers a custom validation function
func RegisterCustomValidation(tag string, fn validator.Func) error {
	return validate.RegisterValidation(tag, fn)
}

// Pagination is a parsed limit/offset pair
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads ?limit= and ?offset= (or ?page=), clamping limit to max.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: defaultLimit}

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	} else if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 1 {
		p.Offset = (page - 1) * p.Limit
	}

	return p
}
