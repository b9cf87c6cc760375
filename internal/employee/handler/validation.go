package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mapleerp/employee-portal/internal/employee/service"
	"github.com/mapleerp/employee-portal/internal/employee/validation"
	"github.com/mapleerp/employee-portal/pkg/httputil"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// ValidationHandler handles validation and postal code lookup endpoints
type ValidationHandler struct {
	validator *validation.BrazilianValidator
	service   *service.PortalService
	logger    *logger.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(v *validation.BrazilianValidator, svc *service.PortalService, log *logger.Logger) *ValidationHandler {
	return &ValidationHandler{
		validator: v,
		service:   svc,
		logger:    log,
	}
}

// ValidateCPF validates a CPF
func (h *ValidationHandler) ValidateCPF(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CPF string `json:"cpf" validate:"required"`
	}
	if err := decodeValid(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, h.validator.ValidateCPF(req.CPF))
}

// ValidatePhone validates a landline or mobile number
func (h *ValidationHandler) ValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone" validate:"required"`
	}
	if err := decodeValid(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, h.validator.ValidatePhone(req.Phone))
}

// ValidateCEP checks the postal code format without a lookup
func (h *ValidationHandler) ValidateCEP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CEP string `json:"cep" validate:"required"`
	}
	if err := decodeValid(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, h.validator.ValidateCEP(req.CEP))
}

// LookupCEP resolves a postal code into an address
func (h *ValidationHandler) LookupCEP(w http.ResponseWriter, r *http.Request) {
	addr, err := h.service.LookupAddress(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, addr)
}

func decodeValid(r *http.Request, v interface{}) error {
	if err := httputil.DecodeJSONLocalized(r, v); err != nil {
		return err
	}
	return httputil.Validate(v)
}
