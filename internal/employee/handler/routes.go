package handler

import (
	"github.com/go-chi/chi/v5"
)

// Handlers groups everything mounted under /api/v1
type Handlers struct {
	Employees  *EmployeeHandler
	Editor     *EditorHandler
	Validation *ValidationHandler
}

// Mount registers the portal API routes on r
func (h Handlers) Mount(r chi.Router) {
	r.Get("/backend/health", h.Employees.BackendHealth)
	r.Get("/cep/{cep}", h.Validation.LookupCEP)

	r.Route("/validate", func(r chi.Router) {
		r.Post("/cpf", h.Validation.ValidateCPF)
		r.Post("/phone", h.Validation.ValidatePhone)
		r.Post("/cep", h.Validation.ValidateCEP)
	})

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.Employees.List)
		r.Get("/export", h.Employees.Export)
		r.Post("/badges", h.Employees.Badges)
		r.Get("/{id}", h.Employees.Get)
		r.Delete("/{id}", h.Employees.Delete)
		r.Get("/{id}/badge", h.Employees.Badge)
		r.Get("/{id}/badge/preview", h.Employees.BadgePreview)
		r.Get("/{id}/document", h.Employees.Document)
		r.Get("/{id}/activity", h.Employees.Activity)
	})

	r.Route("/editor/sessions", func(r chi.Router) {
		r.Post("/", h.Editor.Open)
		r.Route("/{sid}", func(r chi.Router) {
			r.Get("/", h.Editor.Get)
			r.Delete("/", h.Editor.Close)
			r.Patch("/fields", h.Editor.SetFields)
			r.Post("/blur/{field}", h.Editor.Blur)
			r.Put("/photo", h.Editor.Photo)
			r.Post("/contacts", h.Editor.AddContact)
			r.Patch("/contacts/{index}", h.Editor.UpdateContact)
			r.Delete("/contacts/{index}", h.Editor.RemoveContact)
			r.Post("/dependents", h.Editor.AddDependent)
			r.Patch("/dependents/{index}", h.Editor.UpdateDependent)
			r.Delete("/dependents/{index}", h.Editor.RemoveDependent)
			r.Post("/submit", h.Editor.Submit)
		})
	})
}
