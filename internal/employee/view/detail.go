package view

import (
	"context"
	"strings"

	"github.com/mapleerp/employee-portal/internal/employee/client"
	"github.com/mapleerp/employee-portal/internal/employee/display"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// DetailPath is the portal route of an employee
func DetailPath(id domain.ID) string { return "/employees/" + id.String() }

// EditPath is where the detail screen sends the user to edit
func EditPath(id domain.ID) string { return "/employees/edit/" + id.String() }

type ContactDetail struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
}

type DependentDetail struct {
	Name         string `json:"name"`
	CPF          string `json:"cpf"`
	Birthday     string `json:"birthday"`
	Relationship string `json:"relationship"`
}

// Detail is an employee formatted for display
type Detail struct {
	ID          domain.ID     `json:"id"`
	FullName    string        `json:"fullName"`
	BadgeName   string        `json:"badgeName"`
	Position    string        `json:"position"`
	JobPosition string        `json:"jobPosition"`
	Email       string        `json:"email"`
	Birthday    string        `json:"birthday"`
	CPF         string        `json:"cpf"`
	RG          string        `json:"rg"`
	Phone       string        `json:"phone"`
	Mobile      string        `json:"mobile"`
	CEP         string        `json:"cep"`
	Address     string        `json:"address"`
	City        string        `json:"city"`
	Admission   string        `json:"admissionDate"`
	Status      domain.Status `json:"status"`
	StatusLabel string        `json:"statusLabel"`
	Photo       string        `json:"photo"`
	EditPath    string        `json:"editPath"`

	Contacts   []ContactDetail   `json:"contacts"`
	Dependents []DependentDetail `json:"dependents"`

	Employee *domain.Employee `json:"employee"`
}

// DetailView is the screen of one employee
type DetailView struct {
	state
	backend Backend

	employee *domain.Employee
	detail   *Detail
}

func NewDetailView(backend Backend, l *i18n.Localizer, log *logger.Logger) *DetailView {
	v := &DetailView{backend: backend}
	v.init(l, log)
	return v
}

// Load fetches and formats one employee
func (v *DetailView) Load(ctx context.Context, id domain.ID) (*Detail, error) {
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	e, err := v.backend.GetByID(ctx, id)
	if errors.Is(err, errors.ErrNotFound) {
		err = errors.NotFound("view.employee_not_found")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.settleLocked(ctx, err); err != nil {
		return nil, err
	}

	if e.ID == 0 {
		e.ID = id
	}
	v.employee = e
	v.detail = v.format(e)
	return v.detail, nil
}

// Employee returns the loaded employee, nil before Load succeeds
func (v *DetailView) Employee() *domain.Employee {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.employee
}

func (v *DetailView) format(e *domain.Employee) *Detail {
	l := v.l
	d := &Detail{
		ID:          e.ID,
		FullName:    display.Text(e.FullName, l),
		BadgeName:   e.BadgeName(),
		Position:    display.Text(e.Position(), l),
		JobPosition: display.Text(e.JobPosition, l),
		Email:       display.Text(e.Email, l),
		Birthday:    display.Date(e.Birthday, l),
		CPF:         display.CPF(e.CPF, l),
		RG:          display.Text(e.RG, l),
		Phone:       display.Phone(e.Phone, l),
		Mobile:      display.Phone(e.Mobile, l),
		CEP:         display.CEP(e.CEP, l),
		Address:     display.Text(address(e), l),
		City:        display.Text(cityState(e), l),
		Admission:   display.Date(e.AdmissionDate, l),
		Status:      e.Status,
		StatusLabel: display.Status(e.Status, l),
		Photo:       display.Photo(e),
		EditPath:    EditPath(e.ID),
		Contacts:    make([]ContactDetail, 0, len(e.Contacts)),
		Dependents:  make([]DependentDetail, 0, len(e.Dependents)),
		Employee:    e,
	}
	for _, c := range e.Contacts {
		d.Contacts = append(d.Contacts, ContactDetail{
			Name:         display.Text(c.Name, l),
			Phone:        display.Phone(c.Phone, l),
			Email:        display.Text(c.Email, l),
			Relationship: display.Text(c.Relationship, l),
		})
	}
	for _, dep := range e.Dependents {
		d.Dependents = append(d.Dependents, DependentDetail{
			Name:         display.Text(dep.Name, l),
			CPF:          display.CPF(dep.CPF, l),
			Birthday:     display.Date(dep.Birthday, l),
			Relationship: display.Text(dep.Relationship, l),
		})
	}
	return d
}

// address joins street, number, complement and neighborhood
func address(e *domain.Employee) string {
	var parts []string
	street := e.EmployeeAddress
	if street != "" && e.EmployeeAddressNumber != "" {
		street += ", " + e.EmployeeAddressNumber
	}
	for _, p := range []string{street, e.EmployeeAddressComplement, e.EmployeeNeighborhood} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}

func cityState(e *domain.Employee) string {
	switch {
	case e.EmployeeAddressCity != "" && e.EmployeeAddressState != "":
		return e.EmployeeAddressCity + "/" + e.EmployeeAddressState
	case e.EmployeeAddressCity != "":
		return e.EmployeeAddressCity
	default:
		return e.EmployeeAddressState
	}
}

// DownloadBadge fetches the badge of the loaded employee
func (v *DetailView) DownloadBadge(ctx context.Context) (*File, error) {
	return v.download(ctx, "cracha", v.backend.GenerateBadge)
}

// DownloadDocument fetches the accountant document of the loaded employee
func (v *DetailView) DownloadDocument(ctx context.Context) (*File, error) {
	return v.download(ctx, "documento_contabil", v.backend.GenerateDocument)
}

func (v *DetailView) download(ctx context.Context, prefix string, fetch func(context.Context, domain.ID) (*client.Download, error)) (*File, error) {
	e := v.Employee()
	if e == nil {
		return nil, errors.NotFound("view.employee_not_found")
	}
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	d, err := fetch(ctx, e.ID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.settleLocked(ctx, err); err != nil {
		return nil, err
	}
	return fileFrom(d, display.FileName(prefix, e.FullName, "pdf"), contentTypePDF), nil
}
