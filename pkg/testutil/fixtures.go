package testutil

import (
	"fmt"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
)

// Valid CPFs (check digits computed with the mod-11 rule)
var ValidCPFs = []string{
	"529.982.247-25",
	"111.444.777-35",
	"123.456.789-09",
	"39053344705",
}

// PNGHeader is enough for content sniffing to report image/png
var PNGHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Employee creates an employee fixture with defaults
func (f *FixtureFactory) Employee(opts ...func(*domain.Employee)) domain.Employee {
	seq := f.nextSeq()
	driver := false

	e := domain.Employee{
		ID:                    domain.ID(seq),
		FullName:              fmt.Sprintf("Maria Silva %d", seq),
		TagName:               "Maria",
		TagLastName:           "Silva",
		Email:                 fmt.Sprintf("maria%d@escola.com.br", seq),
		Birthday:              "1990-05-12T00:00:00.000Z",
		CPF:                   "52998224725",
		Mobile:                "11987654321",
		CEP:                   "01310100",
		EmployeeAddress:       "Avenida Paulista",
		EmployeeAddressNumber: "1000",
		EmployeeNeighborhood:  "Bela Vista",
		EmployeeAddressCity:   "São Paulo",
		EmployeeAddressState:  "SP",
		JobPosition:           "PROFESSOR",
		JobFunctions:          "Professora de Matemática",
		AdmissionDate:         "2020-02-01",
		Status:                domain.StatusActive,
		DriversLicense:        &driver,
		PhotoURL:              fmt.Sprintf("https://cdn.example.com/photos/%d.png", seq),
		Contacts: []domain.EmergencyContact{{
			ContactID:    domain.Ref(fmt.Sprint(seq)),
			Name:         "João Silva",
			Phone:        "1133334444",
			Relationship: "ESPOSO",
		}},
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

// WithFullName sets the employee full name
func WithFullName(name string) func(*domain.Employee) {
	return func(e *domain.Employee) { e.FullName = name }
}

// WithStatus sets the employee status
func WithStatus(s domain.Status) func(*domain.Employee) {
	return func(e *domain.Employee) { e.Status = s }
}

// WithJobFunctions sets the free-text job functions
func WithJobFunctions(fn string) func(*domain.Employee) {
	return func(e *domain.Employee) { e.JobFunctions = fn }
}

// Employees creates n employees
func (f *FixtureFactory) Employees(n int, opts ...func(*domain.Employee)) []domain.Employee {
	out := make([]domain.Employee, n)
	for i := range out {
		out[i] = f.Employee(opts...)
	}
	return out
}
