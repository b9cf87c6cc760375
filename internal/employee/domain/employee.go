package domain

import "sort"

// Employee is the backend employee record. JSON names follow the backend
// contract, including its "trasportType" spelling.
type Employee struct {
	ID            ID     `json:"id,omitempty"`
	CompanyNumber *int   `json:"companyNumber,omitempty"`
	CompanyName   string `json:"companyName,omitempty"`
	UserID        Ref    `json:"userId,omitempty"`

	// Identity
	FullName      string `json:"fullName,omitempty"`
	TagName       string `json:"tagName,omitempty"`
	TagLastName   string `json:"tagLastName,omitempty"`
	Email         string `json:"email,omitempty"`
	Birthday      string `json:"birthday,omitempty"`
	Age           string `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	MaritalStatus string `json:"maritalStatus,omitempty"`
	SkinColor     string `json:"skinColor,omitempty"`
	Graduation    string `json:"graduation,omitempty"`
	Naturalness   string `json:"naturalness,omitempty"`
	Nationality   string `json:"nationality,omitempty"`
	FatherName    string `json:"fatherName,omitempty"`
	MotherName    string `json:"motherName,omitempty"`

	// Documents
	CPF                          string `json:"cpf,omitempty"`
	RG                           string `json:"rg,omitempty"`
	RGEmitter                    string `json:"rgEmitter,omitempty"`
	RGEmissionDate               string `json:"rgEmissionDate,omitempty"`
	PisPasep                     string `json:"pisPasep,omitempty"`
	VoterTitle                   string `json:"voterTitle,omitempty"`
	VoterZone                    string `json:"voterZone,omitempty"`
	VoterSection                 string `json:"voterSection,omitempty"`
	VoterEmission                string `json:"voterEmission,omitempty"`
	MilitaryCertificate          string `json:"militaryCertificate,omitempty"`
	CTPS                         string `json:"ctps,omitempty"`
	CTPSSerie                    string `json:"ctpsSerie,omitempty"`
	DriversLicense               *bool  `json:"driversLicense,omitempty"`
	DriversLicenseNumber         string `json:"driversLicenseNumber,omitempty"`
	DriversLicenseCategory       string `json:"driversLicenseCategory,omitempty"`
	DriversLicenseEmissionDate   string `json:"driversLicenseEmissionDate,omitempty"`
	DriversLicenseExpirationDate string `json:"driversLicenseExpirationDate,omitempty"`

	// Contact and address
	Phone                     string `json:"phone,omitempty"`
	Mobile                    string `json:"mobile,omitempty"`
	CEP                       string `json:"cep,omitempty"`
	EmployeeAddress           string `json:"employeeAddress,omitempty"`
	EmployeeAddressNumber     string `json:"employeeAddressNumber,omitempty"`
	EmployeeAddressComplement string `json:"employeeAddressComplement,omitempty"`
	EmployeeNeighborhood      string `json:"employeeNeighborhood,omitempty"`
	EmployeeAddressCity       string `json:"employeeAddressCity,omitempty"`
	EmployeeAddressState      string `json:"employeeAddressState,omitempty"`

	// Family
	PartnerName     string `json:"partnerName,omitempty"`
	PartnerCPF      string `json:"partnerCpf,omitempty"`
	PartnerBirthday string `json:"partnerBirthday,omitempty"`
	PartnerRG       string `json:"partnerRg,omitempty"`

	// Professional
	JobPosition            string `json:"jobPosition,omitempty"`
	JobFunctions           string `json:"jobFunctions,omitempty"`
	AdmissionDate          string `json:"admissionDate,omitempty"`
	Period                 string `json:"period,omitempty"`
	ContractExpirationDate string `json:"contractExpirationDate,omitempty"`
	DailyHours             string `json:"dailyHours,omitempty"`
	WeeklyHours            string `json:"weeklyHours,omitempty"`
	MonthlyHours           string `json:"monthlyHours,omitempty"`
	WeeklyClasses          string `json:"weeklyClasses,omitempty"`
	HasAccumulate          *bool  `json:"hasAccumulate,omitempty"`
	HasAccumulateCompany   string `json:"hasAccumulateCompany,omitempty"`
	Status                 Status `json:"status,omitempty"`

	// Financial
	Salary            *Decimal `json:"salary,omitempty"`
	SalaryBank        string   `json:"salaryBank,omitempty"`
	SalaryAgency      string   `json:"salaryAgency,omitempty"`
	SalaryAccount     string   `json:"salaryAccount,omitempty"`
	SalaryAccountType string   `json:"salaryAccountType,omitempty"`
	FamilySalary      *Decimal `json:"familySalary,omitempty"`
	Parenting         string   `json:"parenting,omitempty"`
	IRPF              string   `json:"IRPF,omitempty"`

	// Benefits
	MealValue             *Decimal `json:"mealValue,omitempty"`
	Transport             *bool    `json:"transport,omitempty"`
	TransportType         string   `json:"trasportType,omitempty"`
	TransportValue        *Decimal `json:"transportValue,omitempty"`
	HealthPlan            string   `json:"healthPlan,omitempty"`
	HealthCardNumber      string   `json:"healthCardNumber,omitempty"`
	Deficiency            *bool    `json:"deficiency,omitempty"`
	DeficiencyDescription string   `json:"deficiencyDescription,omitempty"`

	// Education and internship
	College                    string   `json:"college,omitempty"`
	Course                     string   `json:"course,omitempty"`
	TrainingPeriod             string   `json:"trainingPeriod,omitempty"`
	RA                         string   `json:"ra,omitempty"`
	CollegeCEP                 string   `json:"collegeCep,omitempty"`
	TraineeAddress             string   `json:"traineeAddress,omitempty"`
	TraineeAddressNumber       *Decimal `json:"traineeAddressNumber,omitempty"`
	TraineeAddressNeighborhood string   `json:"traineeAddressNeighborhood,omitempty"`
	TraineeAddressComplement   string   `json:"traineeAddressComplement,omitempty"`
	TraineeAddressCity         string   `json:"traineeAddressCity,omitempty"`
	TraineeAddressState        string   `json:"traineeAddressState,omitempty"`
	LifInsurancePolicy         string   `json:"lifInsurancePolicy,omitempty"`

	PhotoURL      string `json:"photoUrl,omitempty"`
	EmployeePhoto string `json:"employeePhoto,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`

	Contacts   []EmergencyContact `json:"employeeContact,omitempty"`
	Dependents []Dependent        `json:"employeeDependent,omitempty"`
}

// Photo returns the best available photo URL
func (e *Employee) Photo() string {
	if e.PhotoURL != "" {
		return e.PhotoURL
	}
	return e.EmployeePhoto
}

// BadgeName is the name printed on the badge: tag name and last name,
// or the full name when no tag name was given.
func (e *Employee) BadgeName() string {
	switch {
	case e.TagName != "" && e.TagLastName != "":
		return e.TagName + " " + e.TagLastName
	case e.TagName != "":
		return e.TagName
	default:
		return e.FullName
	}
}

// Position prefers the free-text job functions over the position enum
func (e *Employee) Position() string {
	if e.JobFunctions != "" {
		return e.JobFunctions
	}
	return e.JobPosition
}

// EmergencyContact is owned by its employee and has no lifecycle of its own
type EmergencyContact struct {
	ContactID    Ref    `json:"contactId,omitempty"`
	EmployeeID   Ref    `json:"employeeId,omitempty"`
	Name         string `json:"contactName,omitempty" validate:"omitempty,min=2"`
	Phone        string `json:"contactPhone,omitempty" validate:"omitempty,phone"`
	Email        string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	Relationship string `json:"contactRelationship,omitempty" validate:"omitempty,relationship"`
}

// IsBlank reports whether no user-visible field is filled
func (c EmergencyContact) IsBlank() bool {
	return c.Name == "" && c.Phone == "" && c.Email == "" && c.Relationship == ""
}

// Dependent is owned by its employee and has no lifecycle of its own
type Dependent struct {
	DependentID  Ref    `json:"dependentId,omitempty"`
	EmployeeID   Ref    `json:"employeeId,omitempty"`
	Name         string `json:"dependentName,omitempty" validate:"omitempty,min=2"`
	CPF          string `json:"dependentCpf,omitempty" validate:"omitempty,cpf"`
	Birthday     string `json:"dependentBirthday,omitempty" validate:"omitempty,isodate"`
	Relationship string `json:"dependentRelationship,omitempty" validate:"omitempty,relationship"`
}

func (d Dependent) IsBlank() bool {
	return d.Name == "" && d.CPF == "" && d.Birthday == "" && d.Relationship == ""
}

// AddressData is the provider-neutral result of a postal code lookup
type AddressData struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Complement   string `json:"complement"`
}

// Patch is a partial JSON update keyed by backend field name
type Patch map[string]any

// Fields returns the patched field names, sorted
func (p Patch) Fields() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Patch) IsEmpty() bool { return len(p) == 0 }

// Photo is an uploaded employee picture
type Photo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}
