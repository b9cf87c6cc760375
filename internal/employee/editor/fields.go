package editor

import (
	"strconv"
	"strings"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/internal/employee/validation"
)

// Section groups fields the way the form presents them
type Section string

const (
	SectionIdentity     Section = "identity"
	SectionDocuments    Section = "documents"
	SectionContact      Section = "contact"
	SectionFamily       Section = "family"
	SectionProfessional Section = "professional"
	SectionFinancial    Section = "financial"
	SectionBenefits     Section = "benefits"
	SectionEducation    Section = "education"
)

// Sections in form order
var Sections = []Section{
	SectionIdentity, SectionDocuments, SectionContact, SectionFamily,
	SectionProfessional, SectionFinancial, SectionBenefits, SectionEducation,
}

// Kind decides how a raw value is normalized and encoded in payloads
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindBool
	KindNumber
	KindInteger
	KindEnum
)

// Field describes one editable attribute. ID is the backend JSON name.
type Field struct {
	ID      string
	Section Section
	Kind    Kind
	// Rule is a validator/v10 tag applied to non-empty values
	Rule string
	// Gate names the boolean field that must be "true" for this field to be visible
	Gate string
}

const boolRule = "oneof=true false"

func text(id string, s Section, rule string) Field { return Field{ID: id, Section: s, Kind: KindText, Rule: rule} }
func date(id string, s Section) Field { return Field{ID: id, Section: s, Kind: KindDate, Rule: "isodate"} }
func flag(id string, s Section) Field { return Field{ID: id, Section: s, Kind: KindBool, Rule: boolRule} }
func number(id string, s Section) Field { return Field{ID: id, Section: s, Kind: KindNumber, Rule: "numeric"} }
func integer(id string, s Section) Field { return Field{ID: id, Section: s, Kind: KindInteger, Rule: "number"} }

func enum(id string, s Section, values []string) Field {
	return Field{ID: id, Section: s, Kind: KindEnum, Rule: "oneof=" + domain.OneOf(values)}
}

func gated(f Field, gate string) Field {
	f.Gate = gate
	return f
}

var registry = []Field{
	text("fullName", SectionIdentity, "min=3"),
	text("tagName", SectionIdentity, "min=2"),
	text("tagLastName", SectionIdentity, "min=2"),
	text("email", SectionIdentity, "email"),
	date("birthday", SectionIdentity),
	enum("gender", SectionIdentity, domain.Genders),
	enum("maritalStatus", SectionIdentity, domain.MaritalStatuses),
	enum("skinColor", SectionIdentity, domain.SkinColors),
	enum("graduation", SectionIdentity, domain.Graduations),
	text("naturalness", SectionIdentity, ""),
	text("nationality", SectionIdentity, ""),
	text("fatherName", SectionIdentity, "min=3"),
	text("motherName", SectionIdentity, "min=3"),

	text("cpf", SectionDocuments, "cpf"),
	text("rg", SectionDocuments, "max=20"),
	text("rgEmitter", SectionDocuments, ""),
	date("rgEmissionDate", SectionDocuments),
	text("pisPasep", SectionDocuments, ""),
	text("voterTitle", SectionDocuments, ""),
	text("voterZone", SectionDocuments, ""),
	text("voterSection", SectionDocuments, ""),
	date("voterEmission", SectionDocuments),
	text("militaryCertificate", SectionDocuments, ""),
	text("ctps", SectionDocuments, ""),
	text("ctpsSerie", SectionDocuments, ""),
	flag("driversLicense", SectionDocuments),
	gated(text("driversLicenseNumber", SectionDocuments, ""), "driversLicense"),
	gated(enum("driversLicenseCategory", SectionDocuments, domain.DriverLicenseCategories), "driversLicense"),
	gated(date("driversLicenseEmissionDate", SectionDocuments), "driversLicense"),
	gated(date("driversLicenseExpirationDate", SectionDocuments), "driversLicense"),

	text("phone", SectionContact, "phone"),
	text("mobile", SectionContact, "phone"),
	text("cep", SectionContact, "cep"),
	text("employeeAddress", SectionContact, ""),
	text("employeeAddressNumber", SectionContact, ""),
	text("employeeAddressComplement", SectionContact, ""),
	text("employeeNeighborhood", SectionContact, ""),
	text("employeeAddressCity", SectionContact, ""),
	text("employeeAddressState", SectionContact, "len=2"),

	text("partnerName", SectionFamily, "min=3"),
	text("partnerCpf", SectionFamily, "cpf"),
	date("partnerBirthday", SectionFamily),
	text("partnerRg", SectionFamily, "max=20"),

	integer("companyNumber", SectionProfessional),
	text("companyName", SectionProfessional, ""),
	enum("jobPosition", SectionProfessional, domain.JobPositions),
	text("jobFunctions", SectionProfessional, ""),
	date("admissionDate", SectionProfessional),
	text("period", SectionProfessional, ""),
	date("contractExpirationDate", SectionProfessional),
	text("dailyHours", SectionProfessional, ""),
	text("weeklyHours", SectionProfessional, ""),
	text("monthlyHours", SectionProfessional, ""),
	text("weeklyClasses", SectionProfessional, ""),
	flag("hasAccumulate", SectionProfessional),
	gated(text("hasAccumulateCompany", SectionProfessional, ""), "hasAccumulate"),
	enum("status", SectionProfessional, domain.Statuses),

	number("salary", SectionFinancial),
	text("salaryBank", SectionFinancial, ""),
	text("salaryAgency", SectionFinancial, ""),
	text("salaryAccount", SectionFinancial, ""),
	text("salaryAccountType", SectionFinancial, ""),
	number("familySalary", SectionFinancial),
	text("parenting", SectionFinancial, ""),
	text("IRPF", SectionFinancial, ""),

	number("mealValue", SectionBenefits),
	flag("transport", SectionBenefits),
	gated(text("trasportType", SectionBenefits, ""), "transport"),
	gated(number("transportValue", SectionBenefits), "transport"),
	text("healthPlan", SectionBenefits, ""),
	text("healthCardNumber", SectionBenefits, ""),
	flag("deficiency", SectionBenefits),
	gated(text("deficiencyDescription", SectionBenefits, ""), "deficiency"),

	text("college", SectionEducation, ""),
	text("course", SectionEducation, ""),
	text("trainingPeriod", SectionEducation, ""),
	text("ra", SectionEducation, ""),
	text("collegeCep", SectionEducation, "cep"),
	text("traineeAddress", SectionEducation, ""),
	integer("traineeAddressNumber", SectionEducation),
	text("traineeAddressNeighborhood", SectionEducation, ""),
	text("traineeAddressComplement", SectionEducation, ""),
	text("traineeAddressCity", SectionEducation, ""),
	text("traineeAddressState", SectionEducation, "len=2"),
	text("lifInsurancePolicy", SectionEducation, ""),
}

var byID = func() map[string]Field {
	m := make(map[string]Field, len(registry))
	for _, f := range registry {
		m[f.ID] = f
	}
	return m
}()

// Fields returns the registry in form order
func Fields() []Field {
	return append([]Field(nil), registry...)
}

// Lookup finds a field by ID
func Lookup(id string) (Field, bool) {
	f, ok := byID[id]
	return f, ok
}

// requiredOnCreate are the fields a new employee cannot be created without
var requiredOnCreate = []string{"fullName", "tagName", "tagLastName"}

// multipartFields travel in the create request; everything else follows as a patch
var multipartFields = map[string]bool{
	"fullName":     true,
	"tagName":      true,
	"tagLastName":  true,
	"jobFunctions": true,
	"birthday":     true,
}

// newDefaults is the baseline of a fresh form
var newDefaults = map[string]string{
	"status":         string(domain.DefaultStatus),
	"driversLicense": "false",
	"hasAccumulate":  "false",
	"transport":      "false",
	"deficiency":     "false",
}

// addressTarget maps a postal code field to the fields its lookup fills
type addressTarget struct {
	street, neighborhood, city, state, complement string
}

var addressTargets = map[string]addressTarget{
	"cep": {
		street:       "employeeAddress",
		neighborhood: "employeeNeighborhood",
		city:         "employeeAddressCity",
		state:        "employeeAddressState",
		complement:   "employeeAddressComplement",
	},
	"collegeCep": {
		street:       "traineeAddress",
		neighborhood: "traineeAddressNeighborhood",
		city:         "traineeAddressCity",
		state:        "traineeAddressState",
		complement:   "traineeAddressComplement",
	},
}

// VisibleFields derives which fields are shown for the given values.
// A gated field is visible only while its gate is "true".
func VisibleFields(values map[string]string) map[string]bool {
	visible := make(map[string]bool, len(registry))
	for _, f := range registry {
		if f.Gate == "" || values[f.Gate] == "true" {
			visible[f.ID] = true
		}
	}
	return visible
}

// normalize canonicalizes user input per kind
func (f Field) normalize(raw string) string {
	v := strings.TrimSpace(raw)
	switch f.Kind {
	case KindBool:
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return strconv.FormatBool(b)
		}
	case KindNumber:
		return strings.ReplaceAll(v, ",", ".")
	case KindDate:
		// backend timestamps are edited as plain dates
		if len(v) > 10 && v[4] == '-' && v[7] == '-' && v[10] == 'T' {
			return v[:10]
		}
	case KindEnum:
		return strings.ToUpper(v)
	}
	switch f.Rule {
	case "cpf", "phone", "cep":
		return unmask(v)
	}
	return v
}

// unmask keeps only the digits of a masked document, phone or postal code.
// Anything besides digits and mask characters is left for validation to reject.
func unmask(v string) string {
	for _, r := range v {
		if (r < '0' || r > '9') && !strings.ContainsRune(" ().-/", r) {
			return v
		}
	}
	return validation.OnlyDigits(v)
}

// encode converts a validated value into its JSON payload type
func (f Field) encode(v string) interface{} {
	switch f.Kind {
	case KindBool:
		return v == "true"
	case KindNumber:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	case KindInteger:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}
