package domain

import "strings"

// Status is the contract status of an employee
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// DefaultStatus preselects the status of a new employee form
const DefaultStatus = StatusActive

// Valid reports whether s is one of the two contract states
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

var (
	Genders         = []string{"MASCULINO", "FEMININO", "OTHER", "NO_ONE"}
	MaritalStatuses = []string{"SOLTEIRO", "CASADO", "DIVORCIADO", "VIUVO", "OUTRO"}
	SkinColors      = []string{"BRANCO", "NEGRO", "PRETO", "AMARELO", "PARDO", "INDIGENAS", "OUTRO"}
	Graduations     = []string{
		"ENSINO_FUNDAMENTAL", "ENSINO_MEDIO",
		"ENSINO_SUPERIOR_CURSANDO", "ENSINO_SUPERIOR_COMPLETO",
		"POS_GRADUACAO_CURSANDO", "POS_GRADUACAO_COMPLETO",
		"MESTRADO_CURSANDO", "MESTRADO_COMPLETO",
		"DOUTORADO_CURSANDO", "DOUTORADO_COMPLETO",
		"POS_DOUTORADO_CURSANDO", "POS_DOUTORADO_COMPLETO",
		"OUTRO",
	}
	Relationships = []string{"PAI", "MAE", "FILHO", "FILHA", "ESPOSO", "ESPOSA", "IRMAO", "IRMA", "OUTRO"}
	// DriverLicenseCategories are the CNH categories accepted by the backend
	DriverLicenseCategories = []string{"A", "B", "C", "D", "E", "AB", "AC", "AD", "AE"}
	Statuses                = []string{string(StatusActive), string(StatusInactive)}
	// JobPositions is the backend cargo list
	JobPositions = []string{
		"PROFESSOR", "COORDENADOR", "COORDENADOR_PEDAGOGICO", "DIRETOR", "SECRETARIA",
		"PEDAGOGO", "AUXILIAR_SERVICOS_GERAIS", "MOTORISTA", "MONITOR", "ESTAGIARIO",
		"AUXILIAR_PEDAGOGICO", "ASSISTENTE_TRAINEE_6H", "ASSISTENTE_SENIOR_6H_II",
		"PROF_ED_FUNDAMENTAL_I_1_E_2", "PROF_ED_FUNDAMENTAL_I",
		"PROFESSOR_EDUC_INFANTIL_ASSIST_4H", "JOVEM_APRENDIZ", "AUXILIAR_DE_COZINHA",
		"INSPETOR_DE_ALUNOS", "PROFESSOR_MUSICA",
		"INSTRUTOR_EDUCACIONAL_SENIOR_8_HORAS_ASSISTENTE",
		"PROFESSOR_EDUC_INFANTIL_SENIOR_2", "PROF_ED_INFANTIL_SENIOR",
		"ASSISTENTE_JUNIOR_6H", "AUXILIAR_ADMINISTRATIVO", "ASSISTENTE_II_6_HORAS",
		"AUXILIAR_DE_LIMPEZA", "PROFESSOR_EDUC_INFANTIL_INSTRUTOR_4H",
		"AUXILIAR_ADMINISTRATIVO_I", "ASSISTENTE_ADMINISTRATIVO_FINANCEIRO",
		"AUXILIAR_DE_MANUTENCAO", "INSPETORA_DE_ALUNOS_6_HORAS", "PROFESSOR_EDUC_INFANTIL",
		"SUPERVISORA_OPERACIONAL", "OUTRO",
	}
)

// OneOf renders values as a validator "oneof" parameter
func OneOf(values []string) string {
	return strings.Join(values, " ")
}

// Contains reports whether v is in values
func Contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
