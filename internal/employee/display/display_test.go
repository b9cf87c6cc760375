package display_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mapleerp/employee-portal/internal/employee/display"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/i18n"
)

func TestDate(t *testing.T) {
	l := i18n.NewLocalizer(i18n.LocalePortuguese)

	assert.Equal(t, "12/05/1990", display.Date("1990-05-12T00:00:00.000Z", l))
	assert.Equal(t, "12/05/1990", display.Date("1990-05-12", l))
	assert.Equal(t, "01/02/2020", display.Date("2020-02-01T10:30:00-03:00", l))
	assert.Equal(t, "Não informado", display.Date("", l))
	assert.Equal(t, "Data inválida", display.Date("31/02/2020", l))
}

func TestDocuments(t *testing.T) {
	l := i18n.NewLocalizer(i18n.LocalePortuguese)

	assert.Equal(t, "529.982.247-25", display.CPF("52998224725", l))
	assert.Equal(t, "1234", display.CPF("1234", l))
	assert.Equal(t, "Não informado", display.CPF("", l))
	assert.Equal(t, "(11) 98765-4321", display.Phone("11987654321", l))
	assert.Equal(t, "(11) 3333-4444", display.Phone("1133334444", l))
	assert.Equal(t, "01310-100", display.CEP("01310100", l))
}

func TestStatus(t *testing.T) {
	en := i18n.NewLocalizer(i18n.LocaleEnglish)
	pt := i18n.NewLocalizer(i18n.LocalePortuguese)

	assert.Equal(t, "Ativo", display.Status(domain.StatusActive, pt))
	assert.Equal(t, "Inativo", display.Status(domain.StatusInactive, pt))
	assert.Equal(t, "LICENCA", display.Status("LICENCA", pt))
	assert.Equal(t, "Not provided", display.Status("", en))
}

func TestPhoto(t *testing.T) {
	assert.Equal(t, display.DefaultAvatar, display.Photo(&domain.Employee{}))
	assert.Equal(t, "/uploads/1.png", display.Photo(&domain.Employee{PhotoURL: "/uploads/1.png"}))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "cracha_Maria_da_Silva.pdf", display.FileName("cracha", " Maria  da Silva ", "pdf"))
	assert.Equal(t, "documento_contabil_funcionario.pdf", display.FileName("documento_contabil", "", "pdf"))
}
