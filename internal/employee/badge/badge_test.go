package badge_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleerp/employee-portal/internal/employee/badge"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/i18n"
	"github.com/mapleerp/employee-portal/pkg/testutil"
)

func TestRender(t *testing.T) {
	r := badge.NewRenderer("Maple ERP", i18n.NewLocalizer(i18n.LocalePortuguese))
	e := testutil.NewFixtureFactory().Employee()

	pdf, err := r.Render(&e)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Contains(t, string(pdf), "%%EOF")
}

func TestRender_FallsBackToFullName(t *testing.T) {
	r := badge.NewRenderer("Maple ERP", i18n.NewLocalizer(i18n.LocalePortuguese))

	pdf, err := r.Render(&domain.Employee{ID: 4, FullName: "José Araújo"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRender_RequiresID(t *testing.T) {
	r := badge.NewRenderer("Maple ERP", i18n.NewLocalizer(i18n.LocalePortuguese))

	_, err := r.Render(&domain.Employee{FullName: "Sem ID"})
	assert.Error(t, err)
}

func TestQRContent(t *testing.T) {
	assert.Equal(t, "maple-erp:employee:42", badge.QRContent(42))
}
