// Package export renders employee lists as XLSX spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mapleerp/employee-portal/internal/employee/display"
	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/i18n"
)

const (
	FormatXLSX      = "xlsx"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	key   string
	width float64
	value func(e *domain.Employee, l *i18n.Localizer) interface{}
}

var columns = []column{
	{"export.id", 8, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return int(e.ID) }},
	{"export.name", 32, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return e.FullName }},
	{"export.badge_name", 22, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return e.BadgeName() }},
	{"export.position", 28, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return e.Position() }},
	{"export.cpf", 16, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return e.CPF }},
	{"export.email", 30, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return e.Email }},
	{"export.mobile", 17, func(e *domain.Employee, _ *i18n.Localizer) interface{} { return e.Mobile }},
	{"export.admission", 12, func(e *domain.Employee, l *i18n.Localizer) interface{} {
		if e.AdmissionDate == "" {
			return ""
		}
		return display.Date(e.AdmissionDate, l)
	}},
	{"export.status", 10, func(e *domain.Employee, l *i18n.Localizer) interface{} { return display.Status(e.Status, l) }},
}

// Workbook writes one sheet with a header row and one row per employee
func Workbook(employees []domain.Employee, l *i18n.Localizer) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := l.T("export.sheet")
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, l.T(col.key)); err != nil {
			return nil, err
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return nil, err
	}

	for r := range employees {
		e := &employees[r]
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			row[i] = col.value(e, l)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
