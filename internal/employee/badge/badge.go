// Package badge renders a local preview of an employee badge.
// The printed badge itself comes from the backend.
package badge

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/mapleerp/employee-portal/internal/employee/domain"
	"github.com/mapleerp/employee-portal/pkg/i18n"
)

// CR80 card size in millimetres
const (
	cardWidth  = 54.0
	cardHeight = 85.6
	qrSize     = 28.0
)

// Renderer draws badge previews
type Renderer struct {
	title string
	l     *i18n.Localizer
}

// NewRenderer uses title as the card header, usually the app name
func NewRenderer(title string, l *i18n.Localizer) *Renderer {
	return &Renderer{title: title, l: l}
}

// QRContent is the payload encoded on the badge
func QRContent(id domain.ID) string {
	return "maple-erp:employee:" + id.String()
}

// Render returns a one-page PDF
func (r *Renderer) Render(e *domain.Employee) ([]byte, error) {
	if e.ID == 0 {
		return nil, fmt.Errorf("employee has no id")
	}

	png, err := qrcode.Encode(QRContent(e.ID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(r.l.T("badge.preview")+" "+e.BadgeName(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFillColor(31, 78, 120)
	pdf.Rect(0, 0, cardWidth, 14, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(0, 4)
	pdf.CellFormat(cardWidth, 6, tr(r.title), "", 0, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(2, 22)
	pdf.MultiCell(cardWidth-4, 6, tr(nonEmpty(e.BadgeName(), r.l.T("view.name_missing"))), "", "C", false)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(2)
	pdf.MultiCell(cardWidth-4, 5, tr(nonEmpty(e.Position(), r.l.T("view.position_missing"))), "", "C", false)

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("qr", (cardWidth-qrSize)/2, cardHeight-qrSize-12, qrSize, qrSize, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(0, cardHeight-10)
	pdf.CellFormat(cardWidth, 5, tr(r.l.T("badge.employee_id")+": "+e.ID.String()), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render badge: %w", err)
	}
	return buf.Bytes(), nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
