package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/oshokin/panic-alert/internal/clock"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
	"github.com/oshokin/panic-alert/internal/repository/school"
)

// pdfColumns describes the alert table: header and width in millimetres.
//
//nolint:gochecknoglobals // Read-only table layout.
var pdfColumns = []struct {
	title string
	width float64
}{
	{"#", 12},
	{"Created", 38},
	{"Teacher", 40},
	{"Room", 28},
	{"Description", 54},
	{"Status", 18},
}

// RenderPDF renders the alert history of one tenant as an A4 document.
func RenderPDF(info *school.School, status *coordinator.Status) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr("Panic alert report"), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(schoolName(info, status.TenantID)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)

	if info != nil {
		for _, line := range []string{info.Address, info.City, info.Phone} {
			if line == "" {
				continue
			}

			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}

		if info.Director != "" {
			pdf.Cell(0, 5, tr("Director: "+info.Director))
			pdf.Ln(5)
		}
	}

	pdf.Ln(3)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", clock.Display(status.ServerTime)))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Alerts: %d total, %d active", status.TotalAlerts, status.ActiveAlerts))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Siren: %s (last update %s)", status.Siren.Mode(), lastUpdate(status.Siren)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)

	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 6, col.title, "1", 0, "C", false, 0, "")
	}

	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)

	for i := range status.Alerts {
		rec := &status.Alerts[i]
		cells := []string{
			fmt.Sprintf("%d", rec.ID),
			clock.Display(rec.CreatedAt),
			rec.Teacher,
			rec.Room,
			rec.Description,
			string(rec.Status),
		}

		for j, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, tr(fit(pdf, cells[j], col.width)), "1", 0, "L", false, 0, "")
		}

		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// fit shortens s until it fits in a cell of the given width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	const padding = 2

	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)) > width-padding {
		runes = runes[:len(runes)-1]
	}

	return string(runes)
}

// schoolName falls back to the tenant id when no metadata is stored.
func schoolName(info *school.School, tenantID string) string {
	if info != nil && info.Name != "" {
		return info.Name
	}

	return "School " + tenantID
}

// lastUpdate renders the siren timestamp or a dash.
func lastUpdate(s alert.SirenState) string {
	if s.LastUpdate.IsZero() {
		return "-"
	}

	return clock.Display(s.LastUpdate)
}
