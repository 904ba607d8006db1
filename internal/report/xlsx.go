package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/oshokin/panic-alert/internal/clock"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/repository/school"
)

// alertsSheet is the worksheet holding the alert table.
const alertsSheet = "Alerts"

// RenderXLSX renders the alert history of one tenant as a spreadsheet.
func RenderXLSX(info *school.School, status *coordinator.Status) ([]byte, error) {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", alertsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"ID", "Created", "Created (sortable)", "Teacher", "Room", "Description", "Status", "Source"}
	if err := f.SetSheetRow(alertsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err = f.SetCellStyle(alertsSheet, "A1", "H1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i := range status.Alerts {
		rec := &status.Alerts[i]

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}

		row := []any{
			rec.ID,
			clock.Display(rec.CreatedAt),
			clock.Sortable(rec.CreatedAt),
			rec.Teacher,
			rec.Room,
			rec.Description,
			string(rec.Status),
			rec.Source,
		}

		if err = f.SetSheetRow(alertsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err = writeSummary(f, info, status); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}

	return buf.Bytes(), nil
}

// writeSummary adds a second sheet with school metadata and counters.
func writeSummary(f *excelize.File, info *school.School, status *coordinator.Status) error {
	const summarySheet = "Summary"

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]any{
		{"School", schoolName(info, status.TenantID)},
		{"Tenant", status.TenantID},
		{"Generated", clock.Display(status.ServerTime)},
		{"Total alerts", status.TotalAlerts},
		{"Active alerts", status.ActiveAlerts},
		{"Siren", string(status.Siren.Mode())},
		{"Siren last update", lastUpdate(status.Siren)},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}

		if err = f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	return nil
}
