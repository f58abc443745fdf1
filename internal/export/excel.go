package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"hostelbook/internal/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter renders booking reports as xlsx.
type Exporter struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, logger *zerolog.Logger) *Exporter {
	return &Exporter{repo: repo, logger: logger}
}

// WriteBookingsReport streams an xlsx report of a facility's bookings in
// [from, until) to w. One row per booking, grouped by resource sort order.
func (e *Exporter) WriteBookingsReport(ctx context.Context, w io.Writer, facilityID string, from, until time.Time) error {
	bookings, err := e.repo.GetFacilityBookings(ctx, facilityID, from, until)
	if err != nil {
		return fmt.Errorf("load facility bookings: %w", err)
	}

	resources := e.repo.GetResources(facilityID, "")
	names := make(map[string]string, len(resources))
	for _, r := range resources {
		names[r.ID] = r.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Facility %s: %s — %s",
		facilityID, from.Format("02.01.2006"), until.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"Resource", "User", "Date", "Start", "End", "Status", "Booking ID"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	now := time.Now()
	for i, booking := range bookings {
		row := i + 3
		name := names[booking.ResourceID]
		if name == "" {
			name = booking.ResourceID
		}
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), booking.UserName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), booking.StartTime.Format("02.01.2006"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), booking.StartTime.Format("15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), booking.EndTime.Format("15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), booking.EffectiveStatus(now))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), booking.ID)
	}

	_ = f.SetColWidth(sheetName, "A", "B", 22)
	_ = f.SetColWidth(sheetName, "C", "F", 14)
	_ = f.SetColWidth(sheetName, "G", "G", 38)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	e.logger.Info().Str("facility_id", facilityID).Int("bookings", len(bookings)).Msg("bookings report generated")
	return nil
}

// ReportFileName returns the suggested attachment name for a report.
func ReportFileName(facilityID string, from, until time.Time) string {
	return fmt.Sprintf("bookings_%s_%s_to_%s.xlsx",
		facilityID, from.Format("2006-01-02"), until.Format("2006-01-02"))
}
