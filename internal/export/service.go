package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fleetworks/fleet-tracker/internal/repository"
)

// Service is a tiny façade over repositories that produces and consumes XLSX
// workbooks in the template layout.
type Service struct {
	vehicles repository.VehicleRepository
	records  repository.MaintenanceRecordRepository
	logger   *slog.Logger
}

func NewService(vehicles repository.VehicleRepository, records repository.MaintenanceRecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{vehicles: vehicles, records: records, logger: logger}
}

// ExportFleetXLSX returns an XLSX workbook (as bytes) with the current fleet
// and its maintenance history, laid out like the import template so an export
// can be edited and re-imported.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all maintenance records.
func (s *Service) ExportFleetXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	records, err := s.records.List(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query maintenance records: %w", err)
	}

	vinByID := make(map[string]string, len(vehicles))
	for _, v := range vehicles {
		vinByID[v.ID.String()] = v.VIN
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetVehicles); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetMaintenance); err != nil {
		return nil, err
	}

	writeHeaders(f, sheetVehicles, vehicleTemplateColumns)
	row := 2
	for _, v := range vehicles {
		write := cellWriter(f, sheetVehicles, row)
		write(1, v.VIN)
		write(2, v.Make)
		write(3, v.Model)
		write(4, v.Year)
		write(5, v.LicensePlate)
		write(6, v.PurchaseDate.Format("2006-01-02"))
		write(7, v.CurrentMileage)
		write(8, v.Status)
		if v.AssignedDriver != nil {
			write(9, *v.AssignedDriver)
		}
		row++
	}

	writeHeaders(f, sheetMaintenance, maintenanceTemplateColumns)
	row = 2
	for _, r := range records {
		write := cellWriter(f, sheetMaintenance, row)
		write(1, vinByID[r.VehicleID.String()])
		write(2, r.MaintenanceType)
		write(3, r.ServiceDate.Format("2006-01-02"))
		write(4, r.MileageAtService)
		write(5, r.Cost)
		if r.ServiceProvider != nil {
			write(6, *r.ServiceProvider)
		}
		if r.Notes != nil {
			write(7, *r.Notes)
		}
		if r.NextServiceDue != nil {
			write(8, r.NextServiceDue.Format("2006-01-02"))
		}
		if r.NextServiceMileage != nil {
			write(9, *r.NextServiceMileage)
		}
		row++
	}

	for _, sheet := range []string{sheetVehicles, sheetMaintenance} {
		cols := vehicleTemplateColumns
		if sheet == sheetMaintenance {
			cols = maintenanceTemplateColumns
		}
		for i, col := range cols {
			name, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetColWidth(sheet, name, name, col.width)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"vehicles", len(vehicles),
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeHeaders writes a bare header row. Exports skip the description row so
// data starts at row 2; the import side accepts either layout.
func writeHeaders(f *excelize.File, sheet string, cols []templateColumn) {
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.header)
	}
}

func cellWriter(f *excelize.File, sheet string, row int) func(col int, v any) {
	return func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
