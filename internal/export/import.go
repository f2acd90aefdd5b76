package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fleetworks/fleet-tracker/constants"
	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

// ImportData is the outcome of parsing an uploaded workbook. Rows that fail
// validation land in Errors with their row number; valid rows are kept even
// when other rows fail so the caller decides what to apply.
type ImportData struct {
	Vehicles    []VehicleRow
	Maintenance []MaintenanceRow
	Errors      []string
	Warnings    []string
}

type VehicleRow struct {
	Row     int
	Vehicle entity.Vehicle
}

type MaintenanceRow struct {
	Row    int
	VIN    string
	Record entity.MaintenanceRecord
}

// ImportSummary reports what an applied import actually changed.
type ImportSummary struct {
	VehiclesAdded    int      `json:"vehicles_added"`
	VehiclesSkipped  int      `json:"vehicles_skipped"`
	MaintenanceAdded int      `json:"maintenance_added"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
}

var importDateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/06", "01-02-06"}

func parseImportDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseFleetImport reads an XLSX upload in the template layout and validates
// it row by row. A missing Vehicles sheet is an error; a missing Maintenance
// Records sheet only a warning.
func ParseFleetImport(data []byte) *ImportData {
	result := &ImportData{}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("could not read Excel file: %v", err))
		return result
	}
	defer f.Close()

	if rows, err := f.GetRows(sheetVehicles); err != nil {
		result.Errors = append(result.Errors, "'Vehicles' sheet not found in Excel file")
	} else {
		parseVehicleRows(rows, result)
	}

	if rows, err := f.GetRows(sheetMaintenance); err != nil {
		result.Warnings = append(result.Warnings, "'Maintenance Records' sheet not found - no maintenance records will be imported")
	} else {
		parseMaintenanceRows(rows, result)
	}

	return result
}

func parseVehicleRows(rows [][]string, result *ImportData) {
	for i, row := range rows {
		rowNum := i + 1
		if rowNum == 1 || isDescriptionRow(rowNum, row, vehicleTemplateColumns) {
			continue
		}
		vin := strings.ToUpper(strings.TrimSpace(cell(row, 0)))
		if vin == "" {
			continue
		}
		mk := strings.TrimSpace(cell(row, 1))
		model := strings.TrimSpace(cell(row, 2))
		if vin == exampleVIN && mk == "Ford" && model == "Transit 250" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Row %d: Skipped example row", rowNum))
			continue
		}

		var errs []string
		if len(vin) != 17 {
			errs = append(errs, fmt.Sprintf("VIN must be 17 characters (got %d)", len(vin)))
		}
		if mk == "" {
			errs = append(errs, "Make is required")
		}
		if model == "" {
			errs = append(errs, "Model is required")
		}

		v := entity.Vehicle{VIN: vin, Make: mk, Model: model}

		if yearStr := strings.TrimSpace(cell(row, 3)); yearStr == "" {
			errs = append(errs, "Year is required")
		} else if year, err := strconv.Atoi(yearStr); err != nil {
			errs = append(errs, "Year must be a number")
		} else {
			v.Year = year
		}

		v.LicensePlate = strings.ToUpper(strings.TrimSpace(cell(row, 4)))
		if v.LicensePlate == "" {
			errs = append(errs, "License plate is required")
		}

		if dateStr := strings.TrimSpace(cell(row, 5)); dateStr == "" {
			errs = append(errs, "Purchase date is required")
		} else if d, ok := parseImportDate(dateStr); !ok {
			errs = append(errs, "Purchase date must be in YYYY-MM-DD format")
		} else {
			v.PurchaseDate = d
		}

		if mileageStr := strings.TrimSpace(cell(row, 6)); mileageStr != "" {
			if mileage, err := strconv.Atoi(mileageStr); err != nil {
				errs = append(errs, "Mileage must be a number")
			} else {
				v.CurrentMileage = mileage
			}
		}

		v.Status = strings.TrimSpace(cell(row, 7))
		if v.Status == "" {
			v.Status = string(constants.StatusActive)
		}
		if !constants.ValidStatus(v.Status) {
			errs = append(errs, "Status must be one of: Active, In Maintenance, Retired")
		}

		if driver := strings.TrimSpace(cell(row, 8)); driver != "" {
			v.AssignedDriver = &driver
		}

		if len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (VIN: %s): %s", rowNum, vin, strings.Join(errs, "; ")))
			continue
		}
		result.Vehicles = append(result.Vehicles, VehicleRow{Row: rowNum, Vehicle: v})
	}
}

func parseMaintenanceRows(rows [][]string, result *ImportData) {
	validVINs := make(map[string]bool, len(result.Vehicles))
	for _, v := range result.Vehicles {
		validVINs[v.Vehicle.VIN] = true
	}

	for i, row := range rows {
		rowNum := i + 1
		if rowNum == 1 || isDescriptionRow(rowNum, row, maintenanceTemplateColumns) {
			continue
		}
		vin := strings.ToUpper(strings.TrimSpace(cell(row, 0)))
		if vin == "" {
			continue
		}
		maintType := strings.TrimSpace(cell(row, 1))
		serviceDateStr := strings.TrimSpace(cell(row, 2))
		if vin == exampleVIN && isExampleMaintenance(maintType, serviceDateStr) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Maintenance Row %d: Skipped example row", rowNum))
			continue
		}

		var errs []string
		rec := entity.MaintenanceRecord{MaintenanceType: maintType}

		if maintType == "" {
			errs = append(errs, "Maintenance type is required")
		}

		if serviceDateStr == "" {
			errs = append(errs, "Service date is required")
		} else if d, ok := parseImportDate(serviceDateStr); !ok {
			errs = append(errs, "Service date must be in YYYY-MM-DD format")
		} else {
			rec.ServiceDate = d
		}

		if mileageStr := strings.TrimSpace(cell(row, 3)); mileageStr == "" {
			errs = append(errs, "Mileage at service is required")
		} else if mileage, err := strconv.Atoi(mileageStr); err != nil {
			errs = append(errs, "Mileage must be a number")
		} else {
			rec.MileageAtService = mileage
		}

		if costStr := strings.TrimSpace(cell(row, 4)); costStr != "" {
			cleaned := strings.ReplaceAll(strings.ReplaceAll(costStr, "$", ""), ",", "")
			if cost, err := strconv.ParseFloat(cleaned, 64); err != nil {
				errs = append(errs, "Cost must be a number")
			} else {
				rec.Cost = cost
			}
		}

		if provider := strings.TrimSpace(cell(row, 5)); provider != "" {
			rec.ServiceProvider = &provider
		}
		if notes := strings.TrimSpace(cell(row, 6)); notes != "" {
			rec.Notes = &notes
		}
		if nextDue := strings.TrimSpace(cell(row, 7)); nextDue != "" {
			if d, ok := parseImportDate(nextDue); ok {
				rec.NextServiceDue = &d
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Maintenance Row %d: Invalid next service date format, skipping", rowNum))
			}
		}
		if nextMileage := strings.TrimSpace(cell(row, 8)); nextMileage != "" {
			if n, err := strconv.Atoi(nextMileage); err == nil {
				rec.NextServiceMileage = &n
			}
		}

		if !validVINs[vin] {
			errs = append(errs, fmt.Sprintf("VIN '%s' not found in Vehicles sheet", vin))
		}

		if len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Maintenance Row %d: %s", rowNum, strings.Join(errs, "; ")))
			continue
		}
		result.Maintenance = append(result.Maintenance, MaintenanceRow{Row: rowNum, VIN: vin, Record: rec})
	}
}

// isExampleMaintenance matches the sample rows CreateFleetTemplate pre-fills.
func isExampleMaintenance(maintType, serviceDate string) bool {
	switch maintType {
	case "Oil Change", "Tire Rotation", "Brake Inspection":
	default:
		return false
	}
	return strings.Contains(serviceDate, "2024-01") || strings.Contains(serviceDate, "2024-02")
}

// isDescriptionRow detects the template's second row of field descriptions,
// so both template uploads (data from row 3) and re-uploaded exports (data
// from row 2) parse the same way.
func isDescriptionRow(rowNum int, row []string, cols []templateColumn) bool {
	return rowNum == 2 && len(cols) > 0 && cell(row, 0) == cols[0].description
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ImportFleetXLSX parses an uploaded workbook and applies the valid rows.
// Vehicles whose VIN already exists are skipped, their maintenance rows still
// attach to the existing vehicle. Parse errors do not block valid rows.
func (s *Service) ImportFleetXLSX(ctx context.Context, data []byte) (*ImportSummary, error) {
	parsed := ParseFleetImport(data)
	summary := &ImportSummary{Errors: parsed.Errors, Warnings: parsed.Warnings}
	if len(parsed.Vehicles) == 0 && len(parsed.Maintenance) == 0 {
		return summary, nil
	}

	existing, err := s.vehicles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	idByVIN := make(map[string]entity.Vehicle, len(existing))
	existingPlates := make(map[string]bool, len(existing))
	for _, v := range existing {
		idByVIN[v.VIN] = *v
		existingPlates[v.LicensePlate] = true
	}

	for _, row := range parsed.Vehicles {
		v := row.Vehicle
		if _, ok := idByVIN[v.VIN]; ok {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("Vehicle with VIN %s already exists - skipped", v.VIN))
			summary.VehiclesSkipped++
			continue
		}
		if existingPlates[v.LicensePlate] {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Vehicle with license plate %s already exists - skipped", v.LicensePlate))
			summary.VehiclesSkipped++
			continue
		}
		if err := s.vehicles.Create(ctx, &v); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Row %d (VIN: %s): %v", row.Row, v.VIN, err))
			continue
		}
		idByVIN[v.VIN] = v
		existingPlates[v.LicensePlate] = true
		summary.VehiclesAdded++
	}

	for _, row := range parsed.Maintenance {
		owner, ok := idByVIN[row.VIN]
		if !ok {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Could not find vehicle for VIN %s", row.VIN))
			continue
		}
		rec := row.Record
		rec.VehicleID = owner.ID
		if err := s.records.Create(ctx, &rec); err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				summary.Errors = append(summary.Errors, fmt.Sprintf("Maintenance Row %d: %s", row.Row, appErr.Message))
			} else {
				summary.Errors = append(summary.Errors, fmt.Sprintf("Maintenance Row %d: %v", row.Row, err))
			}
			continue
		}
		summary.MaintenanceAdded++
	}

	s.logger.Info("import.xlsx.ok",
		"vehicles_added", summary.VehiclesAdded,
		"vehicles_skipped", summary.VehiclesSkipped,
		"maintenance_added", summary.MaintenanceAdded,
		"errors", len(summary.Errors),
	)
	return summary, nil
}
