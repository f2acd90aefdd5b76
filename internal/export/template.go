package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetInstructions = "Instructions"
	sheetVehicles     = "Vehicles"
	sheetMaintenance  = "Maintenance Records"

	// exampleVIN marks the pre-filled sample rows that imports skip.
	exampleVIN = "1FTYR1ZM5HKB10739"
)

// templateMaintenanceTypes is the dropdown offered in the template. It is
// wider than what the document pipeline detects because hand-entered records
// cover services no receipt keyword maps to.
var templateMaintenanceTypes = []string{
	"Oil Change", "Tire Rotation", "Tire Replacement", "Brake Service",
	"Brake Inspection", "Inspection", "Repair", "Scheduled Maintenance",
	"Battery", "Transmission", "Engine", "Smog Check", "Registration", "Other",
}

type templateColumn struct {
	header      string
	description string
	width       float64
	required    bool
}

var vehicleTemplateColumns = []templateColumn{
	{"VIN*", "Vehicle Identification Number (17 characters)", 20, true},
	{"Make*", "Vehicle manufacturer (e.g., Ford, Toyota)", 15, true},
	{"Model*", "Vehicle model (e.g., Transit 250)", 20, true},
	{"Year*", "Model year (e.g., 2024)", 10, true},
	{"License Plate*", "License plate number", 15, true},
	{"Purchase Date*", "Date purchased (YYYY-MM-DD)", 15, true},
	{"Current Mileage", "Current odometer reading", 15, false},
	{"Status", "Active, In Maintenance, or Retired", 15, false},
	{"Assigned Driver", "Driver name", 20, false},
}

var maintenanceTemplateColumns = []templateColumn{
	{"Vehicle VIN*", "VIN of the vehicle (must match Vehicles sheet)", 20, true},
	{"Maintenance Type*", "Type of service performed", 18, true},
	{"Service Date*", "Date of service (YYYY-MM-DD)", 15, true},
	{"Mileage at Service*", "Odometer reading at service", 18, true},
	{"Cost", "Total cost of service ($)", 12, false},
	{"Service Provider", "Name of service provider/shop", 25, false},
	{"Notes", "Additional notes or details", 40, false},
	{"Next Service Due", "Date of next service (YYYY-MM-DD)", 18, false},
	{"Next Service Mileage", "Mileage for next service", 18, false},
}

// CreateFleetTemplate builds the blank XLSX workbook operators fill in for
// bulk imports: an Instructions sheet, a Vehicles sheet, and a Maintenance
// Records sheet, each with a header row, a description row, and sample data.
func CreateFleetTemplate() ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetInstructions); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetVehicles); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetMaintenance); err != nil {
		return nil, err
	}

	styles, err := newTemplateStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeInstructionsSheet(f, styles); err != nil {
		return nil, err
	}

	if err := writeTemplateHeader(f, sheetVehicles, vehicleTemplateColumns, styles); err != nil {
		return nil, err
	}
	exampleVehicle := []any{
		exampleVIN, "Ford", "Transit 250", 2024, "ABC1234",
		"2024-01-15", 15000, "Active", "John Smith",
	}
	if err := writeExampleRow(f, sheetVehicles, 3, exampleVehicle, styles); err != nil {
		return nil, err
	}
	if err := addDropList(f, sheetVehicles, "H3:H1000", []string{"Active", "In Maintenance", "Retired"}, "Invalid Status", "Please select a valid status"); err != nil {
		return nil, err
	}

	if err := writeTemplateHeader(f, sheetMaintenance, maintenanceTemplateColumns, styles); err != nil {
		return nil, err
	}
	exampleMaintenance := [][]any{
		{exampleVIN, "Oil Change", "2024-01-20", 15500, 45.99, "Quick Lube", "Full synthetic oil", "2024-04-20", 18500},
		{exampleVIN, "Tire Rotation", "2024-01-20", 15500, 25.00, "Quick Lube", "Rotated all 4 tires", "", ""},
		{exampleVIN, "Brake Inspection", "2024-02-15", 16200, 0.00, "Dealer Service", "Brakes at 60% life", "2024-08-15", ""},
	}
	for i, row := range exampleMaintenance {
		if err := writeExampleRow(f, sheetMaintenance, 3+i, row, styles); err != nil {
			return nil, err
		}
	}
	if err := addDropList(f, sheetMaintenance, "B3:B1000", templateMaintenanceTypes, "Invalid Type", "Please select a maintenance type"); err != nil {
		return nil, err
	}

	for _, sheet := range []string{sheetVehicles, sheetMaintenance} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      2,
			TopLeftCell: "A3",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, err
		}
	}

	if idx, err := f.GetSheetIndex(sheetInstructions); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

type templateStyles struct {
	requiredHeader int
	optionalHeader int
	description    int
	example        int
	title          int
	section        int
}

func newTemplateStyles(f *excelize.File) (templateStyles, error) {
	var s templateStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Style: 1}, {Type: "right", Style: 1},
		{Type: "top", Style: 1}, {Type: "bottom", Style: 1},
	}

	s.requiredHeader, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"012638"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return s, err
	}
	s.optionalHeader, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"76777B"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return s, err
	}
	s.description, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Size: 9, Color: "666666"},
		Alignment: &excelize.Alignment{WrapText: true},
	})
	if err != nil {
		return s, err
	}
	s.example, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Italic: true, Color: "666666"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8F4EA"}},
		Border: border,
	})
	if err != nil {
		return s, err
	}
	s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "012638"},
	})
	if err != nil {
		return s, err
	}
	s.section, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12, Color: "012638"},
	})
	return s, err
}

func writeTemplateHeader(f *excelize.File, sheet string, cols []templateColumn, styles templateStyles) error {
	for i, col := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		headerCell := name + "1"
		if err := f.SetCellValue(sheet, headerCell, col.header); err != nil {
			return err
		}
		style := styles.optionalHeader
		if col.required {
			style = styles.requiredHeader
		}
		if err := f.SetCellStyle(sheet, headerCell, headerCell, style); err != nil {
			return err
		}

		descCell := name + "2"
		if err := f.SetCellValue(sheet, descCell, col.description); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, descCell, descCell, styles.description); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}
	return nil
}

func writeExampleRow(f *excelize.File, sheet string, row int, values []any, styles templateStyles) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.example); err != nil {
			return err
		}
	}
	return nil
}

func addDropList(f *excelize.File, sheet, sqref string, options []string, errTitle, errMsg string) error {
	dv := excelize.NewDataValidation(true)
	dv.Sqref = sqref
	if err := dv.SetDropList(options); err != nil {
		return err
	}
	dv.SetError(excelize.DataValidationErrorStyleStop, errTitle, errMsg)
	return f.AddDataValidation(sheet, dv)
}

func writeInstructionsSheet(f *excelize.File, styles templateStyles) error {
	lines := []string{
		"Fleet Data Import Template",
		"",
		"INSTRUCTIONS:",
		"1. Fill in your vehicle data in the 'Vehicles' sheet",
		"2. Fill in maintenance records in the 'Maintenance Records' sheet",
		"3. Fields marked with * are required",
		"4. Delete the example rows (highlighted in green) before importing",
		"5. Save the file and upload it to the Fleet Manager",
		"",
		"IMPORTANT NOTES:",
		"- VINs must be unique and exactly 17 characters",
		"- License plates must be unique",
		"- Dates must be in YYYY-MM-DD format (e.g., 2024-01-15)",
		"- Maintenance records must reference a valid VIN from the Vehicles sheet",
		"- Cost values should be numbers only (no $ symbol)",
		"",
		"VEHICLE STATUS OPTIONS:",
		"- Active - Vehicle is in regular use",
		"- In Maintenance - Vehicle is currently being serviced",
		"- Retired - Vehicle is no longer in service",
		"",
		"MAINTENANCE TYPES:",
	}
	for _, t := range templateMaintenanceTypes {
		lines = append(lines, "- "+t)
	}

	for i, text := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetInstructions, cell, text); err != nil {
			return err
		}
		if i == 0 {
			if err := f.SetCellStyle(sheetInstructions, cell, cell, styles.title); err != nil {
				return err
			}
		} else if len(text) > 0 && text[len(text)-1] == ':' {
			if err := f.SetCellStyle(sheetInstructions, cell, cell, styles.section); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheetInstructions, "A", "A", 70)
}
