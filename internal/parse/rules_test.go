package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseText(t *testing.T, text string) CandidateRecord {
	t.Helper()
	p := NewRuleParser(nil)
	rec, err := p.Parse(context.Background(), text, nil)
	require.NoError(t, err)
	return rec
}

func TestExtractVehicleIdentifier(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "vin wins over everything",
			text: "Vehicle: 2018 Ford Transit\nVIN 1FTYR1ZM5HKB10739\nPlate ABC1234",
			want: "1FTYR1ZM5HKB10739",
		},
		{
			name: "license plate",
			text: "Service for plate ABC1234, thank you",
			want: "ABC1234",
		},
		{
			name: "labeled vehicle line",
			text: "Invoice #42\nVehicle: 2018 Ford Transit\nOil change performed",
			want: "2018 Ford Transit",
		},
		{
			name: "labeled line with ocr-mangled year",
			text: "Vehicle: 5018 Ford Transit",
			want: "2018 Ford Transit",
		},
		{
			name: "bare year make model",
			text: "Work done on 2015 Toyota Camry. Thanks for coming in",
			want: "2015 Toyota Camry",
		},
		{
			name: "known make plus model",
			text: "Your Honda Civic, ready for pickup",
			want: "Honda Civic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseText(t, tt.text)
			require.NotNil(t, rec.VehicleIdentifier)
			assert.Equal(t, tt.want, *rec.VehicleIdentifier)
		})
	}
}

func TestExtractVehicleIdentifierNone(t *testing.T) {
	rec := parseText(t, "thank you for your business, see you next time")
	assert.Nil(t, rec.VehicleIdentifier)
}

func TestFixOCRYear(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		fixed bool
	}{
		{"5018", "2018", true},
		{"7019", "2019", true},
		{"4022", "2022", true},
		{"2018", "2018", false},
		{"1999", "1999", false},
		{"501", "501", false},
	}
	for _, tt := range tests {
		got, fixed := fixOCRYear(tt.in)
		assert.Equal(t, tt.want, got, "fixOCRYear(%q)", tt.in)
		assert.Equal(t, tt.fixed, fixed, "fixOCRYear(%q) fixed flag", tt.in)
	}

	// Running the fix over its own output must be a no-op.
	out, _ := fixOCRYear("5018")
	again, fixed := fixOCRYear(out)
	assert.Equal(t, "2018", again)
	assert.False(t, fixed)
}

func TestExtractMileage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *int
	}{
		{"labeled odometer", "Odometer: 45,230", intp(45230)},
		{"mileage label", "Mileage 88000 at service", intp(88000)},
		{"trailing miles", "vehicle came in at 12,500 miles", intp(12500)},
		{"no mileage", "oil change $45.00", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseText(t, tt.text)
			assert.Equal(t, tt.want, rec.Mileage)
		})
	}
}

func TestExtractCost(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *float64
	}{
		{"labeled total", "Subtotal $40.00\nTax $5.50\nTotal: $45.50", floatp(45.50)},
		{"takes the maximum", "$12.99 item\n$89.95 item\nTotal $102.94", floatp(102.94)},
		{"bare decimal without symbol", "AMOUNT DUE 245.50", floatp(245.50)},
		{"rejects out of band", "Invoice 99999999.00", nil},
		{"rejects below minimum", "qty 0.50", nil},
		{"no cost", "no charge listed here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseText(t, tt.text)
			if tt.want == nil {
				assert.Nil(t, rec.Cost)
				return
			}
			require.NotNil(t, rec.Cost)
			assert.InDelta(t, *tt.want, *rec.Cost, 0.001)
		})
	}
}

func TestExtractServiceDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"us slash date", "Date: 03/15/2024", strp("2024-03-15")},
		{"dash date", "03-15-2024", strp("2024-03-15")},
		{"iso date", "Service on 2024-03-15", strp("2024-03-15")},
		{"two digit year", "Date 03/15/24", strp("2024-03-15")},
		{"no date", "oil change performed", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseText(t, tt.text)
			assert.Equal(t, tt.want, rec.ServiceDate)
		})
	}
}

func TestExtractMaintenanceType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"smog", "SMOG CHECK STATION certificate issued", "Smog Check"},
		{"oil", "full synthetic oil change", "Oil Change"},
		{"tires", "tire rotation and balance", "Tire Rotation"},
		{"brakes", "front brake pads replaced", "Brake Service"},
		{"default", "miscellaneous work performed", "General Service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseText(t, tt.text)
			require.NotNil(t, rec.MaintenanceType)
			assert.Equal(t, tt.want, *rec.MaintenanceType)
		})
	}
}

// A smog certificate that also mentions the word "inspection" must classify
// as a smog check; the keyword table is ordered most-specific first.
func TestMaintenanceTypeKeywordOrder(t *testing.T) {
	rec := parseText(t, "smog inspection completed, certificate attached")
	require.NotNil(t, rec.MaintenanceType)
	assert.Equal(t, "Smog Check", *rec.MaintenanceType)
}

func TestParseFullReceipt(t *testing.T) {
	text := `QUICK LUBE & SMOG
123 Main St
Date: 06/12/2024
Vehicle: 2018 Ford Transit
Odometer: 45,230
Smog check certificate
TOTAL: $58.25`

	rec := parseText(t, text)
	require.NotNil(t, rec.VehicleIdentifier)
	assert.Equal(t, "2018 Ford Transit", *rec.VehicleIdentifier)
	require.NotNil(t, rec.Mileage)
	assert.Equal(t, 45230, *rec.Mileage)
	require.NotNil(t, rec.Cost)
	assert.InDelta(t, 58.25, *rec.Cost, 0.001)
	require.NotNil(t, rec.ServiceDate)
	assert.Equal(t, "2024-06-12", *rec.ServiceDate)
	require.NotNil(t, rec.MaintenanceType)
	assert.Equal(t, "Smog Check", *rec.MaintenanceType)
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func strp(v string) *string     { return &v }
