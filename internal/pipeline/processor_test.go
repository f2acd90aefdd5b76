package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
	"github.com/fleetworks/fleet-tracker/internal/extract"
	"github.com/fleetworks/fleet-tracker/internal/parse"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(context.Context, string, []byte) (extract.Result, error) {
	return extract.Result{Text: s.text, Method: "stub"}, s.err
}

type stubParser struct {
	rec parse.CandidateRecord
	err error
}

func (s stubParser) Parse(context.Context, string, []entity.VehicleRef) (parse.CandidateRecord, error) {
	return s.rec, s.err
}

var testVehicle = entity.VehicleRef{
	ID:             uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	VIN:            "1FTYR1ZM5HKB10739",
	Make:           "Ford",
	Model:          "Transit",
	Year:           2018,
	LicensePlate:   "ABC1234",
	CurrentMileage: 45000,
}

// receiptText is long enough to clear the minimum-text gate.
const receiptText = `QUICK LUBE & SMOG
Date: 06/12/2024
Vehicle: 2018 Ford Transit
Odometer: 45,230
Smog check certificate issued
TOTAL: $58.25`

func candidate() parse.CandidateRecord {
	id := "2018 Ford Transit"
	mt := "Smog Check"
	date := "2024-06-12"
	mileage := 45230
	cost := 58.25
	return parse.CandidateRecord{
		VehicleIdentifier: &id,
		MaintenanceType:   &mt,
		ServiceDate:       &date,
		Mileage:           &mileage,
		Cost:              &cost,
	}
}

func TestProcessSuccess(t *testing.T) {
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: candidate()}, nil, nil)

	res, err := p.Process(context.Background(), Request{
		Filename: "receipt.pdf",
		Content:  []byte("%PDF"),
		Roster:   []entity.VehicleRef{testVehicle},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, testVehicle.ID, res.Vehicle.ID)
	assert.Equal(t, "Smog Check", res.MaintenanceType)
	assert.Equal(t, "Imported from receipt.pdf", res.Description)
	require.NotNil(t, res.Mileage)
	assert.Equal(t, 45230, *res.Mileage)
	assert.Equal(t, receiptText, res.RawTextExcerpt)
	assert.Empty(t, res.FailureReason)
}

func TestProcessInsufficientText(t *testing.T) {
	p := NewProcessor(stubExtractor{text: "too short"}, stubParser{}, nil, nil)

	res, err := p.Process(context.Background(), Request{Filename: "blurry.jpg"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, FailureInsufficientText, res.FailureReason)
	assert.Contains(t, res.Error, "sufficient text")
	assert.Nil(t, res.Extracted)
}

func TestProcessVehicleNotIdentified(t *testing.T) {
	rec := candidate()
	rec.VehicleIdentifier = nil
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{
		Filename: "receipt.pdf",
		Roster:   []entity.VehicleRef{testVehicle},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, FailureVehicleNotIdentified, res.FailureReason)
	// Extracted fields ride along so the operator can correct manually.
	require.NotNil(t, res.Extracted)
	assert.NotNil(t, res.Extracted.MaintenanceType)
	assert.NotEmpty(t, res.RawTextExcerpt)
}

func TestProcessIdentifierMatchesNothing(t *testing.T) {
	rec := candidate()
	id := "1999 Honda Odyssey"
	rec.VehicleIdentifier = &id
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{
		Filename: "receipt.pdf",
		Roster:   []entity.VehicleRef{testVehicle},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, FailureVehicleNotIdentified, res.FailureReason)
}

func TestProcessMaintenanceTypeUnknown(t *testing.T) {
	rec := candidate()
	rec.MaintenanceType = nil
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{
		Filename: "receipt.pdf",
		Roster:   []entity.VehicleRef{testVehicle},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, FailureMaintenanceTypeUnknown, res.FailureReason)
	// The vehicle was resolved before the type gate; keep it for diagnostics.
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, testVehicle.ID, res.Vehicle.ID)
}

func TestProcessPreselectedVehicleBypassesMatching(t *testing.T) {
	rec := candidate()
	id := "totally unrelated text"
	rec.VehicleIdentifier = &id
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{
		Filename:             "receipt.pdf",
		Roster:               []entity.VehicleRef{testVehicle},
		PreselectedVehicleID: &testVehicle.ID,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, testVehicle.ID, res.Vehicle.ID)
}

func TestProcessPreselectedVehicleNotInRoster(t *testing.T) {
	rec := candidate()
	rec.VehicleIdentifier = nil
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: rec}, nil, nil)

	ghost := uuid.MustParse("99999999-9999-9999-9999-999999999999")
	res, err := p.Process(context.Background(), Request{
		Filename:             "receipt.pdf",
		Roster:               []entity.VehicleRef{testVehicle},
		PreselectedVehicleID: &ghost,
	})
	require.NoError(t, err)
	// A preselection outside the roster never resolves a vehicle.
	assert.False(t, res.Success)
	assert.Equal(t, FailureVehicleNotIdentified, res.FailureReason)
}

func TestProcessExtractorErrorPropagates(t *testing.T) {
	wrapped := common.ErrOCRUnavailable
	p := NewProcessor(stubExtractor{err: wrapped}, stubParser{}, nil, nil)

	_, err := p.Process(context.Background(), Request{Filename: "scan.png"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrOCRUnavailable))
}

func TestProcessParserErrorPropagates(t *testing.T) {
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{err: errors.New("boom")}, nil, nil)

	_, err := p.Process(context.Background(), Request{Filename: "receipt.pdf"})
	require.Error(t, err)
}

func TestProcessExcerptCapped(t *testing.T) {
	long := receiptText + "\n" + strings.Repeat("line item 1.00\n", 200)
	rec := candidate()
	rec.VehicleIdentifier = nil
	p := NewProcessor(stubExtractor{text: long}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{Filename: "receipt.pdf"})
	require.NoError(t, err)
	assert.Len(t, res.RawTextExcerpt, ExcerptLimit)
}

func TestProcessExcerptCutsOnRuneBoundary(t *testing.T) {
	// Pad so the first "é" (2 bytes) starts one byte before the excerpt
	// limit: its continuation byte sits exactly at the cut, which must back
	// off to the rune boundary instead of splitting it.
	pad := ExcerptLimit - len(receiptText) - 1
	long := receiptText + strings.Repeat(".", pad) + strings.Repeat("é", 40)
	rec := candidate()
	rec.VehicleIdentifier = nil
	p := NewProcessor(stubExtractor{text: long}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{Filename: "receipt.pdf"})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(res.RawTextExcerpt))
	assert.LessOrEqual(t, len(res.RawTextExcerpt), ExcerptLimit)
	assert.Equal(t, ExcerptLimit-1, len(res.RawTextExcerpt))
}

func TestProcessDescriptionFromParser(t *testing.T) {
	rec := candidate()
	desc := "Smog inspection with certificate"
	rec.Description = &desc
	p := NewProcessor(stubExtractor{text: receiptText}, stubParser{rec: rec}, nil, nil)

	res, err := p.Process(context.Background(), Request{
		Filename: "receipt.pdf",
		Roster:   []entity.VehicleRef{testVehicle},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, desc, res.Description)
}
