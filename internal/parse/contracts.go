package parse

import (
	"context"

	"github.com/fleetworks/fleet-tracker/internal/entity"
)

// CandidateRecord is a parser's best-effort structured read of one maintenance
// document, before vehicle resolution. Every field is independently optional;
// a nil pointer means "not found in the document", which is distinct from a
// legitimate zero (a free smog re-check has Cost of 0.00, not nil).
type CandidateRecord struct {
	VehicleIdentifier  *string  `json:"vehicle_identifier"`
	MaintenanceType    *string  `json:"maintenance_type"`
	Description        *string  `json:"description"`
	ServiceDate        *string  `json:"service_date"` // YYYY-MM-DD
	Mileage            *int     `json:"mileage"`
	Cost               *float64 `json:"cost"`
	Provider           *string  `json:"provider"`
	NextServiceMileage *int     `json:"next_service_mileage"`
}

// FieldParser turns extracted document text plus the known-vehicle roster into
// a CandidateRecord. The orchestrator does not know or care whether the
// implementation is AI-assisted or rule-based; both honor the same contract.
type FieldParser interface {
	Parse(ctx context.Context, text string, roster []entity.VehicleRef) (CandidateRecord, error)
}
