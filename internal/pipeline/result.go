package pipeline

import (
	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/internal/entity"
	"github.com/fleetworks/fleet-tracker/internal/parse"
)

// FailureReason is the typed outcome for documents the pipeline could not
// convert into a maintenance record. Configuration problems (missing OCR
// engine) are NOT failure reasons; those surface as Go errors instead.
type FailureReason string

const (
	FailureInsufficientText       FailureReason = "INSUFFICIENT_TEXT"
	FailureVehicleNotIdentified   FailureReason = "VEHICLE_NOT_IDENTIFIED"
	FailureMaintenanceTypeUnknown FailureReason = "MAINTENANCE_TYPE_UNKNOWN"
)

// Message returns the operator-facing explanation for a failure, worded to
// point at the manual-correction step the caller should offer.
func (r FailureReason) Message() string {
	switch r {
	case FailureInsufficientText:
		return "Could not extract sufficient text from document. Please ensure the document is clear and readable."
	case FailureVehicleNotIdentified:
		return "Could not identify which vehicle this document belongs to. Please select a vehicle manually."
	case FailureMaintenanceTypeUnknown:
		return "Could not determine the type of maintenance performed."
	default:
		return string(r)
	}
}

// Request carries everything one pipeline invocation needs. The roster is a
// consistent snapshot taken by the caller; the pipeline never mutates it.
type Request struct {
	Filename             string
	Content              []byte
	Roster               []entity.VehicleRef
	PreselectedVehicleID *uuid.UUID // explicit user choice; bypasses matching
}

// Result is the tagged outcome of one document: either a resolved vehicle
// plus candidate maintenance fields, or a typed failure with enough
// diagnostic payload to support manual correction.
type Result struct {
	Success bool `json:"success"`

	Vehicle            *entity.VehicleRef `json:"vehicle,omitempty"`
	MaintenanceType    string             `json:"maintenance_type,omitempty"`
	Description        string             `json:"description,omitempty"`
	ServiceDate        *string            `json:"service_date,omitempty"`
	Mileage            *int               `json:"mileage,omitempty"`
	Cost               *float64           `json:"cost,omitempty"`
	Provider           *string            `json:"provider,omitempty"`
	NextServiceMileage *int               `json:"next_service_mileage,omitempty"`

	FailureReason FailureReason          `json:"error_code,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Extracted     *parse.CandidateRecord `json:"extracted_data,omitempty"`

	// RawTextExcerpt is attached for audit on success and for debugging on
	// failure, capped to keep the payload bounded.
	RawTextExcerpt string `json:"raw_text,omitempty"`
}
