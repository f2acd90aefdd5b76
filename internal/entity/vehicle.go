package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Vehicle represents a fleet vehicle for data transfer between layers.
type Vehicle struct {
	ID             uuid.UUID `json:"id"`
	VIN            string    `json:"vin"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	LicensePlate   string    `json:"license_plate"`
	PurchaseDate   time.Time `json:"purchase_date"`
	CurrentMileage int       `json:"current_mileage"`
	Status         string    `json:"status"`
	AssignedDriver *string   `json:"assigned_driver,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Label returns the human-readable "2018 Ford Transit" form.
func (v *Vehicle) Label() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}

// Ref projects the vehicle into the read-only form the document pipeline
// consumes.
func (v *Vehicle) Ref() VehicleRef {
	return VehicleRef{
		ID:             v.ID,
		VIN:            v.VIN,
		Make:           v.Make,
		Model:          v.Model,
		Year:           v.Year,
		LicensePlate:   v.LicensePlate,
		CurrentMileage: v.CurrentMileage,
	}
}

// VehicleRef is the immutable roster projection handed to one pipeline run.
// The pipeline never mutates it and never returns a vehicle outside the
// roster it was given.
type VehicleRef struct {
	ID             uuid.UUID `json:"id"`
	VIN            string    `json:"vin"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	LicensePlate   string    `json:"license_plate"`
	CurrentMileage int       `json:"current_mileage"`
}

// Label returns the human-readable "2018 Ford Transit" form.
func (v VehicleRef) Label() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}
