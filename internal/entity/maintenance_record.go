package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceRecord represents one service event for a vehicle.
type MaintenanceRecord struct {
	ID                 uuid.UUID  `json:"id"`
	VehicleID          uuid.UUID  `json:"vehicle_id"`
	MaintenanceType    string     `json:"maintenance_type"`
	ServiceDate        time.Time  `json:"service_date"`
	MileageAtService   int        `json:"mileage_at_service"`
	Cost               float64    `json:"cost"`
	ServiceProvider    *string    `json:"service_provider,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	NextServiceDue     *time.Time `json:"next_service_due,omitempty"`
	NextServiceMileage *int       `json:"next_service_mileage,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
