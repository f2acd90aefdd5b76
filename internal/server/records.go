package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

// recordPayload is the request body for creating and updating maintenance
// records. Dates travel as YYYY-MM-DD strings.
type recordPayload struct {
	VehicleID          string  `json:"vehicle_id"`
	MaintenanceType    string  `json:"maintenance_type"`
	ServiceDate        string  `json:"service_date"`
	MileageAtService   int     `json:"mileage_at_service"`
	Cost               float64 `json:"cost"`
	ServiceProvider    *string `json:"service_provider"`
	Notes              *string `json:"notes"`
	NextServiceDue     *string `json:"next_service_due"`
	NextServiceMileage *int    `json:"next_service_mileage"`
}

func (p *recordPayload) validate() error {
	v := common.NewValidator()
	v.Field("vehicle_id", p.VehicleID, common.Required, common.UUID)
	v.Field("maintenance_type", p.MaintenanceType, common.Required)
	v.Field("service_date", p.ServiceDate, common.Required)
	if err := v.Error(); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", p.ServiceDate); err != nil {
		return common.NewAppError("INVALID_DATE", "service_date must be YYYY-MM-DD", common.ErrValidation)
	}
	if p.NextServiceDue != nil {
		if _, err := time.Parse("2006-01-02", *p.NextServiceDue); err != nil {
			return common.NewAppError("INVALID_DATE", "next_service_due must be YYYY-MM-DD", common.ErrValidation)
		}
	}
	if p.MileageAtService < 0 {
		return common.NewAppError("INVALID_MILEAGE", "mileage_at_service must not be negative", common.ErrValidation)
	}
	return nil
}

func (p *recordPayload) apply(rec *entity.MaintenanceRecord) {
	rec.MaintenanceType = strings.TrimSpace(p.MaintenanceType)
	rec.ServiceDate, _ = time.Parse("2006-01-02", p.ServiceDate)
	rec.MileageAtService = p.MileageAtService
	rec.Cost = p.Cost
	rec.ServiceProvider = p.ServiceProvider
	rec.Notes = p.Notes
	if p.NextServiceDue != nil {
		d, _ := time.Parse("2006-01-02", *p.NextServiceDue)
		rec.NextServiceDue = &d
	} else {
		rec.NextServiceDue = nil
	}
	rec.NextServiceMileage = p.NextServiceMileage
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err, err.Error())
		return
	}
	records, err := s.records.List(r.Context(), from, to)
	if err != nil {
		writeError(w, err, "failed to list maintenance records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "maintenance record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, common.ErrInvalidInput, "invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		writeError(w, err, err.Error())
		return
	}

	vehicle, err := s.vehicles.GetByID(r.Context(), mustUUID(payload.VehicleID))
	if err != nil {
		writeError(w, err, "vehicle not found")
		return
	}

	var rec entity.MaintenanceRecord
	rec.VehicleID = vehicle.ID
	payload.apply(&rec)
	if err := s.records.Create(r.Context(), &rec); err != nil {
		writeError(w, err, "failed to create maintenance record")
		return
	}

	// Hand-entered services also advance the odometer when higher.
	if rec.MileageAtService > vehicle.CurrentMileage {
		if err := s.vehicles.BumpMileage(r.Context(), vehicle.ID, rec.MileageAtService); err != nil {
			s.logger.Warn("failed to bump vehicle mileage", "vehicle_id", vehicle.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "maintenance record not found")
		return
	}

	var payload recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, common.ErrInvalidInput, "invalid request body")
		return
	}
	if payload.VehicleID == "" {
		payload.VehicleID = rec.VehicleID.String()
	}
	if err := payload.validate(); err != nil {
		writeError(w, err, err.Error())
		return
	}

	payload.apply(rec)
	if err := s.records.Update(r.Context(), rec); err != nil {
		writeError(w, err, "failed to update maintenance record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	if err := s.records.Delete(r.Context(), id); err != nil {
		writeError(w, err, "failed to delete maintenance record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mustUUID parses an id the validator already accepted.
func mustUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

// dateRange reads optional ?from=YYYY-MM-DD&to=YYYY-MM-DD query params.
func dateRange(r *http.Request) (*time.Time, *time.Time, error) {
	parse := func(key string) (*time.Time, error) {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, common.NewAppError("INVALID_DATE", key+" must be YYYY-MM-DD", common.ErrInvalidInput)
		}
		return &t, nil
	}
	from, err := parse("from")
	if err != nil {
		return nil, nil, err
	}
	to, err := parse("to")
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
