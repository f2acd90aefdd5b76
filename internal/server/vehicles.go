package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/constants"
	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

// vehiclePayload is the request body for creating and updating vehicles.
// Dates travel as YYYY-MM-DD strings.
type vehiclePayload struct {
	VIN            string  `json:"vin"`
	Make           string  `json:"make"`
	Model          string  `json:"model"`
	Year           int     `json:"year"`
	LicensePlate   string  `json:"license_plate"`
	PurchaseDate   string  `json:"purchase_date"`
	CurrentMileage int     `json:"current_mileage"`
	Status         string  `json:"status"`
	AssignedDriver *string `json:"assigned_driver"`
}

func (p *vehiclePayload) validate() error {
	v := common.NewValidator()
	v.Field("vin", p.VIN, common.Required, common.VIN)
	v.Field("make", p.Make, common.Required)
	v.Field("model", p.Model, common.Required)
	v.Field("year", p.Year, common.ModelYear)
	v.Field("license_plate", p.LicensePlate, common.Required)
	v.Field("purchase_date", p.PurchaseDate, common.Required)
	if err := v.Error(); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", p.PurchaseDate); err != nil {
		return common.NewAppError("INVALID_DATE", "purchase_date must be YYYY-MM-DD", common.ErrValidation)
	}
	if p.Status != "" && !constants.ValidStatus(p.Status) {
		return common.NewAppError("INVALID_STATUS", "status must be one of: Active, In Maintenance, Retired", common.ErrValidation)
	}
	return nil
}

func (p *vehiclePayload) apply(v *entity.Vehicle) {
	v.VIN = strings.ToUpper(strings.TrimSpace(p.VIN))
	v.Make = strings.TrimSpace(p.Make)
	v.Model = strings.TrimSpace(p.Model)
	v.Year = p.Year
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(p.LicensePlate))
	v.PurchaseDate, _ = time.Parse("2006-01-02", p.PurchaseDate)
	v.CurrentMileage = p.CurrentMileage
	if p.Status != "" {
		v.Status = p.Status
	}
	v.AssignedDriver = p.AssignedDriver
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.vehicles.List(r.Context())
	if err != nil {
		writeError(w, err, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	vehicle, err := s.vehicles.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var payload vehiclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, common.ErrInvalidInput, "invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		writeError(w, err, err.Error())
		return
	}

	var vehicle entity.Vehicle
	payload.apply(&vehicle)
	if err := s.vehicles.Create(r.Context(), &vehicle); err != nil {
		writeError(w, err, "failed to create vehicle")
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	vehicle, err := s.vehicles.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "vehicle not found")
		return
	}

	var payload vehiclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, common.ErrInvalidInput, "invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		writeError(w, err, err.Error())
		return
	}

	payload.apply(vehicle)
	if err := s.vehicles.Update(r.Context(), vehicle); err != nil {
		writeError(w, err, "failed to update vehicle")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	if err := s.vehicles.Delete(r.Context(), id); err != nil {
		writeError(w, err, "failed to delete vehicle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVehicleRecords(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, "")
		return
	}
	if _, err := s.vehicles.GetByID(r.Context(), id); err != nil {
		writeError(w, err, "vehicle not found")
		return
	}
	records, err := s.records.ListByVehicle(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to list maintenance records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.NewAppError("INVALID_ID", "invalid "+param, common.ErrInvalidInput)
	}
	return id, nil
}
