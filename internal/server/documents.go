package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/constants"
	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
	"github.com/fleetworks/fleet-tracker/internal/pipeline"
)

// uploadResponse extends the pipeline result with the persisted record when
// processing succeeded.
type uploadResponse struct {
	pipeline.Result
	Record *entity.MaintenanceRecord `json:"record,omitempty"`
}

// handleUploadDocument accepts a multipart form with a "document" file and an
// optional "vehicle_id" override, runs the document pipeline, and persists a
// maintenance record on success. Typed pipeline failures answer 422 with the
// diagnostic payload so clients can offer manual correction.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, common.ErrInvalidInput, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, common.ErrInvalidInput, "no file uploaded")
		return
	}
	defer file.Close()

	if constants.MapExtToFormat(filepath.Ext(header.Filename)) == "" {
		writeError(w, common.ErrInvalidInput, "invalid file type, upload PDF, JPG, or PNG files only")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, common.ErrInternal, "failed to read upload")
		return
	}

	var preselected *uuid.UUID
	if raw := r.FormValue("vehicle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, common.ErrInvalidInput, "invalid vehicle_id")
			return
		}
		preselected = &id
	}

	roster, err := s.vehicles.Roster(r.Context())
	if err != nil {
		writeError(w, err, "failed to load vehicle roster")
		return
	}

	result, err := s.processor.Process(r.Context(), pipeline.Request{
		Filename:             header.Filename,
		Content:              content,
		Roster:               roster,
		PreselectedVehicleID: preselected,
	})
	if err != nil {
		// Only configuration problems escape the pipeline as errors.
		if errors.Is(err, common.ErrOCRUnavailable) {
			writeError(w, err, "OCR engine unavailable, image uploads cannot be processed")
			return
		}
		s.logger.Error("document pipeline failed", "filename", header.Filename, "error", err)
		writeError(w, common.ErrInternal, "failed to process document")
		return
	}

	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, uploadResponse{Result: result})
		return
	}

	rec, err := s.persistResult(r, result)
	if err != nil {
		writeError(w, err, "failed to save maintenance record")
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Result: result, Record: rec})
}

// persistResult turns a successful pipeline result into a stored maintenance
// record and advances the vehicle's odometer when the document reads higher.
func (s *Server) persistResult(r *http.Request, result pipeline.Result) (*entity.MaintenanceRecord, error) {
	vehicle, err := s.vehicles.GetByID(r.Context(), result.Vehicle.ID)
	if err != nil {
		return nil, err
	}

	serviceDate := time.Now().UTC().Truncate(24 * time.Hour)
	if result.ServiceDate != nil {
		if d, err := time.Parse("2006-01-02", *result.ServiceDate); err == nil {
			serviceDate = d
		}
	}

	mileage := vehicle.CurrentMileage
	if result.Mileage != nil {
		mileage = *result.Mileage
	}
	var cost float64
	if result.Cost != nil {
		cost = *result.Cost
	}

	rec := &entity.MaintenanceRecord{
		VehicleID:          vehicle.ID,
		MaintenanceType:    result.MaintenanceType,
		ServiceDate:        serviceDate,
		MileageAtService:   mileage,
		Cost:               cost,
		ServiceProvider:    result.Provider,
		NextServiceMileage: result.NextServiceMileage,
	}
	if result.Description != "" {
		desc := result.Description
		rec.Notes = &desc
	}

	if err := s.records.Create(r.Context(), rec); err != nil {
		return nil, err
	}

	if result.Mileage != nil && *result.Mileage > vehicle.CurrentMileage {
		if err := s.vehicles.BumpMileage(r.Context(), vehicle.ID, *result.Mileage); err != nil {
			s.logger.Warn("failed to bump vehicle mileage", "vehicle_id", vehicle.ID, "error", err)
		}
	}
	return rec, nil
}
