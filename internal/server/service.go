package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/export"
	"github.com/fleetworks/fleet-tracker/internal/pipeline"
	"github.com/fleetworks/fleet-tracker/internal/repository"
)

// Server wires the HTTP API over the repositories, the document pipeline and
// the XLSX transfer service.
type Server struct {
	cfg       common.ServerConfig
	vehicles  repository.VehicleRepository
	records   repository.MaintenanceRecordRepository
	transfer  *export.Service
	processor *pipeline.Processor
	logger    *slog.Logger
}

func NewServer(
	cfg common.ServerConfig,
	vehicles repository.VehicleRepository,
	records repository.MaintenanceRecordRepository,
	transfer *export.Service,
	processor *pipeline.Processor,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		vehicles:  vehicles,
		records:   records,
		transfer:  transfer,
		processor: processor,
		logger:    logger,
	}
}

// Router builds the chi mux with middleware and all API routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.APIToken != "" {
			r.Use(s.requireToken)
		}

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", s.handleListVehicles)
			r.Post("/", s.handleCreateVehicle)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetVehicle)
				r.Put("/", s.handleUpdateVehicle)
				r.Delete("/", s.handleDeleteVehicle)
				r.Get("/records", s.handleListVehicleRecords)
			})
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecord)
				r.Put("/", s.handleUpdateRecord)
				r.Delete("/", s.handleDeleteRecord)
			})
		})

		r.Post("/documents", s.handleUploadDocument)

		r.Get("/export", s.handleExport)
		r.Get("/template", s.handleTemplate)
		r.Post("/import", s.handleImport)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests emits one structured line per request with the chi request id.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireToken enforces the static bearer token when one is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			writeError(w, common.ErrUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
