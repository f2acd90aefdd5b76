package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExport streams the current fleet as an XLSX workbook. Optional
// ?from/?to bound the maintenance records included.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err, err.Error())
		return
	}

	data, err := s.transfer.ExportFleetXLSX(r.Context(), from, to)
	if err != nil {
		writeError(w, common.ErrInternal, "export failed")
		return
	}

	name := fmt.Sprintf("fleet_export_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	sendXLSX(w, name, data)
}

// handleTemplate serves the blank import template.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := export.CreateFleetTemplate()
	if err != nil {
		writeError(w, common.ErrInternal, "template generation failed")
		return
	}
	sendXLSX(w, "fleet_import_template.xlsx", data)
}

// handleImport accepts a filled-in template and applies it. The summary is
// returned even when individual rows failed; only an unreadable upload or a
// database fault is an error.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, common.ErrInvalidInput, "upload too large or malformed")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, common.ErrInvalidInput, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, common.ErrInternal, "failed to read upload")
		return
	}

	summary, err := s.transfer.ImportFleetXLSX(r.Context(), data)
	if err != nil {
		writeError(w, err, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func sendXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	_, _ = w.Write(data)
}
