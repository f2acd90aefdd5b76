package server

import (
	"encoding/json"
	"net/http"

	"github.com/fleetworks/fleet-tracker/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error onto an HTTP status and sends a JSON body. The
// message is what the client sees; err only picks the status code.
func writeError(w http.ResponseWriter, err error, message string) {
	if message == "" {
		message = err.Error()
	}
	writeJSON(w, common.HTTPStatus(err), errorResponse{Error: message})
}
