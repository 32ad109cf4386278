package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/blogem/plant-maintenance/authenticator"
	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/repositories"
	"github.com/blogem/plant-maintenance/services"
)

const (
	statusAudited             = "audited"
	statusWrittenWithoutAudit = "written_without_audit"
)

// writeJSON encodes payload with the given status code
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError translates service errors into HTTP responses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var many models.ValidationErrors
	var single models.ValidationError

	switch {
	case errors.As(err, &many):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  err.Error(),
			"fields": many,
		})
	case errors.As(err, &single):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  err.Error(),
			"fields": models.ValidationErrors{single},
		})
	case repositories.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// writeMutation reports a create, update or delete. A mutation that took
// effect without its audit event is 207 so callers can tell it apart.
func writeMutation(w http.ResponseWriter, r *http.Request, okStatus int, res *services.MutationResult, err error) {
	if err != nil && repositories.IsPartialAudit(err) && res != nil {
		slog.Warn("mutation applied without audit event", "path", r.URL.Path, "id", res.ID, "error", err)
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"status": statusWrittenWithoutAudit,
			"result": res,
			"error":  err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, okStatus, map[string]interface{}{
		"status": statusAudited,
		"result": res,
	})
}

// Controllers holds all controller instances
type Controllers struct {
	Auth         *AuthController
	Dashboard    *DashboardController
	Records      *RecordsController
	History      *HistoryController
	Traceability *TraceabilityController
	Storage      *StorageController
}

// NewControllers creates and initializes all controller instances. auth may
// be nil when login is disabled.
func NewControllers(services *services.Services, auth authenticator.Provider) *Controllers {
	return &Controllers{
		Auth:         NewAuthController(auth),
		Dashboard:    NewDashboardController(services),
		Records:      NewRecordsController(services),
		History:      NewHistoryController(services),
		Traceability: NewTraceabilityController(services),
		Storage:      NewStorageController(services),
	}
}
