package controllers

import (
	"net/http"

	"github.com/blogem/plant-maintenance/services"
	"github.com/blogem/plant-maintenance/userctx"
)

// TraceabilityController reports and repairs records missing from the history
type TraceabilityController struct {
	services *services.Services
}

// NewTraceabilityController creates a new traceability controller
func NewTraceabilityController(services *services.Services) *TraceabilityController {
	return &TraceabilityController{
		services: services,
	}
}

// Orphans handles GET /api/trazabilidad/huerfanos
func (c *TraceabilityController) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := c.services.Traceability.OrphanReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orphans == nil {
		orphans = []services.Orphan{}
	}
	writeJSON(w, http.StatusOK, orphans)
}

// Repair handles POST /api/trazabilidad/reparar
func (c *TraceabilityController) Repair(w http.ResponseWriter, r *http.Request) {
	// RepairOrphans records "system" when no one is logged in
	var user string
	if !userctx.IsAnonymous(r.Context()) {
		user = userctx.User(r.Context())
	}

	report, err := c.services.Traceability.RepairOrphans(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
