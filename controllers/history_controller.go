package controllers

import (
	"net/http"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/services"
)

// HistoryController serves the audit history
type HistoryController struct {
	services *services.Services
}

// NewHistoryController creates a new history controller
func NewHistoryController(services *services.Services) *HistoryController {
	return &HistoryController{
		services: services,
	}
}

// Index handles GET /api/historial?origen=&activo=&tipo=&limit=&offset=
func (c *HistoryController) Index(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	events, err := c.services.Traceability.History(r.Context(), models.EventFilter{
		Kind:     q.Get("tipo"),
		OriginID: q.Get("origen"),
		AssetRef: q.Get("activo"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
