package controllers

import (
	"net/http"

	"github.com/blogem/plant-maintenance/services"
)

// DashboardController handles dashboard-related requests
type DashboardController struct {
	services *services.Services
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services) *DashboardController {
	return &DashboardController{
		services: services,
	}
}

// Index handles GET /api/resumen
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	summary, err := c.services.Entities.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
