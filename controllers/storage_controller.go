package controllers

import (
	"net/http"

	"github.com/blogem/plant-maintenance/services"
)

// StorageController exposes storage usage and manual rotation
type StorageController struct {
	services *services.Services
}

// NewStorageController creates a new storage controller
func NewStorageController(services *services.Services) *StorageController {
	return &StorageController{
		services: services,
	}
}

// Usage handles GET /api/rotacion/uso
func (c *StorageController) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := c.services.Storage.Usage(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// Rotate handles POST /api/rotacion
func (c *StorageController) Rotate(w http.ResponseWriter, r *http.Request) {
	report, err := c.services.Storage.Rotate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
