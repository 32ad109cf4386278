package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/services"
)

// mutationRequest is the body of a create or update
type mutationRequest struct {
	Document models.Document   `json:"documento"`
	Event    models.EventInput `json:"evento"`
}

// RecordsController handles the record collections
type RecordsController struct {
	services *services.Services
}

// NewRecordsController creates a new records controller
func NewRecordsController(services *services.Services) *RecordsController {
	return &RecordsController{
		services: services,
	}
}

// kindParam resolves the {collection} URL parameter
func kindParam(r *http.Request) (models.Kind, error) {
	collection := chi.URLParam(r, "collection")
	kind, ok := models.KindForCollection(collection)
	if !ok {
		return "", models.ValidationError{Field: "collection", Message: fmt.Sprintf("unknown collection %q", collection)}
	}
	return kind, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, models.ValidationError{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}

func decodeMutation(r *http.Request) (mutationRequest, error) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, models.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if len(req.Document) == 0 {
		return req, models.ValidationError{Field: "documento", Message: "is required"}
	}
	return req, nil
}

// Index handles GET /api/{collection}
func (c *RecordsController) Index(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := c.services.Entities.List(r.Context(), kind, r.URL.Query().Get("activo"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []services.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Show handles GET /api/{collection}/{naturalID}
func (c *RecordsController) Show(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := c.services.Entities.Get(r.Context(), kind, chi.URLParam(r, "naturalID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Create handles POST /api/{collection}
func (c *RecordsController) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := decodeMutation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := c.services.Entities.Create(r.Context(), kind, req.Document, req.Event)
	writeMutation(w, r, http.StatusCreated, res, err)
}

// Update handles PATCH /api/{collection}/{naturalID}
func (c *RecordsController) Update(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := decodeMutation(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := c.services.Entities.Update(r.Context(), kind, chi.URLParam(r, "naturalID"), req.Document, req.Event)
	writeMutation(w, r, http.StatusOK, res, err)
}

// Delete handles DELETE /api/{collection}/{naturalID}. The event is
// optional; an empty body deletes with the generated description.
func (c *RecordsController) Delete(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req mutationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, models.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
			return
		}
	}

	res, err := c.services.Entities.Delete(r.Context(), kind, chi.URLParam(r, "naturalID"), req.Event)
	writeMutation(w, r, http.StatusOK, res, err)
}
