package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/plant-maintenance/database"
	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/repositories"
	"github.com/blogem/plant-maintenance/rotation"
	"github.com/blogem/plant-maintenance/services"
	"github.com/blogem/plant-maintenance/userctx"
)

func newRouter(ctrl *Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(userctx.SetUser(r.Context(), "tecnico@planta.example")))
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/resumen", ctrl.Dashboard.Index)
		r.Get("/historial", ctrl.History.Index)
		r.Get("/trazabilidad/huerfanos", ctrl.Traceability.Orphans)
		r.Post("/trazabilidad/reparar", ctrl.Traceability.Repair)
		r.Get("/rotacion/uso", ctrl.Storage.Usage)
		r.Post("/rotacion", ctrl.Storage.Rotate)
		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", ctrl.Records.Index)
			r.Post("/", ctrl.Records.Create)
			r.Get("/{naturalID}", ctrl.Records.Show)
			r.Patch("/{naturalID}", ctrl.Records.Update)
			r.Delete("/{naturalID}", ctrl.Records.Delete)
		})
	})
	return r
}

func setup(t *testing.T) (http.Handler, *repositories.Repositories) {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "cmms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := repositories.NewRepositories(db)
	history, err := rotation.NewTableDataset(db, "historial", "fecha_evento")
	require.NoError(t, err)
	rotator := rotation.NewRotator(rotation.DefaultConfig(), repos.Audit, history)

	return newRouter(NewControllers(services.NewServices(repos, rotator), nil)), repos
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestRecordLifecycle(t *testing.T) {
	h, repos := setup(t)

	rec, body := do(t, h, http.MethodPost, "/api/tareas_correctivas",
		`{"documento":{"id_tarea":"TC1","id_activo_tecnico":"A1","descripcion_falla":"fuga"},"evento":{"tipo_evento":"correctivo","descripcion":"fuga en bomba"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "audited", body["status"])

	rec, body = do(t, h, http.MethodGet, "/api/tareas_correctivas/TC1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TC1", body["natural_id"])

	rec, _ = do(t, h, http.MethodPatch, "/api/tareas_correctivas/TC1",
		`{"documento":{"estado":"Cerrado","id_activo_tecnico":"A1"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = do(t, h, http.MethodDelete, "/api/tareas_correctivas/TC1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	events, err := repos.Audit.List(context.Background(), models.EventFilter{OriginID: "TC1"})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, "tecnico@planta.example", e.ActingUser)
		assert.Equal(t, "A1", e.AssetRef)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/tareas_correctivas/TC1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyCannotSetActingUser(t *testing.T) {
	h, repos := setup(t)

	rec, _ := do(t, h, http.MethodPost, "/api/observaciones",
		`{"documento":{"id_observacion":"OB1","id_activo_tecnico":"A1"},"evento":{"usuario":"otro","descripcion":"ruido"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	events, err := repos.Audit.List(context.Background(), models.EventFilter{OriginID: "OB1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tecnico@planta.example", events[0].ActingUser)
	assert.Equal(t, "ruido", events[0].Description)
}

func TestRecordErrors(t *testing.T) {
	h, _ := setup(t)
	rec, _ := do(t, h, http.MethodPost, "/api/observaciones", `{"documento":{"id_observacion":"OB1","id_activo_tecnico":"A1"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown collection", http.MethodGet, "/api/vehiculos", "", http.StatusUnprocessableEntity},
		{"missing asset", http.MethodPost, "/api/observaciones", `{"documento":{"id_observacion":"OB1"}}`, http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/api/observaciones", `{"documento":`, http.StatusUnprocessableEntity},
		{"empty document", http.MethodPost, "/api/observaciones", `{"evento":{}}`, http.StatusUnprocessableEntity},
		{"patch without asset", http.MethodPatch, "/api/observaciones/OB1", `{"documento":{"descripcion":"x"}}`, http.StatusUnprocessableEntity},
		{"duplicate", http.MethodPost, "/api/observaciones", `{"documento":{"id_observacion":"OB1","id_activo_tecnico":"A1"}}`, http.StatusUnprocessableEntity},
		{"update missing", http.MethodPatch, "/api/observaciones/OB9", `{"documento":{"descripcion":"x","id_activo_tecnico":"A1"}}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/observaciones/OB9", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/observaciones?limit=-1", "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestValidationFieldsInBody(t *testing.T) {
	h, _ := setup(t)

	rec, body := do(t, h, http.MethodPost, "/api/observaciones", `{"documento":{"id_observacion":"OB1","color":"rojo"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields, ok := body["fields"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, fields)
	assert.Equal(t, "color", fields[0].(map[string]interface{})["field"])
}

func TestListByAsset(t *testing.T) {
	h, _ := setup(t)

	for _, doc := range []string{
		`{"documento":{"id_item":"IT1","id_activo_tecnico":"A1"}}`,
		`{"documento":{"id_item":"IT2","id_activo_tecnico":"A2"}}`,
	} {
		rec, _ := do(t, h, http.MethodPost, "/api/inventario", doc)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, _ := do(t, h, http.MethodGet, "/api/inventario?activo=A2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []services.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "IT2", records[0].NaturalID)

	rec, _ = do(t, h, http.MethodGet, "/api/inventario?activo=A9", "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHistoryAndSummary(t *testing.T) {
	h, _ := setup(t)

	for _, doc := range []string{
		`{"documento":{"id_plan":"PP1","id_activo_tecnico":"A1"},"evento":{"tipo_evento":"preventivo"}}`,
		`{"documento":{"id_plan":"PP2","id_activo_tecnico":"A2"},"evento":{"tipo_evento":"preventivo"}}`,
	} {
		rec, _ := do(t, h, http.MethodPost, "/api/planes_preventivos", doc)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, _ := do(t, h, http.MethodGet, "/api/historial?activo=A1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.AuditEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "PP1", events[0].OriginID)

	rec, _ = do(t, h, http.MethodGet, "/api/historial?offset=abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body := do(t, h, http.MethodGet, "/api/resumen", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["records"].(map[string]interface{})["plan_preventivo"])
	assert.Equal(t, float64(2), body["events"].(map[string]interface{})["preventivo"])
}

func TestOrphansAndRepair(t *testing.T) {
	h, repos := setup(t)
	require.NoError(t, repos.Documents.InsertOne(context.Background(), "servicios_externos", "raw-1",
		models.Document{"id_servicio": "SE1", "id_activo_tecnico": "A4"}))

	rec, _ := do(t, h, http.MethodGet, "/api/trazabilidad/huerfanos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orphans []services.Orphan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orphans))
	require.Len(t, orphans, 1)
	assert.Equal(t, "SE1", orphans[0].OriginID)

	rec, body := do(t, h, http.MethodPost, "/api/trazabilidad/reparar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["repaired"])

	events, err := repos.Audit.List(context.Background(), models.EventFilter{OriginID: "SE1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tecnico@planta.example", events[0].ActingUser)
}

func TestStorageEndpoints(t *testing.T) {
	h, _ := setup(t)

	rec, body := do(t, h, http.MethodGet, "/api/rotacion/uso", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(rotation.DefaultMaxBytes), body["max_bytes"])
	assert.Equal(t, []interface{}{"historial"}, body["datasets"])

	rec, body = do(t, h, http.MethodPost, "/api/rotacion", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["total_removed"])
}

// stubEntities answers every mutation with a fixed result and error
type stubEntities struct {
	services.EntityService
	res *services.MutationResult
	err error
}

func (s stubEntities) Create(context.Context, models.Kind, models.Document, models.EventInput) (*services.MutationResult, error) {
	return s.res, s.err
}

func TestPartialAuditIsMultiStatus(t *testing.T) {
	partial := &repositories.PartialAuditFailure{
		Op: "insert", Collection: "observaciones", RecordID: "rec-1", Err: errors.New("history locked"),
	}
	srvs := &services.Services{Entities: stubEntities{
		res: &services.MutationResult{ID: "rec-1", Count: 1},
		err: partial,
	}}
	h := newRouter(NewControllers(srvs, nil))

	rec, body := do(t, h, http.MethodPost, "/api/observaciones",
		`{"documento":{"id_observacion":"OB1","id_activo_tecnico":"A1"}}`)

	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.Equal(t, "written_without_audit", body["status"])
	assert.Equal(t, "rec-1", body["result"].(map[string]interface{})["_id"])
}

func TestPersistenceIsInternalError(t *testing.T) {
	srvs := &services.Services{Entities: stubEntities{
		err: &repositories.PersistenceError{Op: "insert", Collection: "observaciones", Err: errors.New("disk I/O error")},
	}}
	h := newRouter(NewControllers(srvs, nil))

	rec, body := do(t, h, http.MethodPost, "/api/observaciones",
		`{"documento":{"id_observacion":"OB1","id_activo_tecnico":"A1"}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["error"])
}
