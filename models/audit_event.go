package models

import "time"

// Event kinds written by the core itself. Callers pass their own kinds
// (e.g. "correctivo", "observacion") for entity mutations.
const (
	EventKindRotation = "rotacion"
	EventKindSystem   = "sistema"
	EventKindRepair   = "reparacion"
)

// SystemUser is the acting user recorded for events the application raises on its own
const SystemUser = "system"

// AuditEvent is one immutable fact in the history: a mutation of a record,
// a rotation pass or a repair. Events are appended and never updated.
type AuditEvent struct {
	ID               string    `json:"id"`
	Kind             string    `json:"tipo_evento"`
	AssetRef         string    `json:"id_activo_tecnico,omitempty"`
	OriginID         string    `json:"id_origen,omitempty"`
	RecordID         string    `json:"id_registro,omitempty"`
	Description      string    `json:"descripcion"`
	ActingUser       string    `json:"usuario"`
	CreatedAt        time.Time `json:"fecha_evento"`
	ExternalProvider string    `json:"proveedor_externo,omitempty"`
	Notes            string    `json:"observaciones,omitempty"`
}

// EventInput is what a caller supplies alongside a mutation. Empty optional
// fields fall back to the matching fields of the record being written.
type EventInput struct {
	Kind             string `json:"tipo_evento"`
	Description      string `json:"descripcion"`
	// ActingUser is set by the application, never bound from a request body
	ActingUser       string `json:"-"`
	OriginID         string `json:"id_origen,omitempty"`
	ExternalProvider string `json:"proveedor_externo,omitempty"`
	Notes            string `json:"observaciones,omitempty"`
}

// EventFilter narrows a history listing. Zero values match everything.
type EventFilter struct {
	Kind     string
	OriginID string
	AssetRef string
	Limit    int
	Offset   int
}
