package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies one family of maintenance records
type Kind string

const (
	KindAsset           Kind = "activo"
	KindCorrectiveTask  Kind = "tarea_correctiva"
	KindTechnicalTask   Kind = "tarea_tecnica"
	KindPreventivePlan  Kind = "plan_preventivo"
	KindObservation     Kind = "observacion"
	KindCalibration     Kind = "calibracion"
	KindExternalService Kind = "servicio_externo"
	KindInventoryItem   Kind = "inventario"
)

// Well-known document fields
const (
	FieldStorageID        = "_id"
	FieldAssetRef         = "id_activo_tecnico"
	FieldTaskID           = "id_tarea"
	FieldPlanID           = "id_plan"
	FieldDocumentID       = "id_documento"
	FieldExternalProvider = "proveedor_externo"
	FieldNotes            = "observaciones"
)

// OriginIDFields lists the natural-id fields consulted, in order, when
// resolving the origin of an audit event
var OriginIDFields = []string{FieldTaskID, FieldPlanID, FieldDocumentID}

type kindInfo struct {
	collection   string
	naturalField string
	label        string
}

var kinds = map[Kind]kindInfo{
	KindAsset:           {collection: "activos", naturalField: FieldAssetRef, label: "Activo"},
	KindCorrectiveTask:  {collection: "tareas_correctivas", naturalField: FieldTaskID, label: "Tarea correctiva"},
	KindTechnicalTask:   {collection: "tareas_tecnicas", naturalField: FieldTaskID, label: "Tarea técnica"},
	KindPreventivePlan:  {collection: "planes_preventivos", naturalField: FieldPlanID, label: "Plan preventivo"},
	KindObservation:     {collection: "observaciones", naturalField: "id_observacion", label: "Observación"},
	KindCalibration:     {collection: "calibraciones", naturalField: "id_calibracion", label: "Calibración"},
	KindExternalService: {collection: "servicios_externos", naturalField: "id_servicio", label: "Servicio externo"},
	KindInventoryItem:   {collection: "inventario", naturalField: "id_item", label: "Inventario"},
}

// Kinds returns every known kind sorted by name
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Collection returns the collection name records of this kind live in
func (k Kind) Collection() string {
	return kinds[k].collection
}

// NaturalIDField returns the field holding the record's business identifier
func (k Kind) NaturalIDField() string {
	return kinds[k].naturalField
}

// Label returns a readable name for the kind
func (k Kind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return "Desconocido"
}

// KindForCollection maps a collection name back to its kind
func KindForCollection(collection string) (Kind, bool) {
	for k, info := range kinds {
		if info.collection == collection {
			return k, true
		}
	}
	return "", false
}

// Document is the storage form of a record: field name to scalar or text value
type Document map[string]interface{}

// String returns the field as trimmed text. Numbers are formatted without
// exponent; missing and nil fields yield "".
func (d Document) String(field string) string {
	v, ok := d[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Has reports whether field is present with non-empty text
func (d Document) Has(field string) bool {
	return d.String(field) != ""
}

// Clone returns a shallow copy
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns a copy of d with every field of patch applied on top
func (d Document) Merge(patch Document) Document {
	out := d.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Entity is implemented by every record kind
type Entity interface {
	Kind() Kind
	NaturalID() string
	AssetRef() string
	Document() Document
}

// Asset is a physical or technical asset of the plant
type Asset struct {
	IDActivoTecnico string `json:"id_activo_tecnico"`
	Nombre          string `json:"nombre"`
	Tipo            string `json:"tipo,omitempty"`
	Ubicacion       string `json:"ubicacion,omitempty"`
	Estado          string `json:"estado,omitempty"`
	Fabricante      string `json:"fabricante,omitempty"`
	Modelo          string `json:"modelo,omitempty"`
	NumeroSerie     string `json:"numero_serie,omitempty"`
	FechaAlta       string `json:"fecha_alta,omitempty"`
}

func (a *Asset) Kind() Kind         { return KindAsset }
func (a *Asset) NaturalID() string  { return a.IDActivoTecnico }
func (a *Asset) AssetRef() string   { return a.IDActivoTecnico }
func (a *Asset) Document() Document { return toDocument(a) }

// CorrectiveTask records a failure and the work done to fix it
type CorrectiveTask struct {
	IDTarea          string `json:"id_tarea"`
	IDActivoTecnico  string `json:"id_activo_tecnico"`
	DescripcionFalla string `json:"descripcion_falla"`
	Responsable      string `json:"responsable,omitempty"`
	Estado           string `json:"estado,omitempty"`
	FechaEvento      string `json:"fecha_evento,omitempty"`
	ProveedorExterno string `json:"proveedor_externo,omitempty"`
	Observaciones    string `json:"observaciones,omitempty"`
}

func (t *CorrectiveTask) Kind() Kind         { return KindCorrectiveTask }
func (t *CorrectiveTask) NaturalID() string  { return t.IDTarea }
func (t *CorrectiveTask) AssetRef() string   { return t.IDActivoTecnico }
func (t *CorrectiveTask) Document() Document { return toDocument(t) }

// TechnicalTask is scheduled technical work not caused by a failure
type TechnicalTask struct {
	IDTarea          string `json:"id_tarea"`
	IDActivoTecnico  string `json:"id_activo_tecnico"`
	Descripcion      string `json:"descripcion"`
	Responsable      string `json:"responsable,omitempty"`
	Estado           string `json:"estado,omitempty"`
	Fecha            string `json:"fecha,omitempty"`
	ProveedorExterno string `json:"proveedor_externo,omitempty"`
	Observaciones    string `json:"observaciones,omitempty"`
}

func (t *TechnicalTask) Kind() Kind         { return KindTechnicalTask }
func (t *TechnicalTask) NaturalID() string  { return t.IDTarea }
func (t *TechnicalTask) AssetRef() string   { return t.IDActivoTecnico }
func (t *TechnicalTask) Document() Document { return toDocument(t) }

// PreventivePlan is a recurring maintenance plan for an asset
type PreventivePlan struct {
	IDPlan           string `json:"id_plan"`
	IDActivoTecnico  string `json:"id_activo_tecnico"`
	Descripcion      string `json:"descripcion"`
	Frecuencia       string `json:"frecuencia,omitempty"`
	ProximaEjecucion string `json:"proxima_ejecucion,omitempty"`
	Estado           string `json:"estado,omitempty"`
	Responsable      string `json:"responsable,omitempty"`
}

func (p *PreventivePlan) Kind() Kind         { return KindPreventivePlan }
func (p *PreventivePlan) NaturalID() string  { return p.IDPlan }
func (p *PreventivePlan) AssetRef() string   { return p.IDActivoTecnico }
func (p *PreventivePlan) Document() Document { return toDocument(p) }

// Observation is a free-form note a technician raised about an asset
type Observation struct {
	IDObservacion   string `json:"id_observacion"`
	IDActivoTecnico string `json:"id_activo_tecnico"`
	Descripcion     string `json:"descripcion"`
	Severidad       string `json:"severidad,omitempty"`
	Fecha           string `json:"fecha,omitempty"`
	Autor           string `json:"autor,omitempty"`
}

func (o *Observation) Kind() Kind         { return KindObservation }
func (o *Observation) NaturalID() string  { return o.IDObservacion }
func (o *Observation) AssetRef() string   { return o.IDActivoTecnico }
func (o *Observation) Document() Document { return toDocument(o) }

// Calibration records one calibration of an instrument
type Calibration struct {
	IDCalibracion      string `json:"id_calibracion"`
	IDActivoTecnico    string `json:"id_activo_tecnico"`
	IDDocumento        string `json:"id_documento,omitempty"`
	Fecha              string `json:"fecha,omitempty"`
	Resultado          string `json:"resultado,omitempty"`
	ProveedorExterno   string `json:"proveedor_externo,omitempty"`
	ProximaCalibracion string `json:"proxima_calibracion,omitempty"`
	Observaciones      string `json:"observaciones,omitempty"`
}

func (c *Calibration) Kind() Kind         { return KindCalibration }
func (c *Calibration) NaturalID() string  { return c.IDCalibracion }
func (c *Calibration) AssetRef() string   { return c.IDActivoTecnico }
func (c *Calibration) Document() Document { return toDocument(c) }

// ExternalService is work performed by an outside provider
type ExternalService struct {
	IDServicio       string  `json:"id_servicio"`
	IDActivoTecnico  string  `json:"id_activo_tecnico"`
	ProveedorExterno string  `json:"proveedor_externo"`
	Descripcion      string  `json:"descripcion,omitempty"`
	Fecha            string  `json:"fecha,omitempty"`
	Costo            float64 `json:"costo,omitempty"`
	IDDocumento      string  `json:"id_documento,omitempty"`
	Observaciones    string  `json:"observaciones,omitempty"`
}

func (s *ExternalService) Kind() Kind         { return KindExternalService }
func (s *ExternalService) NaturalID() string  { return s.IDServicio }
func (s *ExternalService) AssetRef() string   { return s.IDActivoTecnico }
func (s *ExternalService) Document() Document { return toDocument(s) }

// InventoryItem is a spare part or consumable held for an asset
type InventoryItem struct {
	IDItem           string  `json:"id_item"`
	IDActivoTecnico  string  `json:"id_activo_tecnico"`
	Nombre           string  `json:"nombre"`
	Cantidad         float64 `json:"cantidad"`
	Ubicacion        string  `json:"ubicacion,omitempty"`
	ProveedorExterno string  `json:"proveedor_externo,omitempty"`
}

func (i *InventoryItem) Kind() Kind         { return KindInventoryItem }
func (i *InventoryItem) NaturalID() string  { return i.IDItem }
func (i *InventoryItem) AssetRef() string   { return i.IDActivoTecnico }
func (i *InventoryItem) Document() Document { return toDocument(i) }

// NewEntity returns an empty record of the given kind
func NewEntity(kind Kind) (Entity, error) {
	switch kind {
	case KindAsset:
		return &Asset{}, nil
	case KindCorrectiveTask:
		return &CorrectiveTask{}, nil
	case KindTechnicalTask:
		return &TechnicalTask{}, nil
	case KindPreventivePlan:
		return &PreventivePlan{}, nil
	case KindObservation:
		return &Observation{}, nil
	case KindCalibration:
		return &Calibration{}, nil
	case KindExternalService:
		return &ExternalService{}, nil
	case KindInventoryItem:
		return &InventoryItem{}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

// DecodeEntity builds the typed record for kind from a document. Fields the
// kind does not declare are ignored.
func DecodeEntity(kind Kind, doc Document) (Entity, error) {
	e, err := NewEntity(kind)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", kind, err)
	}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", kind, err)
	}
	return e, nil
}

// Fields returns the document fields declared by the kind, sorted
func (k Kind) Fields() []string {
	e, err := NewEntity(k)
	if err != nil {
		return nil
	}
	t := reflect.TypeOf(e).Elem()
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// UnknownFields returns the fields of doc the kind does not declare
func UnknownFields(k Kind, doc Document) []string {
	known := make(map[string]bool)
	for _, f := range k.Fields() {
		known[f] = true
	}
	var unknown []string
	for field := range doc {
		if !known[field] {
			unknown = append(unknown, field)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// ValidateEntity checks the identifying and traceability fields of a record
func ValidateEntity(e Entity) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(e.NaturalID()) == "" {
		field := e.Kind().NaturalIDField()
		errs = append(errs, ValidationError{Field: field, Message: field + " is required"})
	}
	if strings.TrimSpace(e.AssetRef()) == "" {
		errs = append(errs, ValidationError{Field: FieldAssetRef, Message: "traceability field required"})
	}
	return errs
}

func toDocument(v interface{}) Document {
	raw, err := json.Marshal(v)
	if err != nil {
		return Document{}
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}
	}
	return doc
}
