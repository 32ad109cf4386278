package models

import (
	"reflect"
	"testing"
	"time"
)

// Test that every kind maps to a collection and back
func TestKindCollections(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		coll := k.Collection()
		if coll == "" {
			t.Errorf("Kind %s has no collection", k)
		}
		if seen[coll] {
			t.Errorf("Collection %s used by more than one kind", coll)
		}
		seen[coll] = true

		back, ok := KindForCollection(coll)
		if !ok || back != k {
			t.Errorf("KindForCollection(%s) = %s, %v; want %s", coll, back, ok, k)
		}
		if k.NaturalIDField() == "" {
			t.Errorf("Kind %s has no natural id field", k)
		}
	}

	if _, ok := KindForCollection("usuarios"); ok {
		t.Error("Expected unknown collection to have no kind")
	}
	if Kind("otro").Valid() {
		t.Error("Expected unknown kind to be invalid")
	}
}

// Test document text conversion
func TestDocumentString(t *testing.T) {
	doc := Document{
		"texto":   "  A1 ",
		"entero":  float64(42),
		"decimal": 3.5,
		"nulo":    nil,
		"bool":    true,
	}

	tests := map[string]string{
		"texto":   "A1",
		"entero":  "42",
		"decimal": "3.5",
		"nulo":    "",
		"bool":    "true",
		"falta":   "",
	}
	for field, want := range tests {
		if got := doc.String(field); got != want {
			t.Errorf("String(%s) = %q, want %q", field, got, want)
		}
	}

	if doc.Has("nulo") || !doc.Has("texto") {
		t.Error("Has does not follow String")
	}
}

// Test merge leaves the original untouched
func TestDocumentMerge(t *testing.T) {
	orig := Document{"estado": "Abierto", "id_plan": "PP1"}
	merged := orig.Merge(Document{"estado": "Cerrado"})

	if merged.String("estado") != "Cerrado" || merged.String("id_plan") != "PP1" {
		t.Errorf("Unexpected merge result: %v", merged)
	}
	if orig.String("estado") != "Abierto" {
		t.Error("Merge modified the original document")
	}
}

// Test typed decoding and validation
func TestDecodeAndValidateEntity(t *testing.T) {
	e, err := DecodeEntity(KindCorrectiveTask, Document{
		"id_tarea":          "TC1",
		"id_activo_tecnico": "A1",
		"descripcion_falla": "fuga",
		"no_declarado":      "x",
	})
	if err != nil {
		t.Fatalf("DecodeEntity failed: %v", err)
	}
	if e.NaturalID() != "TC1" || e.AssetRef() != "A1" {
		t.Errorf("Unexpected entity: %+v", e)
	}
	if errs := ValidateEntity(e); errs.HasErrors() {
		t.Errorf("Expected no errors, got %v", errs)
	}
	if _, ok := e.Document()["no_declarado"]; ok {
		t.Error("Undeclared field survived decoding")
	}

	missing, err := DecodeEntity(KindPreventivePlan, Document{"descripcion": "engrase"})
	if err != nil {
		t.Fatalf("DecodeEntity failed: %v", err)
	}
	errs := ValidateEntity(missing)
	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %v", errs)
	}

	if _, err := DecodeEntity(KindInventoryItem, Document{"cantidad": "muchas"}); err == nil {
		t.Error("Expected decode error for non-numeric quantity")
	}
	if _, err := DecodeEntity(Kind("otro"), Document{}); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

// Test declared fields
func TestKindFields(t *testing.T) {
	fields := KindPreventivePlan.Fields()
	want := []string{"descripcion", "estado", "frecuencia", "id_activo_tecnico", "id_plan", "proxima_ejecucion", "responsable"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("Fields() = %v, want %v", fields, want)
	}

	unknown := UnknownFields(KindPreventivePlan, Document{"id_plan": "PP1", "zzz": 1, "aaa": 2})
	if !reflect.DeepEqual(unknown, []string{"aaa", "zzz"}) {
		t.Errorf("UnknownFields() = %v", unknown)
	}
}

// Test timestamp utilities
func TestTimestamps(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 120000000, time.UTC)
	stored := FormatTimestamp(at)
	if stored != "2024-05-06T07:08:09.120000000Z" {
		t.Errorf("FormatTimestamp() = %s", stored)
	}
	if later := FormatTimestamp(at.Add(3 * time.Millisecond)); later <= stored {
		t.Errorf("Stored timestamps do not sort: %s <= %s", later, stored)
	}

	for _, value := range []string{stored, "2024-05-06T07:08:09Z", "2024-05-06 07:08:09", "2024-05-06", "06/05/2024"} {
		if _, ok := ParseTimestamp(value); !ok {
			t.Errorf("Expected %q to parse", value)
		}
	}
	for _, value := range []string{"", "ayer", "2024-13-45"} {
		if _, ok := ParseTimestamp(value); ok {
			t.Errorf("Expected %q not to parse", value)
		}
	}

	if FormatDate(at) != "2024-05-06" {
		t.Errorf("FormatDate() = %s", FormatDate(at))
	}
}

// Test validation error formatting
func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "id_plan", Message: "id_plan is required"},
		{Field: "id_activo_tecnico", Message: "traceability field required"},
	}
	if !errs.HasErrors() {
		t.Error("Expected HasErrors")
	}
	want := "validation failed: id_plan: id_plan is required, id_activo_tecnico: traceability field required"
	if errs.Error() != want {
		t.Errorf("Error() = %q", errs.Error())
	}
}
