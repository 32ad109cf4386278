package repositories

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blogem/plant-maintenance/models"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Term is a single field equality test
type Term struct {
	Field string
	Value string
}

// Filter selects records whose fields equal every term. The field "_id"
// matches the storage identifier rather than a document field.
type Filter []Term

// ByField returns a filter matching one document field
func ByField(field, value string) Filter {
	return Filter{{Field: field, Value: value}}
}

// ByStorageID returns a filter matching a storage identifier
func ByStorageID(id string) Filter {
	return ByField(models.FieldStorageID, id)
}

// And returns a copy of f with one more term
func (f Filter) And(field, value string) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Term{Field: field, Value: value})
}

// Validate checks that the filter has at least one term and that every
// field name is safe to use as a document path
func (f Filter) Validate() error {
	if len(f) == 0 {
		return models.ValidationError{Field: "filter", Message: "at least one filter term is required"}
	}
	for _, t := range f {
		if !fieldName.MatchString(t.Field) {
			return models.ValidationError{Field: "filter", Message: fmt.Sprintf("invalid field name %q", t.Field)}
		}
	}
	return nil
}

// Matches reports whether a stored record satisfies every term
func (f Filter) Matches(id string, doc models.Document) bool {
	for _, t := range f {
		if t.Field == models.FieldStorageID {
			if id != t.Value {
				return false
			}
			continue
		}
		if doc.String(t.Field) != t.Value {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	if len(f) == 0 {
		return "{}"
	}
	parts := make([]string, len(f))
	for i, t := range f {
		parts[i] = t.Field + "=" + t.Value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// whereClause renders the filter for a collection table. Field names must
// have passed Validate.
func (f Filter) whereClause() (string, []interface{}) {
	if len(f) == 0 {
		return "1 = 1", nil
	}
	clauses := make([]string, 0, len(f))
	args := make([]interface{}, 0, len(f)*2)
	for _, t := range f {
		if t.Field == models.FieldStorageID {
			clauses = append(clauses, "id = ?")
			args = append(args, t.Value)
			continue
		}
		clauses = append(clauses, "CAST(json_extract(documento, ?) AS TEXT) = ?")
		args = append(args, jsonPath(t.Field), t.Value)
	}
	return strings.Join(clauses, " AND "), args
}

func jsonPath(field string) string {
	return `$."` + field + `"`
}
