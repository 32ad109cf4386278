package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/blogem/plant-maintenance/models"
)

// StoredDocument is a record as held by the store
type StoredDocument struct {
	ID        string          `json:"_id"`
	Document  models.Document `json:"documento"`
	CreatedAt time.Time       `json:"creado_en"`
}

// DocumentStore is the raw persistence contract for record collections.
// Nothing here writes history; use AuditedRepository for mutations.
type DocumentStore interface {
	InsertOne(ctx context.Context, collection, id string, doc models.Document) error
	FindOne(ctx context.Context, collection string, filter Filter) (*StoredDocument, error)
	Find(ctx context.Context, collection string, filter Filter, limit int) ([]StoredDocument, error)
	UpdateOne(ctx context.Context, collection, id string, patch models.Document) (int64, error)
	DeleteOne(ctx context.Context, collection, id string) (int64, error)
	Count(ctx context.Context, collection string, filter Filter) (int, error)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// sqliteDocumentStore keeps each collection in its own table with the
// document serialized as JSON
type sqliteDocumentStore struct {
	db  dbtx
	now func() time.Time
}

// NewDocumentStore creates a document store over db
func NewDocumentStore(db *sql.DB) DocumentStore {
	return &sqliteDocumentStore{db: db, now: time.Now}
}

func checkCollection(collection string) error {
	if !collectionName.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}

func naturalField(collection string) string {
	if kind, ok := models.KindForCollection(collection); ok {
		return kind.NaturalIDField()
	}
	return ""
}

// InsertOne stores doc as a new record with the given storage id
func (s *sqliteDocumentStore) InsertOne(ctx context.Context, collection, id string, doc models.Document) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, id_natural, id_activo_tecnico, documento, creado_en)
		VALUES (?, ?, ?, ?, ?)
	`, collection)

	natural := ""
	if field := naturalField(collection); field != "" {
		natural = doc.String(field)
	}

	_, err = s.db.ExecContext(ctx, query,
		id,
		natural,
		doc.String(models.FieldAssetRef),
		string(raw),
		models.FormatTimestamp(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

// FindOne returns the oldest record matching filter, or nil when none does
func (s *sqliteDocumentStore) FindOne(ctx context.Context, collection string, filter Filter) (*StoredDocument, error) {
	docs, err := s.Find(ctx, collection, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

// Find returns records matching filter in insertion order. limit <= 0 means no limit.
func (s *sqliteDocumentStore) Find(ctx context.Context, collection string, filter Filter, limit int) ([]StoredDocument, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	where, args := filter.whereClause()
	query := fmt.Sprintf(`
		SELECT id, documento, creado_en
		FROM %s
		WHERE %s
		ORDER BY creado_en ASC, rowid ASC
		LIMIT ?
	`, collection, where)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []StoredDocument
	for rows.Next() {
		var (
			stored    StoredDocument
			raw       string
			createdAt string
		)
		if err := rows.Scan(&stored.ID, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", collection, err)
		}
		if err := json.Unmarshal([]byte(raw), &stored.Document); err != nil {
			return nil, fmt.Errorf("failed to decode %s record %s: %w", collection, stored.ID, err)
		}
		stored.CreatedAt, _ = models.ParseTimestamp(createdAt)
		docs = append(docs, stored)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", collection, err)
	}

	return docs, nil
}

// UpdateOne merges patch into the record with the given storage id
// (RFC 7396 semantics: a null value removes the field)
func (s *sqliteDocumentStore) UpdateOne(ctx context.Context, collection, id string, patch models.Document) (int64, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return 0, fmt.Errorf("failed to encode patch: %w", err)
	}

	naturalExpr := "id_natural"
	args := []interface{}{string(raw)}
	if field := naturalField(collection); field != "" {
		naturalExpr = "COALESCE(CAST(json_extract(json_patch(documento, ?1), ?2) AS TEXT), '')"
		args = append(args, jsonPath(field))
	} else {
		args = append(args, "")
	}
	args = append(args, jsonPath(models.FieldAssetRef), id)

	query := fmt.Sprintf(`
		UPDATE %s
		SET documento = json_patch(documento, ?1),
		    id_natural = %s,
		    id_activo_tecnico = COALESCE(CAST(json_extract(json_patch(documento, ?1), ?3) AS TEXT), '')
		WHERE id = ?4
	`, collection, naturalExpr)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s record: %w", collection, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// DeleteOne removes the record with the given storage id
func (s *sqliteDocumentStore) DeleteOne(ctx context.Context, collection, id string) (int64, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, collection)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s record: %w", collection, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Count returns the number of records matching filter
func (s *sqliteDocumentStore) Count(ctx context.Context, collection string, filter Filter) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	where, args := filter.whereClause()
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, collection, where)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return count, nil
}
