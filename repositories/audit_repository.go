package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/plant-maintenance/models"
)

// HistoryTable is the append-only table audit events are written to
const HistoryTable = "historial"

// AuditSink accepts audit events. Events are immutable once appended.
type AuditSink interface {
	Append(ctx context.Context, event *models.AuditEvent) error
}

// AuditRepository is the history sink plus the read side used by dashboards
// and traceability reports
type AuditRepository interface {
	AuditSink
	List(ctx context.Context, filter models.EventFilter) ([]models.AuditEvent, error)
	Count(ctx context.Context, filter models.EventFilter) (int, error)
	CountByKind(ctx context.Context) (map[string]int, error)
	OriginIDs(ctx context.Context) (map[string]bool, error)
	RecordIDs(ctx context.Context) (map[string]bool, error)
}

type sqliteAuditRepository struct {
	db  dbtx
	now func() time.Time
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &sqliteAuditRepository{db: db, now: time.Now}
}

// Append inserts a new audit event. ID and CreatedAt are filled in when unset.
func (r *sqliteAuditRepository) Append(ctx context.Context, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}

	query := `
		INSERT INTO historial (id, tipo_evento, id_activo_tecnico, id_origen, id_registro,
		                       descripcion, usuario, fecha_evento, proveedor_externo, observaciones)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Kind,
		event.AssetRef,
		event.OriginID,
		event.RecordID,
		event.Description,
		event.ActingUser,
		models.FormatTimestamp(event.CreatedAt),
		event.ExternalProvider,
		event.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

func eventWhere(filter models.EventFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.Kind != "" {
		clauses = append(clauses, "tipo_evento = ?")
		args = append(args, filter.Kind)
	}
	if filter.OriginID != "" {
		clauses = append(clauses, "id_origen = ?")
		args = append(args, filter.OriginID)
	}
	if filter.AssetRef != "" {
		clauses = append(clauses, "id_activo_tecnico = ?")
		args = append(args, filter.AssetRef)
	}
	if len(clauses) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(clauses, " AND "), args
}

// List returns events matching filter, newest first
func (r *sqliteAuditRepository) List(ctx context.Context, filter models.EventFilter) ([]models.AuditEvent, error) {
	where, args := eventWhere(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, tipo_evento, id_activo_tecnico, id_origen, id_registro,
		       descripcion, usuario, fecha_evento, proveedor_externo, observaciones
		FROM historial
		WHERE ` + where + `
		ORDER BY fecha_evento DESC, rowid DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			event     models.AuditEvent
			createdAt string
		)
		err := rows.Scan(
			&event.ID,
			&event.Kind,
			&event.AssetRef,
			&event.OriginID,
			&event.RecordID,
			&event.Description,
			&event.ActingUser,
			&createdAt,
			&event.ExternalProvider,
			&event.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.CreatedAt, _ = models.ParseTimestamp(createdAt)
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}

	return events, nil
}

// Count returns the number of events matching filter
func (r *sqliteAuditRepository) Count(ctx context.Context, filter models.EventFilter) (int, error) {
	where, args := eventWhere(filter)

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM historial WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// CountByKind groups the history by event kind
func (r *sqliteAuditRepository) CountByKind(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tipo_evento, COUNT(*) FROM historial GROUP BY tipo_evento`)
	if err != nil {
		return nil, fmt.Errorf("failed to group audit events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

// OriginIDs returns every distinct non-empty origin reference in the history
func (r *sqliteAuditRepository) OriginIDs(ctx context.Context) (map[string]bool, error) {
	return r.distinct(ctx, "id_origen")
}

// RecordIDs returns every distinct non-empty record storage id in the history
func (r *sqliteAuditRepository) RecordIDs(ctx context.Context) (map[string]bool, error) {
	return r.distinct(ctx, "id_registro")
}

// column is one of the fixed names above, never caller input
func (r *sqliteAuditRepository) distinct(ctx context.Context, column string) (map[string]bool, error) {
	query := `SELECT DISTINCT ` + column + ` FROM historial WHERE ` + column + ` <> ''`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit %s: %w", column, err)
	}
	defer rows.Close()

	values := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan audit %s: %w", column, err)
		}
		values[v] = true
	}
	return values, rows.Err()
}
