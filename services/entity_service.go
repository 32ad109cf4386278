package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/repositories"
)

// Record is a stored entity as returned to callers
type Record struct {
	ID        string          `json:"_id"`
	Kind      models.Kind     `json:"kind"`
	NaturalID string          `json:"natural_id"`
	Document  models.Document `json:"documento"`
	CreatedAt time.Time       `json:"creado_en"`
}

// MutationResult reports the outcome of a create, update or delete. Audited
// is false when the record changed but its audit event was not written.
type MutationResult struct {
	ID      string `json:"_id,omitempty"`
	Count   int64  `json:"count"`
	Audited bool   `json:"audited"`
}

// EntityService interface defines record management for every kind
type EntityService interface {
	List(ctx context.Context, kind models.Kind, assetRef string, limit int) ([]Record, error)
	Get(ctx context.Context, kind models.Kind, naturalID string) (*Record, error)
	Create(ctx context.Context, kind models.Kind, doc models.Document, event models.EventInput) (*MutationResult, error)
	Update(ctx context.Context, kind models.Kind, naturalID string, patch models.Document, event models.EventInput) (*MutationResult, error)
	Delete(ctx context.Context, kind models.Kind, naturalID string, event models.EventInput) (*MutationResult, error)
	Summary(ctx context.Context) (*Summary, error)
}

// Summary is the dashboard view of the data
type Summary struct {
	Records map[models.Kind]int `json:"records"`
	Events  map[string]int      `json:"events"`
}

// entityService implements EntityService interface
type entityService struct {
	repos *repositories.Repositories
}

// NewEntityService creates a new entity service
func NewEntityService(repos *repositories.Repositories) EntityService {
	return &entityService{repos: repos}
}

func (s *entityService) repo(kind models.Kind) (*repositories.AuditedRepository, error) {
	if !kind.Valid() {
		return nil, models.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown record kind %q", kind)}
	}
	return s.repos.For(kind)
}

func toRecord(kind models.Kind, stored repositories.StoredDocument) Record {
	return Record{
		ID:        stored.ID,
		Kind:      kind,
		NaturalID: stored.Document.String(kind.NaturalIDField()),
		Document:  stored.Document,
		CreatedAt: stored.CreatedAt,
	}
}

// List retrieves records of kind, optionally only those of one asset
func (s *entityService) List(ctx context.Context, kind models.Kind, assetRef string, limit int) ([]Record, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}

	var filter repositories.Filter
	if assetRef = strings.TrimSpace(assetRef); assetRef != "" {
		filter = repositories.ByField(models.FieldAssetRef, assetRef)
	}

	stored, err := repo.Find(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind.Collection(), err)
	}

	records := make([]Record, len(stored))
	for i, doc := range stored {
		records[i] = toRecord(kind, doc)
	}
	return records, nil
}

// Get retrieves one record by its natural id
func (s *entityService) Get(ctx context.Context, kind models.Kind, naturalID string) (*Record, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}

	filter := repositories.ByField(kind.NaturalIDField(), naturalID)
	stored, err := repo.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, &repositories.NotFoundError{Collection: kind.Collection(), Filter: filter}
	}

	record := toRecord(kind, *stored)
	return &record, nil
}

func checkDeclared(kind models.Kind, doc models.Document) error {
	unknown := models.UnknownFields(kind, doc)
	if len(unknown) == 0 {
		return nil
	}
	return models.ValidationError{
		Field:   unknown[0],
		Message: fmt.Sprintf("fields not declared for %s: %s", kind, strings.Join(unknown, ", ")),
	}
}

// decode checks doc against the kind's declared fields and required values
func decode(kind models.Kind, doc models.Document) (models.Entity, error) {
	if err := checkDeclared(kind, doc); err != nil {
		return nil, err
	}

	entity, err := models.DecodeEntity(kind, doc)
	if err != nil {
		return nil, models.ValidationError{Field: "documento", Message: err.Error()}
	}
	if errs := models.ValidateEntity(entity); errs.HasErrors() {
		return nil, errs
	}
	return entity, nil
}

func withDefaults(event models.EventInput, kind models.Kind, action, naturalID string) models.EventInput {
	if event.Kind == "" {
		event.Kind = string(kind)
	}
	if event.Description == "" {
		event.Description = fmt.Sprintf("%s de %s %s", action, strings.ToLower(kind.Label()), naturalID)
	}
	return event
}

func result(id string, count int64, err error) (*MutationResult, error) {
	if err != nil && !repositories.IsPartialAudit(err) {
		return nil, err
	}
	return &MutationResult{ID: id, Count: count, Audited: err == nil}, err
}

// Create validates doc as a record of kind and stores it with its audit event
func (s *entityService) Create(ctx context.Context, kind models.Kind, doc models.Document, event models.EventInput) (*MutationResult, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}

	entity, err := decode(kind, doc)
	if err != nil {
		return nil, err
	}

	naturalID := entity.NaturalID()
	existing, err := repo.Count(ctx, repositories.ByField(kind.NaturalIDField(), naturalID))
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, models.ValidationError{
			Field:   kind.NaturalIDField(),
			Message: fmt.Sprintf("%s %s already exists", strings.ToLower(kind.Label()), naturalID),
		}
	}

	id, err := repo.InsertWithLog(ctx, entity.Document(), withDefaults(event, kind, "alta", naturalID))
	if id == "" {
		return nil, err
	}
	return result(id, 1, err)
}

// Update merges patch into the record with the given natural id. The
// merged record must still be a valid record of kind.
func (s *entityService) Update(ctx context.Context, kind models.Kind, naturalID string, patch models.Document, event models.EventInput) (*MutationResult, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	if err := checkDeclared(kind, patch); err != nil {
		return nil, err
	}

	filter := repositories.ByField(kind.NaturalIDField(), naturalID)
	current, err := repo.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &repositories.NotFoundError{Collection: kind.Collection(), Filter: filter}
	}

	merged, err := decode(kind, current.Document.Merge(patch))
	if err != nil {
		return nil, err
	}

	if newID := merged.NaturalID(); newID != naturalID {
		taken, err := repo.Count(ctx, repositories.ByField(kind.NaturalIDField(), newID))
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, models.ValidationError{
				Field:   kind.NaturalIDField(),
				Message: fmt.Sprintf("%s %s already exists", strings.ToLower(kind.Label()), newID),
			}
		}
	}

	modified, err := repo.UpdateWithLog(ctx, repositories.ByStorageID(current.ID), patch,
		withDefaults(event, kind, "modificación", naturalID))
	return result(current.ID, modified, err)
}

// Delete removes the record with the given natural id. A missing record is
// reported as NotFoundError and writes no event.
func (s *entityService) Delete(ctx context.Context, kind models.Kind, naturalID string, event models.EventInput) (*MutationResult, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}

	filter := repositories.ByField(kind.NaturalIDField(), naturalID)
	current, err := repo.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &repositories.NotFoundError{Collection: kind.Collection(), Filter: filter}
	}

	deleted, err := repo.DeleteWithLogSnapshot(ctx, current, withDefaults(event, kind, "baja", naturalID))
	if deleted == 0 && err == nil {
		return nil, &repositories.NotFoundError{Collection: kind.Collection(), Filter: filter}
	}
	return result(current.ID, deleted, err)
}

// Summary counts records per kind and history events per event kind
func (s *entityService) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{Records: make(map[models.Kind]int)}
	for _, kind := range models.Kinds() {
		repo, err := s.repos.For(kind)
		if err != nil {
			return nil, err
		}
		n, err := repo.Count(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", kind.Collection(), err)
		}
		summary.Records[kind] = n
	}

	events, err := s.repos.Audit.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}
	summary.Events = events
	return summary, nil
}
