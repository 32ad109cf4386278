package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/telemetry"
	"github.com/blogem/plant-maintenance/userctx"
)

// AuditedRepository wraps one collection so that every insert, update and
// delete that takes effect is paired with exactly one history event.
// Mutations are rejected before any I/O when the owning-asset reference
// is missing.
type AuditedRepository struct {
	collection   string
	naturalField string
	store        DocumentStore
	sink         AuditSink
	tx           Transactor
	strictPatch  bool
	newID        func() string
	now          func() time.Time
}

// Option configures an AuditedRepository
type Option func(*AuditedRepository)

// WithTransactor makes each mutation and its audit event commit together
func WithTransactor(tx Transactor) Option {
	return func(r *AuditedRepository) { r.tx = tx }
}

// WithStrictPatchTraceability controls whether every update patch must carry
// the owning-asset reference (the default). When false, a patch without it
// falls back to the reference on the stored record.
func WithStrictPatchTraceability(strict bool) Option {
	return func(r *AuditedRepository) { r.strictPatch = strict }
}

// WithIDGenerator replaces the storage id generator
func WithIDGenerator(fn func() string) Option {
	return func(r *AuditedRepository) { r.newID = fn }
}

// WithClock replaces the clock used to stamp audit events
func WithClock(fn func() time.Time) Option {
	return func(r *AuditedRepository) { r.now = fn }
}

// NewAuditedRepository creates an audited repository over one collection
func NewAuditedRepository(collection string, store DocumentStore, sink AuditSink, opts ...Option) *AuditedRepository {
	r := &AuditedRepository{
		collection:   collection,
		naturalField: naturalField(collection),
		store:        store,
		sink:         sink,
		strictPatch:  true,
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collection returns the collection name this repository writes to
func (r *AuditedRepository) Collection() string {
	return r.collection
}

// ResolveOriginID picks the origin reference for an audit event: the
// explicit override, then the well-known natural-id fields in order, then
// the collection's own natural id, then the storage id.
func ResolveOriginID(override string, doc models.Document, naturalField, storageID string) string {
	if override != "" {
		return override
	}
	for _, field := range models.OriginIDFields {
		if v := doc.String(field); v != "" {
			return v
		}
	}
	if naturalField != "" {
		if v := doc.String(naturalField); v != "" {
			return v
		}
	}
	return storageID
}

// OriginIDFor resolves the origin a stored record's events carry when no
// override is given
func (r *AuditedRepository) OriginIDFor(stored StoredDocument) string {
	return ResolveOriginID("", stored.Document, r.naturalField, stored.ID)
}

func (r *AuditedRepository) buildEvent(ctx context.Context, in models.EventInput, doc models.Document, storageID string) *models.AuditEvent {
	event := &models.AuditEvent{
		ID:               uuid.NewString(),
		Kind:             in.Kind,
		AssetRef:         doc.String(models.FieldAssetRef),
		OriginID:         ResolveOriginID(in.OriginID, doc, r.naturalField, storageID),
		RecordID:         storageID,
		Description:      in.Description,
		ActingUser:       in.ActingUser,
		CreatedAt:        r.now().UTC(),
		ExternalProvider: in.ExternalProvider,
		Notes:            in.Notes,
	}
	if event.ActingUser == "" {
		event.ActingUser = userctx.User(ctx)
	}
	if event.ExternalProvider == "" {
		event.ExternalProvider = doc.String(models.FieldExternalProvider)
	}
	if event.Notes == "" {
		event.Notes = doc.String(models.FieldNotes)
	}
	return event
}

// mutation is the outcome of the write half of an operation
type mutation struct {
	count    int64
	recordID string
	event    *models.AuditEvent
}

// execute runs write and then appends its event. With a transactor both
// happen in one transaction; without one an append failure after a
// successful write is reported as PartialAuditFailure.
func (r *AuditedRepository) execute(ctx context.Context, op string, write func(store DocumentStore) (mutation, error)) (mutation, error) {
	if r.tx != nil {
		var m mutation
		err := r.tx.RunInTx(ctx, func(store DocumentStore, sink AuditSink) error {
			var err error
			m, err = write(store)
			if err != nil || m.event == nil {
				return err
			}
			if err := sink.Append(ctx, m.event); err != nil {
				return &PersistenceError{Op: op + " audit", Collection: r.collection, Err: err}
			}
			return nil
		})
		if err != nil {
			return mutation{}, wrapPersistence(op, r.collection, err)
		}
		r.recorded(m)
		return m, nil
	}

	m, err := write(r.store)
	if err != nil {
		return mutation{}, wrapPersistence(op, r.collection, err)
	}
	if m.event == nil {
		return m, nil
	}
	if err := r.sink.Append(ctx, m.event); err != nil {
		telemetry.PartialAuditFailuresTotal.WithLabelValues(r.collection).Inc()
		slog.Error("audit event lost after mutation",
			"collection", r.collection, "op", op, "record", m.recordID, "origin", m.event.OriginID, "error", err)
		return m, &PartialAuditFailure{Op: op, Collection: r.collection, RecordID: m.recordID, Err: err}
	}
	r.recorded(m)
	return m, nil
}

func (r *AuditedRepository) recorded(m mutation) {
	if m.event == nil {
		return
	}
	telemetry.AuditEventsTotal.WithLabelValues(m.event.Kind).Inc()
	slog.Debug("audit event written",
		"collection", r.collection, "record", m.recordID, "origin", m.event.OriginID, "kind", m.event.Kind)
}

// InsertWithLog stores doc as a new record and writes its audit event.
// It returns the new storage id; on PartialAuditFailure the id is returned
// alongside the error since the record exists.
func (r *AuditedRepository) InsertWithLog(ctx context.Context, doc models.Document, event models.EventInput) (string, error) {
	if !doc.Has(models.FieldAssetRef) {
		return "", traceabilityRequired()
	}

	id := r.newID()
	m, err := r.execute(ctx, "insert", func(store DocumentStore) (mutation, error) {
		if err := store.InsertOne(ctx, r.collection, id, doc); err != nil {
			return mutation{}, &PersistenceError{Op: "insert", Collection: r.collection, Err: err}
		}
		return mutation{count: 1, recordID: id, event: r.buildEvent(ctx, event, doc, id)}, nil
	})
	if err != nil {
		if IsPartialAudit(err) {
			return m.recordID, err
		}
		return "", err
	}
	return id, nil
}

// UpdateWithLog merges update into the first record matching filter and
// writes its audit event. The owning-asset reference must be in the patch,
// unless strict patch traceability was turned off, in which case the stored
// record's reference is used.
func (r *AuditedRepository) UpdateWithLog(ctx context.Context, filter Filter, update models.Document, event models.EventInput) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	if _, present := update[models.FieldAssetRef]; present && !update.Has(models.FieldAssetRef) {
		return 0, traceabilityRequired()
	}
	if r.strictPatch && !update.Has(models.FieldAssetRef) {
		return 0, traceabilityRequired()
	}

	m, err := r.execute(ctx, "update", func(store DocumentStore) (mutation, error) {
		existing, err := store.FindOne(ctx, r.collection, filter)
		if err != nil {
			return mutation{}, &PersistenceError{Op: "find", Collection: r.collection, Err: err}
		}
		if existing == nil {
			return mutation{}, &NotFoundError{Collection: r.collection, Filter: filter}
		}

		merged := existing.Document.Merge(update)
		if !merged.Has(models.FieldAssetRef) {
			return mutation{}, traceabilityRequired()
		}

		modified, err := store.UpdateOne(ctx, r.collection, existing.ID, update)
		if err != nil {
			return mutation{}, &PersistenceError{Op: "update", Collection: r.collection, Err: err}
		}
		if modified == 0 {
			return mutation{recordID: existing.ID}, nil
		}
		return mutation{count: modified, recordID: existing.ID, event: r.buildEvent(ctx, event, merged, existing.ID)}, nil
	})
	return m.count, err
}

// DeleteWithLog removes the first record matching filter and writes its
// audit event. A filter that matches nothing returns 0 and writes no event.
func (r *AuditedRepository) DeleteWithLog(ctx context.Context, filter Filter, event models.EventInput) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	return r.deleteWithLog(ctx, event, func(store DocumentStore) (*StoredDocument, error) {
		return store.FindOne(ctx, r.collection, filter)
	})
}

// DeleteWithLogSnapshot deletes a record the caller already fetched,
// skipping the lookup
func (r *AuditedRepository) DeleteWithLogSnapshot(ctx context.Context, snapshot *StoredDocument, event models.EventInput) (int64, error) {
	if snapshot == nil {
		return 0, nil
	}
	if !snapshot.Document.Has(models.FieldAssetRef) {
		return 0, traceabilityRequired()
	}
	return r.deleteWithLog(ctx, event, func(DocumentStore) (*StoredDocument, error) {
		return snapshot, nil
	})
}

func (r *AuditedRepository) deleteWithLog(ctx context.Context, event models.EventInput, lookup func(DocumentStore) (*StoredDocument, error)) (int64, error) {
	m, err := r.execute(ctx, "delete", func(store DocumentStore) (mutation, error) {
		existing, err := lookup(store)
		if err != nil {
			return mutation{}, &PersistenceError{Op: "find", Collection: r.collection, Err: err}
		}
		if existing == nil {
			return mutation{}, nil
		}
		if !existing.Document.Has(models.FieldAssetRef) {
			return mutation{}, traceabilityRequired()
		}

		deleted, err := store.DeleteOne(ctx, r.collection, existing.ID)
		if err != nil {
			return mutation{}, &PersistenceError{Op: "delete", Collection: r.collection, Err: err}
		}
		if deleted == 0 {
			return mutation{recordID: existing.ID}, nil
		}
		return mutation{count: deleted, recordID: existing.ID, event: r.buildEvent(ctx, event, existing.Document, existing.ID)}, nil
	})
	return m.count, err
}

// FindOne returns the first record matching filter, or nil
func (r *AuditedRepository) FindOne(ctx context.Context, filter Filter) (*StoredDocument, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	doc, err := r.store.FindOne(ctx, r.collection, filter)
	return doc, wrapPersistence("find", r.collection, err)
}

// Find returns records matching filter; an empty filter returns every record
func (r *AuditedRepository) Find(ctx context.Context, filter Filter, limit int) ([]StoredDocument, error) {
	if len(filter) > 0 {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}
	docs, err := r.store.Find(ctx, r.collection, filter, limit)
	return docs, wrapPersistence("find", r.collection, err)
}

// Count returns the number of records matching filter
func (r *AuditedRepository) Count(ctx context.Context, filter Filter) (int, error) {
	if len(filter) > 0 {
		if err := filter.Validate(); err != nil {
			return 0, err
		}
	}
	n, err := r.store.Count(ctx, r.collection, filter)
	return n, wrapPersistence("count", r.collection, err)
}
