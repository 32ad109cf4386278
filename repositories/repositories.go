package repositories

import (
	"database/sql"
	"fmt"

	"github.com/blogem/plant-maintenance/models"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	Documents   DocumentStore
	Audit       AuditRepository
	Collections map[models.Kind]*AuditedRepository
}

// NewRepositories creates and initializes all repositories. Every
// collection shares db with the history, so mutations and their audit
// events commit in one transaction.
func NewRepositories(db *sql.DB, opts ...Option) *Repositories {
	documents := NewDocumentStore(db)
	audit := NewAuditRepository(db)

	opts = append([]Option{WithTransactor(NewTransactor(db))}, opts...)

	collections := make(map[models.Kind]*AuditedRepository)
	for _, kind := range models.Kinds() {
		collections[kind] = NewAuditedRepository(kind.Collection(), documents, audit, opts...)
	}

	return &Repositories{
		Documents:   documents,
		Audit:       audit,
		Collections: collections,
	}
}

// For returns the audited repository for kind
func (r *Repositories) For(kind models.Kind) (*AuditedRepository, error) {
	repo, ok := r.Collections[kind]
	if !ok {
		return nil, fmt.Errorf("no collection registered for kind %q", kind)
	}
	return repo, nil
}
