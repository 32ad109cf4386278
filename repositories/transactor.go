package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Transactor runs a record mutation and its audit append as one unit.
// If fn returns an error, neither write is kept.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(store DocumentStore, sink AuditSink) error) error
}

type sqliteTransactor struct {
	db *sql.DB
}

// NewTransactor returns a Transactor for collections and history that share db
func NewTransactor(db *sql.DB) Transactor {
	return &sqliteTransactor{db: db}
}

func (t *sqliteTransactor) RunInTx(ctx context.Context, fn func(store DocumentStore, sink AuditSink) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	store := &sqliteDocumentStore{db: tx, now: time.Now}
	sink := &sqliteAuditRepository{db: tx, now: time.Now}

	if err := fn(store, sink); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
