package repositories

import (
	"errors"
	"fmt"

	"github.com/blogem/plant-maintenance/models"
)

// NotFoundError is returned when an update filter matches no record
type NotFoundError struct {
	Collection string
	Filter     Filter
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record in %s matches %s", e.Collection, e.Filter)
}

// PersistenceError wraps a failure reported by the underlying store.
// Nothing is retried at this layer.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PartialAuditFailure means the record mutation took effect but its audit
// event could not be written. The history is missing an entry for RecordID
// until a repair pass adds one.
type PartialAuditFailure struct {
	Op         string
	Collection string
	RecordID   string
	Err        error
}

func (e *PartialAuditFailure) Error() string {
	return fmt.Sprintf("%s on %s applied to record %s but audit event was not written: %v",
		e.Op, e.Collection, e.RecordID, e.Err)
}

func (e *PartialAuditFailure) Unwrap() error { return e.Err }

// IsValidation reports whether err is a validation failure raised before any I/O
func IsValidation(err error) bool {
	var single models.ValidationError
	var many models.ValidationErrors
	return errors.As(err, &single) || errors.As(err, &many)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPartialAudit reports whether err is a PartialAuditFailure
func IsPartialAudit(err error) bool {
	var pa *PartialAuditFailure
	return errors.As(err, &pa)
}

// IsPersistence reports whether err is a PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func traceabilityRequired() error {
	return models.ValidationError{Field: models.FieldAssetRef, Message: "traceability field required"}
}

// wrapPersistence leaves typed errors untouched and wraps anything else
func wrapPersistence(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || IsPartialAudit(err) || IsPersistence(err) {
		return err
	}
	return &PersistenceError{Op: op, Collection: collection, Err: err}
}
