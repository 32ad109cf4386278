// Package rotation keeps the append-only datasets (history table, exported
// CSV logs) under a size ceiling by pruning their oldest rows.
package rotation

import (
	"context"
	"sort"
	"time"

	"github.com/blogem/plant-maintenance/models"
)

// Row is one dataset row as seen by rotation. Key identifies the row to the
// dataset that produced it and is opaque to everyone else.
type Row struct {
	Key    string
	Fields map[string]string
}

// Time parses the row's event time. ok is false when the field is missing
// or in no accepted layout.
func (r Row) Time(field string) (t time.Time, ok bool) {
	return models.ParseTimestamp(r.Fields[field])
}

// Dataset is an append-only resource rotation can measure and prune
type Dataset interface {
	// Name identifies the dataset in audit events and metrics
	Name() string
	// TimeField is the field holding each row's event time
	TimeField() string
	// Size returns the bytes the dataset occupies
	Size(ctx context.Context) (int64, error)
	// Rows returns the number of rows
	Rows(ctx context.Context) (int, error)
	// Load returns every row with at least its Key and time field set
	Load(ctx context.Context) ([]Row, error)
	// Remove deletes the given rows, all or nothing
	Remove(ctx context.Context, rows []Row) error
}

// oldestFirst orders rows by event time ascending. Rows whose time cannot be
// parsed come first, keeping their relative order.
func oldestFirst(rows []Row, timeField string) []Row {
	type keyed struct {
		row Row
		at  time.Time
		ok  bool
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		at, ok := r.Time(timeField)
		ks[i] = keyed{row: r, at: at, ok: ok}
	}

	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return !ks[i].ok
		}
		if !ks[i].ok {
			return false
		}
		return ks[i].at.Before(ks[j].at)
	})

	out := make([]Row, len(ks))
	for i, k := range ks {
		out[i] = k.row
	}
	return out
}

// hasField reports whether any row carries field at all
func hasField(rows []Row, field string) bool {
	for _, r := range rows {
		if _, ok := r.Fields[field]; ok {
			return true
		}
	}
	return false
}
