package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/repositories"
	"github.com/blogem/plant-maintenance/telemetry"
)

const (
	// DefaultMaxBytes is the aggregate ceiling when none is configured (50 MiB)
	DefaultMaxBytes int64 = 50 << 20
	// DefaultMinRows is the smallest dataset rotation will prune
	DefaultMinRows = 100
	// DefaultFraction is the share of a dataset removed in one prune
	DefaultFraction = 0.30
)

// Config bounds a rotation pass
type Config struct {
	MaxBytes int64
	MinRows  int
	Fraction float64
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{MaxBytes: DefaultMaxBytes, MinRows: DefaultMinRows, Fraction: DefaultFraction}
}

// DatasetResult is the outcome of pruning one dataset in a pass. Err is set
// when the dataset was skipped; AuditErr when rows were removed but the
// rotation event could not be written.
type DatasetResult struct {
	Dataset  string `json:"dataset"`
	Size     int64  `json:"size_bytes"`
	Removed  int    `json:"removed"`
	Err      error  `json:"-"`
	AuditErr error  `json:"-"`
}

// Error returns the result's failure as text, or "" on success
func (r DatasetResult) Error() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.AuditErr != nil:
		return "audit: " + r.AuditErr.Error()
	}
	return ""
}

// RotationReport summarises one rotation pass
type RotationReport struct {
	UsageBefore  int64           `json:"usage_before"`
	UsageAfter   int64           `json:"usage_after"`
	MaxBytes     int64           `json:"max_bytes"`
	TotalRemoved int             `json:"total_removed"`
	Results      []DatasetResult `json:"results"`
}

// Rotator prunes a fixed set of datasets to keep them under a ceiling
type Rotator struct {
	cfg      Config
	sink     repositories.AuditSink
	datasets []Dataset
	byName   map[string]Dataset
}

// NewRotator creates a rotator over datasets. An unset ceiling or fraction
// takes the default; MinRows 0 disables the minimum.
func NewRotator(cfg Config, sink repositories.AuditSink, datasets ...Dataset) *Rotator {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MinRows < 0 {
		cfg.MinRows = 0
	}
	if cfg.Fraction <= 0 || cfg.Fraction > 1 {
		cfg.Fraction = DefaultFraction
	}

	r := &Rotator{cfg: cfg, sink: sink, byName: make(map[string]Dataset, len(datasets))}
	for _, ds := range datasets {
		r.datasets = append(r.datasets, ds)
		r.byName[ds.Name()] = ds
	}
	return r
}

// Datasets returns the names of the managed datasets
func (r *Rotator) Datasets() []string {
	names := make([]string, len(r.datasets))
	for i, ds := range r.datasets {
		names[i] = ds.Name()
	}
	return names
}

// MaxBytes returns the configured ceiling
func (r *Rotator) MaxBytes() int64 {
	return r.cfg.MaxBytes
}

// CurrentUsage sums the size of every managed dataset. Datasets that cannot
// be measured are left out of the total and reported in the joined error.
func (r *Rotator) CurrentUsage(ctx context.Context) (int64, error) {
	sizes, errs := r.measure(ctx)
	var total int64
	for _, size := range sizes {
		total += size
	}
	telemetry.StorageUsageBytes.Set(float64(total))

	var joined []error
	for name, err := range errs {
		joined = append(joined, fmt.Errorf("%s: %w", name, err))
	}
	return total, errors.Join(joined...)
}

func (r *Rotator) measure(ctx context.Context) (map[string]int64, map[string]error) {
	sizes := make(map[string]int64, len(r.datasets))
	errs := make(map[string]error)
	for _, ds := range r.datasets {
		size, err := ds.Size(ctx)
		if err != nil {
			errs[ds.Name()] = err
			continue
		}
		sizes[ds.Name()] = size
	}
	return sizes, errs
}

// PruneDatasetIfNeeded removes the oldest rows of the named dataset, ordered
// by timeField (the dataset's own time field when empty). Datasets with fewer
// than the minimum rows are left alone. maxRowsOverride > 0 replaces the
// default fraction and is clamped so at least MinRows rows remain.
func (r *Rotator) PruneDatasetIfNeeded(ctx context.Context, name, timeField string, maxRowsOverride int) (int, error) {
	ds, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("unknown dataset %q", name)
	}
	if timeField == "" {
		timeField = ds.TimeField()
	}
	return r.prune(ctx, ds, timeField, maxRowsOverride)
}

func (r *Rotator) prune(ctx context.Context, ds Dataset, timeField string, maxRowsOverride int) (int, error) {
	count, err := ds.Rows(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 || count < r.cfg.MinRows {
		return 0, nil
	}

	rows, err := ds.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !hasField(rows, timeField) {
		return 0, fmt.Errorf("dataset %s has no field %q", ds.Name(), timeField)
	}

	n := r.removalCount(len(rows), maxRowsOverride)
	if n == 0 {
		return 0, nil
	}

	victims := oldestFirst(rows, timeField)[:n]
	if err := ds.Remove(ctx, victims); err != nil {
		return 0, err
	}
	return n, nil
}

// removalCount is floor(rows * fraction), at least 1. An override replaces
// the fraction but never takes the dataset below MinRows.
func (r *Rotator) removalCount(rows, override int) int {
	if override > 0 {
		limit := rows - r.cfg.MinRows
		if limit < 0 {
			limit = 0
		}
		if override > limit {
			return limit
		}
		return override
	}
	n := int(math.Floor(float64(rows)*r.cfg.Fraction + 1e-9))
	if n < 1 && rows > 0 {
		n = 1
	}
	return n
}

// RunRotationPass prunes datasets, largest first, while the aggregate size is
// over the ceiling. It is a no-op when usage is already under it. One failing
// dataset never stops the pass; its result carries the error instead.
func (r *Rotator) RunRotationPass(ctx context.Context) (RotationReport, error) {
	report := RotationReport{MaxBytes: r.cfg.MaxBytes}

	sizes, errs := r.measure(ctx)
	for _, size := range sizes {
		report.UsageBefore += size
	}
	report.UsageAfter = report.UsageBefore
	telemetry.StorageUsageBytes.Set(float64(report.UsageBefore))

	if report.UsageBefore <= r.cfg.MaxBytes {
		return report, nil
	}

	slog.Info("storage over ceiling, rotating", "usage", report.UsageBefore, "max_bytes", r.cfg.MaxBytes)

	for name, err := range errs {
		report.Results = append(report.Results, r.failed(DatasetResult{Dataset: name, Err: err}))
	}

	ordered := make([]Dataset, 0, len(sizes))
	for _, ds := range r.datasets {
		if _, ok := sizes[ds.Name()]; ok {
			ordered = append(ordered, ds)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return sizes[ordered[i].Name()] > sizes[ordered[j].Name()]
	})

	for _, ds := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := DatasetResult{Dataset: ds.Name(), Size: sizes[ds.Name()]}
		removed, err := r.prune(ctx, ds, ds.TimeField(), 0)
		if err != nil {
			result.Err = err
			report.Results = append(report.Results, r.failed(result))
			continue
		}
		result.Removed = removed

		if removed > 0 {
			report.TotalRemoved += removed
			telemetry.RotationRowsRemovedTotal.WithLabelValues(ds.Name()).Add(float64(removed))
			result.AuditErr = r.recordPrune(ctx, ds.Name(), removed)
			slog.Info("dataset rotated", "dataset", ds.Name(), "removed", removed)
		}
		report.Results = append(report.Results, result)

		usage, _ := r.CurrentUsage(ctx)
		report.UsageAfter = usage
		if usage <= r.cfg.MaxBytes {
			break
		}
	}

	return report, nil
}

func (r *Rotator) failed(result DatasetResult) DatasetResult {
	telemetry.RotationErrorsTotal.WithLabelValues(result.Dataset).Inc()
	slog.Warn("dataset skipped by rotation", "dataset", result.Dataset, "error", result.Err)
	return result
}

func (r *Rotator) recordPrune(ctx context.Context, dataset string, removed int) error {
	if r.sink == nil {
		return nil
	}
	event := &models.AuditEvent{
		Kind:        models.EventKindRotation,
		OriginID:    dataset,
		Description: fmt.Sprintf("rotación: %d filas antiguas eliminadas de %s", removed, dataset),
		ActingUser:  models.SystemUser,
	}
	if err := r.sink.Append(ctx, event); err != nil {
		slog.Error("rotation event not recorded", "dataset", dataset, "removed", removed, "error", err)
		return err
	}
	telemetry.AuditEventsTotal.WithLabelValues(models.EventKindRotation).Inc()
	return nil
}
