package rotation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/repositories/mocks"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// writeCSV writes n fixed-width rows, newest first, so the oldest rows sit at the end
func writeCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("fecha_evento,descripcion\n")
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(n-i) * time.Minute)
		fmt.Fprintf(&b, "%s,evento-%04d\n", at.Format(time.RFC3339), i)
	}
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func descriptions(t *testing.T, ds Dataset) []string {
	t.Helper()
	path := ds.(*CSVDataset).path
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(raw)), "\n")
}

func TestRunRotationPassPrunesOldestThirtyPercent(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "historial", 200)
	ds := NewCSVDataset(path, "fecha_evento")

	sink := mocks.NewMockAuditSink(t)
	sink.EXPECT().Append(mock.Anything, mock.MatchedBy(func(e *models.AuditEvent) bool {
		return e.Kind == models.EventKindRotation && e.OriginID == "historial" && e.ActingUser == models.SystemUser
	})).Return(nil).Once()

	rotator := NewRotator(Config{MaxBytes: fileSize(t, path) * 8 / 10, MinRows: 100, Fraction: 0.30}, sink, ds)
	ctx := context.Background()

	report, err := rotator.RunRotationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, report.TotalRemoved)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 60, report.Results[0].Removed)
	assert.LessOrEqual(t, report.UsageAfter, report.MaxBytes)

	rows, err := ds.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 140, rows)

	lines := descriptions(t, ds)
	assert.Equal(t, "fecha_evento,descripcion", lines[0])
	assert.Contains(t, lines[1], "evento-0000")
	assert.Contains(t, lines[len(lines)-1], "evento-0139")

	again, err := rotator.RunRotationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.TotalRemoved)
	assert.Empty(t, again.Results)
}

func TestRunRotationPassUnderCeilingIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "lecturas", 300)
	ds := NewCSVDataset(path, "fecha_evento")
	sink := mocks.NewMockAuditSink(t)

	rotator := NewRotator(Config{MaxBytes: fileSize(t, path) + 1}, sink, ds)

	for i := 0; i < 2; i++ {
		report, err := rotator.RunRotationPass(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.TotalRemoved)
	}
	rows, err := ds.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300, rows)
}

func TestPruneDatasetBelowMinimumRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "pequeno", 50)
	ds := NewCSVDataset(path, "fecha_evento")
	sink := mocks.NewMockAuditSink(t)

	rotator := NewRotator(Config{MaxBytes: 1, MinRows: 100}, sink, ds)

	removed, err := rotator.PruneDatasetIfNeeded(context.Background(), "pequeno", "fecha_evento", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	report, err := rotator.RunRotationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalRemoved)

	rows, _ := ds.Rows(context.Background())
	assert.Equal(t, 50, rows)
}

func TestPruneDatasetBounds(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		override int
		want     int
	}{
		{"default fraction", 150, 0, 45},
		{"fraction floors", 101, 0, 30},
		{"override", 150, 10, 10},
		{"override clamped to minimum", 120, 1000, 20},
		{"override at minimum", 100, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeCSV(t, dir, "datos", tt.rows)
			ds := NewCSVDataset(path, "fecha_evento")
			rotator := NewRotator(Config{MaxBytes: 1, MinRows: 100, Fraction: 0.30}, nil, ds)

			removed, err := rotator.PruneDatasetIfNeeded(context.Background(), "datos", "", tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, removed)

			left, err := ds.Rows(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.rows-tt.want, left)
		})
	}
}

func TestPruneUnparseableTimestampsFirst(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("fecha_evento,descripcion\n")
	for i := 0; i < 100; i++ {
		at := base.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05")
		if i%20 == 10 {
			at = "sin fecha"
		}
		fmt.Fprintf(&b, "%s,fila-%03d\n", at, i)
	}
	path := filepath.Join(dir, "mixto.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	ds := NewCSVDataset(path, "fecha_evento")
	rotator := NewRotator(Config{MaxBytes: 1, MinRows: 100}, nil, ds)

	removed, err := rotator.PruneDatasetIfNeeded(context.Background(), "mixto", "fecha_evento", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, removed)

	rows, err := ds.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 70)
	for _, r := range rows {
		assert.NotEqual(t, "sin fecha", r.Fields["fecha_evento"])
	}
	assert.Equal(t, "fila-026", rows[0].Fields["descripcion"])
}

func TestPruneUnknownDatasetOrField(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "datos", 120)
	rotator := NewRotator(Config{MaxBytes: 1}, nil, NewCSVDataset(path, "fecha_evento"))

	_, err := rotator.PruneDatasetIfNeeded(context.Background(), "otro", "", 0)
	assert.Error(t, err)

	_, err = rotator.PruneDatasetIfNeeded(context.Background(), "datos", "no_existe", 0)
	assert.Error(t, err)
}

type brokenDataset struct{ name string }

func (b brokenDataset) Name() string                           { return b.name }
func (b brokenDataset) TimeField() string                      { return "fecha_evento" }
func (b brokenDataset) Size(ctx context.Context) (int64, error) { return 1 << 30, nil }
func (b brokenDataset) Rows(ctx context.Context) (int, error) {
	return 0, errors.New("corrupt file")
}
func (b brokenDataset) Load(ctx context.Context) ([]Row, error) { return nil, errors.New("corrupt file") }
func (b brokenDataset) Remove(ctx context.Context, rows []Row) error {
	return errors.New("read-only")
}

func TestRunRotationPassIsolatesFailingDataset(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "historial", 200)
	good := NewCSVDataset(path, "fecha_evento")

	sink := mocks.NewMockAuditSink(t)
	sink.EXPECT().Append(mock.Anything, mock.Anything).Return(errors.New("history down")).Once()

	rotator := NewRotator(Config{MaxBytes: 1 << 20, MinRows: 100}, sink, good, brokenDataset{name: "roto"})

	report, err := rotator.RunRotationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, report.TotalRemoved)
	require.Len(t, report.Results, 2)

	assert.Equal(t, "roto", report.Results[0].Dataset)
	assert.Error(t, report.Results[0].Err)
	assert.Equal(t, "historial", report.Results[1].Dataset)
	assert.Equal(t, 60, report.Results[1].Removed)
	assert.Error(t, report.Results[1].AuditErr)
}

func TestRunRotationPassStopsAfterLargestDataset(t *testing.T) {
	dir := t.TempDir()
	largePath := writeCSV(t, dir, "lecturas", 400)
	smallPath := writeCSV(t, dir, "historial", 120)
	smallBefore, err := os.ReadFile(smallPath)
	require.NoError(t, err)

	large := NewCSVDataset(largePath, "fecha_evento")
	small := NewCSVDataset(smallPath, "fecha_evento")

	sink := mocks.NewMockAuditSink(t)
	sink.EXPECT().Append(mock.Anything, mock.MatchedBy(func(e *models.AuditEvent) bool {
		return e.Kind == models.EventKindRotation && e.OriginID == "lecturas"
	})).Return(nil).Once()

	// 30% of the large file is well over half the small one
	total := fileSize(t, largePath) + fileSize(t, smallPath)
	maxBytes := total - fileSize(t, smallPath)/2
	rotator := NewRotator(Config{MaxBytes: maxBytes, MinRows: 100, Fraction: 0.30}, sink, small, large)

	report, err := rotator.RunRotationPass(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "lecturas", report.Results[0].Dataset)
	assert.Equal(t, 120, report.Results[0].Removed)
	assert.Equal(t, 120, report.TotalRemoved)
	assert.LessOrEqual(t, report.UsageAfter, maxBytes)

	smallAfter, err := os.ReadFile(smallPath)
	require.NoError(t, err)
	assert.Equal(t, smallBefore, smallAfter)
}

func TestCSVDatasetRemoveKeepsFileMode(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "historial", 150)
	require.NoError(t, os.Chmod(path, 0o640))

	rotator := NewRotator(Config{MaxBytes: 1, MinRows: 100, Fraction: 0.30}, nil, NewCSVDataset(path, "fecha_evento"))
	removed, err := rotator.PruneDatasetIfNeeded(context.Background(), "historial", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 45, removed)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestCurrentUsageSumsDatasets(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a", 10)
	b := writeCSV(t, dir, "b", 20)

	datasets, err := DiscoverCSVDatasets(dir, "fecha_evento")
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	rotator := NewRotator(Config{}, nil, datasets...)
	usage, err := rotator.CurrentUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fileSize(t, a)+fileSize(t, b), usage)
	assert.Equal(t, DefaultMaxBytes, rotator.MaxBytes())
}

func TestCSVDatasetMissingFileIsEmpty(t *testing.T) {
	ds := NewCSVDataset(filepath.Join(t.TempDir(), "nuevo.csv"), "fecha_evento")
	size, err := ds.Size(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)

	rows, err := ds.Rows(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestJobStopsOnStop(t *testing.T) {
	job := NewJob(NewRotator(Config{}, nil), time.Hour)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rotation job did not stop")
	}
}

func TestJobStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := NewJob(NewRotator(Config{}, nil), 0)

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rotation job ignored context cancellation")
	}
}
