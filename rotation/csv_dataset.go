package rotation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CSVDataset is an append-only CSV file with a header row. Row keys are the
// zero-based record positions after the header.
type CSVDataset struct {
	path      string
	name      string
	timeField string
}

// NewCSVDataset creates a dataset over the CSV file at path. The dataset is
// named after the file without its extension.
func NewCSVDataset(path, timeField string) *CSVDataset {
	base := filepath.Base(path)
	return &CSVDataset{
		path:      path,
		name:      strings.TrimSuffix(base, filepath.Ext(base)),
		timeField: timeField,
	}
}

// DiscoverCSVDatasets returns a dataset for every *.csv file in dir
func DiscoverCSVDatasets(dir, timeField string) ([]Dataset, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list csv datasets in %s: %w", dir, err)
	}
	datasets := make([]Dataset, 0, len(matches))
	for _, path := range matches {
		datasets = append(datasets, NewCSVDataset(path, timeField))
	}
	return datasets, nil
}

func (d *CSVDataset) Name() string      { return d.name }
func (d *CSVDataset) TimeField() string { return d.timeField }

// Size returns the file size. A missing file is empty.
func (d *CSVDataset) Size(ctx context.Context) (int64, error) {
	info, err := os.Stat(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", d.path, err)
	}
	return info.Size(), nil
}

// Rows returns the number of records after the header
func (d *CSVDataset) Rows(ctx context.Context) (int, error) {
	_, records, err := d.read()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Load returns every record keyed by position, with fields named by the header
func (d *CSVDataset) Load(ctx context.Context) ([]Row, error) {
	header, records, err := d.read()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		fields := make(map[string]string, len(header))
		for j, name := range header {
			if j < len(rec) {
				fields[name] = rec[j]
			}
		}
		rows[i] = Row{Key: strconv.Itoa(i), Fields: fields}
	}
	return rows, nil
}

// Remove rewrites the file without the given rows. The new content is
// written to a temporary file and renamed over the original.
func (d *CSVDataset) Remove(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	header, records, err := d.read()
	if err != nil {
		return err
	}

	drop := make(map[int]bool, len(rows))
	for _, r := range rows {
		i, err := strconv.Atoi(r.Key)
		if err != nil || i < 0 || i >= len(records) {
			return fmt.Errorf("row %q does not belong to dataset %s", r.Key, d.name)
		}
		drop[i] = true
	}

	info, err := os.Stat(d.path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", d.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "."+d.name+"-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", d.name, err)
	}
	defer os.Remove(tmp.Name())

	// CreateTemp opens with 0600; the rewritten file keeps the original mode
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set mode on temp file for %s: %w", d.name, err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header of %s: %w", d.name, err)
	}
	for i, rec := range records {
		if drop[i] {
			continue
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write %s: %w", d.name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", d.name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", d.name, err)
	}

	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", d.path, err)
	}
	return nil
}

func (d *CSVDataset) read() ([]string, [][]string, error) {
	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", d.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", d.path, err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", d.path, err)
	}
	return header, records, nil
}
