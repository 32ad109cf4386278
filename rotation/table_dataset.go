package rotation

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableDataset is a SQLite table pruned by rowid. Its size is the summed
// byte length of every column, which tracks the table's share of the file
// without depending on page-level accounting.
type TableDataset struct {
	db         *sql.DB
	table      string
	timeColumn string
}

// NewTableDataset creates a dataset over table, ordered by timeColumn
func NewTableDataset(db *sql.DB, table, timeColumn string) (*TableDataset, error) {
	if !identifier.MatchString(table) || !identifier.MatchString(timeColumn) {
		return nil, fmt.Errorf("invalid table dataset %s.%s", table, timeColumn)
	}
	return &TableDataset{db: db, table: table, timeColumn: timeColumn}, nil
}

func (d *TableDataset) Name() string      { return d.table }
func (d *TableDataset) TimeField() string { return d.timeColumn }

func (d *TableDataset) columns(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, d.table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", d.table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", d.table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", d.table)
	}
	return cols, nil
}

// Size returns the summed byte length of every value in the table
func (d *TableDataset) Size(ctx context.Context) (int64, error) {
	cols, err := d.columns(ctx)
	if err != nil {
		return 0, err
	}
	terms := make([]string, len(cols))
	for i, c := range cols {
		terms[i] = fmt.Sprintf(`COALESCE(LENGTH(CAST(%q AS BLOB)), 0)`, c)
	}

	var size int64
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s`, strings.Join(terms, " + "), d.table)
	if err := d.db.QueryRowContext(ctx, query).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to measure %s: %w", d.table, err)
	}
	return size, nil
}

// Rows returns the table's row count
func (d *TableDataset) Rows(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", d.table, err)
	}
	return n, nil
}

// Load returns each row's rowid and time column
func (d *TableDataset) Load(ctx context.Context) ([]Row, error) {
	query := fmt.Sprintf(`SELECT rowid, COALESCE(CAST(%s AS TEXT), '') FROM %s ORDER BY rowid`, d.timeColumn, d.table)
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", d.table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			rowid int64
			at    string
		)
		if err := rows.Scan(&rowid, &at); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", d.table, err)
		}
		out = append(out, Row{
			Key:    strconv.FormatInt(rowid, 10),
			Fields: map[string]string{d.timeColumn: at},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", d.table, err)
	}
	return out, nil
}

// Remove deletes the given rows in one transaction
func (d *TableDataset) Remove(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, d.table))
	if err != nil {
		return fmt.Errorf("failed to prepare delete on %s: %w", d.table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		rowid, err := strconv.ParseInt(r.Key, 10, 64)
		if err != nil {
			return fmt.Errorf("row %q does not belong to dataset %s", r.Key, d.table)
		}
		if _, err := stmt.ExecContext(ctx, rowid); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", d.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pruning of %s: %w", d.table, err)
	}
	return nil
}
