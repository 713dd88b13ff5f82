// Package sqlite exports response tables into a SQLite database file.
//
// The response table keeps column order. Integers are stored as INTEGER,
// datetimes as RFC 3339 TEXT in UTC, and everything else as TEXT; missing
// cells are NULL. Value labels go to a value_labels table and run metadata
// to export_info.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jackzampolin/surveysav/internal/export"
	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

// DefaultTable names the response table when Options.Table is empty.
const DefaultTable = "responses"

func init() {
	export.Register(&Exporter{})
}

// Exporter is the "sqlite" export format.
type Exporter struct{}

func (*Exporter) Format() string { return "sqlite" }

func (*Exporter) Extensions() []string { return []string{".sqlite", ".db"} }

// Export writes t to a fresh database at path.
func (*Exporter) Export(ctx context.Context, path string, t *responses.Table, labels schema.LabelTable, opts export.Options) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("no columns to export")
	}
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}

	return export.ReplaceFile(path, func(tmp string) error {
		db, err := sql.Open("sqlite", tmp)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := write(ctx, db, table, t, labels, opts); err != nil {
			return err
		}
		return db.Close()
	})
}

func write(ctx context.Context, db *sql.DB, table string, t *responses.Table, labels schema.LabelTable, opts export.Options) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		createTable(table, t),
		`CREATE TABLE value_labels (
			variable TEXT NOT NULL,
			code TEXT NOT NULL,
			label TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (variable, code)
		)`,
		`CREATE TABLE export_info (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if err := insertRows(ctx, tx, table, t); err != nil {
		return err
	}
	if err := insertLabels(ctx, tx, labels); err != nil {
		return err
	}

	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}
	info := [][2]string{
		{"file_label", opts.FileLabel},
		{"created", created.UTC().Format(time.RFC3339)},
		{"table", table},
	}
	for _, kv := range info {
		if _, err := tx.ExecContext(ctx, `INSERT INTO export_info (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert export info: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func createTable(table string, t *responses.Table) string {
	defs := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		typ := "TEXT"
		if col.Type == responses.ColumnInteger {
			typ = "INTEGER"
		}
		defs[i] = quoteIdent(col.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, t *responses.Table) error {
	idents := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		idents[i] = quoteIdent(col.Name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(idents, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for row := 0; row < t.Rows; row++ {
		for i, col := range t.Columns {
			args[i] = cellValue(col, row)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", row, err)
		}
	}
	return nil
}

func insertLabels(ctx context.Context, tx *sql.Tx, labels schema.LabelTable) error {
	for _, column := range labels.Columns() {
		for pos, l := range labels[column] {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO value_labels (variable, code, label, position) VALUES (?, ?, ?, ?)`,
				column, l.Code, l.Text, pos)
			if err != nil {
				return fmt.Errorf("insert label %s=%s: %w", column, l.Code, err)
			}
		}
	}
	return nil
}

// cellValue returns the driver value for a cell, nil when missing.
func cellValue(col *responses.Column, row int) any {
	if col.Type == responses.ColumnInteger {
		if n, ok := col.Integers[row].Get(); ok {
			return n
		}
		return nil
	}
	if s, ok := col.Text(row); ok {
		return s
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
