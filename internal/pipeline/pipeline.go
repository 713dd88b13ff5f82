// Package pipeline runs a full conversion: schema extraction, label building,
// response coercion and export.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/surveysav/internal/export"
	_ "github.com/jackzampolin/surveysav/internal/export/sav"
	_ "github.com/jackzampolin/surveysav/internal/export/sqlite"
	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

// Duplicate code policies.
const (
	DuplicatesWarn   = "warn"
	DuplicatesReject = "reject"
)

// Request contains the parameters for one conversion.
type Request struct {
	SchemaPath  string
	DataPath    string
	OutputPath  string
	Format      string       // export format, "" picks by output extension
	FileLabel   string       // file label written to the output
	SQLiteTable string       // response table name for the sqlite format
	KeepUnknown bool         // keep columns the schema does not declare
	Duplicates  string       // DuplicatesWarn (default) or DuplicatesReject
	ValueCounts string       // column to tabulate in the result, "" for none
	Logger      *slog.Logger // Optional logger for progress updates
}

// Run converts the request's schema and response documents into a single
// output file. Nothing is written unless every document-level step succeeds.
func Run(ctx context.Context, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	runID := uuid.New().String()
	log = log.With("run_id", runID)

	exporter, err := export.Resolve(req.Format, req.OutputPath)
	if err != nil {
		return nil, err
	}

	sch, err := schema.Load(req.SchemaPath)
	if err != nil {
		return nil, err
	}
	log.Info("loaded schema",
		"variables", len(sch.Names),
		"typed", len(sch.Plan.Types),
		"datetime", len(sch.Plan.Datetime))

	labels, dups := schema.BuildLabels(sch.Fields)
	for _, d := range dups {
		if req.Duplicates == DuplicatesReject {
			return nil, d.Err()
		}
		log.Warn("duplicate option code", "column", d.Column, "code", d.Code, "previous", d.Previous, "label", d.Text)
	}
	log.Info("built value labels", "columns", len(labels))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := responses.Load(req.DataPath, sch.Plan, responses.Options{KeepUnknown: req.KeepUnknown})
	if err != nil {
		return nil, err
	}
	rows, cols := table.Shape()
	log.Info("coerced responses", "rows", rows, "columns", cols)
	if cols == 0 {
		log.Warn("no response columns match the schema")
	}
	for _, col := range table.Columns {
		if col.Failed > 0 {
			log.Warn("values could not be coerced", "column", col.Name, "type", col.Type, "count", col.Failed)
		}
		log.Debug("column", "name", col.Name, "type", col.Type, "missing", col.Missing())
	}

	applicable, dropped := export.ApplicableLabels(table, labels)
	if len(dropped) > 0 {
		log.Debug("labels not applied", "columns", dropped)
	}

	err = exporter.Export(ctx, req.OutputPath, table, applicable, export.Options{
		FileLabel: req.FileLabel,
		Table:     req.SQLiteTable,
		Created:   start,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", exporter.Format(), err)
	}

	res := newResult(runID, req, sch, table, applicable, dups)
	res.Format = exporter.Format()
	res.Duration = time.Since(start).Round(time.Millisecond).String()
	log.Info("conversion complete", "output", req.OutputPath, "format", res.Format, "duration", res.Duration)

	return res, nil
}
