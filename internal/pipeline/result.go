package pipeline

import (
	"sort"

	"github.com/samber/lo"

	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

// Result summarizes a successful conversion.
type Result struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	SchemaPath string `json:"schema_path" yaml:"schema_path"`
	DataPath   string `json:"data_path" yaml:"data_path"`
	OutputPath string `json:"output_path" yaml:"output_path"`
	Format     string `json:"format" yaml:"format"`

	Variables       int `json:"variables" yaml:"variables"`
	TypedColumns    int `json:"typed_columns" yaml:"typed_columns"`
	DatetimeColumns int `json:"datetime_columns" yaml:"datetime_columns"`
	LabeledColumns  int `json:"labeled_columns" yaml:"labeled_columns"`

	Rows    int             `json:"rows" yaml:"rows"`
	Columns []ColumnSummary `json:"columns" yaml:"columns"`

	Duplicates  []schema.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	ValueCounts *ValueCounts       `json:"value_counts,omitempty" yaml:"value_counts,omitempty"`

	Duration string `json:"duration" yaml:"duration"`
}

// ColumnSummary describes one output column.
type ColumnSummary struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Missing int    `json:"missing" yaml:"missing"`
	Failed  int    `json:"failed,omitempty" yaml:"failed,omitempty"`
	Labels  int    `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ValueCounts tabulates one column, most frequent first. Missing cells are
// counted as their own entry.
type ValueCounts struct {
	Column string       `json:"column" yaml:"column"`
	Counts []ValueCount `json:"counts" yaml:"counts"`
}

// ValueCount is the frequency of one value.
type ValueCount struct {
	Value   string `json:"value" yaml:"value"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Missing bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
	Count   int    `json:"count" yaml:"count"`
}

func newResult(runID string, req Request, sch *schema.Schema, t *responses.Table, labels schema.LabelTable, dups []schema.Duplicate) *Result {
	res := &Result{
		RunID:           runID,
		SchemaPath:      req.SchemaPath,
		DataPath:        req.DataPath,
		OutputPath:      req.OutputPath,
		Variables:       len(sch.Names),
		TypedColumns:    len(sch.Plan.Types),
		DatetimeColumns: len(sch.Plan.Datetime),
		LabeledColumns:  len(labels),
		Rows:            t.Rows,
		Duplicates:      dups,
	}

	res.Columns = lo.Map(t.Columns, func(col *responses.Column, _ int) ColumnSummary {
		return ColumnSummary{
			Name:    col.Name,
			Type:    string(col.Type),
			Missing: col.Missing(),
			Failed:  col.Failed,
			Labels:  len(labels[col.Name]),
		}
	})

	if col, ok := t.Column(req.ValueCounts); ok {
		res.ValueCounts = countValues(col, labels[col.Name])
	}
	return res
}

// countValues orders by descending count, ties by first appearance.
func countValues(col *responses.Column, labels schema.ValueLabels) *ValueCounts {
	var counts []ValueCount
	index := map[string]int{}
	missing := -1

	for i := 0; i < col.Len(); i++ {
		text, ok := col.Text(i)
		if !ok {
			if missing < 0 {
				missing = len(counts)
				counts = append(counts, ValueCount{Missing: true})
			}
			counts[missing].Count++
			continue
		}
		j, seen := index[text]
		if !seen {
			j = len(counts)
			index[text] = j
			label, _ := labels.Get(text)
			counts = append(counts, ValueCount{Value: text, Label: label})
		}
		counts[j].Count++
	}

	sort.SliceStable(counts, func(a, b int) bool { return counts[a].Count > counts[b].Count })
	return &ValueCounts{Column: col.Name, Counts: counts}
}
