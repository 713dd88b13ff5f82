package responses

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/jackzampolin/surveysav/internal/schema"
)

// Options controls how records are shaped into a table.
type Options struct {
	// KeepUnknown retains columns the schema does not declare, after the
	// schema columns in first-appearance order. By default they are dropped.
	KeepUnknown bool
}

// Load reads the response document at path and coerces it with plan.
func Load(path string, plan schema.Plan, opts Options) (*Table, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataNotFound, path)
		}
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	records, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	return Coerce(records, plan, opts), nil
}

// Coerce builds a table from records, casts every planned column, and orders
// columns by the plan. Schema columns absent from the data are not created.
func Coerce(records []Record, plan schema.Plan, opts Options) *Table {
	seen := columnOrder(records)
	present := lo.SliceToMap(seen, func(name string) (string, bool) { return name, true })

	order := lo.Filter(lo.Uniq(plan.Order), func(name string, _ int) bool { return present[name] })
	if opts.KeepUnknown {
		planned := lo.SliceToMap(plan.Order, func(name string) (string, bool) { return name, true })
		order = append(order, lo.Reject(seen, func(name string, _ int) bool { return planned[name] })...)
	}

	t := &Table{Rows: len(records), Columns: make([]*Column, 0, len(order))}
	for _, name := range order {
		t.Columns = append(t.Columns, coerceColumn(name, records, plan))
	}
	return t
}

// columnOrder is the union of record keys in first-appearance order.
func columnOrder(records []Record) []string {
	var names []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, k := range r.Keys {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	return names
}

func coerceColumn(name string, records []Record, plan schema.Plan) *Column {
	target, planned := plan.TypeOf(name)

	col := &Column{Name: name}
	switch {
	case !planned:
		col.Type = ColumnRaw
		col.Raw = coerceCells(col, name, records, castRaw)
	case target == schema.TypeDatetime:
		col.Type = ColumnDatetime
		col.Times = coerceCells(col, name, records, castDatetime)
	case target == schema.TypeInteger:
		col.Type = ColumnInteger
		col.Integers = coerceCells(col, name, records, castInteger)
	default:
		col.Type = ColumnString
		col.Strings = coerceCells(col, name, records, castString)
	}
	return col
}

// coerceCells applies fn to every row. Absent keys and nulls are missing;
// any other value that fn rejects is counted in col.Failed.
func coerceCells[T any](col *Column, name string, records []Record, fn func(any) mo.Option[T]) []mo.Option[T] {
	cells := make([]mo.Option[T], len(records))
	for i, r := range records {
		v, ok := r.Get(name)
		if !ok || v == nil {
			cells[i] = mo.None[T]()
			continue
		}
		cells[i] = fn(v)
		if cells[i].IsAbsent() {
			col.Failed++
		}
	}
	return cells
}
