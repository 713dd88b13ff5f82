package responses

import (
	"time"

	"github.com/samber/mo"
)

// ColumnType is the storage type of a coerced column.
type ColumnType string

const (
	ColumnInteger  ColumnType = "integer"
	ColumnString   ColumnType = "string"
	ColumnDatetime ColumnType = "datetime"
	// ColumnRaw holds values of a column the schema does not declare.
	ColumnRaw ColumnType = "raw"
)

// Column is one typed column. Only the slice matching Type is populated;
// an absent option is the column's missing marker.
type Column struct {
	Name     string
	Type     ColumnType
	Integers []mo.Option[int64]
	Strings  []mo.Option[string]
	Times    []mo.Option[time.Time]
	Raw      []mo.Option[any]

	// Failed counts non-null input values that could not be coerced.
	Failed int
}

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.Type {
	case ColumnInteger:
		return len(c.Integers)
	case ColumnString:
		return len(c.Strings)
	case ColumnDatetime:
		return len(c.Times)
	default:
		return len(c.Raw)
	}
}

// IsMissing reports whether row i holds the missing marker.
func (c *Column) IsMissing(i int) bool {
	switch c.Type {
	case ColumnInteger:
		return c.Integers[i].IsAbsent()
	case ColumnString:
		return c.Strings[i].IsAbsent()
	case ColumnDatetime:
		return c.Times[i].IsAbsent()
	default:
		return c.Raw[i].IsAbsent()
	}
}

// Missing counts missing cells.
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Value returns row i as int64, string, time.Time or a raw value, or nil
// when missing.
func (c *Column) Value(i int) any {
	switch c.Type {
	case ColumnInteger:
		if v, ok := c.Integers[i].Get(); ok {
			return v
		}
	case ColumnString:
		if v, ok := c.Strings[i].Get(); ok {
			return v
		}
	case ColumnDatetime:
		if v, ok := c.Times[i].Get(); ok {
			return v
		}
	default:
		if v, ok := c.Raw[i].Get(); ok {
			return v
		}
	}
	return nil
}

// Text returns row i rendered as text, false when missing.
func (c *Column) Text(i int) (string, bool) {
	switch c.Type {
	case ColumnString:
		return c.Strings[i].Get()
	case ColumnDatetime:
		t, ok := c.Times[i].Get()
		if !ok {
			return "", false
		}
		return t.Format(time.RFC3339Nano), true
	case ColumnRaw:
		v, ok := c.Raw[i].Get()
		if !ok {
			return "", false
		}
		return castString(v).Get()
	default:
		v, ok := c.Integers[i].Get()
		if !ok {
			return "", false
		}
		return castString(v).Get()
	}
}

// Table is the coerced, rectangular response table.
type Table struct {
	Rows    int
	Columns []*Column
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) {
	return t.Rows, len(t.Columns)
}
