package sav

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

const (
	maxStringWidth = 255
	maxShortName   = 8
	maxLongName    = 64
	maxLabelLen    = 120
)

// Print/write format types.
const (
	formatA        = 1
	formatF        = 5
	formatDatetime = 22
)

// Measurement levels for the variable display record.
const (
	measureNominal = 1
	measureScale   = 3
)

// spssEpoch is the zero point of SPSS date-time values.
var spssEpoch = time.Date(1582, time.October, 14, 0, 0, 0, 0, time.UTC)

var reservedNames = map[string]bool{
	"ALL": true, "AND": true, "BY": true, "EQ": true, "GE": true, "GT": true, "LE": true,
	"LT": true, "NE": true, "NOT": true, "OR": true, "TO": true, "WITH": true,
}

// variable is one dictionary entry derived from a table column.
type variable struct {
	column *responses.Column
	name   string // long name, as written to the long names record
	short  string // 8-byte short name
	width  int    // 0 for numerics, 1..255 for strings
	format int32
	index  int // 1-based position counting continuation records
	labels schema.ValueLabels
}

func (v *variable) numeric() bool { return v.width == 0 }

// segments is the number of 8-byte case slots the variable occupies.
func (v *variable) segments() int {
	if v.numeric() {
		return 1
	}
	return (v.width + 7) / 8
}

func (v *variable) measure() int32 {
	if v.numeric() && len(v.labels) == 0 {
		return measureScale
	}
	return measureNominal
}

func (v *variable) displayWidth() int32 {
	if v.numeric() {
		return int32(v.format>>8) & 0xff
	}
	return int32(min(max(v.width, 8), 40))
}

func (v *variable) alignment() int32 {
	if v.numeric() {
		return 1 // right
	}
	return 0 // left
}

// dictionary builds the variable list for t in column order.
func dictionary(t *responses.Table, labels schema.LabelTable) ([]*variable, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("no columns to export")
	}

	names := newNamer()
	vars := make([]*variable, 0, len(t.Columns))
	index := 1
	for _, col := range t.Columns {
		v := &variable{column: col, labels: labels[col.Name]}
		v.name, v.short = names.assign(col.Name)

		switch col.Type {
		case responses.ColumnInteger:
			v.format = formatSpec(formatF, integerWidth(col), 0)
		case responses.ColumnDatetime:
			v.format = formatSpec(formatDatetime, 20, 0)
		default:
			v.width = stringWidth(col, v.labels)
			v.format = formatSpec(formatA, v.width, 0)
		}

		v.index = index
		index += v.segments()
		vars = append(vars, v)
	}
	return vars, nil
}

func formatSpec(typ, width, decimals int) int32 {
	return int32(typ<<16 | width<<8 | decimals)
}

// integerWidth is the display width needed by the widest value, at least 8.
func integerWidth(col *responses.Column) int {
	width := 8
	for _, cell := range col.Integers {
		if n, ok := cell.Get(); ok {
			width = max(width, len(strconv.FormatInt(n, 10)))
		}
	}
	return min(width, 40)
}

// stringWidth is the longest value or label code in bytes, within 1..255.
func stringWidth(col *responses.Column, labels schema.ValueLabels) int {
	width := 1
	for i := 0; i < col.Len(); i++ {
		if s, ok := col.Text(i); ok {
			width = max(width, len(s))
		}
	}
	for _, l := range labels {
		width = max(width, len(l.Code))
	}
	return min(width, maxStringWidth)
}

// namer assigns valid, unique long and short variable names.
type namer struct {
	long  map[string]bool
	short map[string]bool
}

func newNamer() *namer {
	return &namer{long: map[string]bool{}, short: map[string]bool{}}
}

func (n *namer) assign(column string) (long, short string) {
	base := sanitizeName(column)
	long = unique(truncate(base, maxLongName), maxLongName, n.long)
	short = unique(truncate(strings.ToUpper(long), maxShortName), maxShortName, n.short)
	return long, short
}

// unique returns name, or name with a numeric suffix, not yet in used.
// Comparison is case-insensitive, as in SPSS.
func unique(name string, limit int, used map[string]bool) string {
	candidate := name
	for i := 1; used[strings.ToUpper(candidate)]; i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = truncate(name, limit-len(suffix)) + suffix
	}
	used[strings.ToUpper(candidate)] = true
	return candidate
}

// sanitizeName maps a column name onto SPSS variable name rules: a leading
// letter, then letters, digits, '_', '.', '@', '#' or '$', and no reserved
// words or trailing '.'.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '@' || r == '#' || r == '$':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	s := strings.TrimRight(b.String(), ".")
	if s == "" {
		return "V"
	}
	if c := s[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '@') {
		s = "V" + s
	}
	if reservedNames[strings.ToUpper(s)] {
		s += "_"
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
