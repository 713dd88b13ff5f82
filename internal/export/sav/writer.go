package sav

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackzampolin/surveysav/internal/export"
	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

const productName = "@(#) SPSS DATA FILE surveysav"

// System-missing and range constants for the float info record.
var (
	sysmis  = -math.MaxFloat64
	highest = math.MaxFloat64
	lowest  = math.Nextafter(-math.MaxFloat64, 0)
)

// Record types.
const (
	recVariable    = 2
	recValueLabels = 3
	recLabelVars   = 4
	recExtension   = 7
	recEnd         = 999
)

// Extension subtypes.
const (
	extIntegerInfo      = 3
	extFloatInfo        = 4
	extVariableDisplay  = 11
	extLongNames        = 13
	extEncoding         = 20
	extLongStringLabels = 21
)

// Write encodes t as an uncompressed little-endian system file.
func Write(w io.Writer, t *responses.Table, labels schema.LabelTable, opts export.Options) error {
	vars, err := dictionary(t, labels)
	if err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}

	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}

	e.header(vars, t.Rows, created, opts.FileLabel)
	for _, v := range vars {
		e.variable(v)
	}
	for _, v := range vars {
		if v.width <= 8 && len(v.labels) > 0 {
			e.valueLabels(v, logger)
		}
	}
	e.integerInfo()
	e.floatInfo()
	e.variableDisplay(vars)
	e.longNames(vars)
	e.encoding("UTF-8")
	e.longStringLabels(vars)
	e.int32(recEnd)
	e.int32(0)

	for row := 0; row < t.Rows; row++ {
		for _, v := range vars {
			e.cell(v, row)
		}
	}

	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

// encoder writes little-endian values and keeps the first error.
type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) int32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	e.bytes(b[:])
}

func (e *encoder) float64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.bytes(b[:])
}

// padded writes s cut or space-padded to exactly n bytes.
func (e *encoder) padded(s string, n int) {
	s = truncate(s, n)
	e.bytes([]byte(s + strings.Repeat(" ", n-len(s))))
}

func (e *encoder) header(vars []*variable, rows int, created time.Time, label string) {
	caseSize := 0
	for _, v := range vars {
		caseSize += v.segments()
	}

	e.bytes([]byte("$FL2"))
	e.padded(productName, 60)
	e.int32(2) // layout code
	e.int32(int32(caseSize))
	e.int32(0) // uncompressed
	e.int32(0) // no weight variable
	e.int32(int32(rows))
	e.float64(100) // compression bias
	e.padded(created.Format("02 Jan 06"), 9)
	e.padded(created.Format("15:04:05"), 8)
	e.padded(label, 64)
	e.bytes(make([]byte, 3))
}

func (e *encoder) variable(v *variable) {
	e.int32(recVariable)
	e.int32(int32(v.width))
	e.int32(0) // no variable label
	e.int32(0) // no missing values
	e.int32(v.format)
	e.int32(v.format)
	e.padded(v.short, 8)

	for i := 1; i < v.segments(); i++ {
		e.int32(recVariable)
		e.int32(-1)
		e.int32(0)
		e.int32(0)
		e.int32(0)
		e.int32(0)
		e.bytes(make([]byte, 8))
	}
}

// valueLabels writes a label set for a numeric or short string variable.
// Numeric codes that are not numbers are skipped.
func (e *encoder) valueLabels(v *variable, logger *slog.Logger) {
	type entry struct {
		value [8]byte
		label string
	}

	var entries []entry
	for _, l := range v.labels {
		var ent entry
		if v.numeric() {
			f, err := strconv.ParseFloat(strings.TrimSpace(l.Code), 64)
			if err != nil {
				logger.Warn("skipping non-numeric label code", "variable", v.name, "code", l.Code)
				continue
			}
			binary.LittleEndian.PutUint64(ent.value[:], math.Float64bits(f))
		} else {
			copy(ent.value[:], l.Code+strings.Repeat(" ", 8-len(l.Code)))
		}
		ent.label = truncate(l.Text, maxLabelLen)
		entries = append(entries, ent)
	}
	if len(entries) == 0 {
		return
	}

	e.int32(recValueLabels)
	e.int32(int32(len(entries)))
	for _, ent := range entries {
		e.bytes(ent.value[:])
		n := len(ent.label)
		e.bytes([]byte{byte(n)})
		e.padded(ent.label, (n+8)/8*8-1)
	}

	e.int32(recLabelVars)
	e.int32(1)
	e.int32(int32(v.index))
}

func (e *encoder) extension(subtype, size, count int32) {
	e.int32(recExtension)
	e.int32(subtype)
	e.int32(size)
	e.int32(count)
}

func (e *encoder) integerInfo() {
	e.extension(extIntegerInfo, 4, 8)
	for _, v := range []int32{20, 0, 0, -1, 1, 1, 2, 65001} {
		e.int32(v)
	}
}

func (e *encoder) floatInfo() {
	e.extension(extFloatInfo, 8, 3)
	e.float64(sysmis)
	e.float64(highest)
	e.float64(lowest)
}

func (e *encoder) variableDisplay(vars []*variable) {
	e.extension(extVariableDisplay, 4, int32(3*len(vars)))
	for _, v := range vars {
		e.int32(v.measure())
		e.int32(v.displayWidth())
		e.int32(v.alignment())
	}
}

func (e *encoder) longNames(vars []*variable) {
	pairs := make([]string, len(vars))
	for i, v := range vars {
		pairs[i] = v.short + "=" + v.name
	}
	text := strings.Join(pairs, "\t")
	e.extension(extLongNames, 1, int32(len(text)))
	e.bytes([]byte(text))
}

func (e *encoder) encoding(name string) {
	e.extension(extEncoding, 1, int32(len(name)))
	e.bytes([]byte(name))
}

// longStringLabels writes labels for string variables wider than 8 bytes.
func (e *encoder) longStringLabels(vars []*variable) {
	var buf bytes.Buffer
	put := func(v int32) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	for _, v := range vars {
		if v.numeric() || v.width <= 8 || len(v.labels) == 0 {
			continue
		}
		put(int32(len(v.name)))
		buf.WriteString(v.name)
		put(int32(v.width))
		put(int32(len(v.labels)))
		for _, l := range v.labels {
			code := truncate(l.Code, v.width)
			put(int32(v.width))
			buf.WriteString(code + strings.Repeat(" ", v.width-len(code)))
			text := truncate(l.Text, maxLabelLen)
			put(int32(len(text)))
			buf.WriteString(text)
		}
	}
	if buf.Len() == 0 {
		return
	}

	e.extension(extLongStringLabels, 1, int32(buf.Len()))
	e.bytes(buf.Bytes())
}

func (e *encoder) cell(v *variable, row int) {
	col := v.column
	switch {
	case col.Type == responses.ColumnInteger:
		if n, ok := col.Integers[row].Get(); ok {
			e.float64(float64(n))
		} else {
			e.float64(sysmis)
		}
	case col.Type == responses.ColumnDatetime:
		if ts, ok := col.Times[row].Get(); ok {
			e.float64(spssSeconds(ts))
		} else {
			e.float64(sysmis)
		}
	default:
		s, _ := col.Text(row)
		e.padded(truncate(s, v.width), v.segments()*8)
	}
}

// spssSeconds converts ts to seconds since the SPSS epoch.
func spssSeconds(ts time.Time) float64 {
	secs := ts.Unix() - spssEpoch.Unix()
	return float64(secs) + float64(ts.Nanosecond())/1e9
}
