package sav

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/surveysav/internal/export"
	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

// SPSS seconds at the Unix epoch.
const unixEpochSeconds = 12219379200

type savHeader struct {
	Magic       [4]byte
	Product     [60]byte
	Layout      int32
	CaseSize    int32
	Compression int32
	Weight      int32
	Cases       int32
	Bias        float64
	Date        [9]byte
	Time        [8]byte
	Label       [64]byte
	Pad         [3]byte
}

type savVar struct {
	Width int32
	Print int32
	Name  string
}

type savLabelSet struct {
	Values  [][8]byte
	Labels  []string
	Indices []int32
}

type savFile struct {
	Header     savHeader
	Vars       []savVar
	LabelSets  []savLabelSet
	Extensions map[int32][]byte
	Data       []byte
}

// readSav decodes the subset of the system file format that Write produces.
func readSav(t *testing.T, b []byte) *savFile {
	t.Helper()
	r := bytes.NewReader(b)
	read := func(v any) { require.NoError(t, binary.Read(r, binary.LittleEndian, v)) }
	readInt := func() int32 {
		var v int32
		read(&v)
		return v
	}

	f := &savFile{Extensions: map[int32][]byte{}}
	read(&f.Header)

	for {
		switch rec := readInt(); rec {
		case recVariable:
			var fields [5]int32
			read(&fields)
			require.Zero(t, fields[1], "variable label flag")
			require.Zero(t, fields[2], "missing values count")
			var name [8]byte
			read(&name)
			f.Vars = append(f.Vars, savVar{Width: fields[0], Print: fields[3], Name: strings.TrimRight(string(name[:]), " \x00")})
		case recValueLabels:
			var set savLabelSet
			n := readInt()
			for i := int32(0); i < n; i++ {
				var value [8]byte
				read(&value)
				var size uint8
				read(&size)
				label := make([]byte, (int(size)+8)/8*8-1)
				read(label)
				set.Values = append(set.Values, value)
				set.Labels = append(set.Labels, string(label[:size]))
			}
			require.Equal(t, int32(recLabelVars), readInt())
			set.Indices = make([]int32, readInt())
			read(set.Indices)
			f.LabelSets = append(f.LabelSets, set)
		case recExtension:
			subtype, size, count := readInt(), readInt(), readInt()
			payload := make([]byte, size*count)
			read(payload)
			f.Extensions[subtype] = payload
		case recEnd:
			readInt()
			f.Data = make([]byte, r.Len())
			read(f.Data)
			return f
		default:
			t.Fatalf("unexpected record type %d", rec)
		}
	}
}

func float64At(b []byte, slot int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[slot*8:]))
}

func surveyTable() *responses.Table {
	return &responses.Table{
		Rows: 2,
		Columns: []*responses.Column{
			{Name: "responseid", Type: responses.ColumnInteger, Integers: []mo.Option[int64]{mo.Some[int64](1), mo.Some[int64](2)}},
			{Name: "respid", Type: responses.ColumnInteger, Integers: []mo.Option[int64]{mo.Some[int64](10), mo.None[int64]()}},
			{Name: "status", Type: responses.ColumnString, Strings: []mo.Option[string]{mo.Some("complete"), mo.Some("incomplete")}},
			{Name: "interview_start", Type: responses.ColumnDatetime, Times: []mo.Option[time.Time]{
				mo.Some(time.Date(2023, 6, 22, 21, 26, 47, 0, time.UTC)),
				mo.None[time.Time](),
			}},
		},
	}
}

func surveyLabels() schema.LabelTable {
	return schema.LabelTable{
		"status": {{Code: "complete", Text: "Complete"}, {Code: "incomplete", Text: "Incomplete"}},
	}
}

func TestWrite_Survey(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	err := Write(&buf, surveyTable(), surveyLabels(), export.Options{FileLabel: "Survey 2024", Created: created})
	require.NoError(t, err)

	f := readSav(t, buf.Bytes())

	t.Run("header", func(t *testing.T) {
		h := f.Header
		assert.Equal(t, "$FL2", string(h.Magic[:]))
		assert.True(t, strings.HasPrefix(string(h.Product[:]), "@(#) SPSS DATA FILE"))
		assert.Equal(t, int32(2), h.Layout)
		assert.Equal(t, int32(5), h.CaseSize, "status spans two segments")
		assert.Zero(t, h.Compression)
		assert.Equal(t, int32(2), h.Cases)
		assert.Equal(t, 100.0, h.Bias)
		assert.Equal(t, "05 Mar 24", string(h.Date[:]))
		assert.Equal(t, "14:07:09", string(h.Time[:]))
		assert.Equal(t, "Survey 2024", strings.TrimRight(string(h.Label[:]), " "))
	})

	t.Run("dictionary", func(t *testing.T) {
		require.Len(t, f.Vars, 5)
		assert.Equal(t, savVar{Width: 0, Print: formatSpec(formatF, 8, 0), Name: "RESPONSE"}, f.Vars[0])
		assert.Equal(t, savVar{Width: 0, Print: formatSpec(formatF, 8, 0), Name: "RESPID"}, f.Vars[1])
		assert.Equal(t, savVar{Width: 10, Print: formatSpec(formatA, 10, 0), Name: "STATUS"}, f.Vars[2])
		assert.Equal(t, int32(-1), f.Vars[3].Width, "continuation")
		assert.Equal(t, savVar{Width: 0, Print: formatSpec(formatDatetime, 20, 0), Name: "INTERVIE"}, f.Vars[4])

		assert.Equal(t,
			"RESPONSE=responseid\tRESPID=respid\tSTATUS=status\tINTERVIE=interview_start",
			string(f.Extensions[extLongNames]))
		assert.Equal(t, "UTF-8", string(f.Extensions[extEncoding]))
		assert.Len(t, f.Extensions[extVariableDisplay], 4*3*4)
		assert.Len(t, f.Extensions[extIntegerInfo], 8*4)
		assert.Equal(t, sysmis, float64At(f.Extensions[extFloatInfo], 0))
	})

	t.Run("long string labels", func(t *testing.T) {
		assert.Empty(t, f.LabelSets)

		p := bytes.NewReader(f.Extensions[extLongStringLabels])
		readInt := func() int32 {
			var v int32
			require.NoError(t, binary.Read(p, binary.LittleEndian, &v))
			return v
		}
		readString := func(n int32) string {
			b := make([]byte, n)
			_, err := p.Read(b)
			require.NoError(t, err)
			return string(b)
		}

		assert.Equal(t, "status", readString(readInt()))
		assert.Equal(t, int32(10), readInt())
		assert.Equal(t, int32(2), readInt())
		assert.Equal(t, "complete  ", readString(readInt()))
		assert.Equal(t, "Complete", readString(readInt()))
		assert.Equal(t, "incomplete", readString(readInt()))
		assert.Equal(t, "Incomplete", readString(readInt()))
		assert.Zero(t, p.Len())
	})

	t.Run("data", func(t *testing.T) {
		require.Len(t, f.Data, 2*5*8)
		row := func(i int) []byte { return f.Data[i*40 : (i+1)*40] }

		assert.Equal(t, 1.0, float64At(row(0), 0))
		assert.Equal(t, 10.0, float64At(row(0), 1))
		assert.Equal(t, "complete        ", string(row(0)[16:32]))
		want := float64(unixEpochSeconds + time.Date(2023, 6, 22, 21, 26, 47, 0, time.UTC).Unix())
		assert.Equal(t, want, float64At(row(0), 4))

		assert.Equal(t, 2.0, float64At(row(1), 0))
		assert.Equal(t, sysmis, float64At(row(1), 1), "missing integer")
		assert.Equal(t, "incomplete      ", string(row(1)[16:32]))
		assert.Equal(t, sysmis, float64At(row(1), 4), "missing datetime")
	})
}

func TestWrite_ValueLabels(t *testing.T) {
	table := &responses.Table{
		Rows: 1,
		Columns: []*responses.Column{
			{Name: "comment", Type: responses.ColumnString, Strings: []mo.Option[string]{mo.Some("twelve bytes")}},
			{Name: "q1", Type: responses.ColumnInteger, Integers: []mo.Option[int64]{mo.Some[int64](1)}},
			{Name: "gender", Type: responses.ColumnString, Strings: []mo.Option[string]{mo.None[string]()}},
		},
	}
	labels := schema.LabelTable{
		"q1":     {{Code: "1", Text: "Yes"}, {Code: "x", Text: "Bad code"}, {Code: "2", Text: strings.Repeat("n", 200)}},
		"gender": {{Code: "m", Text: "Male"}, {Code: "f", Text: "Female"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table, labels, export.Options{}))
	f := readSav(t, buf.Bytes())

	require.Len(t, f.LabelSets, 2)

	q1 := f.LabelSets[0]
	assert.Equal(t, []int32{3}, q1.Indices, "index counts the comment continuation")
	require.Len(t, q1.Values, 2, "non-numeric code skipped")
	assert.Equal(t, 1.0, math.Float64frombits(binary.LittleEndian.Uint64(q1.Values[0][:])))
	assert.Equal(t, "Yes", q1.Labels[0])
	assert.Equal(t, 2.0, math.Float64frombits(binary.LittleEndian.Uint64(q1.Values[1][:])))
	assert.Len(t, q1.Labels[1], maxLabelLen)

	gender := f.LabelSets[1]
	assert.Equal(t, []int32{4}, gender.Indices)
	assert.Equal(t, "m       ", string(gender.Values[0][:]))
	assert.Equal(t, []string{"Male", "Female"}, gender.Labels)

	assert.NotContains(t, f.Extensions, int32(extLongStringLabels))
	assert.Equal(t, strings.Repeat(" ", 8), string(f.Data[24:32]), "missing string is blank")
}

func TestWrite_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, &responses.Table{Rows: 3}, nil, export.Options{})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"responseid", "responseid"},
		{"interview start", "interview_start"},
		{"1st", "V1st"},
		{"", "V"},
		{"by", "by_"},
		{"a.b.", "a.b"},
		{"ñame", "V_ame"},
		{"@flag", "@flag"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeName(tt.in))
		})
	}
}

func TestNamer(t *testing.T) {
	n := newNamer()

	long, short := n.assign("responseid")
	assert.Equal(t, "responseid", long)
	assert.Equal(t, "RESPONSE", short)

	long, short = n.assign("responseid2")
	assert.Equal(t, "responseid2", long)
	assert.Equal(t, "RESPON_1", short)

	long, short = n.assign("ResponseID")
	assert.Equal(t, "ResponseID_1", long, "long names are unique ignoring case")
	assert.Equal(t, "RESPON_2", short)

	long, _ = n.assign(strings.Repeat("q", 80))
	assert.Len(t, long, maxLongName)
}

func TestStringWidth(t *testing.T) {
	col := &responses.Column{Type: responses.ColumnString, Strings: []mo.Option[string]{mo.Some(strings.Repeat("x", 300))}}
	assert.Equal(t, maxStringWidth, stringWidth(col, nil))

	empty := &responses.Column{Type: responses.ColumnString, Strings: []mo.Option[string]{mo.None[string]()}}
	assert.Equal(t, 1, stringWidth(empty, nil))
	assert.Equal(t, 5, stringWidth(empty, schema.ValueLabels{{Code: "abcde", Text: "A"}}))

	assert.Equal(t, "h", truncate("héllo", 2))
}

func TestExporter_Export(t *testing.T) {
	e, err := export.Get("sav")
	require.NoError(t, err)
	assert.Equal(t, []string{".sav"}, e.Extensions())

	path := filepath.Join(t.TempDir(), "out", "responses_data.sav")
	require.NoError(t, e.Export(context.Background(), path, surveyTable(), surveyLabels(), export.Options{}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	f := readSav(t, b)
	assert.Equal(t, int32(2), f.Header.Cases)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExporter_ExportFailureKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses_data.sav")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	e := &Exporter{}
	err := e.Export(context.Background(), path, &responses.Table{}, nil, export.Options{})
	require.Error(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(b))
}
