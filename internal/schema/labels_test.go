package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLabels(t *testing.T) {
	fields := []Field{
		{
			Name:      "status",
			FieldType: FieldSingleChoice,
			Options: []Option{
				{Code: "complete", Texts: []OptionText{{Language: "en", Text: "Complete", HasText: true}}},
				{Code: "incomplete", Texts: []OptionText{{Language: "en", Text: "Incomplete", HasText: true}}},
			},
		},
		{Name: "age", FieldType: FieldNumeric},
	}

	labels, dups := BuildLabels(fields)
	assert.Empty(t, dups)

	require.Contains(t, labels, "status")
	assert.Equal(t, ValueLabels{
		{Code: "complete", Text: "Complete"},
		{Code: "incomplete", Text: "Incomplete"},
	}, labels["status"])
	assert.NotContains(t, labels, "age")
}

func TestBuildLabels_FromDocument(t *testing.T) {
	s, err := Extract([]byte(surveySchema))
	require.NoError(t, err)

	labels, _ := BuildLabels(s.Fields)
	assert.Equal(t, map[string]map[string]string{
		"status": {"complete": "Complete", "incomplete": "Incomplete"},
	}, map[string]map[string]string{"status": labels["status"].Map()})
	assert.Equal(t, []string{"status"}, labels.Columns())
}

func TestBuildLabels_OnlyExactSingleChoice(t *testing.T) {
	opts := []Option{{Code: "1", Texts: []OptionText{{Text: "One", HasText: true}}}}
	fields := []Field{
		{Name: "lower", FieldType: "singlechoice", Options: opts},
		{Name: "numeric", FieldType: FieldNumeric, Options: opts},
		{Name: "text", FieldType: FieldText, Options: opts},
		{Name: "", FieldType: FieldSingleChoice, Options: opts},
		{Name: "exact", FieldType: FieldSingleChoice, Options: opts},
	}

	labels, _ := BuildLabels(fields)
	assert.Equal(t, []string{"exact"}, labels.Columns())
}

func TestBuildLabels_DisplayTextFallback(t *testing.T) {
	fields := []Field{{
		Name:      "q1",
		FieldType: FieldSingleChoice,
		Options: []Option{
			{Code: "a"},
			{Code: "b", Texts: []OptionText{{Language: "en"}}},
			{Code: "c", Texts: []OptionText{{Text: "", HasText: true}}},
			{Code: "d", Texts: []OptionText{{Text: "Dee", HasText: true}, {Text: "Ignored", HasText: true}}},
		},
	}}

	labels, _ := BuildLabels(fields)
	assert.Equal(t, ValueLabels{
		{Code: "a", Text: "a"},
		{Code: "b", Text: "b"},
		{Code: "c", Text: ""},
		{Code: "d", Text: "Dee"},
	}, labels["q1"])
}

func TestBuildLabels_NoOptionsOmitted(t *testing.T) {
	fields := []Field{
		{Name: "empty", FieldType: FieldSingleChoice, Options: []Option{}},
		{Name: "absent", FieldType: FieldSingleChoice},
	}

	labels, _ := BuildLabels(fields)
	assert.Empty(t, labels)
}

func TestBuildLabels_DuplicateCodes(t *testing.T) {
	fields := []Field{{
		Name:      "q",
		FieldType: FieldSingleChoice,
		Options: []Option{
			{Code: "x", Texts: []OptionText{{Text: "First", HasText: true}}},
			{Code: "y", Texts: []OptionText{{Text: "Why", HasText: true}}},
			{Code: "x", Texts: []OptionText{{Text: "Second", HasText: true}}},
		},
	}}

	labels, dups := BuildLabels(fields)
	assert.Equal(t, ValueLabels{
		{Code: "x", Text: "Second"},
		{Code: "y", Text: "Why"},
	}, labels["q"])

	require.Len(t, dups, 1)
	assert.Equal(t, Duplicate{Column: "q", Code: "x", Previous: "First", Text: "Second"}, dups[0])
	assert.ErrorIs(t, dups[0].Err(), ErrDuplicateCode)
}

func TestBuildLabels_CodesVerbatim(t *testing.T) {
	doc := `{"data": {"schema": {"fields": [{
		"name": "rating",
		"fieldType": "singleChoice",
		"options": [
			{"code": 1, "texts": [{"language": "en", "text": "Poor"}]},
			{"code": "02"},
			{"code": null},
			{"texts": [{"text": "no code"}]},
			"junk"
		]
	}]}}}`

	s, err := Extract([]byte(doc))
	require.NoError(t, err)

	labels, _ := BuildLabels(s.Fields)
	assert.Equal(t, ValueLabels{
		{Code: "1", Text: "Poor"},
		{Code: "02", Text: "02"},
	}, labels["rating"])
}

func TestBuildLabels_Idempotent(t *testing.T) {
	s, err := Extract([]byte(surveySchema))
	require.NoError(t, err)

	first, _ := BuildLabels(s.Fields)
	second, _ := BuildLabels(s.Fields)
	assert.Equal(t, first, second)
}

func TestValueLabels_Get(t *testing.T) {
	v := ValueLabels{{Code: "a", Text: "Alpha"}}

	text, ok := v.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "Alpha", text)

	_, ok = v.Get("b")
	assert.False(t, ok)
}
