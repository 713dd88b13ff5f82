package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateCode is returned when duplicate option codes are rejected.
var ErrDuplicateCode = errors.New("duplicate option code")

// Label maps one option code to its display text.
type Label struct {
	Code string `json:"code" yaml:"code"`
	Text string `json:"text" yaml:"text"`
}

// ValueLabels is the ordered code to text lookup of one column.
// Codes are unique.
type ValueLabels []Label

// Get returns the display text for code.
func (v ValueLabels) Get(code string) (string, bool) {
	for _, l := range v {
		if l.Code == code {
			return l.Text, true
		}
	}
	return "", false
}

// Map returns the labels as a plain map.
func (v ValueLabels) Map() map[string]string {
	m := make(map[string]string, len(v))
	for _, l := range v {
		m[l.Code] = l.Text
	}
	return m
}

// LabelTable holds value labels per categorical column.
type LabelTable map[string]ValueLabels

// Columns returns the labeled column names, sorted.
func (t LabelTable) Columns() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Duplicate records an option code that overwrote an earlier label.
type Duplicate struct {
	Column   string `json:"column" yaml:"column"`
	Code     string `json:"code" yaml:"code"`
	Previous string `json:"previous" yaml:"previous"`
	Text     string `json:"text" yaml:"text"`
}

// Err wraps the duplicate as an ErrDuplicateCode error.
func (d Duplicate) Err() error {
	return fmt.Errorf("%w: %s=%q in %s (previous label %q)", ErrDuplicateCode, d.Code, d.Text, d.Column, d.Previous)
}

// BuildLabels builds value labels for every singleChoice field.
//
// Only fields whose fieldType is exactly "singleChoice" are considered; the
// comparison is case-sensitive, unlike TargetFor. A duplicated code keeps
// its first position and takes the last text; every such overwrite is
// reported. Fields that produce no labels are omitted.
func BuildLabels(fields []Field) (LabelTable, []Duplicate) {
	table := make(LabelTable)
	var dups []Duplicate

	for _, f := range fields {
		if f.FieldType != FieldSingleChoice || f.Name == "" {
			continue
		}

		var labels ValueLabels
		index := make(map[string]int, len(f.Options))
		for _, opt := range f.Options {
			text := displayText(opt)
			if i, ok := index[opt.Code]; ok {
				dups = append(dups, Duplicate{
					Column:   f.Name,
					Code:     opt.Code,
					Previous: labels[i].Text,
					Text:     text,
				})
				labels[i].Text = text
				continue
			}
			index[opt.Code] = len(labels)
			labels = append(labels, Label{Code: opt.Code, Text: text})
		}

		if len(labels) > 0 {
			table[f.Name] = labels
		}
	}

	return table, dups
}

// displayText is the first text entry's text, else the code itself.
func displayText(opt Option) string {
	if len(opt.Texts) > 0 && opt.Texts[0].HasText {
		return opt.Texts[0].Text
	}
	return opt.Code
}
