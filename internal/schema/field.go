// Package schema derives column types and value labels from a survey
// schema document.
//
// A schema document looks like:
//
//	{"data": {"schema": {"keys": [...], "fields": [...]}}}
//
// where every key or field entry is {"name", "fieldType", "options"?}.
package schema

import "strings"

// Field types as they appear in schema documents.
const (
	FieldNumeric      = "numeric"
	FieldText         = "text"
	FieldSingleChoice = "singleChoice"
	FieldDatetime     = "datetime"
)

// TargetType is the column type a schema variable is coerced to.
type TargetType string

const (
	TypeInteger  TargetType = "integer"  // nullable int64
	TypeString   TargetType = "string"   // nullable string
	TypeDatetime TargetType = "datetime" // nullable timestamp
)

// TargetFor maps a raw fieldType to its target type.
// Matching is case-insensitive; an empty or unknown fieldType is text.
func TargetFor(fieldType string) TargetType {
	switch strings.ToLower(fieldType) {
	case "numeric":
		return TypeInteger
	case "datetime":
		return TypeDatetime
	default:
		return TypeString
	}
}

// Field is a single key or field definition.
type Field struct {
	Name      string
	FieldType string // raw value from the document, "" when absent
	Options   []Option
	Key       bool // declared under schema.keys
}

// Target returns the field's target column type.
func (f Field) Target() TargetType {
	return TargetFor(f.FieldType)
}

// Option is one coded answer of a categorical field.
type Option struct {
	Code  string // verbatim JSON text of the code (strings unquoted)
	Texts []OptionText
}

// OptionText is a display text in one language.
type OptionText struct {
	Language string
	Text     string
	HasText  bool // false when the entry has no "text" member
}

// Plan is the column type plan consumed by the response coercer.
type Plan struct {
	// Order is every schema variable name: keys first, then fields.
	Order []string
	// Types holds the target type of every non-datetime column.
	Types map[string]TargetType
	// Datetime lists datetime columns in declaration order.
	Datetime []string
}

// TypeOf returns the target type planned for a column.
func (p Plan) TypeOf(name string) (TargetType, bool) {
	if p.IsDatetime(name) {
		return TypeDatetime, true
	}
	t, ok := p.Types[name]
	return t, ok
}

// IsDatetime reports whether name is planned as a datetime column.
func (p Plan) IsDatetime(name string) bool {
	for _, n := range p.Datetime {
		if n == name {
			return true
		}
	}
	return false
}

// Schema is the typed result of extracting a schema document.
type Schema struct {
	// Names is the ordered list of variable names (keys, then fields).
	Names  []string
	Keys   []Field
	Fields []Field
	Plan   Plan
}
