// Package responses loads raw survey response records and coerces them into
// a typed, schema-ordered table.
package responses

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

var (
	// ErrDataNotFound is returned when the response file does not exist.
	ErrDataNotFound = errors.New("responses data file not found")

	// ErrDataFormat is returned when the response document is not a JSON
	// array of records.
	ErrDataFormat = errors.New("expected responses data to contain a JSON array")
)

// RawJSON is a nested object or array value kept as compact JSON text.
type RawJSON string

// Record is one response object with its keys in document order.
// Values are string, json.Number, bool, RawJSON or nil (JSON null).
type Record struct {
	Keys   []string
	Values map[string]any
}

// NewRecord builds a record from alternating key/value pairs.
func NewRecord(pairs ...any) Record {
	r := Record{Values: make(map[string]any, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(fmt.Sprint(pairs[i]), pairs[i+1])
	}
	return r
}

// Set assigns a value, keeping the key's first position when repeated.
func (r *Record) Set(key string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	if _, ok := r.Values[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = value
}

// Get returns the value for key and whether the key was present.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Parse decodes a response document into records, preserving key order.
func Parse(doc []byte) ([]Record, error) {
	doc = bytes.TrimSpace(doc)
	if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrDataFormat)
	}

	value, dataType, _, err := jsonparser.Get(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	if dataType != jsonparser.Array {
		return nil, fmt.Errorf("%w: got %s", ErrDataFormat, dataType)
	}
	if len(bytes.TrimSpace(value[1:len(value)-1])) == 0 {
		return []Record{}, nil
	}

	var (
		records  []Record
		parseErr error
	)
	_, err = jsonparser.ArrayEach(value, func(elem []byte, typ jsonparser.ValueType, _ int, err error) {
		if parseErr != nil {
			return
		}
		if err != nil {
			parseErr = err
			return
		}
		if typ != jsonparser.Object {
			parseErr = fmt.Errorf("%w: element %d is %s, not an object", ErrDataFormat, len(records), typ)
			return
		}
		rec, err := parseRecord(elem)
		if err != nil {
			parseErr = fmt.Errorf("%w: element %d: %v", ErrDataFormat, len(records), err)
			return
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return records, nil
}

func parseRecord(obj []byte) (Record, error) {
	var rec Record
	err := jsonparser.ObjectEach(obj, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		v, err := decodeValue(value, typ)
		if err != nil {
			return fmt.Errorf("key %q: %w", name, err)
		}
		rec.Set(name, v)
		return nil
	})
	if rec.Values == nil {
		rec.Values = map[string]any{}
	}
	return rec, err
}

func decodeValue(value []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number:
		return json.Number(value), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return nil, err
		}
		return RawJSON(buf.String()), nil
	}
}
