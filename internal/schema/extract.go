package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cast"
)

var (
	// ErrSchemaFormat is returned when the document has no data.schema object.
	ErrSchemaFormat = errors.New("schema root missing or malformed")

	// ErrSchemaNotFound is returned by Load when the schema file does not exist.
	ErrSchemaNotFound = errors.New("schema file not found")
)

// document is the outer shape of a schema document. keys and fields are
// decoded entry by entry so one malformed entry never fails the document.
type document struct {
	Data struct {
		Schema struct {
			Keys   json.RawMessage `json:"keys"`
			Fields json.RawMessage `json:"fields"`
		} `json:"schema"`
	} `json:"data"`
}

// Load reads and extracts the schema document at path.
func Load(path string) (*Schema, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, path)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return Extract(doc)
}

// Extract parses a schema document into ordered names, field definitions
// and a column type plan.
func Extract(doc []byte) (*Schema, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaFormat, err)
	}

	s := &Schema{
		Keys:   parseEntries(d.Data.Schema.Keys, true),
		Fields: parseEntries(d.Data.Schema.Fields, false),
	}
	s.Plan = buildPlan(s.Keys, s.Fields)
	s.Names = s.Plan.Order
	return s, nil
}

// buildPlan assigns target types in declaration order. A repeated name keeps
// its first position; datetime wins over any other declaration, otherwise
// the last declaration's type applies.
func buildPlan(groups ...[]Field) Plan {
	p := Plan{Types: make(map[string]TargetType)}
	seen := make(map[string]bool)
	datetime := make(map[string]bool)

	for _, group := range groups {
		for _, f := range group {
			if !seen[f.Name] {
				seen[f.Name] = true
				p.Order = append(p.Order, f.Name)
			}

			t := f.Target()
			switch {
			case t == TypeDatetime:
				if !datetime[f.Name] {
					datetime[f.Name] = true
					p.Datetime = append(p.Datetime, f.Name)
				}
				delete(p.Types, f.Name)
			case datetime[f.Name]:
				// stays datetime
			default:
				p.Types[f.Name] = t
			}
		}
	}
	return p
}

// parseEntries decodes a keys or fields array. Anything that is not an array
// yields no entries; entries that are not objects or lack a name are skipped.
func parseEntries(raw json.RawMessage, key bool) []Field {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	fields := make([]Field, 0, len(entries))
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			continue
		}
		name, _ := asString(obj["name"])
		if name == "" {
			continue
		}
		fieldType, _ := asString(obj["fieldType"])
		fields = append(fields, Field{
			Name:      name,
			FieldType: fieldType,
			Options:   parseOptions(obj["options"]),
			Key:       key,
		})
	}
	return fields
}

func parseOptions(raw json.RawMessage) []Option {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	options := make([]Option, 0, len(entries))
	for _, entry := range entries {
		obj, ok := asObject(entry)
		if !ok {
			continue
		}
		code, ok := scalarText(obj["code"])
		if !ok {
			continue
		}
		options = append(options, Option{Code: code, Texts: parseTexts(obj["texts"])})
	}
	return options
}

func parseTexts(raw json.RawMessage) []OptionText {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	texts := make([]OptionText, 0, len(entries))
	for _, entry := range entries {
		var t OptionText
		if obj, ok := asObject(entry); ok {
			t.Language, _ = asString(obj["language"])
			t.Text, t.HasText = scalarText(obj["text"])
		}
		texts = append(texts, t)
	}
	return texts
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// scalarText returns the textual form of a JSON scalar: strings unquoted,
// numbers and booleans as written. null, objects and arrays are rejected.
func scalarText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}

	switch x := v.(type) {
	case nil, map[string]any, []any:
		return "", false
	case json.Number:
		return x.String(), true
	default:
		s, err := cast.ToStringE(x)
		if err != nil {
			return "", false
		}
		return s, true
	}
}
