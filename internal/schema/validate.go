package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const documentSchema = "schemas/document.json"

// compileDocumentSchema compiles the embedded structural schema once.
var compileDocumentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	content, err := schemaFS.ReadFile(documentSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", documentSchema, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.json", bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", documentSchema, err)
	}
	return compiler.Compile("document.json")
})

// validateDocument checks that doc is JSON holding an object at data.schema.
// Only structural presence is checked; entries are validated leniently later.
func validateDocument(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaFormat, err)
	}

	compiled, err := compileDocumentSchema()
	if err != nil {
		return err
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaFormat, err)
	}
	return nil
}
