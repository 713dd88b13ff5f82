// Package dataset resolves the locations of a survey dataset's input
// documents and output file.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default dataset directory.
	DefaultDirName = "Testdata2024"

	// SchemaFileName is the default schema document name.
	SchemaFileName = "responses_schema.json"

	// DataFileName is the default response document name.
	DataFileName = "responses_data.json"

	// OutputFileName is the default output file name.
	OutputFileName = "responses_data.sav"
)

// Files names the documents of a dataset. Empty names use the defaults;
// absolute names are used as is.
type Files struct {
	Schema string
	Data   string
	Output string
}

// Dir represents a dataset directory.
type Dir struct {
	path  string
	files Files
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (./Testdata2024).
func New(path string, files Files) *Dir {
	if path == "" {
		path = DefaultDirName
	}
	if files.Schema == "" {
		files.Schema = SchemaFileName
	}
	if files.Data == "" {
		files.Data = DataFileName
	}
	if files.Output == "" {
		files.Output = OutputFileName
	}
	return &Dir{path: path, files: files}
}

// Path returns the root path of the dataset directory.
func (d *Dir) Path() string {
	return d.path
}

// SchemaPath returns the path to the schema document.
func (d *Dir) SchemaPath() string {
	return d.resolve(d.files.Schema)
}

// DataPath returns the path to the response document.
func (d *Dir) DataPath() string {
	return d.resolve(d.files.Data)
}

// OutputPath returns the path to the output file.
func (d *Dir) OutputPath() string {
	return d.resolve(d.files.Output)
}

func (d *Dir) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.path, name)
}

// Exists returns true if the dataset directory exists.
func (d *Dir) Exists() bool {
	info, err := os.Stat(d.path)
	return err == nil && info.IsDir()
}

// EnsureOutputDir creates the directory holding the output file.
func (d *Dir) EnsureOutputDir() error {
	if err := os.MkdirAll(filepath.Dir(d.OutputPath()), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
