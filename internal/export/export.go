// Package export writes a coerced response table and its value labels to an
// output file. Formats register themselves from init().
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

// ErrUnknownFormat is returned when no exporter matches a format or path.
var ErrUnknownFormat = errors.New("unknown export format")

// DefaultFormat is used when neither a format nor a known extension is given.
const DefaultFormat = "sav"

// Options carries format-independent export settings.
type Options struct {
	FileLabel string       // file-level label, where the format has one
	Table     string       // table name for database formats
	Created   time.Time    // creation timestamp, zero means now
	Logger    *slog.Logger // optional
}

// Exporter writes a table and its labels to path.
type Exporter interface {
	// Format returns the short format name, e.g. "sav".
	Format() string

	// Extensions returns file extensions (with dot) handled by the format.
	Extensions() []string

	// Export writes the output. Labels only reference columns of the table.
	Export(ctx context.Context, path string, t *responses.Table, labels schema.LabelTable, opts Options) error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Exporter{}
)

// Register adds an exporter under its format name.
func Register(e Exporter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[e.Format()] = e
}

// Get returns the exporter for format.
func Get(format string) (Exporter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return e, nil
}

// Formats lists registered format names, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks an exporter: an explicit format wins, then the output
// path's extension, then DefaultFormat.
func Resolve(format, path string) (Exporter, error) {
	if format != "" {
		return Get(format)
	}

	ext := strings.ToLower(filepath.Ext(path))
	registryMu.RLock()
	for _, e := range registry {
		for _, x := range e.Extensions() {
			if x == ext {
				registryMu.RUnlock()
				return e, nil
			}
		}
	}
	registryMu.RUnlock()

	return Get(DefaultFormat)
}

// ApplicableLabels keeps labels for columns present in t that can carry
// value labels, and returns the names of the dropped label columns.
func ApplicableLabels(t *responses.Table, labels schema.LabelTable) (schema.LabelTable, []string) {
	kept := make(schema.LabelTable, len(labels))
	var dropped []string
	for _, name := range labels.Columns() {
		col, ok := t.Column(name)
		if !ok || col.Type == responses.ColumnDatetime {
			dropped = append(dropped, name)
			continue
		}
		kept[name] = labels[name]
	}
	return kept, dropped
}

// ReplaceFile calls write with a temporary path next to path and renames it
// into place on success, so a failed export never leaves partial output.
func ReplaceFile(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
