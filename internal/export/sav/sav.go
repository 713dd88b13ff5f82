// Package sav exports response tables as SPSS system files (.sav).
//
// Files are written uncompressed in little-endian byte order with UTF-8
// text. Integer columns become F numerics, datetimes become DATETIME20
// numerics, and everything else becomes an A string up to 255 bytes wide.
// Missing numerics are written as system-missing and missing strings as
// blanks.
package sav

import (
	"context"
	"fmt"
	"os"

	"github.com/jackzampolin/surveysav/internal/export"
	"github.com/jackzampolin/surveysav/internal/responses"
	"github.com/jackzampolin/surveysav/internal/schema"
)

func init() {
	export.Register(&Exporter{})
}

// Exporter is the "sav" export format.
type Exporter struct{}

func (*Exporter) Format() string { return "sav" }

func (*Exporter) Extensions() []string { return []string{".sav"} }

// Export writes t to path, replacing any existing file only on success.
func (*Exporter) Export(ctx context.Context, path string, t *responses.Table, labels schema.LabelTable, opts export.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return export.ReplaceFile(path, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}

		if err := Write(f, t, labels, opts); err != nil {
			f.Close()
			return fmt.Errorf("failed to write sav: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
		return nil
	})
}
