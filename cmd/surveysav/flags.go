package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/config"
	"github.com/jackzampolin/surveysav/internal/dataset"
	"github.com/jackzampolin/surveysav/internal/pipeline"
)

// datasetFlags override the dataset.* and conversion settings from config.
type datasetFlags struct {
	dir         string
	schema      string
	data        string
	out         string
	format      string
	fileLabel   string
	keepUnknown bool
	duplicates  string
}

func (f *datasetFlags) register(cmd *cobra.Command, conversion bool) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "dataset directory (default from config: Testdata2024)")
	cmd.Flags().StringVar(&f.schema, "schema", "", "schema document, relative to --dir unless absolute")
	if !conversion {
		return
	}
	cmd.Flags().StringVar(&f.data, "data", "", "response document, relative to --dir unless absolute")
	cmd.Flags().StringVar(&f.out, "out", "", "output file, relative to --dir unless absolute")
	cmd.Flags().StringVar(&f.format, "format", "", "export format: sav or sqlite (default: by output extension)")
	cmd.Flags().StringVar(&f.fileLabel, "file-label", "", "file label written to the output")
	cmd.Flags().BoolVar(&f.keepUnknown, "keep-unknown", false, "keep response columns the schema does not declare")
	cmd.Flags().StringVar(&f.duplicates, "duplicates", "", "duplicate option code policy: warn or reject")
}

// dataset resolves the dataset directory from config and flags.
func (f *datasetFlags) dataset(cfg *config.Config) *dataset.Dir {
	dir := cfg.Dataset.Dir
	if f.dir != "" {
		dir = f.dir
	}
	files := dataset.Files{
		Schema: firstNonEmpty(f.schema, cfg.Dataset.SchemaFile),
		Data:   firstNonEmpty(f.data, cfg.Dataset.DataFile),
		Output: firstNonEmpty(f.out, cfg.Dataset.OutputFile),
	}
	return dataset.New(dir, files)
}

// request builds a pipeline request from config and flags.
func (f *datasetFlags) request(cmd *cobra.Command, cfg *config.Config) (pipeline.Request, *dataset.Dir, error) {
	ds := f.dataset(cfg)

	duplicates := firstNonEmpty(f.duplicates, cfg.Labels.Duplicates)
	if duplicates != pipeline.DuplicatesWarn && duplicates != pipeline.DuplicatesReject {
		return pipeline.Request{}, nil, fmt.Errorf("--duplicates must be warn or reject, got %q", duplicates)
	}

	keepUnknown := cfg.Coerce.KeepUnknown
	if cmd.Flags().Changed("keep-unknown") {
		keepUnknown = f.keepUnknown
	}

	return pipeline.Request{
		SchemaPath:  ds.SchemaPath(),
		DataPath:    ds.DataPath(),
		OutputPath:  ds.OutputPath(),
		Format:      firstNonEmpty(f.format, cfg.Export.Format),
		FileLabel:   firstNonEmpty(f.fileLabel, cfg.FileLabel()),
		SQLiteTable: cfg.Export.SQLiteTable,
		KeepUnknown: keepUnknown,
		Duplicates:  duplicates,
		ValueCounts: cfg.Report.ValueCounts,
		Logger:      logger,
	}, ds, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
