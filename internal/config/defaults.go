package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is a single configuration key with its value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every known config key with its default value.
// These are registered as viper defaults, so each key can also be set
// through the environment (SURVEYSAV_DATASET_DIR, ...).
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// Dataset
		{
			Key:         "dataset.dir",
			Value:       d.Dataset.Dir,
			Description: "Directory holding the input documents and the output file",
		},
		{
			Key:         "dataset.schema_file",
			Value:       d.Dataset.SchemaFile,
			Description: "Schema document, relative to dataset.dir unless absolute",
		},
		{
			Key:         "dataset.data_file",
			Value:       d.Dataset.DataFile,
			Description: "Response document, relative to dataset.dir unless absolute",
		},
		{
			Key:         "dataset.output_file",
			Value:       d.Dataset.OutputFile,
			Description: "Output file, relative to dataset.dir unless absolute",
		},

		// Export
		{
			Key:         "export.format",
			Value:       d.Export.Format,
			Description: "Export format (sav, sqlite); empty picks by output extension",
		},
		{
			Key:         "export.file_label",
			Value:       d.Export.FileLabel,
			Description: "File label written to the output (supports ${ENV_VAR})",
		},
		{
			Key:         "export.sqlite_table",
			Value:       d.Export.SQLiteTable,
			Description: "Response table name for the sqlite format",
		},

		// Coercion and labels
		{
			Key:         "coerce.keep_unknown",
			Value:       d.Coerce.KeepUnknown,
			Description: "Keep response columns the schema does not declare",
		},
		{
			Key:         "labels.duplicates",
			Value:       d.Labels.Duplicates,
			Description: "Duplicate option code policy: warn or reject",
		},

		// Report and logging
		{
			Key:         "report.value_counts",
			Value:       d.Report.ValueCounts,
			Description: "Column tabulated in the run report; empty disables",
		},
		{
			Key:         "log.level",
			Value:       d.Log.Level,
			Description: "Log level: debug, info, warn, error",
		},
		{
			Key:         "log.format",
			Value:       d.Log.Format,
			Description: "Log format: text or json",
		},
	}
}

// GetDefault returns the default entry for a key.
func GetDefault(key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	for _, e := range DefaultEntries() {
		if e.Key == key {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w for key: %s", ErrNoDefault, key)
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
