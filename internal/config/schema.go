package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds surveysav configuration.
// Read from: ./config.yaml or $HOME/.surveysav/config.yaml
type Config struct {
	Dataset DatasetCfg `mapstructure:"dataset" yaml:"dataset"`
	Export  ExportCfg  `mapstructure:"export" yaml:"export"`
	Coerce  CoerceCfg  `mapstructure:"coerce" yaml:"coerce"`
	Labels  LabelsCfg  `mapstructure:"labels" yaml:"labels"`
	Report  ReportCfg  `mapstructure:"report" yaml:"report"`
	Log     LogCfg     `mapstructure:"log" yaml:"log"`
}

// DatasetCfg locates the input documents and the output file.
// File names are relative to Dir unless absolute.
type DatasetCfg struct {
	Dir        string `mapstructure:"dir" yaml:"dir"`
	SchemaFile string `mapstructure:"schema_file" yaml:"schema_file"`
	DataFile   string `mapstructure:"data_file" yaml:"data_file"`
	OutputFile string `mapstructure:"output_file" yaml:"output_file"`
}

// ExportCfg configures the output format.
type ExportCfg struct {
	Format      string `mapstructure:"format" yaml:"format"`             // "sav", "sqlite", or "" to pick by extension
	FileLabel   string `mapstructure:"file_label" yaml:"file_label"`     // supports ${ENV_VAR} syntax
	SQLiteTable string `mapstructure:"sqlite_table" yaml:"sqlite_table"` // response table name
}

// CoerceCfg configures response coercion.
type CoerceCfg struct {
	KeepUnknown bool `mapstructure:"keep_unknown" yaml:"keep_unknown"`
}

// LabelsCfg configures value label building.
type LabelsCfg struct {
	// Duplicates is "warn" or "reject" for repeated option codes.
	Duplicates string `mapstructure:"duplicates" yaml:"duplicates"`
}

// ReportCfg configures the run report.
type ReportCfg struct {
	ValueCounts string `mapstructure:"value_counts" yaml:"value_counts"` // column to tabulate
}

// LogCfg configures logging.
type LogCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetCfg{
			Dir:        "Testdata2024",
			SchemaFile: "responses_schema.json",
			DataFile:   "responses_data.json",
			OutputFile: "responses_data.sav",
		},
		Export: ExportCfg{
			SQLiteTable: "responses",
		},
		Labels: LabelsCfg{
			Duplicates: "warn",
		},
		Report: ReportCfg{
			ValueCounts: "status",
		},
		Log: LogCfg{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Labels.Duplicates {
	case "warn", "reject":
	default:
		return fmt.Errorf("labels.duplicates must be warn or reject, got %q", c.Labels.Duplicates)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// FileLabel returns the export file label with ${ENV_VAR} references resolved.
func (c *Config) FileLabel() string {
	return ResolveEnvVars(c.Export.FileLabel)
}
