package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/config"
	"github.com/jackzampolin/surveysav/internal/logging"
	"github.com/jackzampolin/surveysav/internal/output"
	"github.com/jackzampolin/surveysav/version"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
	logFormat    string

	cfgManager *config.Manager
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "surveysav",
	Short: "Convert JSON survey responses into labeled SPSS files",
	Long: `surveysav converts a survey dataset described by a JSON schema document
into a typed, labeled SPSS system file (.sav).

The conversion:
  - Derives column types from the schema (numeric, text, singleChoice, datetime)
  - Builds value labels from singleChoice options
  - Coerces every response value, turning malformed values into missing values
  - Writes the table in schema order with its value labels

By default the dataset lives in ./Testdata2024 (responses_schema.json,
responses_data.json, output responses_data.sav).`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.surveysav/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat, "log-format", "", "log format: text or json (default from config)",
	)

	// Load config and set up output and logging before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		output.SetFormat(outputFormat)

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgManager = mgr

		cfg := mgr.Get()
		level, format := cfg.Log.Level, cfg.Log.Format
		if logLevel != "" {
			level = logLevel
		}
		if logFormat != "" {
			format = logFormat
		}
		logger, err = logging.New(os.Stderr, level, format)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		if f := mgr.File(); f != "" {
			logger.Debug("loaded config", "file", f)
		}
		return nil
	}

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
