package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/config"
	"github.com/jackzampolin/surveysav/internal/output"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage surveysav configuration",
	Long: `Manage surveysav configuration.

Settings come from defaults, then config.yaml (./config.yaml or
~/.surveysav/config.yaml, or --config), then SURVEYSAV_* environment
variables, then command flags.

Examples:
  surveysav config init               # write ./config.yaml with defaults
  surveysav config show               # effective settings
  surveysav config get dataset.dir    # one setting`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Print(struct {
			File    string         `json:"file,omitempty" yaml:"file,omitempty"`
			Entries []config.Entry `json:"entries" yaml:"entries"`
		}{
			File:    cfgManager.File(),
			Entries: cfgManager.Entries(),
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := cfgManager.Value(args[0])
		if err != nil {
			return err
		}
		return output.Print(entry)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
}
