package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/config"
	"github.com/jackzampolin/surveysav/internal/output"
	"github.com/jackzampolin/surveysav/internal/pipeline"
)

var (
	watchFlags    datasetFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert again whenever the schema or response document changes",
	Long: `Run a conversion, then watch the schema and response documents and
convert again after they change. Edits to the config file restart the watch
with the new settings. Failed runs are logged and the watch continues.

Press Ctrl+C to stop.

Examples:
  surveysav watch
  surveysav watch --dir Testdata2025 --debounce 2s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reload := make(chan struct{}, 1)
		cfgManager.OnChange(func(*config.Config) {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
		cfgManager.WatchConfig()

		for {
			req, ds, err := watchFlags.request(cmd, cfgManager.Get())
			if err != nil {
				return err
			}
			if !ds.Exists() {
				return fmt.Errorf("dataset directory %s does not exist", ds.Path())
			}
			if err := ds.EnsureOutputDir(); err != nil {
				return err
			}

			w := pipeline.NewWatcher([]string{req.SchemaPath, req.DataPath}, watchDebounce, func(ctx context.Context) {
				res, err := pipeline.Run(ctx, req)
				if err != nil {
					logger.Error("conversion failed", "error", err)
					return
				}
				if err := output.Print(res); err != nil {
					logger.Error("failed to print result", "error", err)
				}
			}, logger)

			wctx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- w.Start(wctx) }()

			select {
			case <-ctx.Done():
				cancel()
				return <-done
			case <-reload:
				logger.Info("config changed, restarting watch")
				cancel()
				if err := <-done; err != nil {
					return err
				}
			case err := <-done:
				cancel()
				return err
			}
		}
	},
}

func init() {
	watchFlags.register(watchCmd, true)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", pipeline.DefaultDebounce, "wait for writes to settle before converting")
}
