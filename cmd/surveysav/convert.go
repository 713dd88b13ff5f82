package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/output"
	"github.com/jackzampolin/surveysav/internal/pipeline"
)

var convertFlags datasetFlags

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the dataset into a labeled output file",
	Long: `Convert the survey dataset into a typed, labeled output file and print
a run report.

The schema document must exist. Response values that cannot be coerced to
their column type become missing values and are counted per column in the
report. Document-level errors abort the run and leave any existing output
untouched.

Examples:
  surveysav convert                                # ./Testdata2024 defaults
  surveysav convert --dir Testdata2025             # another dataset directory
  surveysav convert --out responses.sqlite         # export to SQLite
  surveysav convert --keep-unknown -o json         # keep undeclared columns`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, _, err := convertFlags.request(cmd, cfgManager.Get())
		if err != nil {
			return err
		}

		res, err := pipeline.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		return output.Print(res)
	},
}

func init() {
	convertFlags.register(convertCmd, true)
}
