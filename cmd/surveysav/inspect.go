package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/output"
	"github.com/jackzampolin/surveysav/internal/schema"
)

var inspectFlags datasetFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect what the schema document declares",
	Long: `Inspect the schema document without reading responses.

Examples:
  surveysav inspect schema            # variables and their column types
  surveysav inspect labels -o json    # value labels per singleChoice field`,
}

// variableInfo is one schema variable as printed by inspect schema.
type variableInfo struct {
	Name      string `json:"name" yaml:"name"`
	FieldType string `json:"field_type,omitempty" yaml:"field_type,omitempty"`
	Type      string `json:"type" yaml:"type"`
	Key       bool   `json:"key,omitempty" yaml:"key,omitempty"`
	Options   int    `json:"options,omitempty" yaml:"options,omitempty"`
}

type schemaInfo struct {
	Path      string         `json:"path" yaml:"path"`
	Variables []variableInfo `json:"variables" yaml:"variables"`
	Typed     int            `json:"typed_columns" yaml:"typed_columns"`
	Datetime  []string       `json:"datetime_columns" yaml:"datetime_columns"`
}

type labelsInfo struct {
	Path       string             `json:"path" yaml:"path"`
	Labels     schema.LabelTable  `json:"labels" yaml:"labels"`
	Duplicates []schema.Duplicate `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

var inspectSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List schema variables with their column types",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := inspectFlags.dataset(cfgManager.Get()).SchemaPath()
		sch, err := schema.Load(path)
		if err != nil {
			return err
		}

		info := schemaInfo{Path: path, Typed: len(sch.Plan.Types), Datetime: sch.Plan.Datetime}
		for _, f := range append(append([]schema.Field{}, sch.Keys...), sch.Fields...) {
			target, _ := sch.Plan.TypeOf(f.Name)
			info.Variables = append(info.Variables, variableInfo{
				Name:      f.Name,
				FieldType: f.FieldType,
				Type:      string(target),
				Key:       f.Key,
				Options:   len(f.Options),
			})
		}
		return output.Print(info)
	},
}

var inspectLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Show value labels built from singleChoice fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := inspectFlags.dataset(cfgManager.Get()).SchemaPath()
		sch, err := schema.Load(path)
		if err != nil {
			return err
		}

		labels, dups := schema.BuildLabels(sch.Fields)
		return output.Print(labelsInfo{Path: path, Labels: labels, Duplicates: dups})
	},
}

func init() {
	inspectFlags.register(inspectSchemaCmd, false)
	inspectFlags.register(inspectLabelsCmd, false)
	inspectCmd.AddCommand(inspectSchemaCmd)
	inspectCmd.AddCommand(inspectLabelsCmd)
}
