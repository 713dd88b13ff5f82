package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/surveysav/internal/config"
	"github.com/jackzampolin/surveysav/internal/pipeline"
)

func parseFlags(t *testing.T, args ...string) (*cobra.Command, *datasetFlags) {
	t.Helper()
	var f datasetFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd, true)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return cmd, &f
}

func TestRequest_Defaults(t *testing.T) {
	cmd, f := parseFlags(t)

	req, ds, err := f.request(cmd, config.DefaultConfig())
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}

	if ds.Path() != "Testdata2024" {
		t.Errorf("expected Testdata2024, got %s", ds.Path())
	}
	if want := filepath.Join("Testdata2024", "responses_schema.json"); req.SchemaPath != want {
		t.Errorf("expected schema %s, got %s", want, req.SchemaPath)
	}
	if want := filepath.Join("Testdata2024", "responses_data.sav"); req.OutputPath != want {
		t.Errorf("expected output %s, got %s", want, req.OutputPath)
	}
	if req.Duplicates != pipeline.DuplicatesWarn {
		t.Errorf("expected warn, got %s", req.Duplicates)
	}
	if req.ValueCounts != "status" || req.SQLiteTable != "responses" {
		t.Errorf("unexpected report settings: %+v", req)
	}
	if req.KeepUnknown {
		t.Error("keep unknown should default to false")
	}
}

func TestRequest_FlagsOverrideConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Coerce.KeepUnknown = true
	cfg.Export.Format = "sav"

	cmd, f := parseFlags(t,
		"--dir", "/surveys/wave2",
		"--out", "/tmp/out.sqlite",
		"--format", "sqlite",
		"--keep-unknown=false",
		"--duplicates", "reject",
		"--file-label", "Wave 2",
	)

	req, _, err := f.request(cmd, cfg)
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}

	if req.SchemaPath != "/surveys/wave2/responses_schema.json" {
		t.Errorf("unexpected schema path %s", req.SchemaPath)
	}
	if req.OutputPath != "/tmp/out.sqlite" {
		t.Errorf("unexpected output path %s", req.OutputPath)
	}
	if req.Format != "sqlite" {
		t.Errorf("expected sqlite, got %s", req.Format)
	}
	if req.KeepUnknown {
		t.Error("--keep-unknown=false should override config")
	}
	if req.Duplicates != pipeline.DuplicatesReject {
		t.Errorf("expected reject, got %s", req.Duplicates)
	}
	if req.FileLabel != "Wave 2" {
		t.Errorf("expected Wave 2, got %s", req.FileLabel)
	}
}

func TestRequest_InvalidDuplicates(t *testing.T) {
	cmd, f := parseFlags(t, "--duplicates", "maybe")
	if _, _, err := f.request(cmd, config.DefaultConfig()); err == nil {
		t.Error("expected error for invalid --duplicates")
	}
}
