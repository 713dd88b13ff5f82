package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir := New("/tmp/survey", Files{})
		if dir.Path() != "/tmp/survey" {
			t.Errorf("expected path /tmp/survey, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir := New("", Files{})
		if dir.Path() != DefaultDirName {
			t.Errorf("expected path %s, got %s", DefaultDirName, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		dir := New("/tmp/survey", Files{})

		if got, want := dir.SchemaPath(), "/tmp/survey/responses_schema.json"; got != want {
			t.Errorf("SchemaPath: expected %s, got %s", want, got)
		}
		if got, want := dir.DataPath(), "/tmp/survey/responses_data.json"; got != want {
			t.Errorf("DataPath: expected %s, got %s", want, got)
		}
		if got, want := dir.OutputPath(), "/tmp/survey/responses_data.sav"; got != want {
			t.Errorf("OutputPath: expected %s, got %s", want, got)
		}
	})

	t.Run("custom and absolute names", func(t *testing.T) {
		dir := New("/tmp/survey", Files{
			Schema: "wave2/schema.json",
			Data:   "/data/responses.json",
			Output: "out/responses.sqlite",
		})

		if got, want := dir.SchemaPath(), "/tmp/survey/wave2/schema.json"; got != want {
			t.Errorf("SchemaPath: expected %s, got %s", want, got)
		}
		if got, want := dir.DataPath(), "/data/responses.json"; got != want {
			t.Errorf("DataPath: expected %s, got %s", want, got)
		}
		if got, want := dir.OutputPath(), "/tmp/survey/out/responses.sqlite"; got != want {
			t.Errorf("OutputPath: expected %s, got %s", want, got)
		}
	})
}

func TestDir_Exists(t *testing.T) {
	tmpDir := t.TempDir()
	dir := New(filepath.Join(tmpDir, "survey"), Files{Output: "out/responses_data.sav"})

	if dir.Exists() {
		t.Error("directory should not exist yet")
	}

	if err := dir.EnsureOutputDir(); err != nil {
		t.Fatalf("EnsureOutputDir failed: %v", err)
	}
	if !dir.Exists() {
		t.Error("directory should exist after EnsureOutputDir")
	}
	if _, err := os.Stat(filepath.Join(dir.Path(), "out")); err != nil {
		t.Errorf("output directory should exist: %v", err)
	}
}
