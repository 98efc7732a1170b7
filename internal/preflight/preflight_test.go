package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tonearm/internal/testsupport"
	"tonearm/internal/tools"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSupportFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	result := CheckSupportFiles(cfg)
	if !result.Passed {
		t.Fatalf("missing support dir should pass, got: %s", result.Detail)
	}

	testsupport.WriteFile(t, filepath.Join(cfg.SupportDir(), "libfoo.so"), 8)
	result = CheckSupportFiles(cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if want := "(1 files)"; !strings.Contains(result.Detail, want) {
		t.Fatalf("detail %q missing %q", result.Detail, want)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	statuses := CheckSystemDeps(tools.Overrides{tools.OpusEnc: "/opt/opusenc"})
	if len(statuses) != len(tools.Known) {
		t.Fatalf("expected %d statuses, got %d", len(tools.Known), len(statuses))
	}
	available := 0
	for _, s := range statuses {
		if s.Available {
			available++
		}
	}
	if available != 1 {
		t.Fatalf("expected exactly one available tool, got %d", available)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil results for nil config, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.LogDir = ""

	results := RunAll(cfg)
	if len(results) != 2 {
		t.Fatalf("expected temp dir and support checks, got %d: %+v", len(results), results)
	}
	if results[0].Name != "Temp directory" || !results[0].Passed {
		t.Fatalf("unexpected temp dir result: %+v", results[0])
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no failures, got %+v", failed)
	}
}

func TestRunAll_ReportsMissingOutputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOutputDir("out"))
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}

	failed := Failed(RunAll(cfg))
	if len(failed) != 1 || failed[0].Name != "Output directory" {
		t.Fatalf("expected only the output directory to fail, got %+v", failed)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if failed := Failed(RunAll(cfg)); len(failed) != 0 {
		t.Fatalf("expected no failures after EnsureDirectories, got %+v", failed)
	}
}
