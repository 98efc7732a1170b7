package deps

import (
	"os"
	"path/filepath"
	"testing"

	"tonearm/internal/tools"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: "present"},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(tools.SearchDirs{binDir}, reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Path)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0] != "Missing" {
		t.Fatalf("MissingRequired = %v, want [Missing]", missing)
	}
}

func TestCheckBinariesUsesOverrides(t *testing.T) {
	resolver := tools.Overrides{tools.FDKAAC: "/opt/fdkaac"}
	results := CheckBinaries(resolver, CodecRequirements())
	if len(results) != len(tools.Known) {
		t.Fatalf("expected %d codec results, got %d", len(tools.Known), len(results))
	}
	for _, status := range results {
		want := status.Command == tools.FDKAAC
		if status.Available != want {
			t.Fatalf("%s available = %v, want %v", status.Name, status.Available, want)
		}
		if !status.Optional {
			t.Fatalf("%s should be optional", status.Name)
		}
	}
}
