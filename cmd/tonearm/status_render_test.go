package main

import (
	"fmt"
	"strings"
	"testing"

	"tonearm/internal/pipeline"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("song.wav", statusError, "failed", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "song.wav:", "[ERROR] failed")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("song.wav", statusOK, "done", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestJobStatusKind(t *testing.T) {
	cases := map[pipeline.State]statusKind{
		pipeline.Done:        statusOK,
		pipeline.Skipped:     statusInfo,
		pipeline.Aborted:     statusWarn,
		pipeline.Unsupported: statusWarn,
		pipeline.Failed:      statusError,
	}
	for state, want := range cases {
		if got := jobStatusKind(state); got != want {
			t.Fatalf("jobStatusKind(%s) = %d, want %d", state, got, want)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("short", 10); got != "short" {
		t.Fatalf("truncateMiddle short = %q", got)
	}
	got := truncateMiddle("/very/long/path/to/file.wav", 11)
	if len([]rune(got)) != 11 || !strings.Contains(got, "…") {
		t.Fatalf("truncateMiddle = %q", got)
	}
	if !strings.HasSuffix(got, ".wav") {
		t.Fatalf("expected file suffix preserved, got %q", got)
	}
}

func TestConsoleSinkPlainOutput(t *testing.T) {
	var buf strings.Builder
	sink := newConsoleSink(&buf, "song.wav", false)
	sink.StepStarted(pipeline.StepEncode)
	for _, p := range []int{1, 10, 30, 40, 60, 100} {
		sink.StatusUpdated(p)
	}
	sink.MessageLogged("hidden")
	sink.finish()

	out := buf.String()
	for _, want := range []string{"song.wav [encode] 30%", "song.wav [encode] 60%", "song.wav [encode] 100%"} {
		requireContains(t, out, want)
	}
	if strings.Contains(out, "10%") || strings.Contains(out, "hidden") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
