package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tonearm/internal/history"
	"tonearm/internal/services"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleJob(id string, started time.Time) history.Job {
	return history.Job{
		ID:          id,
		Source:      "/music/in.m4a",
		Output:      "/music/out.mp4",
		Codec:       "fdkaac",
		Step:        "encode",
		State:       "done",
		Outcome:     "success",
		ExitCode:    0,
		OutputBytes: 4096,
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
	}
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	job := sampleJob("7f1c9e7a-0000-4000-8000-000000000001", started)
	if err := store.Record(ctx, job, []string{"Encoding", "Exited with code: 0x0000"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Source != job.Source || got.Output != job.Output || got.Codec != "fdkaac" {
		t.Fatalf("unexpected job: %+v", got)
	}
	if !got.StartedAt.Equal(started) || got.Duration() != 3*time.Second {
		t.Fatalf("unexpected timing: started=%s duration=%s", got.StartedAt, got.Duration())
	}
	if got.OutputBytes != 4096 {
		t.Fatalf("unexpected size: %d", got.OutputBytes)
	}

	byPrefix, err := store.Get(ctx, "7f1c9e7a")
	if err != nil {
		t.Fatalf("Get by prefix: %v", err)
	}
	if byPrefix.ID != job.ID {
		t.Fatalf("prefix lookup returned %q", byPrefix.ID)
	}

	lines, err := store.Messages(ctx, job.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(lines) != 2 || lines[0] != "Encoding" || lines[1] != "Exited with code: 0x0000" {
		t.Fatalf("unexpected messages: %v", lines)
	}
}

func TestGetMissingAndAmbiguous(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	for _, id := range []string{"abc-1", "abc-2"} {
		if err := store.Record(ctx, sampleJob(id, now), nil); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}
	if _, err := store.Get(ctx, "abc"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ambiguous prefix error, got %v", err)
	}
	if got, err := store.Get(ctx, "abc-2"); err != nil || got.ID != "abc-2" {
		t.Fatalf("exact id lookup failed: %v %+v", err, got)
	}
}

func TestRecordRejectsDuplicatesAndEmptyID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	job := sampleJob("dup", time.Now())

	if err := store.Record(ctx, job, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, job, nil); err == nil {
		t.Fatal("expected duplicate id error")
	}
	job.ID = " "
	if err := store.Record(ctx, job, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		if err := store.Record(ctx, sampleJob(id, base.Add(time.Duration(i)*time.Hour)), nil); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	jobs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "third" || jobs[1].ID != "second" {
		t.Fatalf("unexpected order: %v", ids(jobs))
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}
}

func TestPruneRemovesOldJobsAndMessages(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	if err := store.Record(ctx, sampleJob("old", old), []string{"line"}); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if err := store.Record(ctx, sampleJob("new", recent), []string{"line"}); err != nil {
		t.Fatalf("Record new: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected old job gone, got %v", err)
	}
	lines, err := store.Messages(ctx, "old")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected cascade delete of messages, got %v", lines)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(context.Background(), sampleJob("persist", time.Now()), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "persist"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func ids(jobs []*history.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}
