package services_test

import (
	"context"
	"testing"

	"tonearm/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithCodec(ctx, "alac")
	ctx = services.WithStage(ctx, "decode")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("unexpected job id %q ok=%v", id, ok)
	}
	if codec, ok := services.CodecFromContext(ctx); !ok || codec != "alac" {
		t.Fatalf("unexpected codec %q ok=%v", codec, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "decode" {
		t.Fatalf("unexpected stage %q ok=%v", stage, ok)
	}
}

func TestContextIgnoresEmptyValues(t *testing.T) {
	base := context.Background()
	if services.WithJobID(base, "") != base {
		t.Fatal("empty job id should not wrap context")
	}
	if _, ok := services.StageFromContext(base); ok {
		t.Fatal("expected no stage on empty context")
	}
}
