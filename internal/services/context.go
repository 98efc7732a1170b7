package services

import "context"

type contextKey string

const (
	jobIDKey contextKey = "job_id"
	codecKey contextKey = "codec"
	stageKey contextKey = "stage"
)

// WithJobID annotates context with the conversion job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the conversion job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCodec annotates context with the codec adapter name.
func WithCodec(ctx context.Context, codec string) context.Context {
	if codec == "" {
		return ctx
	}
	return context.WithValue(ctx, codecKey, codec)
}

// CodecFromContext returns the codec adapter name if present.
func CodecFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(codecKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline step (decode, encode).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the pipeline step if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
