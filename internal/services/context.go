package services

import "context"

type contextKey int

const (
	ownerKey contextKey = iota
	clipIndexKey
	stageKey
	requestIDKey
)

// WithOwner annotates context with the caller identity resolved by the API.
func WithOwner(ctx context.Context, owner string) context.Context {
	return withString(ctx, ownerKey, owner)
}

// OwnerFromContext returns the caller identity if present.
func OwnerFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, ownerKey)
}

// WithClipIndex annotates context with the 1-based clip position being processed.
func WithClipIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, clipIndexKey, index)
}

// ClipIndexFromContext extracts the clip position if present.
func ClipIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(clipIndexKey).(int)
	return v, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithRequestID annotates context with the per-request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

// withString leaves ctx untouched for empty values so lookups report absent.
func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
