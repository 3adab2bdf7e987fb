package clock

import (
	"context"
	"time"
)

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := fromContext(ctx); ok {
		return t
	}
	return time.Now().UTC()
}

type ctxKey struct{}

// WithNow pins the clock for the duration of a request or test.
func WithNow(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKey{}, t.UTC())
}

func fromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(ctxKey{}).(time.Time)
	return t, ok
}
