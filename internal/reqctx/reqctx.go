package reqctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type key int

const runKey key = 0

// RunContext identifies one crawl run in logs and summaries.
type RunContext struct {
	RunID     string
	StartTime time.Time
}

// WithRunContext attaches a fresh RunContext to ctx.
func WithRunContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	})
}

// GetRunContext returns the RunContext stored in ctx, or a placeholder.
func GetRunContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// Elapsed returns the time since the run started.
func (rc *RunContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}
