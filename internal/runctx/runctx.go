package runctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// RunContext identifies a single extraction run
type RunContext struct {
	RunID     string
	StartTime time.Time
}

// WithRunContext attaches a fresh RunContext to ctx and a logger carrying its
// run_id, so every log line of the run can be correlated.
func WithRunContext(ctx context.Context) context.Context {
	rc := &RunContext{
		RunID:     generateID(),
		StartTime: time.Now(),
	}
	ctx = context.WithValue(ctx, runKey, rc)

	logger := log.Logger.With().Str("run_id", rc.RunID).Logger()
	return logger.WithContext(ctx)
}

// GetRunContext returns the RunContext stored in ctx
func GetRunContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the run-scoped logger, or the global one outside a run
func Logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// Elapsed is the time since the run started
func Elapsed(ctx context.Context) time.Duration {
	return time.Since(GetRunContext(ctx).StartTime)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RunError wraps a fatal error with the run it aborted
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError from context
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{
		RunID: GetRunContext(ctx).RunID,
		Err:   err,
	}
}
