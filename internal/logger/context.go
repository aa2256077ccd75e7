package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	RequestID  string    // Caller-chosen request identifier
	Procedure  string    // Operation name (WRITE, READ)
	ClientAddr string    // Client address from the transport
	StartTime  time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a request
func NewLogContext(requestID, procedure string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		Procedure: procedure,
		StartTime: time.Now(),
	}
}

// WithClientAddr returns a copy with the client address set
func (lc *LogContext) WithClientAddr(addr string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ClientAddr = addr
	}
	return clone
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		RequestID:  lc.RequestID,
		Procedure:  lc.Procedure,
		ClientAddr: lc.ClientAddr,
		StartTime:  lc.StartTime,
	}
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
