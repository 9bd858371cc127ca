package trace

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/qiniu/x/xlog"
)

// TraceID identifies one pipeline run in the logs
type TraceID string

const tracePrefix = "junie"

// generateTraceID generates a unique trace id
func generateTraceID() TraceID {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// fall back to a timestamp when the random source fails
		timestamp := time.Now().UnixNano()
		return TraceID(fmt.Sprintf("%s_%d", tracePrefix, timestamp))
	}

	return TraceID(fmt.Sprintf("%s_%x", tracePrefix, bytes))
}

// NewTraceID creates a trace id scoped to an event type
func NewTraceID(eventType string) TraceID {
	baseID := generateTraceID()
	return TraceID(fmt.Sprintf("%s_%s", eventType, baseID))
}

type contextKey string

const traceLoggerKey contextKey = "trace_logger"

// NewContext returns a context carrying a logger seeded with the trace id
func NewContext(ctx context.Context, traceID TraceID) context.Context {
	logger := xlog.New(string(traceID))
	return context.WithValue(ctx, traceLoggerKey, logger)
}

// FromContext returns the run logger stored in the context, or nil
func FromContext(ctx context.Context) *xlog.Logger {
	if logger, ok := ctx.Value(traceLoggerKey).(*xlog.Logger); ok {
		return logger
	}
	return nil
}

// GetTraceID extracts the trace id from the context
func GetTraceID(ctx context.Context) TraceID {
	logger := FromContext(ctx)
	if logger == nil {
		return ""
	}
	return TraceID(logger.ReqId)
}
