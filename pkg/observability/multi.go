package observability

import (
	"context"
	"time"
)

// OperationRecorder is anything that records link operation outcomes
type OperationRecorder interface {
	RecordOperation(ctx context.Context, operation string, duration time.Duration, err error)
	RecordRejection(ctx context.Context, reason string)
}

// MultiMetrics fans every record out to several sinks
type MultiMetrics []OperationRecorder

func (m MultiMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	for _, r := range m {
		r.RecordOperation(ctx, operation, duration, err)
	}
}

func (m MultiMetrics) RecordRejection(ctx context.Context, reason string) {
	for _, r := range m {
		r.RecordRejection(ctx, reason)
	}
}
