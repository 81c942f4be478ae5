package domain

import (
	"context"
	"time"
)

// JobStore defines persistence for job records keyed by job ID.
type JobStore interface {
	Insert(ctx context.Context, job *Job) error
	Complete(ctx context.Context, jobID, lyrics, musicURL, thumbnailURL string) error
	Fail(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (*Job, error)
}

// Limits configures per-client admission caps.
type Limits struct {
	MaxConcurrent int
	DailyLimit    int
	DailyWindow   time.Duration
}

// QuotaLedger enforces per-client concurrency and daily caps. Admit performs
// an atomic check-and-increment of both counters so two simultaneous requests
// from the same client cannot slip past a cap together. Release decrements
// the in-flight count, floored at zero.
type QuotaLedger interface {
	Admit(ctx context.Context, clientID string, now time.Time) error
	Release(ctx context.Context, clientID string) error
}
