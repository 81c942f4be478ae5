package pipeline

import (
	"sync/atomic"
	"time"
)

// Stats tracks process-lifetime counters. Everything resets on restart.
type Stats struct {
	startedAt time.Time
	requests  atomic.Int64
	succeeded atomic.Int64
	inFlight  atomic.Int64
}

// NewStats creates a stats tracker anchored at the current time.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// RequestReceived counts one generate request, admitted or not.
func (s *Stats) RequestReceived() { s.requests.Add(1) }

func (s *Stats) jobStarted()  { s.inFlight.Add(1) }
func (s *Stats) jobFinished() { s.inFlight.Add(-1) }
func (s *Stats) jobSucceeded() {
	s.succeeded.Add(1)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	TotalRequests  int64
	TotalSucceeded int64
	InFlight       int64
	StartedAt      time.Time
	Uptime         time.Duration
}

// Snapshot reads all counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests:  s.requests.Load(),
		TotalSucceeded: s.succeeded.Load(),
		InFlight:       s.inFlight.Load(),
		StartedAt:      s.startedAt,
		Uptime:         time.Since(s.startedAt),
	}
}
