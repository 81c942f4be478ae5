package store

import (
	"context"
	"sync"
	"time"

	"songd/internal/domain"
)

// MemoryJobStore keeps job records in a mutex-guarded map. Expired records
// are evicted lazily on lookup; there is no background sweep.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryJobStore creates an in-memory job store. A zero ttl disables
// eviction and records live for the process lifetime.
func NewMemoryJobStore(ttl time.Duration) *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*domain.Job),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryJobStore) Insert(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryJobStore) Complete(_ context.Context, jobID, lyrics, musicURL, thumbnailURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = domain.JobStatusCompleted
	job.Lyrics = lyrics
	job.MusicURL = musicURL
	job.ThumbnailURL = thumbnailURL
	job.CompletedAt = s.now()
	return nil
}

func (s *MemoryJobStore) Fail(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = domain.JobStatusFailed
	job.CompletedAt = s.now()
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	var copied domain.Job
	if ok {
		copied = *job
	}
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.ttl > 0 && s.now().Sub(copied.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return &copied, nil
}

var _ domain.JobStore = (*MemoryJobStore)(nil)

type clientQuota struct {
	inFlight    int
	windowCount int
	windowStart time.Time
}

// MemoryLedger enforces per-client caps with a single mutex. The daily window
// resets lazily at admission time once its start is older than the window
// length; no timer sweeps the map.
type MemoryLedger struct {
	mu      sync.Mutex
	limits  domain.Limits
	clients map[string]*clientQuota
}

// NewMemoryLedger creates an in-memory quota ledger.
func NewMemoryLedger(limits domain.Limits) *MemoryLedger {
	return &MemoryLedger{
		limits:  limits,
		clients: make(map[string]*clientQuota),
	}
}

func (l *MemoryLedger) Admit(_ context.Context, clientID string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.clients[clientID]
	if !ok {
		q = &clientQuota{windowStart: now}
		l.clients[clientID] = q
	}
	if now.Sub(q.windowStart) > l.limits.DailyWindow {
		q.windowCount = 0
		q.windowStart = now
	}
	if q.inFlight >= l.limits.MaxConcurrent {
		return domain.ErrConcurrencyLimit
	}
	if q.windowCount >= l.limits.DailyLimit {
		return domain.ErrDailyLimit
	}
	q.inFlight++
	q.windowCount++
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if q, ok := l.clients[clientID]; ok && q.inFlight > 0 {
		q.inFlight--
	}
	return nil
}

// InFlight reports the current concurrent count for a client.
func (l *MemoryLedger) InFlight(clientID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if q, ok := l.clients[clientID]; ok {
		return q.inFlight
	}
	return 0
}

var _ domain.QuotaLedger = (*MemoryLedger)(nil)
