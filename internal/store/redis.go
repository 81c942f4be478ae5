package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"songd/internal/domain"
)

const (
	jobKeyPrefix      = "job:"
	inFlightKeyPrefix = "quota:inflight:"
	dailyKeyPrefix    = "quota:daily:"

	// Safety TTL on the in-flight counter so a crashed process cannot
	// leak a client's concurrency slots forever.
	inFlightTTL = 15 * time.Minute
)

// RedisJobStore persists job records as JSON values with a native key TTL.
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisJobStore creates a Redis-backed job store. A zero ttl stores
// records without expiry.
func NewRedisJobStore(client *redis.Client, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{client: client, ttl: ttl}
}

func (s *RedisJobStore) Insert(ctx context.Context, job *domain.Job) error {
	return s.save(ctx, job)
}

func (s *RedisJobStore) Complete(ctx context.Context, jobID, lyrics, musicURL, thumbnailURL string) error {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = domain.JobStatusCompleted
	job.Lyrics = lyrics
	job.MusicURL = musicURL
	job.ThumbnailURL = thumbnailURL
	job.CompletedAt = time.Now()
	return s.save(ctx, job)
}

func (s *RedisJobStore) Fail(ctx context.Context, jobID string) error {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = domain.JobStatusFailed
	job.CompletedAt = time.Now()
	return s.save(ctx, job)
}

func (s *RedisJobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.load(ctx, jobID)
}

func (s *RedisJobStore) save(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKeyPrefix+job.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisJobStore) load(ctx context.Context, jobID string) (*domain.Job, error) {
	val, err := s.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	var job domain.Job
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

var _ domain.JobStore = (*RedisJobStore)(nil)

// admitScript checks both caps and increments both counters in one atomic
// step. The daily window is the TTL of the daily key: the first increment
// arms it, and expiry is the lazy reset.
var admitScript = redis.NewScript(`
local inflight = tonumber(redis.call('GET', KEYS[1]) or '0')
if inflight >= tonumber(ARGV[1]) then
  return 'concurrency'
end
local daily = tonumber(redis.call('GET', KEYS[2]) or '0')
if daily >= tonumber(ARGV[2]) then
  return 'daily'
end
redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[4])
if redis.call('INCR', KEYS[2]) == 1 then
  redis.call('EXPIRE', KEYS[2], ARGV[3])
end
return 'ok'
`)

// releaseScript decrements the in-flight counter and floors it at zero so a
// double release can never drive it negative.
var releaseScript = redis.NewScript(`
local v = redis.call('DECR', KEYS[1])
if v < 0 then
  redis.call('SET', KEYS[1], '0')
  v = 0
end
return v
`)

// RedisLedger enforces per-client caps with server-side Lua scripts so the
// check-and-increment stays atomic across processes.
type RedisLedger struct {
	client *redis.Client
	limits domain.Limits
}

// NewRedisLedger creates a Redis-backed quota ledger.
func NewRedisLedger(client *redis.Client, limits domain.Limits) *RedisLedger {
	return &RedisLedger{client: client, limits: limits}
}

func (l *RedisLedger) Admit(ctx context.Context, clientID string, _ time.Time) error {
	keys := []string{inFlightKeyPrefix + clientID, dailyKeyPrefix + clientID}
	res, err := admitScript.Run(ctx, l.client, keys,
		l.limits.MaxConcurrent,
		l.limits.DailyLimit,
		int(l.limits.DailyWindow.Seconds()),
		int(inFlightTTL.Seconds()),
	).Text()
	if err != nil {
		return fmt.Errorf("quota admit %s: %w", clientID, err)
	}
	switch res {
	case "ok":
		return nil
	case "concurrency":
		return domain.ErrConcurrencyLimit
	case "daily":
		return domain.ErrDailyLimit
	default:
		return fmt.Errorf("quota admit %s: unexpected result %q", clientID, res)
	}
}

func (l *RedisLedger) Release(ctx context.Context, clientID string) error {
	if err := releaseScript.Run(ctx, l.client, []string{inFlightKeyPrefix + clientID}).Err(); err != nil {
		return fmt.Errorf("quota release %s: %w", clientID, err)
	}
	return nil
}

var _ domain.QuotaLedger = (*RedisLedger)(nil)
