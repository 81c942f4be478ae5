package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songd/internal/domain"
	"songd/internal/providers/lyrics"
	"songd/internal/providers/music"
)

// Dispatcher admits validated prompts into the asynchronous two-stage
// generation pipeline and owns the job's quota slot from dispatch onward.
type Dispatcher struct {
	store  domain.JobStore
	ledger domain.QuotaLedger
	lyrics lyrics.Generator
	music  music.Generator
	stats  *Stats
	logger zerolog.Logger
}

// NewDispatcher wires the pipeline dependencies.
func NewDispatcher(store domain.JobStore, ledger domain.QuotaLedger, lyricsGen lyrics.Generator, musicGen music.Generator, stats *Stats, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		ledger: ledger,
		lyrics: lyricsGen,
		music:  musicGen,
		stats:  stats,
		logger: logger,
	}
}

// Dispatch creates a processing job record and schedules the pipeline to run
// in the background, returning the fresh job ID immediately. The caller must
// have admitted clientID through the quota ledger first; from here the
// dispatcher guarantees exactly one release of that slot, whether the insert
// fails, the pipeline finishes, or it panics.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt, clientID string) (string, error) {
	jobID := uuid.NewString()
	job := &domain.Job{
		ID:        jobID,
		Status:    domain.JobStatusProcessing,
		Prompt:    prompt,
		ClientIP:  clientID,
		CreatedAt: time.Now(),
	}
	if err := d.store.Insert(ctx, job); err != nil {
		d.release(clientID)
		return "", fmt.Errorf("insert job: %w", err)
	}

	go d.run(jobID, prompt, clientID)
	return jobID, nil
}

type result struct {
	Lyrics       string
	MusicURL     string
	ThumbnailURL string
}

// run executes both stages and writes the terminal record. Detached from the
// request context on purpose: an abandoned poll loop must not cancel the
// in-flight pipeline.
func (d *Dispatcher) run(jobID, prompt, clientID string) {
	ctx := context.Background()
	d.stats.jobStarted()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("job_id", jobID).Interface("panic", r).Msg("pipeline panicked")
			d.markFailed(ctx, jobID)
		}
		d.stats.jobFinished()
		d.release(clientID)
	}()

	res, err := d.generate(ctx, prompt, clientID)
	if err != nil {
		d.logger.Error().Err(err).Str("job_id", jobID).Str("client", clientID).Msg("pipeline failed")
		d.markFailed(ctx, jobID)
		return
	}

	if err := d.store.Complete(ctx, jobID, res.Lyrics, res.MusicURL, res.ThumbnailURL); err != nil {
		d.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to record completion")
		return
	}
	d.stats.jobSucceeded()
	d.logger.Info().Str("job_id", jobID).Msg("pipeline completed")
}

// generate runs the lyrics stage and feeds its output into the music stage.
// Partial results are discarded: any stage error fails the whole job.
func (d *Dispatcher) generate(ctx context.Context, prompt, clientIP string) (*result, error) {
	text, err := d.lyrics.Generate(ctx, lyrics.Request{Prompt: prompt, ClientIP: clientIP})
	if err != nil {
		return nil, fmt.Errorf("lyrics stage: %w: %w", domain.ErrProviderFailure, err)
	}

	song, err := d.music.Generate(ctx, music.Request{
		Prompt: prompt,
		Lyrics: text,
		Title:  songTitle(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("music stage: %w: %w", domain.ErrProviderFailure, err)
	}

	return &result{Lyrics: text, MusicURL: song.MusicURL, ThumbnailURL: song.ThumbnailURL}, nil
}

func (d *Dispatcher) markFailed(ctx context.Context, jobID string) {
	if err := d.store.Fail(ctx, jobID); err != nil {
		d.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to record failure")
	}
}

func (d *Dispatcher) release(clientID string) {
	if err := d.ledger.Release(context.Background(), clientID); err != nil {
		d.logger.Error().Err(err).Str("client", clientID).Msg("failed to release quota slot")
	}
}
