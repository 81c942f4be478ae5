package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"songd/internal/domain"
	"songd/internal/providers/lyrics"
	"songd/internal/providers/music"
	"songd/internal/store"
)

type stubLyrics struct {
	calls atomic.Int32
	fn    func(ctx context.Context, req lyrics.Request) (string, error)
}

func (s *stubLyrics) Generate(ctx context.Context, req lyrics.Request) (string, error) {
	s.calls.Add(1)
	return s.fn(ctx, req)
}

type stubMusic struct {
	calls atomic.Int32
	fn    func(ctx context.Context, req music.Request) (*music.Song, error)
}

func (s *stubMusic) Generate(ctx context.Context, req music.Request) (*music.Song, error) {
	s.calls.Add(1)
	return s.fn(ctx, req)
}

type countingLedger struct {
	admits   atomic.Int32
	releases atomic.Int32
}

func (l *countingLedger) Admit(context.Context, string, time.Time) error {
	l.admits.Add(1)
	return nil
}

func (l *countingLedger) Release(context.Context, string) error {
	l.releases.Add(1)
	return nil
}

func okLyrics() *stubLyrics {
	return &stubLyrics{fn: func(context.Context, lyrics.Request) (string, error) {
		return "rain falls down", nil
	}}
}

func okMusic() *stubMusic {
	return &stubMusic{fn: func(context.Context, music.Request) (*music.Song, error) {
		return &music.Song{MusicURL: "https://cdn.example.com/song.mp3", ThumbnailURL: "https://cdn.example.com/t.jpg"}, nil
	}}
}

func waitForTerminal(t *testing.T, jobs domain.JobStore, jobID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if job.Status != domain.JobStatusProcessing {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return nil
}

func waitForReleases(t *testing.T, ledger *countingLedger, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ledger.releases.Load() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("releases = %d, want %d", ledger.releases.Load(), want)
}

func TestDispatchSuccess(t *testing.T) {
	jobs := store.NewMemoryJobStore(0)
	ledger := &countingLedger{}
	lyricsGen := okLyrics()
	musicGen := okMusic()
	stats := NewStats()
	d := NewDispatcher(jobs, ledger, lyricsGen, musicGen, stats, zerolog.Nop())

	jobID, err := d.Dispatch(context.Background(), "a sad song about rain", "1.2.3.4")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if jobID == "" {
		t.Fatalf("empty job id")
	}

	// The record exists in processing state before the pipeline finishes
	// or immediately after; either way the insert happened synchronously.
	if _, err := jobs.Get(context.Background(), jobID); err != nil {
		t.Fatalf("job not inserted synchronously: %v", err)
	}

	job := waitForTerminal(t, jobs, jobID)
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, want completed", job.Status)
	}
	if job.Lyrics != "rain falls down" {
		t.Fatalf("lyrics = %q", job.Lyrics)
	}
	if job.MusicURL != "https://cdn.example.com/song.mp3" {
		t.Fatalf("music url = %q", job.MusicURL)
	}
	if job.ThumbnailURL == "" {
		t.Fatalf("thumbnail url not recorded")
	}

	waitForReleases(t, ledger, 1)
	if got := stats.Snapshot().TotalSucceeded; got != 1 {
		t.Fatalf("succeeded = %d, want 1", got)
	}
}

func TestDispatchLyricsFailure(t *testing.T) {
	jobs := store.NewMemoryJobStore(0)
	ledger := &countingLedger{}
	lyricsGen := &stubLyrics{fn: func(context.Context, lyrics.Request) (string, error) {
		return "", errors.New("no lyrics in response")
	}}
	musicGen := okMusic()
	stats := NewStats()
	d := NewDispatcher(jobs, ledger, lyricsGen, musicGen, stats, zerolog.Nop())

	jobID, err := d.Dispatch(context.Background(), "prompt", "1.2.3.4")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	job := waitForTerminal(t, jobs, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.Lyrics != "" || job.MusicURL != "" {
		t.Fatalf("failed job must not carry partial results: %+v", job)
	}
	if musicGen.calls.Load() != 0 {
		t.Fatalf("music stage ran after lyrics failure")
	}

	waitForReleases(t, ledger, 1)
	if got := stats.Snapshot().TotalSucceeded; got != 0 {
		t.Fatalf("succeeded = %d, want 0", got)
	}
}

func TestDispatchMusicFailure(t *testing.T) {
	jobs := store.NewMemoryJobStore(0)
	ledger := &countingLedger{}
	musicGen := &stubMusic{fn: func(context.Context, music.Request) (*music.Song, error) {
		return nil, errors.New("render timeout")
	}}
	d := NewDispatcher(jobs, ledger, okLyrics(), musicGen, NewStats(), zerolog.Nop())

	jobID, err := d.Dispatch(context.Background(), "prompt", "1.2.3.4")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	job := waitForTerminal(t, jobs, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.Lyrics != "" {
		t.Fatalf("lyrics from a failed run must be discarded, got %q", job.Lyrics)
	}
	waitForReleases(t, ledger, 1)
}

func TestDispatchReleasesSlotOnPanic(t *testing.T) {
	jobs := store.NewMemoryJobStore(0)
	ledger := &countingLedger{}
	lyricsGen := &stubLyrics{fn: func(context.Context, lyrics.Request) (string, error) {
		panic("boom")
	}}
	d := NewDispatcher(jobs, ledger, lyricsGen, okMusic(), NewStats(), zerolog.Nop())

	jobID, err := d.Dispatch(context.Background(), "prompt", "1.2.3.4")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	job := waitForTerminal(t, jobs, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	waitForReleases(t, ledger, 1)
}

func TestDispatchPassesClientIPToLyrics(t *testing.T) {
	jobs := store.NewMemoryJobStore(0)
	ledger := &countingLedger{}
	var gotIP atomic.Value
	lyricsGen := &stubLyrics{fn: func(_ context.Context, req lyrics.Request) (string, error) {
		gotIP.Store(req.ClientIP)
		return "la", nil
	}}
	var gotTitle atomic.Value
	musicGen := &stubMusic{fn: func(_ context.Context, req music.Request) (*music.Song, error) {
		gotTitle.Store(req.Title)
		return &music.Song{MusicURL: "https://cdn.example.com/s.mp3"}, nil
	}}
	d := NewDispatcher(jobs, ledger, lyricsGen, musicGen, NewStats(), zerolog.Nop())

	jobID, err := d.Dispatch(context.Background(), "a sad song about rain", "203.0.113.1")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	waitForTerminal(t, jobs, jobID)

	if ip, _ := gotIP.Load().(string); ip != "203.0.113.1" {
		t.Fatalf("lyrics client ip = %q", ip)
	}
	if title, _ := gotTitle.Load().(string); title != "A Sad Song About Rain" {
		t.Fatalf("music title = %q", title)
	}
}

func TestSongTitle(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{prompt: "a sad song about rain", want: "A Sad Song About Rain"},
		{prompt: "", want: ""},
		{prompt: "one two three four five six seven eight nine ten", want: "One Two Three Four Five Six Seven Eight"},
	}
	for _, tc := range tests {
		if got := songTitle(tc.prompt); got != tc.want {
			t.Fatalf("songTitle(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}
