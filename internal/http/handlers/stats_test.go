package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"songd/internal/providers/lyrics"
	"songd/internal/providers/music"
)

func TestHealthAndStatsEndpoints(t *testing.T) {
	lyricsGen := &stubLyrics{fn: func(context.Context, lyrics.Request) (string, error) {
		return "la", nil
	}}
	musicGen := &stubMusic{fn: func(context.Context, music.Request) (*music.Song, error) {
		return &music.Song{MusicURL: "https://cdn.example.com/s.mp3"}, nil
	}}
	env := newTestEnv(t, testConfig(), defaultLimits(), lyricsGen, musicGen)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	recGen := env.generate(t, "secret", `{"prompt":"p"}`)
	jobID, _ := decodeGenerate(t, recGen)
	env.waitForStatus(t, jobID, "completed")

	// The success counter is bumped just after the terminal record lands,
	// so poll instead of asserting on the first read.
	deadline := time.Now().Add(2 * time.Second)
	for {
		req = httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec = httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("stats status = %d", rec.Code)
		}
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if body["total_requests"].(float64) != 1 {
			t.Fatalf("total_requests = %v, want 1", body["total_requests"])
		}
		if body["total_completed"].(float64) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("total_completed = %v, want 1", body["total_completed"])
		}
		time.Sleep(5 * time.Millisecond)
	}
}
