package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"songd/internal/domain"
)

type statusResponse struct {
	JobID        string    `json:"job_id,omitempty"`
	Status       string    `json:"status"`
	Prompt       string    `json:"prompt,omitempty"`
	Lyrics       string    `json:"lyrics,omitempty"`
	MusicURL     string    `json:"music_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	CompletedAt  time.Time `json:"completed_at,omitzero"`
}

// Status returns the job record verbatim. Unknown and expired IDs share the
// not_found status inside a 200 envelope; polling never mutates state.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "job_id required")
		return
	}

	job, err := a.Jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, statusResponse{Status: string(domain.JobStatusNotFound)})
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status lookup failed")
		a.error(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	a.json(w, http.StatusOK, statusResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		Prompt:       job.Prompt,
		Lyrics:       job.Lyrics,
		MusicURL:     job.MusicURL,
		ThumbnailURL: job.ThumbnailURL,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	})
}
