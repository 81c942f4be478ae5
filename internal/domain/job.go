package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusNotFound   JobStatus = "not_found"
)

// Job tracks one lyrics+music generation request from admission through its
// terminal state. Records are owned exclusively by the JobStore; the pipeline
// only ever holds the job ID.
type Job struct {
	ID           string    `json:"job_id"`
	Status       JobStatus `json:"status"`
	Prompt       string    `json:"prompt"`
	Lyrics       string    `json:"lyrics,omitempty"`
	MusicURL     string    `json:"music_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	ClientIP     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	CompletedAt  time.Time `json:"completed_at,omitzero"`
}
