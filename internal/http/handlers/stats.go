package handlers

import (
	"net/http"
	"time"
)

// GetStats reports process-lifetime counters. They reset on restart.
func (a *App) GetStats(w http.ResponseWriter, r *http.Request) {
	snap := a.Stats.Snapshot()
	a.json(w, http.StatusOK, map[string]any{
		"total_requests":  snap.TotalRequests,
		"total_completed": snap.TotalSucceeded,
		"in_flight_jobs":  snap.InFlight,
		"started_at":      snap.StartedAt.UTC().Format(time.RFC3339),
		"uptime_seconds":  int64(snap.Uptime.Seconds()),
	})
}
