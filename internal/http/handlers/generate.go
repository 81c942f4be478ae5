package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"songd/internal/domain"
	"songd/internal/middleware"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

// Generate admits a generation request and dispatches the pipeline. The API
// key middleware has already handled credential presence, match and expiry;
// the remaining checks run here in order: prompt, concurrency cap, daily cap.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	a.Stats.RequestReceived()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "prompt is required")
		return
	}

	clientID := middleware.ClientIP(r)
	if err := a.Ledger.Admit(r.Context(), clientID, time.Now()); err != nil {
		switch {
		case errors.Is(err, domain.ErrConcurrencyLimit):
			a.error(w, http.StatusTooManyRequests, "too many concurrent requests")
		case errors.Is(err, domain.ErrDailyLimit):
			a.error(w, http.StatusTooManyRequests, "daily request limit reached")
		default:
			a.Logger.Error().Err(err).Str("client", clientID).Msg("quota admit failed")
			a.error(w, http.StatusInternalServerError, "failed to admit request")
		}
		return
	}

	// From here the dispatcher owns the quota slot.
	jobID, err := a.Dispatcher.Dispatch(r.Context(), prompt, clientID)
	if err != nil {
		a.Logger.Error().Err(err).Str("client", clientID).Msg("dispatch failed")
		a.error(w, http.StatusInternalServerError, "failed to queue job")
		return
	}

	a.json(w, http.StatusAccepted, generateResponse{
		Success: true,
		JobID:   jobID,
		Status:  string(domain.JobStatusProcessing),
	})
}
