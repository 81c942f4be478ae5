package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"songd/internal/domain"
	"songd/internal/pipeline"
)

// App is the handler container with all request-path dependencies injected.
type App struct {
	Logger     zerolog.Logger
	Jobs       domain.JobStore
	Ledger     domain.QuotaLedger
	Dispatcher *pipeline.Dispatcher
	Stats      *pipeline.Stats
}

// NewApp wires the handler container.
func NewApp(jobs domain.JobStore, ledger domain.QuotaLedger, dispatcher *pipeline.Dispatcher, stats *pipeline.Stats, logger zerolog.Logger) *App {
	return &App{
		Logger:     logger,
		Jobs:       jobs,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Stats:      stats,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]any{"success": false, "error": msg})
}
