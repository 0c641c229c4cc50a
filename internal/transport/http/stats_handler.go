package http

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HubStats is the slice of the WebSocket hub the stats handler reads.
type HubStats interface {
	ClientCount() int
	GetHubMetrics() map[string]interface{}
}

// StatsHandler exposes a lightweight runtime and connection snapshot
// for the UI.
type StatsHandler struct {
	hub     HubStats
	started time.Time
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(hub HubStats, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &StatsHandler{
		hub:     hub,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "stats")),
	}
}

// Routes returns a chi router for stats endpoints.
func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Stats)
	return r
}

// Stats handles GET /api/stats.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response := map[string]interface{}{
		"uptime":     time.Since(h.started).String(),
		"goroutines": runtime.NumGoroutine(),
		"heap_alloc": mem.HeapAlloc,
		"heap_sys":   mem.HeapSys,
		"gc_cycles":  mem.NumGC,
		"go_version": runtime.Version(),
	}

	if h.hub != nil {
		response["websocket"] = h.hub.GetHubMetrics()
		response["websocket_clients"] = h.hub.ClientCount()
	}

	render.JSON(w, r, response)
}
