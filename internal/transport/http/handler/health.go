package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StatusEnvelope is the body of the status health action.
type StatusEnvelope struct {
	Message       string `json:"message"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	StreamClients int    `json:"streamClients"`
	WorkersBusy   int    `json:"workersBusy"`
	WorkersCap    int    `json:"workersCap"`
}

// WorkerStats exposes delivery pool occupancy.
type WorkerStats interface {
	Running() int
	Cap() int
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	started time.Time
	clients func() int
	workers WorkerStats
}

// NewHealthHandler reports streamClients and worker occupancy for the
// non-nil sources.
func NewHealthHandler(clients func() int, workers WorkerStats) *HealthHandler {
	return &HealthHandler{started: time.Now(), clients: clients, workers: workers}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "status":
		env := StatusEnvelope{Message: "ok", UptimeSeconds: int64(time.Since(h.started).Seconds())}
		if h.clients != nil {
			env.StreamClients = h.clients()
		}
		if h.workers != nil {
			env.WorkersBusy = h.workers.Running()
			env.WorkersCap = h.workers.Cap()
		}
		writeJSON(w, http.StatusOK, env)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
