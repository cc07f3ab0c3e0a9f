package handlers

import (
	"net/http"
	"time"

	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/services"
)

// StatusHandler exposes process health and sync-layer state.
type StatusHandler struct {
	feed    *services.FeedService
	monitor *services.ConnectivityMonitor
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(feed *services.FeedService, monitor *services.ConnectivityMonitor) *StatusHandler {
	return &StatusHandler{feed: feed, monitor: monitor}
}

// HealthCheck returns the server health status
func (h *StatusHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Status reports store reachability and retry queue depth.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.StatusResponse{
		Online:        h.monitor.Online(),
		PendingWrites: h.feed.PendingWrites(),
	})
}

// ConnectivityRestored lets an external monitor force a retry flush without
// waiting for the next probe edge.
func (h *StatusHandler) ConnectivityRestored(w http.ResponseWriter, r *http.Request) {
	h.feed.OnConnectivityRestored(r.Context())
	respondJSON(w, http.StatusOK, models.StatusResponse{
		Online:        h.monitor.Online(),
		PendingWrites: h.feed.PendingWrites(),
	})
}
