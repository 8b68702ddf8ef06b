package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
)

const healthPingTimeout = 2 * time.Second

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Journal backend is running"))
}

// Health handles GET /health by pinging the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.FromContext(r.Context()).WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
