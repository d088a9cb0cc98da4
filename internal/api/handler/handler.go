// Package handler provides HTTP handlers for the status API. Handlers only
// read the snapshot published by the poll loop; they never touch the dataset
// or the notified set directly.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/halftime-watch/internal/api/respond"
	"github.com/albapepper/halftime-watch/internal/cache"
	"github.com/albapepper/halftime-watch/internal/fixture"
)

const statusCacheKey = "status"

// StatusSource publishes the poll loop snapshot.
type StatusSource interface {
	Status() fixture.Status
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	status  StatusSource
	cache   *cache.Cache
	logger  *slog.Logger
	started time.Time
	version string
}

// New creates a Handler.
func New(status StatusSource, c *cache.Cache, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{status: status, cache: c, logger: logger, started: time.Now(), version: version}
}

// Root serves service info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "halftime-watch",
		"version": h.version,
		"status":  "running",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache reports cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.cache.Stats())
}

// GetStatus serves the latest loop snapshot, cached briefly with an ETag.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if data, etag, ok := h.cache.Get(statusCacheKey); ok {
		if cache.MatchETag(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLStatus, true)
		return
	}

	data, err := json.Marshal(h.status.Status())
	if err != nil {
		h.logger.Error("Encode status failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode status")
		return
	}
	etag := h.cache.Set(statusCacheKey, data, cache.TTLStatus)
	if cache.MatchETag(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLStatus, false)
}

// GetNotified lists fixtures notified since startup.
func (h *Handler) GetNotified(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"count":    len(st.Notified),
		"fixtures": st.Notified,
	})
}

// GetLastCycle returns the most recent poll cycle result.
func (h *Handler) GetLastCycle(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()
	if st.LastCycle == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No poll cycle has run yet")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, st.LastCycle)
}
