package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"inkwell/internal/usecase/notify"
)

// AnnounceHealthHandler provides health check endpoints for the announcement
// channels (Discord, Slack). It surfaces per-channel circuit breaker state so
// operators can see when a webhook endpoint has been taken out of rotation.
type AnnounceHealthHandler struct {
	service notify.Service
}

// NewAnnounceHealthHandler creates a new announcement health check handler.
func NewAnnounceHealthHandler(service notify.Service) *AnnounceHealthHandler {
	return &AnnounceHealthHandler{
		service: service,
	}
}

// AnnounceHealthResponse represents the response structure for announcement health endpoints.
type AnnounceHealthResponse struct {
	Status   string                  `json:"status"`
	Message  string                  `json:"message,omitempty"`
	Ready    *bool                   `json:"ready,omitempty"`
	Channels []AnnounceChannelHealth `json:"channels,omitempty"`
}

// AnnounceChannelHealth reports the state of a single announcement channel.
type AnnounceChannelHealth struct {
	Name               string `json:"name"`
	Enabled            bool   `json:"enabled"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
	DisabledUntil      string `json:"disabled_until,omitempty"`
}

// Health returns the health of the announcement channels.
// GET /health/announce
// Returns 200 when every enabled channel can deliver, 200 with status
// "degraded" when some channels are down, and 503 only when every enabled
// channel's circuit breaker is open.
func (h *AnnounceHealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.GetChannelHealth()

	w.Header().Set("Content-Type", "application/json")

	channels := make([]AnnounceChannelHealth, 0, len(statuses))
	enabled := 0
	open := 0

	for _, status := range statuses {
		ch := AnnounceChannelHealth{
			Name:               status.Name,
			Enabled:            status.Enabled,
			CircuitBreakerOpen: status.CircuitBreakerOpen,
		}
		if status.DisabledUntil != nil {
			ch.DisabledUntil = status.DisabledUntil.Format(time.RFC3339)
		}
		channels = append(channels, ch)

		if status.Enabled {
			enabled++
			if status.CircuitBreakerOpen {
				open++
			}
		}
	}

	response := AnnounceHealthResponse{Channels: channels}

	switch {
	case enabled == 0:
		// Announcements turned off is a valid deployment, not a failure
		response.Status = "disabled"
		response.Message = "no announcement channels enabled"
		w.WriteHeader(http.StatusOK)
	case open == 0:
		response.Status = "healthy"
		w.WriteHeader(http.StatusOK)
	case open < enabled:
		response.Status = "degraded"
		response.Message = "some announcement channels unavailable"
		w.WriteHeader(http.StatusOK)
	default:
		response.Status = "unhealthy"
		response.Message = "all announcement channels unavailable"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode announce health response", slog.Any("error", err))
	}
}

// Ready returns readiness of the announcement pipeline.
// GET /ready/announce
// Returns 200 unless every enabled channel's circuit breaker is open.
// Note: Ready only checks circuit breaker state. Publishing is never blocked
// by announcement failures, so a deployment with no channels is still ready.
func (h *AnnounceHealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.GetChannelHealth()

	w.Header().Set("Content-Type", "application/json")

	enabled := 0
	open := 0
	for _, status := range statuses {
		if status.Enabled {
			enabled++
			if status.CircuitBreakerOpen {
				open++
			}
		}
	}

	if enabled > 0 && open == enabled {
		w.WriteHeader(http.StatusServiceUnavailable)
		ready := false
		response := AnnounceHealthResponse{
			Ready:   &ready,
			Message: "circuit breakers open on all channels",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("failed to encode announce ready response", slog.Any("error", err))
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	ready := true
	response := AnnounceHealthResponse{
		Ready: &ready,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode announce ready response", slog.Any("error", err))
	}
}
