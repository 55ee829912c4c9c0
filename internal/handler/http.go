package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wordle-tracker/internal/domain"
	"github.com/wordle-tracker/internal/service"
	"github.com/wordle-tracker/internal/websocket"
)

// Ingestor accepts inbound chat-message events.
type Ingestor interface {
	Handle(ctx context.Context, event domain.MessageEvent) (domain.IngestOutcome, error)
}

// Handler provides HTTP handlers for the tracker API
type Handler struct {
	service *service.StatsService
	ingest  Ingestor
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.StatsService, ingest Ingestor, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		ingest:  ingest,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Event ingestion (alternative to the Kafka stream)
		r.Post("/events", h.SubmitEvent)

		// Guild-scoped queries
		r.Route("/guilds/{guildID}", func(r chi.Router) {
			r.Get("/leaderboard", h.GetLeaderboard)
			r.Get("/members", h.GetMembers)

			r.Route("/players/{playerID}", func(r chi.Router) {
				r.Get("/stats", h.GetPlayerStats)
				r.Get("/history", h.GetPlayerHistory)
			})
		})

		// Cross-guild player queries
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/stats", h.GetPlayerStats)
			r.Get("/history", h.GetPlayerHistory)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps domain errors to HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownMetric):
		h.writeError(w, http.StatusBadRequest, err)
	case domain.IsStorageUnavailable(err):
		h.logger.Error("storage unavailable", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrStorageUnavailable)
	case errors.Is(err, domain.ErrInvariantViolation):
		h.logger.Error("invariant violation", "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrStorageUnavailable)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// SubmitEvent accepts a chat-message event over HTTP. A recorded result
// returns 202; ignored text and duplicates return 200 with the reason.
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.MessageEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	outcome, err := h.ingest.Handle(r.Context(), event)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Status == domain.StatusRecorded {
		status = http.StatusAccepted
	}
	h.writeJSON(w, status, APIResponse{
		Success: true,
		Data:    outcome,
	})
}

// GetLeaderboard returns a guild's board for a metric
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	if guildID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = string(domain.MetricPoints)
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	standings, err := h.service.Leaderboard(r.Context(), guildID, metric, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"guild_id":  guildID,
		"metric":    metric,
		"standings": standings,
	})
}

// GetMembers returns the guild's players
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	if guildID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	players, err := h.service.Members(r.Context(), guildID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, players)
}

// GetPlayerStats returns a player's stats card. Without a guild in the
// path the card aggregates results across all guilds.
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	card, err := h.service.PlayerStats(r.Context(), guildID, playerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, card)
}

// GetPlayerHistory returns a player's recorded results
func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var filter service.HistoryFilter
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}
	if minStr := r.URL.Query().Get("min_attempts"); minStr != "" {
		if m, err := strconv.Atoi(minStr); err == nil && m > 0 {
			filter.MinAttempts = m
		}
	}
	if maxStr := r.URL.Query().Get("max_attempts"); maxStr != "" {
		if m, err := strconv.Atoi(maxStr); err == nil && m > 0 {
			filter.MaxAttempts = m
		}
	}

	history, err := h.service.History(r.Context(), guildID, playerID, filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, history)
}
