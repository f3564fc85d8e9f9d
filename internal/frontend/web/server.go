// Package web exposes the arena over HTTP with gin: state, bets, history,
// chat and the websocket stream.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/commentary"
	"github.com/cory-johannsen/arena/internal/game/betting"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Arena is the engine surface the HTTP API needs.
type Arena interface {
	Snapshot() arena.Snapshot
	PlaceBet(team combat.Side, amount float64, token string) (betting.Bet, error)
}

// ChatHistory returns recent persona messages.
type ChatHistory interface {
	History() []commentary.Message
}

// HealthCheck reports a dependency's health.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators of the HTTP API. Chat, History, Stream and
// Health are optional.
type Deps struct {
	Arena   Arena
	History arena.History
	Chat    ChatHistory
	Stream  http.Handler
	Health  HealthCheck
}

// Handler serves the arena HTTP API.
type Handler struct {
	deps   Deps
	logger *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
//
// Precondition: deps.Arena and logger must be non-nil.
func NewRouter(deps Deps, allowedOrigin string, logger *zap.Logger) *gin.Engine {
	h := &Handler{deps: deps, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors(allowedOrigin))

	router.GET("/healthz", h.Healthz)
	if deps.Stream != nil {
		router.GET("/ws", gin.WrapH(deps.Stream))
	}

	api := router.Group("/api/arena")
	{
		api.GET("/state", h.State)
		api.POST("/bets", h.PlaceBet)
		api.GET("/history", h.ListHistory)
		api.GET("/history/:id", h.GetHistory)
		api.GET("/chat", h.ListChat)
	}
	return router
}

// BetRequest is the body of POST /api/arena/bets.
type BetRequest struct {
	Team   string  `json:"team"`
	Amount float64 `json:"amount"`
	Token  string  `json:"token"`
}

// Healthz reports liveness and, when configured, dependency health.
func (h *Handler) Healthz(c *gin.Context) {
	if h.deps.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// State returns the live cycle snapshot.
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Arena.Snapshot())
}

// PlaceBet records a wager. Rejections map to 409 (closed) and 400 (invalid).
func (h *Handler) PlaceBet(c *gin.Context) {
	var req BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	team := combat.Side(strings.ToUpper(strings.TrimSpace(req.Team)))
	bet, err := h.deps.Arena.PlaceBet(team, req.Amount, req.Token)
	if err != nil {
		c.JSON(betStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, bet)
}

func betStatus(err error) int {
	switch {
	case errors.Is(err, betting.ErrBettingClosed):
		return http.StatusConflict
	case errors.Is(err, betting.ErrInvalidAmount), errors.Is(err, betting.ErrInvalidTeam):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListHistory returns recent resolutions; ?limit= caps the count.
func (h *Handler) ListHistory(c *gin.Context) {
	if h.deps.History == nil {
		c.JSON(http.StatusOK, []arena.Resolution{})
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	items, err := h.deps.History.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if items == nil {
		items = []arena.Resolution{}
	}
	c.JSON(http.StatusOK, items)
}

// GetHistory returns one resolution by cycle id.
func (h *Handler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cycle id"})
		return
	}
	if h.deps.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": arena.ErrCycleNotFound.Error()})
		return
	}
	r, err := h.deps.History.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, arena.ErrCycleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("getting history", zap.String("cycle_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
	default:
		c.JSON(http.StatusOK, r)
	}
}

// ListChat returns recent persona messages.
func (h *Handler) ListChat(c *gin.Context) {
	if h.deps.Chat == nil {
		c.JSON(http.StatusOK, []commentary.Message{})
		return
	}
	c.JSON(http.StatusOK, h.deps.Chat.History())
}
