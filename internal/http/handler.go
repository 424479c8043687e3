package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/algostream/internal/domain"
	"github.com/xiaot623/algostream/internal/hub"
	"github.com/xiaot623/algostream/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	hub     *hub.Hub
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, h *hub.Hub) *Handler {
	return &Handler{
		service: svc,
		hub:     h,
	}
}

// RegisterRoutes registers API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/run", h.CreateRun)
	e.GET("/api/runs/:run_id", h.GetRun)
	e.POST("/api/runs/:run_id/signals", h.PostSignal)
	e.POST("/api/runs/:run_id/seek", h.SeekRun)
	e.GET("/api/runs/:run_id/events", h.GetRunEvents)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"connections":    h.hub.GetConnectionCount(),
		"watched_runs":   h.hub.GetRunCount(),
		"stored_runs":    h.service.StoredRuns(),
		"fallback_total": h.service.FallbackTotal(),
	})
}

// writeError maps domain errors to HTTP status codes.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrRunNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
