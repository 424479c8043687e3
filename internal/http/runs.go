package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/algostream/internal/domain"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// CreateRunRequest is the request to create a run.
type CreateRunRequest struct {
	AlgorithmID string `json:"algorithmId"`
	Array       []int  `json:"array"`
}

// SeekRequest is the request to move the advisory cursor.
type SeekRequest struct {
	StepIndex *int `json:"stepIndex"`
}

// CreateRun acquires a trace and stores a new run.
// POST /api/run
func (h *Handler) CreateRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	run, err := h.service.CreateRun(ctx, req.AlgorithmID, req.Array)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"runId": run.RunID})
}

// GetRun returns the run summary.
// GET /api/runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	summary, err := h.service.GetRunSummary(c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// PostSignal applies one viewer interaction event.
// POST /api/runs/:run_id/signals
func (h *Handler) PostSignal(c echo.Context) error {
	ctx := c.Request().Context()

	var ev domain.SignalEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.service.ApplySignal(ctx, c.Param("run_id"), ev); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// SeekRun moves the advisory cursor.
// POST /api/runs/:run_id/seek
func (h *Handler) SeekRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req SeekRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.StepIndex == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "stepIndex is required"})
	}

	if err := h.service.SeekRun(ctx, c.Param("run_id"), *req.StepIndex); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "currentStep": *req.StepIndex})
}

// GetRunEvents returns the journaled events of a run.
// GET /api/runs/:run_id/events?after_ts=&limit=
func (h *Handler) GetRunEvents(c echo.Context) error {
	ctx := c.Request().Context()

	var afterTs int64
	if v := c.QueryParam("after_ts"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid after_ts"})
		}
		afterTs = ts
	}

	limit := defaultEventLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = n
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := h.service.GetRunEvents(ctx, c.Param("run_id"), afterTs, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id": c.Param("run_id"),
		"events": events,
	})
}
