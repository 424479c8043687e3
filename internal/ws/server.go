// Package ws serves stream attachments over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/algostream/internal/config"
	"github.com/xiaot623/algostream/internal/domain"
	"github.com/xiaot623/algostream/internal/hub"
	"github.com/xiaot623/algostream/internal/protocol"
	"github.com/xiaot623/algostream/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, svc *service.Service) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket validates the attach parameters, upgrades, and relays the
// run to the viewer until END, failure, or disconnect.
// GET /ws?runId=&speed=&fromStep=
func (s *Server) HandleWebSocket(c echo.Context) error {
	runID := c.QueryParam("runId")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "runId is required"})
	}

	run, err := s.service.GetRun(runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	fromStep := parseFromStep(c.QueryParam("fromStep"))
	if fromStep >= run.TotalSteps() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "fromStep out of range"})
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return nil
	}

	conn := s.hub.NewConnection(ws, runID, s.cfg.WriteTimeout)
	s.hub.Register(conn)
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	if s.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(s.cfg.MaxMessageSize)
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go s.readPump(ctx, cancel, conn)
	go s.keepAlive(ctx, cancel, conn)

	opts := service.StreamOptions{
		Speed:        parseSpeed(c.QueryParam("speed")),
		FromStep:     fromStep,
		ConnectionID: conn.ID,
	}
	result, err := s.service.StreamRun(ctx, runID, opts, conn)
	switch {
	case err == nil:
		_ = conn.CloseNormal(protocol.EndMessageText)
	case ctx.Err() != nil, errors.Is(err, domain.ErrViewerSendFailed):
		log.Printf("WARN: stream %s ended in %s: %v", conn.ID, result.State, err)
	default:
		log.Printf("ERROR: stream %s failed: %v", conn.ID, err)
		_ = conn.Send(ctx, protocol.NewError(err.Error()))
	}
	return nil
}

// readPump consumes viewer events and cancels the attachment when the socket closes.
func (s *Server) readPump(ctx context.Context, cancel context.CancelFunc, conn *hub.Connection) {
	defer cancel()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		conn.Conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
			return nil
		})
	}

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}

		s.handleMessage(ctx, conn, message)
	}
}

// keepAlive pings the viewer until ctx is done.
func (s *Server) keepAlive(ctx context.Context, cancel context.CancelFunc, conn *hub.Connection) {
	if s.cfg.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				cancel()
				return
			}
		}
	}
}

// handleMessage dispatches inbound viewer messages. Malformed and
// unknown messages are dropped: replying would interleave with the relay.
func (s *Server) handleMessage(ctx context.Context, conn *hub.Connection, data []byte) {
	var msg protocol.InboundEnvelope
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WARN: %s: dropping invalid JSON message", conn.ID)
		return
	}

	switch msg.Type {
	case protocol.TypeSignal:
		var ev domain.SignalEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("WARN: %s: dropping invalid SIGNAL: %v", conn.ID, err)
			return
		}
		if err := s.service.ApplySignal(ctx, conn.RunID, ev); err != nil {
			log.Printf("WARN: %s: signal rejected: %v", conn.ID, err)
		}
	case protocol.TypeSeek:
		var seek protocol.SeekData
		if err := json.Unmarshal(msg.Data, &seek); err != nil {
			log.Printf("WARN: %s: dropping invalid SEEK: %v", conn.ID, err)
			return
		}
		if err := s.service.SeekRun(ctx, conn.RunID, seek.StepIndex); err != nil {
			log.Printf("WARN: %s: seek rejected: %v", conn.ID, err)
		}
	default:
		log.Printf("WARN: %s: dropping unknown message type %q", conn.ID, msg.Type)
	}
}

func parseSpeed(raw string) float64 {
	speed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1.0
	}
	return service.NormalizeSpeed(speed)
}

func parseFromStep(raw string) int {
	step, err := strconv.Atoi(raw)
	if err != nil || step < 0 {
		return 0
	}
	return step
}
