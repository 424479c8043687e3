// Package http provides the HTTP server for the relay API and stream attach.
package http

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/algostream/internal/hub"
	"github.com/xiaot623/algostream/internal/service"
	"github.com/xiaot623/algostream/internal/ws"
)

// Server is the relay's HTTP server.
type Server struct {
	echo *echo.Echo
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *service.Service, h *hub.Hub, wsServer *ws.Server) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler := NewHandler(svc, h)
	handler.RegisterRoutes(e)
	e.GET("/ws", wsServer.HandleWebSocket)

	return &Server{echo: e}
}

// Echo exposes the underlying router.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
