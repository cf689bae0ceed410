package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/firewatchbot/go-firewatch/pkg/hub"
)

// handleStatus returns the current sentry state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleEvents returns the recent halt events, most recent last
func (s *Server) handleEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleReset re-arms a halted sweep
func (s *Server) handleReset(c *fiber.Ctx) error {
	if s.OnReset == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "reset not configured",
		})
	}
	s.OnReset()
	return c.JSON(fiber.Map{"status": "re-armed"})
}

// handleStatusWS streams state updates to a dashboard client
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)

	// Send current state immediately so the dashboard doesn't wait for
	// the next loop tick
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	client.Run()
}

// handleCameraWS streams JPEG frames to a dashboard client
func (s *Server) handleCameraWS(c *websocket.Conn) {
	client := hub.NewClient(s.cameraHub, c)
	client.Run()
}
