package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/robotmark/gatekeeper/pkg/gate"
	"github.com/robotmark/gatekeeper/pkg/hub"
)

// handleStatus returns the current gate snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.gate.Snapshot())
}

// handleGetLogs returns recent log entries.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// ChannelRequest toggles a detection channel.
type ChannelRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetPrimary enables or disables the marker channel.
func (s *Server) handleSetPrimary(c *fiber.Ctx) error {
	var req ChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	s.gate.SetPrimaryEnabled(req.Enabled)
	return c.JSON(s.gate.Snapshot())
}

// handleSetSecondary enables or disables the classifier channel.
func (s *Server) handleSetSecondary(c *fiber.Ctx) error {
	var req ChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	s.gate.SetSecondaryEnabled(req.Enabled)
	return c.JSON(s.gate.Snapshot())
}

// AlphaRequest adjusts the smoothing factor.
type AlphaRequest struct {
	Alpha float64 `json:"alpha"`
}

// handleSetAlpha updates the smoothing factor, rejecting values outside
// [0, 1] without touching the current setting.
func (s *Server) handleSetAlpha(c *fiber.Ctx) error {
	var req AlphaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := s.gate.SetSmoothingAlpha(req.Alpha); err != nil {
		if errors.Is(err, gate.ErrAlphaOutOfRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
				"alpha": s.gate.Alpha(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"alpha": s.gate.Alpha()})
}

// handleStatusWS streams snapshots to a websocket client. The current
// snapshot is sent on connect so the client never starts blind.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.gate.Snapshot())

	client := hub.NewClient(s.statusHub, c)
	client.Run()
}

// handleLogsWS streams log entries to a websocket client, replaying the
// buffer on connect.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	client := hub.NewClient(s.logHub, c)
	client.Run()
}
