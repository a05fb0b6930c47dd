// Package web serves the gate's status over HTTP and WebSocket: current
// snapshots, recent log lines, and runtime controls for the secondary
// channel and the smoothing factor.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/robotmark/gatekeeper/pkg/gate"
	"github.com/robotmark/gatekeeper/pkg/hub"
)

// maxLogEntries bounds the in-memory log buffer.
const maxLogEntries = 500

// LogEntry is one line in the dashboard's live log.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"` // info, warn, error
	Message string `json:"message"`
}

// Server exposes the gate over HTTP and WebSocket.
type Server struct {
	app  *fiber.App
	port string
	gate *gate.Gate

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	logger    *slog.Logger
}

// NewServer creates the status server for the given gate.
func NewServer(port string, g *gate.Gate, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:      port,
		gate:      g,
		logs:      make([]LogEntry, 0, maxLogEntries),
		statusHub: hub.New("status", logger),
		logHub:    hub.New("logs", logger),
		logger:    logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Gatekeeper",
		DisableStartupMessage: true,
	})

	// CORS for local development.
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Post("/primary", s.handleSetPrimary)
	api.Post("/secondary", s.handleSetSecondary)
	api.Post("/alpha", s.handleSetAlpha)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// Run starts the hub and the listener, and shuts both down when the
// context is canceled.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(":" + s.port)
	}()
	s.logger.Info("status server listening", "port", s.port)

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	case err := <-errCh:
		return err
	}
}

// PushStatus broadcasts a snapshot to all websocket subscribers.
func (s *Server) PushStatus(snap gate.Snapshot) {
	if err := s.statusHub.BroadcastJSON(snap); err != nil {
		s.logger.Error("failed to encode status broadcast", "error", err)
	}
}

// AddLog appends a log entry and broadcasts it to log stream
// subscribers. Entries arrive here through the LogHandler tee.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
