package web

import (
	"context"
	"log/slog"
	"strings"
)

// logHandler tees slog records into the server's log buffer so the
// dashboard sees what the process logs, while delegating to the real
// handler. Debug records stay off the dashboard.
type logHandler struct {
	next   slog.Handler
	server *Server
}

// LogHandler wraps a slog handler so records at info and above also land
// in the server's log buffer and websocket stream. Build the process
// logger from it once the server exists:
//
//	logger := slog.New(server.LogHandler(base.Handler()))
func (s *Server) LogHandler(next slog.Handler) slog.Handler {
	return &logHandler{next: next, server: s}
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo {
		h.server.AddLog(strings.ToLower(r.Level.String()), r.Message)
	}
	return h.next.Handle(ctx, r)
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logHandler{next: h.next.WithAttrs(attrs), server: h.server}
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	return &logHandler{next: h.next.WithGroup(name), server: h.server}
}
