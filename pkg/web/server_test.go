package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/robotmark/gatekeeper/pkg/gate"
)

func newTestServer(t *testing.T) (*Server, *gate.Gate) {
	t.Helper()
	g, err := gate.New(gate.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("gate.New: %v", err)
	}
	return NewServer("0", g, nil), g
}

func getJSON(t *testing.T, s *Server, method, path, body string, wantStatus int) []byte {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s status = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return data
}

func TestStatusEndpoint(t *testing.T) {
	s, g := newTestServer(t)

	region := &gate.Rect{X: 0.4, Y: 0.4, Width: 0.2, Height: 0.2}
	g.SubmitPrimary(gate.Event{Present: true, Region: region, Payload: "ROBOT_R1"})

	data := getJSON(t, s, "GET", "/api/status", "", 200)

	var snap gate.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("status is not a snapshot: %v", err)
	}
	if !snap.Decision {
		t.Error("decision should be true with a tracked marker and secondary disabled")
	}
	if snap.Primary.Payload != "ROBOT_R1" {
		t.Errorf("payload = %q, want ROBOT_R1", snap.Primary.Payload)
	}
}

func TestSetSecondary(t *testing.T) {
	s, g := newTestServer(t)

	data := getJSON(t, s, "POST", "/api/secondary", `{"enabled":true}`, 200)

	var snap gate.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("response is not a snapshot: %v", err)
	}
	if !snap.Secondary.Enabled {
		t.Error("secondary should be enabled after the toggle")
	}
	if _, ok := g.SecondaryTicket(); !ok {
		t.Error("gate should issue tickets after the toggle")
	}
}

func TestSetPrimaryDisableGatesFalse(t *testing.T) {
	s, g := newTestServer(t)

	region := &gate.Rect{X: 0.4, Y: 0.4, Width: 0.2, Height: 0.2}
	g.SubmitPrimary(gate.Event{Present: true, Region: region, Payload: "ROBOT_R1"})

	data := getJSON(t, s, "POST", "/api/primary", `{"enabled":false}`, 200)

	var snap gate.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("response is not a snapshot: %v", err)
	}
	if snap.Decision {
		t.Error("decision should be false with the primary disabled")
	}
	if snap.Primary.State != gate.StateCleared {
		t.Errorf("primary state = %v, want cleared", snap.Primary.State)
	}
}

func TestSetAlpha(t *testing.T) {
	s, g := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"alpha":0.5}`, 200},
		{"too low", `{"alpha":-0.1}`, 400},
		{"too high", `{"alpha":1.5}`, 400},
		{"malformed", `{alpha}`, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getJSON(t, s, "POST", "/api/alpha", tt.body, tt.wantStatus)
		})
	}

	// The rejected values must not have disturbed the accepted one.
	if got := g.Alpha(); got != 0.5 {
		t.Errorf("alpha = %v, want 0.5", got)
	}
}

func TestLogHandlerFeedsLogsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	logger := slog.New(s.LogHandler(slog.NewTextHandler(io.Discard, nil)))

	logger.Info("pipeline started")
	logger.Warn("classifier timeout", "latency_ms", 4500)
	logger.Debug("frame skipped") // below the dashboard threshold

	data := getJSON(t, s, "GET", "/api/logs", "", 200)

	var logs []LogEntry
	if err := json.Unmarshal(data, &logs); err != nil {
		t.Fatalf("logs are not valid JSON: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d log entries, want 2 (debug excluded)", len(logs))
	}
	if logs[0].Level != "info" || logs[0].Message != "pipeline started" {
		t.Errorf("unexpected entry: %+v", logs[0])
	}
	if logs[1].Level != "warn" || logs[1].Message != "classifier timeout" {
		t.Errorf("unexpected entry: %+v", logs[1])
	}
}

func TestLogsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	s.AddLog("info", "pipeline started")
	s.AddLog("warn", "classifier timeout")

	data := getJSON(t, s, "GET", "/api/logs", "", 200)

	var logs []LogEntry
	if err := json.Unmarshal(data, &logs); err != nil {
		t.Fatalf("logs are not valid JSON: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d log entries, want 2", len(logs))
	}
	if logs[1].Level != "warn" || logs[1].Message != "classifier timeout" {
		t.Errorf("unexpected entry: %+v", logs[1])
	}
}
