package publish

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/robotmark/gatekeeper/pkg/gate"
)

func grantedEvent() DecisionEvent {
	return DecisionEvent{
		Timestamp: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Snapshot: gate.Snapshot{
			Decision: true,
			Primary: gate.ChannelSnapshot{
				Detected: true,
				Payload:  "ROBOT_R1",
				State:    gate.StateTracking,
				Enabled:  true,
			},
		},
	}
}

func TestEventName(t *testing.T) {
	ev := grantedEvent()
	if got := ev.EventName(); got != EventGranted {
		t.Errorf("EventName() = %q, want %q", got, EventGranted)
	}
	ev.Snapshot.Decision = false
	if got := ev.EventName(); got != EventRevoked {
		t.Errorf("EventName() = %q, want %q", got, EventRevoked)
	}
}

func TestFormatDecisionPayload(t *testing.T) {
	data, err := FormatDecisionPayload(grantedEvent())
	if err != nil {
		t.Fatalf("FormatDecisionPayload: %v", err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.Gate.Event != EventGranted {
		t.Errorf("event = %q, want %q", payload.Gate.Event, EventGranted)
	}
	if payload.Gate.Timestamp != "2026-03-14T10:30:00Z" {
		t.Errorf("timestamp = %q, want RFC3339 UTC", payload.Gate.Timestamp)
	}
	if !payload.Gate.State.Primary.Detected {
		t.Error("payload should carry the primary channel state")
	}
	if payload.Gate.State.Primary.Payload != "ROBOT_R1" {
		t.Errorf("payload marker = %q, want ROBOT_R1", payload.Gate.State.Primary.Payload)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var payload SystemPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.System.Event != "SHUTDOWN" || payload.System.Reason != "SIGTERM" {
		t.Errorf("system payload = %+v", payload.System)
	}
}

func TestSystemPayloadOmitsEmptyReason(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
	})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if _, present := raw["system"]["reason"]; present {
		t.Error("reason should be omitted when empty")
	}
}

func TestBridgePublishesTransitions(t *testing.T) {
	g, err := gate.New(gate.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("gate.New: %v", err)
	}
	fake := NewFakePublisher()
	bridge := NewBridge(g, fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bridge.Run(ctx)
		close(done)
	}()

	region := &gate.Rect{X: 0.4, Y: 0.4, Width: 0.2, Height: 0.2}
	g.SubmitPrimary(gate.Event{Present: true, Region: region, Payload: "ROBOT_R1"})
	for i := 0; i < gate.DefaultConfig().PersistenceThreshold; i++ {
		g.SubmitPrimary(gate.Miss)
	}

	cancel()
	<-done

	decisions := fake.PublishedDecisions()
	if len(decisions) != 2 {
		t.Fatalf("published %d decisions, want 2 (granted then revoked)", len(decisions))
	}
	if decisions[0].EventName() != EventGranted {
		t.Errorf("first event = %q, want %q", decisions[0].EventName(), EventGranted)
	}
	if decisions[1].EventName() != EventRevoked {
		t.Errorf("second event = %q, want %q", decisions[1].EventName(), EventRevoked)
	}
}

func TestBridgeDrainsOnShutdown(t *testing.T) {
	g, err := gate.New(gate.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("gate.New: %v", err)
	}
	fake := NewFakePublisher()
	bridge := NewBridge(g, fake, nil)

	// Queue a transition before the bridge ever runs, then run it with
	// an already-canceled context: the drain pass must still deliver.
	region := &gate.Rect{X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1}
	g.SubmitPrimary(gate.Event{Present: true, Region: region, Payload: "ROBOT_R1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bridge.Run(ctx)

	if got := len(fake.PublishedDecisions()); got != 1 {
		t.Errorf("published %d decisions, want 1 from the drain pass", got)
	}
}
