// Package publish delivers gate decisions to an MQTT broker, with an
// abstraction for testing.
package publish

import (
	"encoding/json"
	"time"

	"github.com/robotmark/gatekeeper/pkg/gate"
)

// TopicDecisions is the MQTT topic for decision transitions.
const TopicDecisions = "robot/gate/events"

// TopicSystem is the MQTT topic for process lifecycle events.
const TopicSystem = "robot/gate/system"

// Decision transition event names.
const (
	EventGranted = "GRANTED"
	EventRevoked = "REVOKED"
)

// DecisionEvent is one fused-decision transition.
type DecisionEvent struct {
	Timestamp time.Time
	Snapshot  gate.Snapshot
}

// EventName maps the decision to its wire name.
func (e DecisionEvent) EventName() string {
	if e.Snapshot.Decision {
		return EventGranted
	}
	return EventRevoked
}

// SystemEvent is a process lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // "STARTUP", "SHUTDOWN"
	Reason    string // e.g. "SIGTERM" (shutdown only)
}

// Publisher publishes gate events to a broker. Implementations must not
// crash the process on delivery failure.
type Publisher interface {
	// PublishDecision sends a decision transition to the broker.
	PublishDecision(event DecisionEvent) error

	// PublishSystem sends a lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Payload is the wire envelope for decision transitions.
type Payload struct {
	Gate GatePayload `json:"gate"`
}

// GatePayload carries the transition and the full channel state behind
// it, so subscribers never need a follow-up status query.
type GatePayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	State     gate.Snapshot `json:"state"`
}

// FormatDecisionPayload creates the JSON payload for a decision event.
func FormatDecisionPayload(event DecisionEvent) ([]byte, error) {
	payload := Payload{
		Gate: GatePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.EventName(),
			State:     event.Snapshot,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the wire envelope for lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
