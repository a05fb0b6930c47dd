package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/robotmark/gatekeeper/pkg/gate"
)

// Bridge forwards gate decision transitions to a Publisher. The gate's
// change callback runs under the gate lock, so the bridge only enqueues
// there; delivery happens on the bridge's own goroutine.
type Bridge struct {
	publisher Publisher
	events    chan DecisionEvent
	logger    *slog.Logger
}

// NewBridge creates a bridge and registers it on the gate.
func NewBridge(g *gate.Gate, publisher Publisher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{
		publisher: publisher,
		events:    make(chan DecisionEvent, 16),
		logger:    logger.With("component", "publish"),
	}

	g.OnDecisionChange(func(snap gate.Snapshot) {
		ev := DecisionEvent{Timestamp: time.Now(), Snapshot: snap}
		select {
		case b.events <- ev:
		default:
			// A full buffer means the broker is stalled. Dropping a
			// transition here is acceptable because decisions are
			// published retained: the next one carries current state.
			b.logger.Warn("event buffer full, dropping decision transition",
				"event", ev.EventName(),
			)
		}
	})

	return b
}

// Run delivers queued transitions until the context is canceled. It
// drains remaining events before returning so a shutdown REVOKED is not
// lost.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-b.events:
					b.deliver(ev)
				default:
					return
				}
			}
		case ev := <-b.events:
			b.deliver(ev)
		}
	}
}

func (b *Bridge) deliver(ev DecisionEvent) {
	if err := b.publisher.PublishDecision(ev); err != nil {
		b.logger.Error("failed to publish decision",
			"event", ev.EventName(),
			"error", err,
		)
		return
	}
	b.logger.Info("decision published",
		"event", ev.EventName(),
		"decision", ev.Snapshot.Decision,
	)
}
