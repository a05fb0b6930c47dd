// Package gate stabilizes noisy per-frame detector output into a single
// debounced, smoothed "robot may move" decision.
//
// Two detection channels feed it: a synchronous primary stream (one event
// per processed frame, in frame order) and an asynchronous secondary
// stream whose completions arrive out of order, frames later. All state
// mutation funnels through one mutex so concurrent secondary completions
// never race the per-frame primary update.
package gate

import (
	"log/slog"
	"sync"
)

// Ticket is issued when a secondary request is dispatched and must
// accompany its completion. Completions whose ticket predates a disable
// of the secondary channel are discarded, so stale results cannot
// resurrect state the operator switched off.
type Ticket struct {
	epoch uint64
}

// Gate is the detection-state owner. It holds one debouncer per channel,
// fuses their states into the gating decision, and reconciles
// asynchronous secondary completions onto a single logical timeline.
type Gate struct {
	mu sync.Mutex

	primary   *Debouncer
	secondary *Debouncer

	primaryEnabled   bool
	secondaryEnabled bool
	secondaryEpoch   uint64

	primarySmoother   *RectSmoother
	secondarySmoother *RectSmoother

	decision bool
	onChange func(Snapshot)

	logger *slog.Logger
}

// New creates a gate with the given configuration. The primary channel
// starts enabled, the secondary disabled, matching a session where the
// classifier is opt-in.
func New(cfg Config, logger *slog.Logger) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	primarySmoother := NewRectSmoother(cfg.SmoothingAlpha)
	secondarySmoother := NewRectSmoother(cfg.SmoothingAlpha)

	return &Gate{
		primary:           NewDebouncer(cfg.PersistenceThreshold, primarySmoother),
		secondary:         NewDebouncer(cfg.PersistenceThreshold, secondarySmoother),
		primaryEnabled:    true,
		primarySmoother:   primarySmoother,
		secondarySmoother: secondarySmoother,
		logger:            logger.With("component", "gate"),
	}, nil
}

// OnDecisionChange registers a callback invoked whenever the fused
// decision flips. The callback runs on the mutating goroutine while the
// gate is locked: it must be fast and must not call back into the gate.
// The snapshot argument carries everything a consumer needs.
func (g *Gate) OnDecisionChange(fn func(Snapshot)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// SubmitPrimary feeds one per-frame marker detection event. Events
// received while the primary channel is disabled are ignored.
func (g *Gate) SubmitPrimary(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.primaryEnabled {
		return
	}
	g.primary.Observe(ev)
	g.fuse()
}

// SecondaryTicket issues a ticket for a secondary dispatch. It reports
// false when the secondary channel is disabled, in which case no request
// should be sent.
func (g *Gate) SecondaryTicket() (Ticket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.secondaryEnabled {
		return Ticket{}, false
	}
	return Ticket{epoch: g.secondaryEpoch}, true
}

// SubmitSecondary applies one secondary completion. Completions are
// applied in arrival order; a completion whose ticket predates a disable
// is dropped without touching channel state. It reports whether the
// result was applied.
func (g *Gate) SubmitSecondary(t Ticket, ev Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.secondaryEnabled || t.epoch != g.secondaryEpoch {
		g.logger.Debug("discarding stale secondary completion",
			"ticket_epoch", t.epoch,
			"current_epoch", g.secondaryEpoch,
			"enabled", g.secondaryEnabled,
		)
		return false
	}
	g.secondary.Observe(ev)
	g.fuse()
	return true
}

// SubmitSecondaryFailure folds a failed secondary request (transport
// error, bad status, malformed payload) into a miss event so transient
// failures degrade through the same debounce path as a missed detection.
func (g *Gate) SubmitSecondaryFailure(t Ticket, err error) bool {
	applied := g.SubmitSecondary(t, Miss)
	if applied && err != nil {
		g.logger.Warn("secondary request failed, counted as miss", "error", err)
	}
	return applied
}

// SetPrimaryEnabled toggles the primary channel. Turning it off
// force-clears the channel's detection state and smoother.
func (g *Gate) SetPrimaryEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.primaryEnabled == enabled {
		return
	}
	g.primaryEnabled = enabled
	if !enabled {
		g.primary.Disable()
	}
	g.logger.Info("channel toggled", "channel", Primary.String(), "enabled", enabled)
	g.fuse()
}

// SetSecondaryEnabled toggles the secondary channel. Turning it off
// force-clears the channel and invalidates tickets issued before the
// toggle, so in-flight completions become no-ops on arrival.
func (g *Gate) SetSecondaryEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.secondaryEnabled == enabled {
		return
	}
	g.secondaryEnabled = enabled
	if !enabled {
		g.secondary.Disable()
		g.secondaryEpoch++
	}
	g.logger.Info("channel toggled", "channel", Secondary.String(), "enabled", enabled)
	g.fuse()
}

// SetSmoothingAlpha updates the smoothing factor for both channels.
// Values outside [0,1] are rejected and leave the prior alpha unchanged.
func (g *Gate) SetSmoothingAlpha(alpha float64) error {
	if alpha < 0 || alpha > 1 {
		return ErrAlphaOutOfRange
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.primarySmoother.setAlpha(alpha)
	g.secondarySmoother.setAlpha(alpha)
	return nil
}

// Alpha returns the current smoothing factor.
func (g *Gate) Alpha() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.primarySmoother.Alpha()
}

// Decision returns the current fused gating decision.
func (g *Gate) Decision() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Snapshot returns a consistent read-only view of both channels and the
// fused decision.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() Snapshot {
	return Snapshot{
		Decision: g.decision,
		Primary: ChannelSnapshot{
			Detected:   g.primary.Detected(),
			Region:     g.primary.Region(),
			Payload:    g.primary.Payload(),
			MissStreak: g.primary.MissStreak(),
			State:      g.primary.State(),
			Enabled:    g.primaryEnabled,
		},
		Secondary: ChannelSnapshot{
			Detected:   g.secondary.Detected(),
			Region:     g.secondary.Region(),
			MissStreak: g.secondary.MissStreak(),
			State:      g.secondary.State(),
			Enabled:    g.secondaryEnabled,
		},
		Alpha: g.primarySmoother.Alpha(),
	}
}

// fuse recomputes the fused decision after a state mutation and fires
// the change callback when it flips. Caller must hold g.mu.
func (g *Gate) fuse() {
	decision := g.primary.Detected() &&
		(!g.secondaryEnabled || g.secondary.Detected())

	if decision == g.decision {
		return
	}
	g.decision = decision
	g.logger.Info("gating decision changed",
		"decision", decision,
		"primary", g.primary.Detected(),
		"secondary", g.secondary.Detected(),
		"secondary_enabled", g.secondaryEnabled,
	)
	if g.onChange != nil {
		g.onChange(g.snapshotLocked())
	}
}
