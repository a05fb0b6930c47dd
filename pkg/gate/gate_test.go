package gate

import (
	"errors"
	"testing"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	g, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestGate_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero threshold", func(c *Config) { c.PersistenceThreshold = 0 }, ErrInvalidThreshold},
		{"zero interval", func(c *Config) { c.SampleInterval = 0 }, ErrInvalidInterval},
		{"negative alpha", func(c *Config) { c.SmoothingAlpha = -0.1 }, ErrAlphaOutOfRange},
		{"alpha above one", func(c *Config) { c.SmoothingAlpha = 1.1 }, ErrAlphaOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg, nil); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGate_PrimaryAloneGates(t *testing.T) {
	g := newTestGate(t)

	if g.Decision() {
		t.Error("decision should start false")
	}

	g.SubmitPrimary(detection(0.5))
	if !g.Decision() {
		t.Error("decision should be true with primary detected and secondary disabled")
	}

	// Two misses hold the decision through the persistence window.
	g.SubmitPrimary(Miss)
	g.SubmitPrimary(Miss)
	if !g.Decision() {
		t.Error("decision should hold through momentary misses")
	}

	g.SubmitPrimary(Miss)
	if g.Decision() {
		t.Error("decision should drop after threshold misses")
	}
}

func TestGate_FusionRequiresBothWhenSecondaryEnabled(t *testing.T) {
	g := newTestGate(t)
	g.SetSecondaryEnabled(true)

	g.SubmitPrimary(detection(0.5))
	if g.Decision() {
		t.Error("primary alone should not gate while secondary is enabled")
	}

	ticket, ok := g.SecondaryTicket()
	if !ok {
		t.Fatal("ticket should be issued while secondary is enabled")
	}
	g.SubmitSecondary(ticket, detection(0.4))
	if !g.Decision() {
		t.Error("decision should be true with both channels detected")
	}
}

func TestGate_DisablingSecondaryDropsItFromFusion(t *testing.T) {
	g := newTestGate(t)
	g.SetSecondaryEnabled(true)
	g.SubmitPrimary(detection(0.5))

	ticket, _ := g.SecondaryTicket()
	g.SubmitSecondary(ticket, Miss)
	if g.Decision() {
		t.Error("decision should be false with secondary enabled but not detected")
	}

	g.SetSecondaryEnabled(false)
	if !g.Decision() {
		t.Error("decision should follow primary alone once secondary is disabled")
	}
}

func TestGate_DisableClearsSecondaryState(t *testing.T) {
	g := newTestGate(t)
	g.SetSecondaryEnabled(true)

	ticket, _ := g.SecondaryTicket()
	g.SubmitSecondary(ticket, detection(0.4))

	g.SetSecondaryEnabled(false)

	snap := g.Snapshot()
	if snap.Secondary.Detected {
		t.Error("secondary should not report detected after disable")
	}
	if snap.Secondary.Region != nil {
		t.Error("secondary region should clear on disable")
	}
	if snap.Secondary.MissStreak != 0 {
		t.Errorf("secondary miss streak = %d, want 0", snap.Secondary.MissStreak)
	}
}

func TestGate_LateCompletionAfterDisableIsDiscarded(t *testing.T) {
	g := newTestGate(t)
	g.SetSecondaryEnabled(true)

	// Dispatch, then disable before the completion lands.
	ticket, ok := g.SecondaryTicket()
	if !ok {
		t.Fatal("expected a ticket")
	}
	g.SetSecondaryEnabled(false)
	g.SetSecondaryEnabled(true)

	if applied := g.SubmitSecondary(ticket, detection(0.4)); applied {
		t.Error("completion dispatched before disable should be discarded")
	}

	snap := g.Snapshot()
	if snap.Secondary.Detected {
		t.Error("stale completion must not resurrect secondary state")
	}
}

func TestGate_CompletionWhileDisabledIsDiscarded(t *testing.T) {
	g := newTestGate(t)
	g.SetSecondaryEnabled(true)
	ticket, _ := g.SecondaryTicket()
	g.SetSecondaryEnabled(false)

	if applied := g.SubmitSecondary(ticket, detection(0.4)); applied {
		t.Error("completion arriving while disabled should be discarded")
	}
}

func TestGate_NoTicketWhileDisabled(t *testing.T) {
	g := newTestGate(t)
	if _, ok := g.SecondaryTicket(); ok {
		t.Error("no ticket should be issued while secondary is disabled")
	}
}

func TestGate_FailureCountsAsMiss(t *testing.T) {
	g := newTestGate(t)
	g.SetSecondaryEnabled(true)

	ticket, _ := g.SecondaryTicket()
	g.SubmitSecondary(ticket, detection(0.4))

	// Threshold failures clear the channel just like misses.
	for i := 0; i < DefaultConfig().PersistenceThreshold; i++ {
		tk, _ := g.SecondaryTicket()
		g.SubmitSecondaryFailure(tk, errors.New("connection refused"))
	}

	if g.Snapshot().Secondary.Detected {
		t.Error("secondary should clear after threshold consecutive failures")
	}
}

func TestGate_AlphaValidation(t *testing.T) {
	g := newTestGate(t)
	prior := g.Alpha()

	if err := g.SetSmoothingAlpha(-0.1); !errors.Is(err, ErrAlphaOutOfRange) {
		t.Errorf("SetSmoothingAlpha(-0.1) error = %v, want ErrAlphaOutOfRange", err)
	}
	if err := g.SetSmoothingAlpha(1.1); !errors.Is(err, ErrAlphaOutOfRange) {
		t.Errorf("SetSmoothingAlpha(1.1) error = %v, want ErrAlphaOutOfRange", err)
	}
	if g.Alpha() != prior {
		t.Errorf("rejected alpha mutated state: %v", g.Alpha())
	}

	if err := g.SetSmoothingAlpha(0.5); err != nil {
		t.Errorf("SetSmoothingAlpha(0.5) error = %v", err)
	}
	if g.Alpha() != 0.5 {
		t.Errorf("alpha = %v, want 0.5", g.Alpha())
	}
}

func TestGate_PrimaryDisableClearsAndGatesFalse(t *testing.T) {
	g := newTestGate(t)
	g.SubmitPrimary(detection(0.5))

	g.SetPrimaryEnabled(false)
	if g.Decision() {
		t.Error("decision should be false with primary disabled")
	}
	if g.Snapshot().Primary.Region != nil {
		t.Error("primary region should clear on disable")
	}

	// Events while disabled are ignored.
	g.SubmitPrimary(detection(0.5))
	if g.Decision() {
		t.Error("events while disabled must not gate")
	}
}

func TestGate_DecisionChangeCallback(t *testing.T) {
	g := newTestGate(t)

	var transitions []bool
	g.OnDecisionChange(func(s Snapshot) {
		transitions = append(transitions, s.Decision)
	})

	g.SubmitPrimary(detection(0.5))
	g.SubmitPrimary(detection(0.5)) // no flip, no callback
	for i := 0; i < 3; i++ {
		g.SubmitPrimary(Miss)
	}

	want := []bool{true, false}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions = %v, want %v", transitions, want)
			break
		}
	}
}

func TestGate_SnapshotCarriesPayloadAndStreak(t *testing.T) {
	g := newTestGate(t)
	g.SubmitPrimary(detection(0.5))
	g.SubmitPrimary(Miss)

	snap := g.Snapshot()
	if snap.Primary.Payload != "ROBOT_R1" {
		t.Errorf("payload = %q, want ROBOT_R1", snap.Primary.Payload)
	}
	if snap.Primary.MissStreak != 1 {
		t.Errorf("miss streak = %d, want 1", snap.Primary.MissStreak)
	}
	if snap.Primary.State != StateLost {
		t.Errorf("state = %v, want lost", snap.Primary.State)
	}
}
