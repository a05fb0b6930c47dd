package publish

import "sync"

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Decisions contains all decision events that were published.
	Decisions []DecisionEvent

	// SystemEvents contains all lifecycle events that were published.
	SystemEvents []SystemEvent

	// PublishError, if set, is returned by PublishDecision.
	PublishError error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishDecision records the decision event.
func (f *FakePublisher) PublishDecision(event DecisionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Decisions = append(f.Decisions, event)
	return nil
}

// PublishSystem records the lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// PublishedDecisions returns a copy of the recorded decision events.
func (f *FakePublisher) PublishedDecisions() []DecisionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]DecisionEvent, len(f.Decisions))
	copy(out, f.Decisions)
	return out
}

var _ Publisher = (*FakePublisher)(nil)
