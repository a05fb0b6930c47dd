package detect

import (
	"context"
	"sync"
)

// MockClassifier implements Classifier for testing.
type MockClassifier struct {
	// ClassifyFunc is called when Classify is invoked.
	ClassifyFunc func(ctx context.Context, jpeg []byte) (Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls int
}

// Classify calls ClassifyFunc and records the call.
func (m *MockClassifier) Classify(ctx context.Context, jpeg []byte) (Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, jpeg)
	}
	return Result{}, nil
}

// Close calls CloseFunc.
func (m *MockClassifier) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns the number of Classify invocations.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockScanner implements Scanner for testing.
type MockScanner struct {
	// ScanFunc is called when Scan is invoked.
	ScanFunc func(jpeg []byte) (*Marker, error)

	mu    sync.Mutex
	calls int
}

// Scan calls ScanFunc and records the call.
func (m *MockScanner) Scan(jpeg []byte) (*Marker, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ScanFunc != nil {
		return m.ScanFunc(jpeg)
	}
	return nil, nil
}

// Close is a no-op.
func (m *MockScanner) Close() error { return nil }

// Calls returns the number of Scan invocations.
func (m *MockScanner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Verify mocks implement their interfaces at compile time.
var (
	_ Classifier = (*MockClassifier)(nil)
	_ Scanner    = (*MockScanner)(nil)
)
