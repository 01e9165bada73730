package model_test

import (
	"context"
	"sync"

	"callscribe/internal/model"
)

// ---------------------------------------------------------------------------
// Engine mock
// ---------------------------------------------------------------------------

type mockEngine struct {
	mu         sync.Mutex
	result     model.Result
	err        error
	calls      int
	closed     bool
	transcribe func(ctx context.Context, path string, profile model.Profile) (model.Result, error)
}

func (m *mockEngine) Transcribe(ctx context.Context, path string, profile model.Profile) (model.Result, error) {
	m.mu.Lock()
	m.calls++
	fn := m.transcribe
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, path, profile)
	}
	return m.result, m.err
}

func (m *mockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockEngine) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEngine) wasClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ---------------------------------------------------------------------------
// Factory mock
// ---------------------------------------------------------------------------

// mockFactory counts loads and hands out fresh engines, optionally failing
// the first n loads.
type mockFactory struct {
	mu       sync.Mutex
	loads    int
	failNext int
	err      error
	engines  []*mockEngine
}

func (f *mockFactory) factory(ctx context.Context, size string) (model.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loads++
	if f.failNext > 0 {
		f.failNext--
		return nil, f.err
	}

	eng := &mockEngine{}
	f.engines = append(f.engines, eng)
	return eng, nil
}

func (f *mockFactory) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *mockFactory) engine(i int) *mockEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[i]
}
