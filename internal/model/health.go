package model

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// EngineFactory constructs an engine for the given size profile
// (base, small, medium). Injected so tests can supply fakes and so the
// manager never hardcodes a backend.
type EngineFactory func(ctx context.Context, size string) (Engine, error)

// HealthManager owns the single loaded inference engine, the mutex guarding
// its use, and the reset procedure. The backend is not safely reentrant, so
// at most one caller is ever inside a transcription call process-wide; every
// use goes through WithEngine, and no other component may hold an engine
// reference.
type HealthManager struct {
	mu      sync.Mutex
	factory EngineFactory
	engine  Engine
	size    string
	log     *logrus.Entry

	// inFlight counts callers inside WithEngine. It exists so tests can
	// verify mutual exclusion; it must never exceed 1.
	inFlight atomic.Int32
}

// NewHealthManager creates a manager that lazily loads an engine of the
// given size on first use.
func NewHealthManager(factory EngineFactory, size string, log *logrus.Entry) *HealthManager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HealthManager{
		factory: factory,
		size:    size,
		log:     log,
	}
}

// WithEngine runs fn with the engine while holding the model mutex.
// The engine is loaded lazily on first use; a load failure is returned as
// ErrModelUnavailable and fn is not called.
func (m *HealthManager) WithEngine(ctx context.Context, fn func(Engine) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	return fn(m.engine)
}

// Reset destroys and reloads the engine. Called when consecutive failures
// suggest the loaded instance is corrupted. A reload failure leaves the
// manager unloaded; the next WithEngine retries the load, so a failed reset
// degrades to lazy loading rather than wedging the pipeline.
func (m *HealthManager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.WithField("size", m.size).Warn("resetting inference engine")
	m.closeLocked()

	if err := m.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	m.log.Info("engine reset complete")
	return nil
}

// SetSize changes the model size profile, reloading if a different engine is
// currently loaded. Identity changes go through the same mutex as use, so a
// swap can never race an in-flight call.
func (m *HealthManager) SetSize(ctx context.Context, size string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if size == m.size && m.engine != nil {
		return nil
	}

	m.closeLocked()
	m.size = size
	return m.ensureLoadedLocked(ctx)
}

// Size returns the current model size profile.
func (m *HealthManager) Size() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Loaded reports whether an engine instance is currently loaded.
func (m *HealthManager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine != nil
}

// Close releases the engine, if loaded.
func (m *HealthManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.engine != nil {
		err = m.engine.Close()
		m.engine = nil
	}
	return err
}

// ensureLoadedLocked loads the engine if needed. Callers must hold mu.
func (m *HealthManager) ensureLoadedLocked(ctx context.Context) error {
	if m.engine != nil {
		return nil
	}

	engine, err := m.factory(ctx, m.size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	m.engine = engine
	return nil
}

// closeLocked closes the current engine, logging close failures.
// Callers must hold mu.
func (m *HealthManager) closeLocked() {
	if m.engine == nil {
		return
	}
	if err := m.engine.Close(); err != nil {
		m.log.WithError(err).Warn("failed to close engine")
	}
	m.engine = nil
}
