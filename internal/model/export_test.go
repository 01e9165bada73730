package model

import "time"

// InFlight exposes the concurrent-use counter for mutual exclusion tests.
func (m *HealthManager) InFlight() int32 {
	return m.inFlight.Load()
}

var ReadWAVSamples = readWAVSamples

var ClassifyAPIError = classifyAPIError

// SetTransientRetry overrides the remote engine's retry timing so tests do
// not wait on real backoff delays. Returns a restore func.
func SetTransientRetry(cfg RetryConfigOverride) func() {
	old := transientRetry
	transientRetry.BaseDelay = cfg.BaseDelay
	transientRetry.MaxDelay = cfg.MaxDelay
	return func() { transientRetry = old }
}

// RetryConfigOverride carries the tunable delays for SetTransientRetry.
type RetryConfigOverride struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}
