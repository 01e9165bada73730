package model

import (
	"context"
	"time"
)

// Profile is a named parameter set for one transcription attempt.
// Profiles are tried in a fixed priority order; some backend failures are
// parameter-sensitive (language detection on very short or silent audio), so
// a later profile can succeed where an earlier one failed.
type Profile struct {
	// Name identifies the profile in logs and outcomes.
	Name string

	// DetectLanguage lets the engine auto-detect the spoken language.
	DetectLanguage bool

	// Language forces a specific language (ISO 639-1 base code).
	// Ignored when DetectLanguage is set. Empty means engine default.
	Language string

	// Task selects the engine task mode. Empty means transcribe.
	Task string
}

// Segment is a timestamped span of transcribed text.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Result is the output of a single successful engine call.
type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// Engine is an opaque transcription backend. Implementations are not assumed
// to be safe for concurrent use; all calls must go through the HealthManager.
type Engine interface {
	// Transcribe converts the audio file at path to text using the given
	// profile. The call blocks until the backend returns; implementations
	// are not required to honor mid-flight cancellation.
	Transcribe(ctx context.Context, path string, p Profile) (Result, error)

	// Close releases backend resources. The engine must not be used after.
	Close() error
}
