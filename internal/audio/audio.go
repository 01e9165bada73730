package audio

import (
	"fmt"
	"time"
)

// AudioFile holds the probed metadata of a validated input file.
// Immutable once produced by the Validator; downstream stages only read it.
type AudioFile struct {
	Path       string
	Size       int64         // bytes
	Format     string        // detected container format (e.g. "wav", "mp3")
	Duration   time.Duration
	SampleRate int // Hz
	Channels   int
	BitDepth   int // bits per sample, 0 if unknown
}

// SizeMB returns the file size in megabytes.
func (a AudioFile) SizeMB() float64 {
	return float64(a.Size) / (1024 * 1024)
}

// String returns a human-readable summary for logging.
func (a AudioFile) String() string {
	return fmt.Sprintf("%s: %s %v %dHz %dch", a.Path, a.Format, a.Duration.Round(time.Second), a.SampleRate, a.Channels)
}

// ValidationResult is the outcome of probing an input file.
// When Valid is false no downstream stage may run.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Metadata AudioFile
}

// addError records a fatal validation error.
func (r *ValidationResult) addError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// addWarning records a non-fatal observation.
func (r *ValidationResult) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
