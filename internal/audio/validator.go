package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// longFileThreshold is the duration beyond which a non-fatal warning is
// attached, flagging the file for chunking awareness.
const longFileThreshold = 60 * time.Minute

// Validator probes an audio file and produces metadata or a rejection.
// It is a read-only check: no state is retained between calls, so validating
// the same unmodified file twice yields identical results.
type Validator struct {
	ffmpegPath       string
	maxFileSizeMB    int
	supportedFormats []string

	cmd     commandRunner
	statter fileStatter
	log     *logrus.Entry
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorCommandRunner sets the command runner (for testing).
func WithValidatorCommandRunner(r commandRunner) ValidatorOption {
	return func(v *Validator) { v.cmd = r }
}

// WithValidatorFileStatter sets the file statter (for testing).
func WithValidatorFileStatter(s fileStatter) ValidatorOption {
	return func(v *Validator) { v.statter = s }
}

// WithValidatorLogger sets the log entry.
func WithValidatorLogger(log *logrus.Entry) ValidatorOption {
	return func(v *Validator) { v.log = log }
}

// NewValidator creates a Validator.
// maxFileSizeMB and supportedFormats come from pipeline configuration.
func NewValidator(ffmpegPath string, maxFileSizeMB int, supportedFormats []string, opts ...ValidatorOption) *Validator {
	v := &Validator{
		ffmpegPath:       ffmpegPath,
		maxFileSizeMB:    maxFileSizeMB,
		supportedFormats: supportedFormats,
		cmd:              osCommandRunner{},
		statter:          osFileStatter{},
		log:              logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate probes path and returns a ValidationResult.
// Fatal conditions: missing or empty file, size over the limit, unsupported
// extension, undecodable container. Duration over an hour is a warning only.
func (v *Validator) Validate(ctx context.Context, path string) ValidationResult {
	result := ValidationResult{Valid: true}

	info, err := v.statter.Stat(path)
	if err != nil {
		result.addError(fmt.Sprintf("%v: %s", ErrFileEmpty, path))
		return result
	}
	if info.Size() == 0 {
		result.addError(fmt.Sprintf("%v: %s", ErrFileEmpty, path))
		return result
	}

	result.Metadata.Path = path
	result.Metadata.Size = info.Size()

	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB > float64(v.maxFileSizeMB) {
		result.addError(fmt.Sprintf("%v: %.1fMB exceeds maximum %dMB", ErrFileTooLarge, sizeMB, v.maxFileSizeMB))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !v.formatSupported(ext) {
		result.addError(fmt.Sprintf("%v: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(v.supportedFormats, ", ")))
	}

	// Probe regardless of earlier errors: the metadata is still useful in the
	// rejection message, and a decode failure is its own distinct error.
	if err := v.probe(ctx, path, ext, &result); err != nil {
		result.addError(fmt.Sprintf("%v: %v", ErrUndecodable, err))
	}

	return result
}

// formatSupported reports whether ext is in the configured format set.
func (v *Validator) formatSupported(ext string) bool {
	for _, f := range v.supportedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

// probe runs ffmpeg against the file and fills in metadata.
func (v *Validator) probe(ctx context.Context, path, ext string, result *ValidationResult) error {
	args := []string{"-i", path, "-f", "null", "-"}
	output, err := v.cmd.CombinedOutput(ctx, v.ffmpegPath, args)
	if err != nil && len(output) == 0 {
		return err
	}

	outputStr := string(output)
	duration, err := parseDurationFromFFmpegOutput(outputStr)
	if err != nil {
		return err
	}
	result.Metadata.Duration = duration

	if info, ok := parseStreamInfo(outputStr); ok {
		result.Metadata.SampleRate = info.sampleRate
		result.Metadata.Channels = info.channels
		result.Metadata.BitDepth = info.bitDepth
	}

	result.Metadata.Format = parseContainerFormat(outputStr)
	if result.Metadata.Format == "" {
		result.Metadata.Format = ext
	}

	if duration > longFileThreshold {
		result.addWarning(fmt.Sprintf("file is very long (%.0f minutes), will be processed in chunks", duration.Minutes()))
	}

	v.log.WithFields(logrus.Fields{
		"path":        path,
		"duration":    duration.Round(time.Second).String(),
		"sample_rate": result.Metadata.SampleRate,
		"channels":    result.Metadata.Channels,
	}).Debug("probed audio file")

	return nil
}
