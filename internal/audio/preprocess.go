package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// targetSampleRate is the canonical rate for transcription input.
const targetSampleRate = 16000

// Preprocessor normalizes audio before transcription: loudness
// normalization, dynamic range compression, mono downmix, and resampling to
// 16 kHz. Each transform is toggle-able; the whole stage is best effort and
// never fails the pipeline.
type Preprocessor struct {
	ffmpegPath string
	normalize  bool
	compress   bool

	cmd     commandRunner
	tempDir tempDirCreator
	log     *logrus.Entry
}

// PreprocessorOption configures a Preprocessor.
type PreprocessorOption func(*Preprocessor)

// WithPreprocessorCommandRunner sets the command runner (for testing).
func WithPreprocessorCommandRunner(r commandRunner) PreprocessorOption {
	return func(p *Preprocessor) { p.cmd = r }
}

// WithPreprocessorTempDir sets the temp directory creator (for testing).
func WithPreprocessorTempDir(t tempDirCreator) PreprocessorOption {
	return func(p *Preprocessor) { p.tempDir = t }
}

// WithPreprocessorLogger sets the log entry.
func WithPreprocessorLogger(log *logrus.Entry) PreprocessorOption {
	return func(p *Preprocessor) { p.log = log }
}

// NewPreprocessor creates a Preprocessor.
// normalize toggles loudness normalization, compress toggles dynamic range
// compression; downmix and resampling are always applied when needed.
func NewPreprocessor(ffmpegPath string, normalize, compress bool, opts ...PreprocessorOption) *Preprocessor {
	p := &Preprocessor{
		ffmpegPath: ffmpegPath,
		normalize:  normalize,
		compress:   compress,
		cmd:        osCommandRunner{},
		tempDir:    osTempDirCreator{},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process applies the configured transforms and returns the resulting file.
// When no transform is needed the input is returned untouched. On any ffmpeg
// failure it logs a warning and returns the unmodified input: preprocessing
// improves quality but is not correctness-critical.
//
// The caller detects a temporary artifact by comparing the returned path to
// the input path and owns its cleanup.
func (p *Preprocessor) Process(ctx context.Context, af AudioFile) AudioFile {
	filters := p.filterChain()
	needsResample := af.SampleRate != 0 && af.SampleRate != targetSampleRate
	needsDownmix := af.Channels > 1

	if len(filters) == 0 && !needsResample && !needsDownmix {
		return af
	}

	tempDir, err := p.tempDir.MkdirTemp("", "callscribe-*")
	if err != nil {
		p.log.WithError(err).Warn("preprocessing skipped: cannot create temp directory")
		return af
	}

	outPath := filepath.Join(tempDir, "preprocessed.wav")
	args := []string{"-y", "-i", af.Path}
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}
	args = append(args,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", targetSampleRate),
		"-c:a", "pcm_s16le",
		outPath,
	)

	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		p.log.WithError(err).WithField("output", tail(string(output))).
			Warn("audio preprocessing failed, using original")
		_ = os.RemoveAll(tempDir)
		return af
	}

	processed := af
	processed.Path = outPath
	processed.Format = "wav"
	processed.SampleRate = targetSampleRate
	processed.Channels = 1
	processed.BitDepth = 16
	return processed
}

// filterChain builds the ffmpeg -af argument from the configured toggles.
// Filter order matters: normalize first, then compress, matching the
// ordering the transcription models were tuned against.
func (p *Preprocessor) filterChain() []string {
	var filters []string
	if p.normalize {
		filters = append(filters, "loudnorm")
	}
	if p.compress {
		filters = append(filters, "acompressor")
	}
	return filters
}

// tail returns the last few hundred bytes of ffmpeg output for log context.
func tail(s string) string {
	const max = 300
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
