package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"callscribe/internal/audio"
	"callscribe/internal/model"
)

const (
	// minChunkDuration is the shortest chunk worth sending to the engine.
	// Sub-500ms audio cannot carry intelligible speech and some backends
	// fail on it with tensor shape errors.
	minChunkDuration = 500 * time.Millisecond

	// smallChunkSize is the threshold below which a chunk is suspiciously
	// small for its duration. Still attempted, but logged.
	smallChunkSize = 100 * 1024
)

// DefaultProfiles returns the standard attempt ladder. The engine is tried
// with language auto-detection first; detection fails on very short or
// silent audio where a forced language succeeds, and a bare call with no
// hints succeeds where both structured profiles fail.
func DefaultProfiles(language string) []model.Profile {
	if language == "" {
		language = "en"
	}
	return []model.Profile{
		{Name: "auto-detect", DetectLanguage: true},
		{Name: "forced-language", Language: language},
		{Name: "minimal"},
	}
}

// AttemptOutcome is the final verdict for one chunk after the full ladder.
type AttemptOutcome struct {
	Success  bool
	Text     string
	Language string
	Segments []model.Segment
	Kind     model.ErrorKind
	Attempts int
	Err      error
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ChunkTranscriber runs the attempt ladder for a single chunk against the
// managed engine.
type ChunkTranscriber struct {
	health   *model.HealthManager
	profiles []model.Profile

	files      fileStatter
	newBackOff func() backoff.BackOff
	log        *logrus.Entry
}

// ChunkTranscriberOption configures a ChunkTranscriber.
type ChunkTranscriberOption func(*ChunkTranscriber)

// WithProfiles overrides the default attempt ladder.
func WithProfiles(profiles []model.Profile) ChunkTranscriberOption {
	return func(ct *ChunkTranscriber) { ct.profiles = profiles }
}

// WithTranscriberFileStatter sets the file statter (for testing).
func WithTranscriberFileStatter(s fileStatter) ChunkTranscriberOption {
	return func(ct *ChunkTranscriber) { ct.files = s }
}

// WithBackOff sets the factory producing the inter-attempt pause schedule.
func WithBackOff(fn func() backoff.BackOff) ChunkTranscriberOption {
	return func(ct *ChunkTranscriber) { ct.newBackOff = fn }
}

// WithTranscriberLogger sets the logger.
func WithTranscriberLogger(log *logrus.Entry) ChunkTranscriberOption {
	return func(ct *ChunkTranscriber) { ct.log = log }
}

// NewChunkTranscriber creates a transcriber using the given engine manager
// and language for the forced-language fallback profile.
func NewChunkTranscriber(health *model.HealthManager, language string, opts ...ChunkTranscriberOption) *ChunkTranscriber {
	ct := &ChunkTranscriber{
		health:   health,
		profiles: DefaultProfiles(language),
		files:    osFileStatter{},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		log: logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(ct)
	}
	return ct
}

// Transcribe runs the attempt ladder for one chunk and always returns
// exactly one outcome. Chunks that are missing, empty, or shorter than the
// minimum duration are rejected without touching the engine.
func (ct *ChunkTranscriber) Transcribe(ctx context.Context, chunk audio.Chunk) AttemptOutcome {
	log := ct.log.WithField("chunk", chunk.Index)

	info, err := ct.files.Stat(chunk.Path)
	if err != nil || info.Size() == 0 {
		log.Warn("chunk file missing or empty, skipping")
		return AttemptOutcome{
			Kind: model.KindRejected,
			Err:  fmt.Errorf("%w: file missing or empty", ErrChunkRejected),
		}
	}
	if d := chunk.Duration(); d > 0 && d < minChunkDuration {
		log.WithField("duration", d).Warn("chunk too short, skipping")
		return AttemptOutcome{
			Kind: model.KindRejected,
			Err:  fmt.Errorf("%w: duration %v below minimum", ErrChunkRejected, d),
		}
	}
	if info.Size() < smallChunkSize {
		log.WithField("size", info.Size()).Warn("unusually small chunk, attempting anyway")
	}

	pause := ct.newBackOff()
	outcome := AttemptOutcome{Kind: model.KindUnknown}

	for i, profile := range ct.profiles {
		if i > 0 {
			if err := sleepCtx(ctx, pause.NextBackOff()); err != nil {
				outcome.Err = err
				outcome.Kind = model.KindTimeout
				return outcome
			}
		}
		outcome.Attempts = i + 1

		var res model.Result
		err := ct.health.WithEngine(ctx, func(e model.Engine) error {
			var terr error
			res, terr = e.Transcribe(ctx, chunk.Path, profile)
			return terr
		})
		if err != nil {
			outcome.Err = err
			outcome.Kind = model.Classify(err)
			log.WithError(err).WithFields(logrus.Fields{
				"profile": profile.Name,
				"kind":    outcome.Kind,
			}).Warn("transcription attempt failed")
			continue
		}

		text := strings.TrimSpace(res.Text)
		if text == "" {
			// A silent result from a non-trivial chunk is treated as a
			// failed attempt so later profiles still get a shot.
			outcome.Err = fmt.Errorf("%w: empty result", model.ErrEmptyAudio)
			outcome.Kind = model.Classify(outcome.Err)
			log.WithField("profile", profile.Name).Warn("attempt produced empty text")
			continue
		}

		outcome.Success = true
		outcome.Text = text
		outcome.Language = res.Language
		outcome.Segments = res.Segments
		outcome.Kind = model.KindNone
		outcome.Err = nil
		log.WithFields(logrus.Fields{
			"profile":  profile.Name,
			"attempts": outcome.Attempts,
		}).Debug("chunk transcribed")
		return outcome
	}

	return outcome
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
