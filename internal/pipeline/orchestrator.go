package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"callscribe/internal/audio"
	"callscribe/internal/model"
)

// Validator checks an input file before any transcription work.
type Validator interface {
	Validate(ctx context.Context, path string) audio.ValidationResult
}

// Preprocessor conditions audio for the engine. Returns the input unchanged
// when no conditioning applies or conditioning fails.
type Preprocessor interface {
	Process(ctx context.Context, af audio.AudioFile) audio.AudioFile
}

// Cleaner securely removes temporary artifacts.
type Cleaner interface {
	Cleanup(paths []string)
	CleanupChunks(chunks []audio.Chunk)
}

// Orchestrator drives one recording through validation, preprocessing,
// chunking, transcription, and cleanup.
type Orchestrator struct {
	validator    Validator
	preprocessor Preprocessor
	chunker      audio.Chunker
	cleaner      Cleaner
	transcriber  *ChunkTranscriber
	health       *model.HealthManager

	chunkDuration  time.Duration
	maxWorkers     int
	resetThreshold int
	jobTimeout     time.Duration
	log            *logrus.Entry
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithChunkDuration sets the maximum single-chunk duration.
func WithChunkDuration(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.chunkDuration = d }
}

// WithMaxWorkers bounds concurrent chunk processing.
func WithMaxWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.maxWorkers = n }
}

// WithResetThreshold sets the consecutive-failure count that triggers an
// engine reset.
func WithResetThreshold(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.resetThreshold = n }
}

// WithJobTimeout bounds total wall-clock time per job. Zero means no bound.
func WithJobTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.jobTimeout = d }
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(log *logrus.Entry) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	validator Validator,
	preprocessor Preprocessor,
	chunker audio.Chunker,
	cleaner Cleaner,
	transcriber *ChunkTranscriber,
	health *model.HealthManager,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		validator:      validator,
		preprocessor:   preprocessor,
		chunker:        chunker,
		cleaner:        cleaner,
		transcriber:    transcriber,
		health:         health,
		chunkDuration:  5 * time.Minute,
		maxWorkers:     1,
		resetThreshold: 2,
		log:            logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run transcribes the recording at path end to end. The returned error is
// non-nil only when the result is unusable (validation failure, engine never
// available, context cancellation); per-chunk failures surface as inline
// markers and warnings on a successful result instead.
func (o *Orchestrator) Run(ctx context.Context, path string) (TranscriptionResult, error) {
	jobID := uuid.NewString()
	log := o.log.WithField("job", jobID)
	result := TranscriptionResult{JobID: jobID}

	if o.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.jobTimeout)
		defer cancel()
	}

	log.WithField("path", path).Info("starting transcription job")

	vr := o.validator.Validate(ctx, path)
	result.Warnings = append(result.Warnings, vr.Warnings...)
	if !vr.Valid {
		result.Warnings = append(result.Warnings, vr.Errors...)
		log.WithField("errors", vr.Errors).Error("validation failed")
		return result, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(vr.Errors, "; "))
	}
	af := vr.Metadata
	result.Metadata.Duration = af.Duration
	result.Metadata.SampleRate = af.SampleRate
	result.Metadata.Channels = af.Channels

	// Temp artifacts are released on every exit path. Chunk cleanup skips
	// non-temp chunks, so the original input is never touched.
	var tempPaths []string
	var chunks []audio.Chunk
	defer func() {
		o.cleaner.CleanupChunks(chunks)
		o.cleaner.Cleanup(tempPaths)
	}()

	processed := o.preprocessor.Process(ctx, af)
	if processed.Path != af.Path {
		tempPaths = append(tempPaths, processed.Path)
	}

	if af.Duration > o.chunkDuration {
		chunks = o.chunker.Chunk(ctx, processed)
		result.Chunked = len(chunks) > 1
	} else {
		chunks = []audio.Chunk{{
			Path:    processed.Path,
			Index:   0,
			EndTime: af.Duration,
		}}
	}
	result.Metadata.ChunkCount = len(chunks)
	log.WithField("chunks", len(chunks)).Info("audio prepared")

	outcomes := o.transcribeAll(ctx, chunks)
	o.assemble(&result, chunks, outcomes)

	// A cancelled context means the caller aborted the job, typically via
	// SIGINT; the partial transcript is returned alongside the error so it
	// can still be inspected, but the job itself did not finish. Job-timer
	// expiry instead degrades to the per-chunk failure markers.
	if err := ctx.Err(); err != nil && (errors.Is(err, context.Canceled) || !result.Success) {
		return result, err
	}
	if !result.Success {
		log.Error("no chunk produced text and the engine never became available")
		return result, fmt.Errorf("%w: %w", ErrNoTranscription, model.ErrModelUnavailable)
	}

	log.WithFields(logrus.Fields{
		"chunks":   len(chunks),
		"warnings": len(result.Warnings),
	}).Info("transcription job finished")
	return result, nil
}

// transcribeAll runs every chunk through the attempt ladder, bounding
// concurrency at maxWorkers. The engine mutex still serializes inference, so
// extra workers only overlap file I/O and decoding with it.
func (o *Orchestrator) transcribeAll(ctx context.Context, chunks []audio.Chunk) []AttemptOutcome {
	outcomes := make([]AttemptOutcome, len(chunks))
	tracker := newFailureTracker(o.resetThreshold)

	if o.maxWorkers <= 1 {
		for i, chunk := range chunks {
			outcomes[i] = o.transcribeOne(ctx, chunk, tracker)
		}
		return outcomes
	}

	sem := make(chan struct{}, o.maxWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				outcomes[i] = AttemptOutcome{Kind: model.KindTimeout, Err: gctx.Err()}
				return nil
			}
			defer func() { <-sem }()

			outcomes[i] = o.transcribeOne(gctx, chunk, tracker)
			return nil
		})
	}
	// Workers never return errors; failures live in the outcomes.
	_ = g.Wait()
	return outcomes
}

// transcribeOne runs one chunk and feeds the consecutive-failure tracker.
// Rejected chunks are the chunk's own problem, not the engine's, so they do
// not count toward a reset.
func (o *Orchestrator) transcribeOne(ctx context.Context, chunk audio.Chunk, tracker *failureTracker) AttemptOutcome {
	outcome := o.transcriber.Transcribe(ctx, chunk)
	if outcome.Kind == model.KindRejected {
		return outcome
	}
	if tracker.record(outcome.Success) {
		o.log.WithField("chunk", chunk.Index).Warn("consecutive failure threshold reached")
		if err := o.health.Reset(ctx); err != nil {
			o.log.WithError(err).Warn("engine reset failed, continuing unloaded")
		}
	}
	return outcome
}

// assemble builds the final transcript in chunk index order, inserting error
// markers for failed chunks and offsetting segment timestamps into the
// source recording's timeline.
func (o *Orchestrator) assemble(result *TranscriptionResult, chunks []audio.Chunk, outcomes []AttemptOutcome) {
	parts := make([]string, 0, len(outcomes))
	anySuccess := false
	allUnavailable := true

	for i, outcome := range outcomes {
		if !outcome.Success {
			parts = append(parts, errorMarker)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("transcription failed for segment %d (%s)", i+1, outcome.Kind))
			if !isModelUnavailable(outcome.Err) {
				allUnavailable = false
			}
			continue
		}
		anySuccess = true
		allUnavailable = false

		parts = append(parts, outcome.Text)
		if result.Metadata.Language == "" {
			result.Metadata.Language = outcome.Language
		}
		for _, seg := range outcome.Segments {
			result.Segments = append(result.Segments, model.Segment{
				Start: seg.Start + chunks[i].StartTime,
				End:   seg.End + chunks[i].StartTime,
				Text:  seg.Text,
			})
		}
	}

	result.Text = strings.Join(parts, " ")
	result.Success = anySuccess || !allUnavailable
}

func isModelUnavailable(err error) bool {
	return err != nil && errors.Is(err, model.ErrModelUnavailable)
}

// failureTracker counts consecutive chunk failures and signals exactly one
// reset when the threshold is reached, then starts counting again.
type failureTracker struct {
	mu        sync.Mutex
	threshold int
	count     int
}

func newFailureTracker(threshold int) *failureTracker {
	return &failureTracker{threshold: threshold}
}

// record registers one chunk outcome and reports whether the caller should
// reset the engine now.
func (t *failureTracker) record(success bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if success {
		t.count = 0
		return false
	}
	t.count++
	if t.threshold > 0 && t.count >= t.threshold {
		t.count = 0
		return true
	}
	return false
}
