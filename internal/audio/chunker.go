package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Chunk represents a bounded-duration slice of a larger audio file,
// processed as an independent transcription unit.
// Index is the sole ordering key used for transcript reassembly.
type Chunk struct {
	Path      string        // Absolute path to the chunk file.
	Index     int           // Zero-based index defining output order.
	StartTime time.Duration // Start timestamp in the source audio.
	EndTime   time.Duration // End timestamp in the source audio.
	Temp      bool          // Whether the file is a temporary artifact owned by the pipeline.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %v-%v", c.Index, c.StartTime.Round(time.Second), c.EndTime.Round(time.Second))
}

// Chunker splits an audio file into smaller chunks suitable for transcription.
type Chunker interface {
	// Chunk splits af into consecutive, non-overlapping segments of at most
	// the configured maximum duration. On internal failure it returns a
	// single chunk covering the unchanged source, preserving pipeline
	// liveness; it never returns an error or an empty slice.
	Chunk(ctx context.Context, af AudioFile) []Chunk
}

// Compile-time interface implementation check.
var _ Chunker = (*TimeChunker)(nil)

// TimeChunker splits audio into fixed-duration consecutive chunks.
type TimeChunker struct {
	ffmpegPath  string
	maxDuration time.Duration

	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	log     *logrus.Entry
}

// TimeChunkerOption configures a TimeChunker.
type TimeChunkerOption func(*TimeChunker)

// WithChunkerCommandRunner sets the command runner (for testing).
func WithChunkerCommandRunner(r commandRunner) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.cmd = r }
}

// WithChunkerTempDir sets the temp directory creator (for testing).
func WithChunkerTempDir(t tempDirCreator) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.tempDir = t }
}

// WithChunkerFileRemover sets the file remover (for testing).
func WithChunkerFileRemover(f fileRemover) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.files = f }
}

// WithChunkerLogger sets the log entry.
func WithChunkerLogger(log *logrus.Entry) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.log = log }
}

// NewTimeChunker creates a TimeChunker with the given maximum chunk duration.
func NewTimeChunker(ffmpegPath string, maxDuration time.Duration, opts ...TimeChunkerOption) (*TimeChunker, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty")
	}
	if maxDuration <= 0 {
		return nil, fmt.Errorf("maxDuration must be positive, got %v", maxDuration)
	}

	tc := &TimeChunker{
		ffmpegPath:  ffmpegPath,
		maxDuration: maxDuration,
		cmd:         osCommandRunner{},
		tempDir:     osTempDirCreator{},
		files:       osFileRemover{},
		log:         logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// Chunk splits the audio file into consecutive segments of at most
// maxDuration; the final segment may be shorter. The number of chunks is
// ceil(duration / maxDuration).
func (tc *TimeChunker) Chunk(ctx context.Context, af AudioFile) []Chunk {
	chunks, err := tc.split(ctx, af)
	if err != nil {
		tc.log.WithError(err).Warn("chunking failed, processing file as a single chunk")
		return []Chunk{{
			Path:      af.Path,
			Index:     0,
			StartTime: 0,
			EndTime:   af.Duration,
		}}
	}
	return chunks
}

// split does the actual extraction, returning an error for the fallback path.
func (tc *TimeChunker) split(ctx context.Context, af AudioFile) ([]Chunk, error) {
	if af.Duration <= 0 {
		return nil, fmt.Errorf("%w: unknown source duration", ErrChunkingFailed)
	}

	tempDir, err := tc.tempDir.MkdirTemp("", "callscribe-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	var chunks []Chunk
	for i := 0; ; i++ {
		start := time.Duration(i) * tc.maxDuration
		if start >= af.Duration {
			break
		}
		end := min(start+tc.maxDuration, af.Duration)

		chunkPath := filepath.Join(tempDir, fmt.Sprintf("chunk_%03d.wav", i))
		if err := tc.extractChunk(ctx, af.Path, chunkPath, start, end); err != nil {
			_ = tc.files.RemoveAll(tempDir) // best-effort cleanup; original error takes precedence
			return nil, err
		}

		chunks = append(chunks, Chunk{
			Path:      chunkPath,
			Index:     i,
			StartTime: start,
			EndTime:   end,
			Temp:      true,
		})

		if end >= af.Duration {
			break
		}
	}

	return chunks, nil
}

// extractChunk extracts a segment from audioPath to chunkPath.
// Re-encodes to 16kHz mono PCM so every chunk is valid engine input even
// when the source container is truncated or oddly encoded.
func (tc *TimeChunker) extractChunk(ctx context.Context, audioPath, chunkPath string, start, end time.Duration) error {
	args := []string{
		"-y",
		"-i", audioPath,
		"-ss", formatFFmpegTime(start),
		"-to", formatFFmpegTime(end),
		"-c:a", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		chunkPath,
	}

	output, err := tc.cmd.CombinedOutput(ctx, tc.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: failed to extract chunk %s: %v\nOutput: %s",
			ErrChunkingFailed, chunkPath, err, tail(string(output)))
	}
	return nil
}

// formatFFmpegTime formats a duration for ffmpeg -ss/-to arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
