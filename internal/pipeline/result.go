package pipeline

import (
	"fmt"
	"strings"
	"time"

	"callscribe/internal/format"
	"callscribe/internal/model"
)

// Metadata summarizes the processed recording.
type Metadata struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	Language   string
	ChunkCount int
}

// TranscriptionResult is the final output of one orchestrated job.
// Success is false only when validation rejected the input or the engine
// never became available; partial failures keep Success true with inline
// error markers and warnings.
type TranscriptionResult struct {
	JobID    string
	Success  bool
	Text     string
	Metadata Metadata
	Warnings []string
	Segments []model.Segment
	Chunked  bool
}

// errorMarker is inserted in place of a failed segment's text so the gap is
// visible at the exact position in the transcript.
const errorMarker = "[ERROR] Transcription failed for this segment"

// Render produces the final text form: the transcript followed by metadata
// and warnings trailers.
func (r TranscriptionResult) Render() string {
	var b strings.Builder
	b.WriteString(r.Text)

	if r.Metadata.Duration > 0 {
		b.WriteString(fmt.Sprintf("\n\n[Metadata: Duration: %.1f minutes", r.Metadata.Duration.Minutes()))
		if r.Chunked {
			b.WriteString(", Processed in chunks")
		}
		b.WriteString("]")
	}

	if len(r.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("\n[Warnings: %s]", strings.Join(r.Warnings, "; ")))
	}

	return b.String()
}

// RenderTimestamps produces a timestamped transcript, one segment per line,
// with the same trailers as Render. Falls back to Render when the engine
// returned no segment boundaries.
func (r TranscriptionResult) RenderTimestamps() string {
	if len(r.Segments) == 0 {
		return r.Render()
	}

	lines := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		lines = append(lines, fmt.Sprintf("[%s - %s] %s",
			format.Duration(seg.Start), format.Duration(seg.End), seg.Text))
	}

	plain := r
	plain.Text = strings.Join(lines, "\n")
	return plain.Render()
}
