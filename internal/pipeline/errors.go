package pipeline

import "errors"

var (
	// ErrValidationFailed indicates the input file was rejected before any
	// transcription work started.
	ErrValidationFailed = errors.New("audio validation failed")

	// ErrChunkRejected indicates a chunk was refused without invoking the
	// engine: the file is missing, empty, or too short to carry speech.
	ErrChunkRejected = errors.New("chunk rejected")

	// ErrNoTranscription indicates the engine never produced text for any
	// chunk because the model could not be loaded.
	ErrNoTranscription = errors.New("transcription produced no output")
)
