package audio

import "errors"

// ErrFileEmpty indicates the input file is missing or has zero bytes.
var ErrFileEmpty = errors.New("file is missing or empty")

// ErrFileTooLarge indicates the input file exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// ErrUnsupportedFormat indicates the file extension is not in the supported set.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrUndecodable indicates ffmpeg could not read the container at all.
var ErrUndecodable = errors.New("cannot read audio file")

// ErrChunkingFailed indicates ffmpeg failed during audio chunking.
var ErrChunkingFailed = errors.New("audio chunking failed")

// ErrNoDuration indicates the probe output contained no parseable duration.
var ErrNoDuration = errors.New("could not parse duration from ffmpeg output")
