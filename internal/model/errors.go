package model

import (
	"context"
	"errors"
	"strings"

	"callscribe/internal/apierr"
)

// ErrModelUnavailable indicates the engine failed to load or reload.
var ErrModelUnavailable = errors.New("model unavailable")

// ErrOutOfMemory indicates the backend ran out of accelerator or host memory.
var ErrOutOfMemory = errors.New("out of memory")

// ErrEmptyAudio indicates the engine was handed audio with no usable samples.
var ErrEmptyAudio = errors.New("no audio samples")

// ErrorKind classifies attempt failures so callers can react without
// sniffing error strings themselves.
type ErrorKind int

const (
	// KindNone means no error.
	KindNone ErrorKind = iota

	// KindRejected means the chunk was unusable and no attempt was made.
	KindRejected

	// KindOOM is a resource exhaustion failure, distinct from generic
	// failures so callers can shrink chunk size or fall back to a smaller
	// model.
	KindOOM

	// KindShape is a tensor/shape failure tied to language-detection
	// heuristics on very short or silent audio.
	KindShape

	// KindTimeout means the attempt exceeded its deadline.
	KindTimeout

	// KindUnknown is any failure that could not be classified.
	KindUnknown
)

// String returns the kind name for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRejected:
		return "rejected"
	case KindOOM:
		return "oom"
	case KindShape:
		return "shape"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Classify maps an attempt error to an ErrorKind. Typed sentinels are
// checked first; the substring heuristics below are a last-resort classifier
// for backends that only expose stringly errors, and are best effort.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrOutOfMemory) {
		return KindOOM
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apierr.ErrTimeout) {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "oom"):
		return KindOOM
	case strings.Contains(msg, "reshape tensor"), strings.Contains(msg, "tensor"):
		return KindShape
	}
	return KindUnknown
}
