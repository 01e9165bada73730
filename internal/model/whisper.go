package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/sirupsen/logrus"
)

// Compile-time interface compliance check.
var _ Engine = (*WhisperEngine)(nil)

// WhisperEngine runs a local whisper.cpp model. Loading a model allocates
// substantial memory and is slow, so instances are held and reused; the
// HealthManager owns that lifecycle. The underlying library is not safely
// reentrant, which is why every call is serialized upstream.
type WhisperEngine struct {
	model whisper.Model
	log   *logrus.Entry
}

// NewWhisperEngine loads a ggml model from modelPath.
// The caller must Close the engine when done.
func NewWhisperEngine(modelPath string, log *logrus.Entry) (*WhisperEngine, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", modelPath, err)
	}

	log.WithField("model_path", modelPath).Info("whisper model loaded")
	return &WhisperEngine{model: m, log: log}, nil
}

// Transcribe decodes the WAV at path and runs it through the model with the
// given profile. A fresh whisper context is created per call; contexts are
// cheap relative to the model and a stale context is one of the failure
// modes a reset has to clear.
func (e *WhisperEngine) Transcribe(ctx context.Context, path string, p Profile) (Result, error) {
	samples, err := readWAVSamples(path)
	if err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{}, ErrEmptyAudio
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("create whisper context: %w", err)
	}

	switch {
	case p.DetectLanguage:
		_ = wctx.SetLanguage("auto")
	case p.Language != "":
		if err := wctx.SetLanguage(p.Language); err != nil {
			return Result{}, fmt.Errorf("set language %q: %w", p.Language, err)
		}
	}
	wctx.SetTranslate(p.Task == "translate")

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("whisper process: %w", err)
	}

	var segments []Segment
	var texts []string
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
		texts = append(texts, text)
	}

	return Result{
		Text:     strings.TrimSpace(strings.Join(texts, " ")),
		Language: wctx.Language(),
		Segments: segments,
	}, nil
}

// Close releases the model resources.
func (e *WhisperEngine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}
