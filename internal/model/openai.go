package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"callscribe/internal/apierr"
)

// audioTranscriber is the slice of the OpenAI client this engine needs.
// *openai.Client implements it implicitly; tests inject mocks.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Engine           = (*OpenAIEngine)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// transientRetry bounds in-engine retries for rate limits and transient
// server errors. Parameter-level fallbacks are the caller's job; this only
// covers transport-level flakiness.
var transientRetry = apierr.RetryConfig{
	MaxRetries: 2,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

// OpenAIEngine transcribes through the OpenAI audio API. It is the remote
// alternative to the local whisper engine for deployments without the model
// weights on disk. Verbose JSON responses carry per-segment timestamps.
type OpenAIEngine struct {
	client audioTranscriber
	log    *logrus.Entry
}

// NewOpenAIEngine creates an OpenAIEngine around the given client.
func NewOpenAIEngine(client audioTranscriber, log *logrus.Entry) *OpenAIEngine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &OpenAIEngine{client: client, log: log}
}

// Transcribe sends the audio file to the API with the given profile.
// Rate limits and transient server errors are retried with backoff before
// the failure is surfaced.
func (e *OpenAIEngine) Transcribe(ctx context.Context, path string, p Profile) (Result, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if !p.DetectLanguage {
		req.Language = p.Language
	}

	resp, err := apierr.RetryWithBackoff(ctx, transientRetry,
		func() (openai.AudioResponse, error) {
			resp, err := e.client.CreateTranscription(ctx, req)
			if err != nil {
				return openai.AudioResponse{}, classifyAPIError(err)
			}
			return resp, nil
		},
		func(err error) bool {
			return errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrTimeout)
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{
			Start: time.Duration(s.Start * float64(time.Second)),
			End:   time.Duration(s.End * float64(time.Second)),
			Text:  strings.TrimSpace(s.Text),
		})
	}

	return Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Segments: segments,
	}, nil
}

// Close is a no-op; the HTTP client holds no transcription state.
func (e *OpenAIEngine) Close() error {
	return nil
}

// classifyAPIError maps go-openai errors to shared API sentinels so callers
// can branch on errors.Is instead of status codes.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apierr.ErrTimeout, err)
	}
	return err
}
