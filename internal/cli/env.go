package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"callscribe/internal/audio"
	"callscribe/internal/config"
	"callscribe/internal/ffmpeg"
	"callscribe/internal/logging"
	"callscribe/internal/model"
	"callscribe/internal/pipeline"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields with the With* options.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Logger *logrus.Entry

	FFmpegResolver   Resolver
	ConfigLoader     ConfigLoader
	PipelineBuilder  PipelineBuilder
	ValidatorFactory ValidatorFactory
}

// Resolver locates the ffmpeg binary and checks its version.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Runner executes one transcription job end to end.
type Runner interface {
	Run(ctx context.Context, path string) (pipeline.TranscriptionResult, error)
}

// PipelineBuilder assembles a ready-to-run pipeline from configuration.
type PipelineBuilder interface {
	Build(env *Env, cfg config.Config, ffmpegPath string) (Runner, error)
}

// FileValidator checks an input file and reports metadata.
type FileValidator interface {
	Validate(ctx context.Context, path string) audio.ValidationResult
}

// ValidatorFactory creates standalone validators.
type ValidatorFactory interface {
	NewValidator(cfg config.Config, ffmpegPath string, log *logrus.Entry) FileValidator
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) EnvOption {
	return func(e *Env) { e.Logger = log }
}

// WithResolver sets the ffmpeg resolver.
func WithResolver(r Resolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithPipelineBuilder sets the pipeline builder.
func WithPipelineBuilder(b PipelineBuilder) EnvOption {
	return func(e *Env) { e.PipelineBuilder = b }
}

// WithValidatorFactory sets the validator factory.
func WithValidatorFactory(f ValidatorFactory) EnvOption {
	return func(e *Env) { e.ValidatorFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		Logger:           logging.New().Entry,
		FFmpegResolver:   &defaultResolver{},
		ConfigLoader:     &defaultConfigLoader{},
		PipelineBuilder:  &defaultPipelineBuilder{},
		ValidatorFactory: &defaultValidatorFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultResolver struct{}

func (defaultResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultValidatorFactory struct{}

func (defaultValidatorFactory) NewValidator(cfg config.Config, ffmpegPath string, log *logrus.Entry) FileValidator {
	return audio.NewValidator(ffmpegPath, cfg.MaxFileSizeMB, cfg.SupportedFormats,
		audio.WithValidatorLogger(log))
}

// defaultPipelineBuilder wires the full production pipeline: validator,
// preprocessor, chunker, cleaner, engine manager, transcriber, orchestrator.
type defaultPipelineBuilder struct{}

func (defaultPipelineBuilder) Build(env *Env, cfg config.Config, ffmpegPath string) (Runner, error) {
	log := env.Logger

	factory, err := engineFactory(env, cfg)
	if err != nil {
		return nil, err
	}
	health := model.NewHealthManager(factory, cfg.ModelSize, log.WithField("component", "model"))

	chunker, err := audio.NewTimeChunker(ffmpegPath, cfg.ChunkDuration,
		audio.WithChunkerLogger(log.WithField("component", "chunker")))
	if err != nil {
		return nil, err
	}

	validator := audio.NewValidator(ffmpegPath, cfg.MaxFileSizeMB, cfg.SupportedFormats,
		audio.WithValidatorLogger(log.WithField("component", "validator")))
	preprocessor := audio.NewPreprocessor(ffmpegPath, cfg.NormalizeAudio, cfg.NoiseReduction,
		audio.WithPreprocessorLogger(log.WithField("component", "preprocess")))
	cleaner := audio.NewCleaner(cfg.AutoCleanup, log.WithField("component", "cleanup"))
	transcriber := pipeline.NewChunkTranscriber(health, cfg.Language,
		pipeline.WithTranscriberLogger(log.WithField("component", "transcriber")))

	return pipeline.NewOrchestrator(validator, preprocessor, chunker, cleaner, transcriber, health,
		pipeline.WithChunkDuration(cfg.ChunkDuration),
		pipeline.WithMaxWorkers(cfg.MaxWorkers),
		pipeline.WithResetThreshold(cfg.ResetThreshold),
		pipeline.WithJobTimeout(cfg.JobTimeout),
		pipeline.WithOrchestratorLogger(log.WithField("component", "orchestrator")),
	), nil
}

// engineFactory selects the inference backend from configuration.
func engineFactory(env *Env, cfg config.Config) (model.EngineFactory, error) {
	switch cfg.Engine {
	case config.EngineWhisper:
		return func(ctx context.Context, size string) (model.Engine, error) {
			path, err := modelFilePath(cfg.ModelPath, size)
			if err != nil {
				return nil, err
			}
			return model.NewWhisperEngine(path, env.Logger.WithField("component", "whisper"))
		}, nil
	case config.EngineOpenAI:
		key := env.Getenv(config.EnvOpenAIAPIKey)
		if key == "" {
			return nil, fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, config.EnvOpenAIAPIKey)
		}
		client := openai.NewClient(key)
		return func(ctx context.Context, size string) (model.Engine, error) {
			return model.NewOpenAIEngine(client, env.Logger.WithField("component", "openai")), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, cfg.Engine)
	}
}

// modelFilePath resolves the ggml model file for a size profile. An explicit
// configured path wins; otherwise the standard cache location is used.
func modelFilePath(configured, size string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(cache, "callscribe", fmt.Sprintf("ggml-%s.bin", size)), nil
}

// Compile-time interface verification.
var (
	_ Resolver         = (*defaultResolver)(nil)
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ PipelineBuilder  = (*defaultPipelineBuilder)(nil)
	_ ValidatorFactory = (*defaultValidatorFactory)(nil)
)
