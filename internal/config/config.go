package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config keys recognized in the config file.
const (
	KeyMaxFileSizeMB        = "max_file_size_mb"
	KeySupportedFormats     = "supported_formats"
	KeyChunkDurationMinutes = "chunk_duration_minutes"
	KeyMaxWorkers           = "max_workers"
	KeyNormalizeAudio       = "normalize_audio"
	KeyNoiseReduction       = "noise_reduction"
	KeyResetThreshold       = "consecutive_failure_reset_threshold"
	KeyModelSize            = "model_size"
	KeyModelPath            = "model_path"
	KeyEngine               = "engine"
	KeyLanguage             = "language"
	KeyAutoCleanup          = "auto_cleanup"
	KeyJobTimeoutMinutes    = "job_timeout_minutes"
)

// Environment variable fallbacks.
const (
	EnvModelPath    = "CALLSCRIBE_MODEL_PATH"
	EnvModelSize    = "CALLSCRIBE_MODEL_SIZE"
	EnvEngine       = "CALLSCRIBE_ENGINE"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Recognized inference backends.
const (
	EngineWhisper = "whisper"
	EngineOpenAI  = "openai"
)

// Defaults mirror the shipped config.yaml of the original deployment.
const (
	DefaultMaxFileSizeMB        = 100
	DefaultChunkDurationMinutes = 5
	DefaultMaxWorkers           = 1
	DefaultResetThreshold       = 2
	DefaultModelSize            = "base"
	DefaultEngine               = EngineWhisper
)

// DefaultSupportedFormats lists accepted container extensions (no dot).
var DefaultSupportedFormats = []string{"mp3", "wav", "m4a", "flac", "aac", "ogg"}

// Config holds the transcription pipeline configuration.
type Config struct {
	// MaxFileSizeMB rejects files larger than this during validation.
	MaxFileSizeMB int

	// SupportedFormats is the set of accepted file extensions (lowercase, no dot).
	SupportedFormats []string

	// ChunkDuration is the maximum duration of a single chunk. Files longer
	// than this are split before transcription.
	ChunkDuration time.Duration

	// MaxWorkers bounds concurrent chunk processing. Inference itself is
	// serialized on the engine mutex regardless.
	MaxWorkers int

	// NormalizeAudio toggles loudness normalization during preprocessing.
	NormalizeAudio bool

	// NoiseReduction toggles dynamic range compression during preprocessing.
	NoiseReduction bool

	// ResetThreshold is the number of consecutive chunk failures that
	// triggers an engine reset.
	ResetThreshold int

	// ModelSize selects the whisper model profile (base, small, medium).
	ModelSize string

	// ModelPath points at the ggml model file for the local engine.
	ModelPath string

	// Engine selects the inference backend: whisper or openai.
	Engine string

	// Language is an optional forced-language hint for the fallback
	// attempt profile. Empty means English.
	Language string

	// AutoCleanup gates secure deletion of temporary files.
	AutoCleanup bool

	// JobTimeout bounds total wall-clock time per job. Zero means no bound.
	JobTimeout time.Duration
}

// Default returns a Config with production defaults.
func Default() Config {
	return Config{
		MaxFileSizeMB:    DefaultMaxFileSizeMB,
		SupportedFormats: slices.Clone(DefaultSupportedFormats),
		ChunkDuration:    DefaultChunkDurationMinutes * time.Minute,
		MaxWorkers:       DefaultMaxWorkers,
		NormalizeAudio:   true,
		NoiseReduction:   true,
		ResetThreshold:   DefaultResetThreshold,
		ModelSize:        DefaultModelSize,
		Engine:           DefaultEngine,
		AutoCleanup:      true,
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/callscribe.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "callscribe"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "callscribe"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment fallbacks, then defaults.
// A missing config file is not an error.
func Load() (Config, error) {
	cfg := Default()

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		data = map[string]string{}
	}

	if err := apply(&cfg, data); err != nil {
		return cfg, err
	}

	// Environment fallbacks for keys not set in the file.
	if data[KeyModelPath] == "" {
		if v := os.Getenv(EnvModelPath); v != "" {
			cfg.ModelPath = v
		}
	}
	if data[KeyModelSize] == "" {
		if v := os.Getenv(EnvModelSize); v != "" {
			cfg.ModelSize = v
		}
	}
	if data[KeyEngine] == "" {
		if v := os.Getenv(EnvEngine); v != "" {
			cfg.Engine = v
		}
	}

	return cfg, nil
}

// apply merges parsed key=value data into cfg.
func apply(cfg *Config, data map[string]string) error {
	for key, value := range data {
		var err error
		switch key {
		case KeyMaxFileSizeMB:
			cfg.MaxFileSizeMB, err = parseInt(key, value)
		case KeySupportedFormats:
			cfg.SupportedFormats = parseFormats(value)
		case KeyChunkDurationMinutes:
			var minutes int
			minutes, err = parseInt(key, value)
			cfg.ChunkDuration = time.Duration(minutes) * time.Minute
		case KeyMaxWorkers:
			cfg.MaxWorkers, err = parseInt(key, value)
		case KeyNormalizeAudio:
			cfg.NormalizeAudio, err = parseBool(key, value)
		case KeyNoiseReduction:
			cfg.NoiseReduction, err = parseBool(key, value)
		case KeyResetThreshold:
			cfg.ResetThreshold, err = parseInt(key, value)
		case KeyModelSize:
			cfg.ModelSize = value
		case KeyModelPath:
			cfg.ModelPath = value
		case KeyEngine:
			cfg.Engine = value
		case KeyLanguage:
			cfg.Language = value
		case KeyAutoCleanup:
			cfg.AutoCleanup, err = parseBool(key, value)
		case KeyJobTimeoutMinutes:
			var minutes int
			minutes, err = parseInt(key, value)
			cfg.JobTimeout = time.Duration(minutes) * time.Minute
		default:
			return fmt.Errorf("unknown config key %q", key)
		}
		if err != nil {
			return err
		}
	}

	return cfg.Validate()
}

// Validate checks invariants and normalizes out-of-range values.
func (c *Config) Validate() error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxFileSizeMB, c.MaxFileSizeMB)
	}
	if c.ChunkDuration <= 0 {
		return fmt.Errorf("%s must be positive", KeyChunkDurationMinutes)
	}
	if c.ResetThreshold < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyResetThreshold, c.ResetThreshold)
	}
	if len(c.SupportedFormats) == 0 {
		return fmt.Errorf("%s cannot be empty", KeySupportedFormats)
	}
	if c.MaxWorkers < 1 {
		c.MaxWorkers = 1
	}
	if c.MaxWorkers > MaxRecommendedWorkers {
		c.MaxWorkers = MaxRecommendedWorkers
	}
	return nil
}

// MaxRecommendedWorkers caps the chunk worker pool. Inference serializes on
// one mutex, so extra workers only overlap I/O and decoding.
const MaxRecommendedWorkers = 4

// parseInt parses a config integer, naming the key on error.
func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return n, nil
}

// parseBool parses a config boolean, naming the key on error.
func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, value)
	}
	return b, nil
}

// parseFormats splits a comma-separated extension list, lowercased, dots stripped.
func parseFormats(value string) []string {
	var formats []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		part = strings.TrimPrefix(part, ".")
		if part != "" {
			formats = append(formats, part)
		}
	}
	return formats
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		data[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if !knownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	p, err := path()
	if err != nil {
		return err
	}

	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}

	existing[key] = value

	return writeFile(p, existing)
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config file values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// knownKeys is the set of valid config file keys.
var knownKeys = []string{
	KeyMaxFileSizeMB, KeySupportedFormats, KeyChunkDurationMinutes,
	KeyMaxWorkers, KeyNormalizeAudio, KeyNoiseReduction, KeyResetThreshold,
	KeyModelSize, KeyModelPath, KeyEngine, KeyLanguage, KeyAutoCleanup,
	KeyJobTimeoutMinutes,
}

func knownKey(key string) bool {
	return slices.Contains(knownKeys, key)
}

// writeFile writes the config map to a file.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for key, value := range data {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}
