package config_test

// Notes:
// - Tests point XDG_CONFIG_HOME at a temp dir, so the real user config is
//   never touched and the file parser is exercised through the public API.
// - t.Setenv precludes t.Parallel in tests that touch the environment.

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"callscribe/internal/config"
)

// writeConfigFile installs content as the config file inside a fresh
// XDG_CONFIG_HOME and returns after pointing the process at it.
func writeConfigFile(t *testing.T, content string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if content == "" {
		return
	}

	cfgDir := filepath.Join(dir, "callscribe")
	if err := os.MkdirAll(cfgDir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func clearEnvFallbacks(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvModelPath, "")
	t.Setenv(config.EnvModelSize, "")
	t.Setenv(config.EnvEngine, "")
}

// ---------------------------------------------------------------------------
// Defaults and loading
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	if cfg.MaxFileSizeMB != 100 {
		t.Errorf("MaxFileSizeMB = %d", cfg.MaxFileSizeMB)
	}
	if cfg.ChunkDuration != 5*time.Minute {
		t.Errorf("ChunkDuration = %v", cfg.ChunkDuration)
	}
	if cfg.MaxWorkers != 1 {
		t.Errorf("MaxWorkers = %d", cfg.MaxWorkers)
	}
	if cfg.Engine != config.EngineWhisper {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.ModelSize != "base" {
		t.Errorf("ModelSize = %q", cfg.ModelSize)
	}
	if !cfg.NormalizeAudio || !cfg.NoiseReduction || !cfg.AutoCleanup {
		t.Error("preprocessing and cleanup should default on")
	}
	if !slices.Contains(cfg.SupportedFormats, "wav") || !slices.Contains(cfg.SupportedFormats, "mp3") {
		t.Error("default formats should include wav and mp3")
	}
	if slices.Contains(cfg.SupportedFormats, "txt") {
		t.Error("txt should not be a supported format")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	writeConfigFile(t, "")
	clearEnvFallbacks(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.MaxFileSizeMB != config.DefaultMaxFileSizeMB {
		t.Errorf("MaxFileSizeMB = %d", cfg.MaxFileSizeMB)
	}
}

func TestLoadFromFile(t *testing.T) {
	writeConfigFile(t, strings.Join([]string{
		"# pipeline tuning",
		"max_file_size_mb = 200",
		"chunk_duration_minutes = 10",
		"max_workers = 2",
		"supported_formats = .MP3, wav , FLAC",
		"normalize_audio = false",
		"consecutive_failure_reset_threshold = 3",
		"engine = openai",
		"language = fr",
		"job_timeout_minutes = 30",
		"",
	}, "\n"))
	clearEnvFallbacks(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxFileSizeMB != 200 {
		t.Errorf("MaxFileSizeMB = %d", cfg.MaxFileSizeMB)
	}
	if cfg.ChunkDuration != 10*time.Minute {
		t.Errorf("ChunkDuration = %v", cfg.ChunkDuration)
	}
	if cfg.MaxWorkers != 2 {
		t.Errorf("MaxWorkers = %d", cfg.MaxWorkers)
	}
	if !slices.Contains(cfg.SupportedFormats, "mp3") || !slices.Contains(cfg.SupportedFormats, "flac") {
		t.Errorf("SupportedFormats = %v", cfg.SupportedFormats)
	}
	if cfg.NormalizeAudio {
		t.Error("NormalizeAudio should be false")
	}
	if cfg.NoiseReduction != true {
		t.Error("unset NoiseReduction should keep its default")
	}
	if cfg.ResetThreshold != 3 {
		t.Errorf("ResetThreshold = %d", cfg.ResetThreshold)
	}
	if cfg.Engine != config.EngineOpenAI {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.Language != "fr" {
		t.Errorf("Language = %q", cfg.Language)
	}
	if cfg.JobTimeout != 30*time.Minute {
		t.Errorf("JobTimeout = %v", cfg.JobTimeout)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing equals", content: "max_workers 2\n"},
		{name: "unknown key", content: "max_wokers=2\n"},
		{name: "non-integer", content: "max_file_size_mb=lots\n"},
		{name: "non-boolean", content: "auto_cleanup=yep\n"},
		{name: "invalid after parse", content: "max_file_size_mb=0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfigFile(t, tt.content)
			clearEnvFallbacks(t)

			if _, err := config.Load(); err == nil {
				t.Errorf("Load() accepted %q", tt.content)
			}
		})
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	writeConfigFile(t, "model_size = small\n")
	t.Setenv(config.EnvModelPath, "/models/ggml-medium.bin")
	t.Setenv(config.EnvModelSize, "medium")
	t.Setenv(config.EnvEngine, "openai")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// File value wins over the environment; unset keys fall back.
	if cfg.ModelSize != "small" {
		t.Errorf("ModelSize = %q, want file value", cfg.ModelSize)
	}
	if cfg.ModelPath != "/models/ggml-medium.bin" {
		t.Errorf("ModelPath = %q, want env fallback", cfg.ModelPath)
	}
	if cfg.Engine != "openai" {
		t.Errorf("Engine = %q, want env fallback", cfg.Engine)
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults pass", mutate: func(*config.Config) {}},
		{name: "zero file size", mutate: func(c *config.Config) { c.MaxFileSizeMB = 0 }, wantErr: true},
		{name: "zero chunk duration", mutate: func(c *config.Config) { c.ChunkDuration = 0 }, wantErr: true},
		{name: "zero reset threshold", mutate: func(c *config.Config) { c.ResetThreshold = 0 }, wantErr: true},
		{name: "no formats", mutate: func(c *config.Config) { c.SupportedFormats = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClampsWorkers(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.MaxWorkers = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxWorkers != 1 {
		t.Errorf("MaxWorkers = %d, want raised to 1", cfg.MaxWorkers)
	}

	cfg.MaxWorkers = 64
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxWorkers != config.MaxRecommendedWorkers {
		t.Errorf("MaxWorkers = %d, want capped at %d", cfg.MaxWorkers, config.MaxRecommendedWorkers)
	}
}

// ---------------------------------------------------------------------------
// File round-trip
// ---------------------------------------------------------------------------

func TestSaveGetList(t *testing.T) {
	writeConfigFile(t, "")

	if err := config.Save("model_size", "medium"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := config.Save("engine", "openai"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := config.Get("model_size")
	if err != nil {
		t.Fatal(err)
	}
	if got != "medium" {
		t.Errorf("Get(model_size) = %q", got)
	}

	all, err := config.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["engine"] != "openai" {
		t.Errorf("List() = %v", all)
	}
}

func TestSaveRejectsUnknownKey(t *testing.T) {
	writeConfigFile(t, "")

	if err := config.Save("no_such_key", "x"); err == nil {
		t.Error("Save accepted an unknown key")
	}
}

func TestGetMissingFile(t *testing.T) {
	writeConfigFile(t, "")

	got, err := config.Get("engine")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if got != "" {
		t.Errorf("Get on missing file = %q, want empty", got)
	}
}
