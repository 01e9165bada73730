package cli_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"callscribe/internal/audio"
	"callscribe/internal/cli"
	"callscribe/internal/config"
	"callscribe/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Env stubs
// ---------------------------------------------------------------------------

type stubResolver struct {
	path    string
	err     error
	checked bool
}

func (s *stubResolver) Resolve(context.Context) (string, error) {
	return s.path, s.err
}

func (s *stubResolver) CheckVersion(context.Context, string) {
	s.checked = true
}

type stubConfigLoader struct {
	cfg config.Config
	err error
}

func (s *stubConfigLoader) Load() (config.Config, error) {
	return s.cfg, s.err
}

type stubRunner struct {
	mu     sync.Mutex
	result pipeline.TranscriptionResult
	err    error
	paths  []string
}

func (s *stubRunner) Run(_ context.Context, path string) (pipeline.TranscriptionResult, error) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return s.result, s.err
}

// stubBuilder hands out a fixed runner and records the config it was built
// with, so flag-override tests can inspect the effective configuration.
type stubBuilder struct {
	runner   cli.Runner
	err      error
	builtCfg *config.Config
}

func (s *stubBuilder) Build(_ *cli.Env, cfg config.Config, _ string) (cli.Runner, error) {
	c := cfg
	s.builtCfg = &c
	return s.runner, s.err
}

type stubFileValidator struct {
	result audio.ValidationResult
}

func (s *stubFileValidator) Validate(context.Context, string) audio.ValidationResult {
	return s.result
}

type stubValidatorFactory struct {
	validator cli.FileValidator
}

func (s *stubValidatorFactory) NewValidator(config.Config, string, *logrus.Entry) cli.FileValidator {
	return s.validator
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

// testEnv bundles an Env wired to buffers and stubs.
type testEnv struct {
	env      *cli.Env
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	resolver *stubResolver
	builder  *stubBuilder
	runner   *stubRunner
}

func newTestEnv(t *testing.T, opts ...cli.EnvOption) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	te := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		resolver: &stubResolver{path: "/usr/bin/ffmpeg"},
		runner:   &stubRunner{result: pipeline.TranscriptionResult{JobID: "job-1", Success: true, Text: "transcribed text"}},
	}
	te.builder = &stubBuilder{runner: te.runner}

	base := []cli.EnvOption{
		cli.WithStdout(te.stdout),
		cli.WithStderr(te.stderr),
		cli.WithGetenv(func(string) string { return "" }),
		cli.WithLogger(logrus.NewEntry(log)),
		cli.WithResolver(te.resolver),
		cli.WithConfigLoader(&stubConfigLoader{cfg: config.Default()}),
		cli.WithPipelineBuilder(te.builder),
		cli.WithValidatorFactory(&stubValidatorFactory{validator: &stubFileValidator{}}),
	}
	te.env = cli.NewEnv(append(base, opts...)...)
	return te
}

// execute runs a command with args the way main would.
func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()

	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}
