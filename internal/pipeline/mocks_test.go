package pipeline_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"callscribe/internal/audio"
	"callscribe/internal/model"
)

func discardLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// ---------------------------------------------------------------------------
// Engine and health manager
// ---------------------------------------------------------------------------

// scriptEngine delegates each transcription call to fn and records the
// profiles it was asked to run.
type scriptEngine struct {
	mu       sync.Mutex
	fn       func(path string, profile model.Profile) (model.Result, error)
	profiles []string
	paths    []string
}

func (e *scriptEngine) Transcribe(_ context.Context, path string, profile model.Profile) (model.Result, error) {
	e.mu.Lock()
	e.profiles = append(e.profiles, profile.Name)
	e.paths = append(e.paths, path)
	fn := e.fn
	e.mu.Unlock()

	if fn == nil {
		return model.Result{Text: "ok"}, nil
	}
	return fn(path, profile)
}

func (e *scriptEngine) Close() error { return nil }

func (e *scriptEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.profiles)
}

func (e *scriptEngine) profileNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.profiles...)
}

// newHealthWith wraps a single engine in a manager whose factory always
// succeeds. The second return value counts factory loads.
func newHealthWith(engine model.Engine) (*model.HealthManager, *int) {
	loads := new(int)
	var mu sync.Mutex
	factory := func(context.Context, string) (model.Engine, error) {
		mu.Lock()
		*loads++
		mu.Unlock()
		return engine, nil
	}
	return model.NewHealthManager(factory, "base", discardLogger()), loads
}

// ---------------------------------------------------------------------------
// File statter
// ---------------------------------------------------------------------------

type fakeFileInfo struct {
	name string
	size int64
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

// mockFileStatter serves sizes per path; unknown paths do not exist.
type mockFileStatter struct {
	sizes map[string]int64
}

func (m *mockFileStatter) Stat(name string) (os.FileInfo, error) {
	size, ok := m.sizes[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return fakeFileInfo{name: name, size: size}, nil
}

// statAll reports every chunk path as a healthy-sized file.
func statAll(chunks []audio.Chunk) *mockFileStatter {
	m := &mockFileStatter{sizes: map[string]int64{}}
	for _, c := range chunks {
		m.sizes[c.Path] = 4 * 1024 * 1024
	}
	return m
}

// ---------------------------------------------------------------------------
// Pipeline stage mocks
// ---------------------------------------------------------------------------

type mockValidator struct {
	result audio.ValidationResult
}

func (m *mockValidator) Validate(context.Context, string) audio.ValidationResult {
	return m.result
}

// mockPreprocessor returns the input unchanged unless out is set.
type mockPreprocessor struct {
	out func(audio.AudioFile) audio.AudioFile
}

func (m *mockPreprocessor) Process(_ context.Context, af audio.AudioFile) audio.AudioFile {
	if m.out == nil {
		return af
	}
	return m.out(af)
}

type mockChunker struct {
	chunks []audio.Chunk
}

func (m *mockChunker) Chunk(context.Context, audio.AudioFile) []audio.Chunk {
	return m.chunks
}

// mockCleaner records what it was asked to remove.
type mockCleaner struct {
	mu     sync.Mutex
	paths  []string
	chunks []audio.Chunk
}

func (m *mockCleaner) Cleanup(paths []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, paths...)
}

func (m *mockCleaner) CleanupChunks(chunks []audio.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
}

func (m *mockCleaner) cleanedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}
