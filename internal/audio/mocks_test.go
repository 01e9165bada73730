package audio_test

// Shared mocks for the injectable OS dependencies. Each mock records calls
// and returns scripted results so tests never shell out to a real ffmpeg.

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"time"
)

// mockCommandRunner returns scripted output/error and records invocations.
type mockCommandRunner struct {
	mu     sync.Mutex
	output []byte
	err    error
	calls  [][]string

	// perCall overrides output/err per invocation index when non-nil.
	perCall []mockCommandResult
}

type mockCommandResult struct {
	output []byte
	err    error
}

func (m *mockCommandRunner) CombinedOutput(_ context.Context, name string, args []string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := append([]string{name}, args...)
	idx := len(m.calls)
	m.calls = append(m.calls, call)

	if idx < len(m.perCall) {
		return m.perCall[idx].output, m.perCall[idx].err
	}
	return m.output, m.err
}

func (m *mockCommandRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockCommandRunner) call(i int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// mockTempDirCreator returns a fixed directory or error.
type mockTempDirCreator struct {
	dir string
	err error
}

func (m *mockTempDirCreator) MkdirTemp(_, _ string) (string, error) {
	return m.dir, m.err
}

// mockFileStatter returns scripted file info by path.
type mockFileStatter struct {
	infos map[string]os.FileInfo
	errs  map[string]error
}

func (m *mockFileStatter) Stat(name string) (os.FileInfo, error) {
	if err, ok := m.errs[name]; ok {
		return nil, err
	}
	if info, ok := m.infos[name]; ok {
		return info, nil
	}
	return nil, fs.ErrNotExist
}

// fakeFileInfo implements fs.FileInfo with a fixed size.
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

// mockFileRemover records removals.
type mockFileRemover struct {
	mu      sync.Mutex
	removed []string
}

func (m *mockFileRemover) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, name)
	return nil
}

func (m *mockFileRemover) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	return nil
}
