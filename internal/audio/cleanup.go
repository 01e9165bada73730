package audio

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Cleaner securely removes temporary files: each file is overwritten with
// random data across its full length, flushed to disk, then deleted. Call
// recordings can contain sensitive customer conversations, so plain deletion
// is not enough for the working copies.
//
// Cleanup never returns an error: failures are logged and the remaining
// paths still processed. It operates on the os package directly rather than
// injected dependencies; cleanup targets are internal temp files only, and
// tests use t.TempDir.
type Cleaner struct {
	enabled bool
	log     *logrus.Entry
}

// NewCleaner creates a Cleaner. When enabled is false, Cleanup is a no-op
// (the auto_cleanup config toggle).
func NewCleaner(enabled bool, log *logrus.Entry) *Cleaner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cleaner{enabled: enabled, log: log}
}

// Cleanup shreds and removes each path, then removes the parent directory
// when this pipeline created it and the removal emptied it. Missing paths
// log a warning and are skipped; nothing here ever panics or propagates an
// error.
func (c *Cleaner) Cleanup(paths []string) {
	if !c.enabled {
		return
	}

	for _, path := range paths {
		if err := shred(path); err != nil {
			c.log.WithError(err).WithField("path", path).Warn("failed to securely delete temporary file")
			continue
		}
		c.log.WithField("path", path).Debug("securely deleted temporary file")
		c.removeEmptyTempDir(filepath.Dir(path))
	}
}

// removeEmptyTempDir deletes dir once it holds nothing. The name check
// guards against ever removing a directory this pipeline did not create.
func (c *Cleaner) removeEmptyTempDir(dir string) {
	if !strings.Contains(filepath.Base(dir), "callscribe-") {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		c.log.WithError(err).WithField("dir", dir).Warn("failed to remove temp directory")
	}
}

// CleanupChunks shreds temporary chunk files and removes their parent temp
// directory. Non-temporary chunks (the liveness fallback wrapping the source
// file) are left alone.
func (c *Cleaner) CleanupChunks(chunks []Chunk) {
	if !c.enabled {
		return
	}

	var paths []string
	var tempDir string
	for _, chunk := range chunks {
		if !chunk.Temp {
			continue
		}
		paths = append(paths, chunk.Path)
		tempDir = filepath.Dir(chunk.Path)
	}
	c.Cleanup(paths)

	// Remove the now-empty chunk directory. The name check guards against
	// ever removing a directory this pipeline did not create.
	if tempDir != "" && strings.Contains(filepath.Base(tempDir), "callscribe-") {
		if err := os.RemoveAll(tempDir); err != nil {
			c.log.WithError(err).WithField("dir", tempDir).Warn("failed to remove chunk directory")
		}
	}
}

// shred overwrites the file with random bytes, syncs, and removes it.
func shred(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0) // #nosec G304 -- internal temp files only
	if err != nil {
		return err
	}

	noise := make([]byte, info.Size())
	if _, err := rand.Read(noise); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(noise); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
