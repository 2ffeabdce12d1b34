// Package persist implements the crash-safe persistence engine: every write
// goes through governor checks, a per-destination advisory lock, a backup of
// any pre-existing file, and an atomic temp-file commit.
package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/lockfile"
	"github.com/webvault/webvault/internal/metrics"
	"github.com/webvault/webvault/internal/pathsafe"
)

// Governor is the advisory resource pre-check consulted before every write.
type Governor interface {
	HasMemoryHeadroom() bool
	HasDiskSpace(required uint64, path string) bool
}

// Engine owns lock and temp-file lifecycles. It is safe for concurrent use
// against different destination paths; operations against the same path are
// serialized by the per-path lock and fail fast on contention.
type Engine struct {
	gov      Governor
	resolver *pathsafe.Resolver
	logger   *zap.Logger

	mu        sync.Mutex
	tempFiles map[string]struct{}
}

// NewEngine constructs an Engine. The engine instance is expected to be
// built once and passed by handle to every component that persists.
func NewEngine(gov Governor, resolver *pathsafe.Resolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		gov:       gov,
		resolver:  resolver,
		logger:    logger,
		tempFiles: make(map[string]struct{}),
	}
}

// Write durably stores content at path. It returns true only if the atomic
// commit completed; any earlier failure returns false and leaves no partial
// destination file. A held lock is surfaced as failure so the caller can
// retry.
func (e *Engine) Write(path string, content []byte) bool {
	if !e.resolver.Validate(path) {
		return false
	}
	if !e.gov.HasMemoryHeadroom() {
		e.logger.Error("write refused: memory ceiling reached", zap.String("path", path))
		return false
	}
	if !e.gov.HasDiskSpace(uint64(len(content)), filepath.Dir(path)) {
		e.logger.Error("write refused: insufficient disk space",
			zap.String("path", path), zap.Int("bytes", len(content)))
		return false
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".webvault-*")
	if err != nil {
		e.logger.Error("create temp file failed", zap.String("path", path), zap.Error(err))
		return false
	}
	tmpPath := tmp.Name()
	e.register(tmpPath)

	committed := false
	defer func() {
		if !committed {
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				e.logger.Warn("remove temp file failed", zap.String("temp", tmpPath), zap.Error(err))
			}
		}
		e.deregister(tmpPath)
	}()

	lock, err := lockfile.Acquire(path)
	if err != nil {
		tmp.Close()
		e.logger.Warn("lock acquisition failed", zap.String("path", path), zap.Error(err))
		return false
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Warn("lock release failed", zap.String("path", path), zap.Error(err))
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		e.logger.Error("write temp file failed", zap.String("temp", tmpPath), zap.Error(err))
		return false
	}
	if err := tmp.Close(); err != nil {
		e.logger.Error("close temp file failed", zap.String("temp", tmpPath), zap.Error(err))
		return false
	}

	if _, err := os.Stat(path); err == nil {
		backup := BackupPath(path, time.Now())
		if err := copyFile(path, backup); err != nil {
			e.logger.Error("backup before overwrite failed",
				zap.String("path", path), zap.String("backup", backup), zap.Error(err))
			return false
		}
		e.logger.Info("existing file backed up",
			zap.String("path", path), zap.String("backup", backup))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		e.logger.Error("atomic commit failed", zap.String("path", path), zap.Error(err))
		return false
	}
	committed = true
	metrics.AddBytesWritten(len(content))
	return true
}

// Read returns the full content at path, or nil if the path is invalid,
// missing, or locked elsewhere. Reads take the same exclusive lock class as
// writes; no reader/writer distinction is needed.
func (e *Engine) Read(path string) []byte {
	if !e.resolver.Validate(path) {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		e.logger.Error("file does not exist", zap.String("path", path))
		return nil
	}

	lock, err := lockfile.Acquire(path)
	if err != nil {
		e.logger.Warn("lock acquisition failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Warn("lock release failed", zap.String("path", path), zap.Error(err))
		}
	}()

	content, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("read failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	return content
}

// Hash returns the SHA-256 hex digest of the file at path, or "" if the
// file is missing or unreadable.
func (e *Engine) Hash(path string) string {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			e.logger.Error("hash open failed", zap.String("path", path), zap.Error(err))
		}
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		e.logger.Error("hash read failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CleanupTempFiles best-effort deletes every registered temp file.
// Individual failures are logged and do not halt the sweep.
func (e *Engine) CleanupTempFiles() {
	e.mu.Lock()
	paths := make([]string, 0, len(e.tempFiles))
	for p := range e.tempFiles {
		paths = append(paths, p)
	}
	e.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("temp file cleanup failed", zap.String("temp", p), zap.Error(err))
			continue
		}
		e.deregister(p)
	}
}

// Close tears the engine down, reclaiming any temp files still registered.
func (e *Engine) Close() {
	e.CleanupTempFiles()
}

// TempFileCount reports the number of registered temp files.
func (e *Engine) TempFileCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tempFiles)
}

func (e *Engine) register(path string) {
	e.mu.Lock()
	e.tempFiles[path] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) deregister(path string) {
	e.mu.Lock()
	delete(e.tempFiles, path)
	e.mu.Unlock()
}

// BackupPath derives the timestamped sibling name a pre-existing file is
// copied to before being overwritten.
func BackupPath(path string, now time.Time) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", stem, now.Format("20060102_150405"), ext))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
