// Package walker enumerates a filesystem tree sequentially, building the
// structure tree and the flat content list of a system capture. Traversal is
// deliberately not parallelized: directory order determines deterministic
// tree construction.
package walker

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/contentproc"
	"github.com/webvault/webvault/internal/document"
	"github.com/webvault/webvault/internal/pathsafe"
)

// Config bounds what the walker captures.
type Config struct {
	FileSizeCap    int64
	FileCountLimit int
	ExcludedDirs   []string
	ExcludedFiles  []string // glob patterns matched against base names
}

// Walker scans a root path to unbounded depth.
type Walker struct {
	cfg      Config
	resolver *pathsafe.Resolver
	logger   *zap.Logger
}

// New builds a Walker.
func New(cfg Config, resolver *pathsafe.Resolver, logger *zap.Logger) *Walker {
	if cfg.FileSizeCap <= 0 {
		cfg.FileSizeCap = 10 << 20
	}
	if cfg.FileCountLimit <= 0 {
		cfg.FileCountLimit = 1_000_000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{cfg: cfg, resolver: resolver, logger: logger}
}

// Walk enumerates root. An invalid root is fatal and aborts before any
// output; every other problem downgrades to a logged warning on that unit.
func (w *Walker) Walk(root string) (*document.TreeNode, []document.FileContent, document.Statistics, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, document.Statistics{}, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, document.Statistics{}, fmt.Errorf("stat root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, nil, document.Statistics{}, fmt.Errorf("root %s is not a directory", abs)
	}
	if w.resolver != nil && w.resolver.Restricted(abs) {
		return nil, nil, document.Statistics{}, fmt.Errorf("root %s is restricted", abs)
	}

	var (
		contents []document.FileContent
		stats    document.Statistics
	)
	tree := w.walkDir(abs, info, &contents, &stats)
	return tree, contents, stats, nil
}

func (w *Walker) walkDir(dir string, info os.FileInfo, contents *[]document.FileContent, stats *document.Statistics) *document.TreeNode {
	node := &document.TreeNode{
		Name:     filepath.Base(dir),
		Kind:     "directory",
		Modified: info.ModTime().UTC().Format(time.RFC3339),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Permission-denied directories stay in the tree without children.
		w.logger.Warn("directory unreadable", zap.String("dir", dir), zap.Error(err))
		return node
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if w.skip(full, entry) {
			continue
		}

		entryInfo, err := entry.Info()
		if err != nil {
			w.logger.Warn("entry stat failed", zap.String("path", full), zap.Error(err))
			stats.ErrorFiles++
			continue
		}

		if entry.IsDir() {
			node.Children = append(node.Children, w.walkDir(full, entryInfo, contents, stats))
			continue
		}
		if !entryInfo.Mode().IsRegular() {
			continue
		}

		stats.TotalFiles++
		node.Children = append(node.Children, &document.TreeNode{
			Name:     entry.Name(),
			Kind:     "file",
			Size:     entryInfo.Size(),
			Modified: entryInfo.ModTime().UTC().Format(time.RFC3339),
		})
		w.collect(full, entryInfo, contents, stats)
	}
	return node
}

// collect appends at most one content-list entry for a file node. Files past
// the size cap or count limit are omitted from the list entirely; unreadable
// or binary files appear with an omission marker instead of content.
func (w *Walker) collect(full string, info os.FileInfo, contents *[]document.FileContent, stats *document.Statistics) {
	format := filepath.Ext(full)

	if info.Size() > w.cfg.FileSizeCap {
		w.logger.Warn("content omitted: size cap exceeded",
			zap.String("path", full), zap.Int64("size", info.Size()), zap.Int64("cap", w.cfg.FileSizeCap))
		stats.SkippedFiles++
		return
	}
	if stats.ProcessedFiles+stats.SkippedFiles >= w.cfg.FileCountLimit {
		w.logger.Warn("content omitted: file count limit reached", zap.String("path", full))
		stats.SkippedFiles++
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		w.logger.Warn("content omitted: unreadable", zap.String("path", full), zap.Error(err))
		stats.SkippedFiles++
		*contents = append(*contents, document.FileContent{
			Path: full, Format: format, Size: info.Size(), Omitted: "read_error",
		})
		return
	}
	if contentproc.IsBinary(data) {
		w.logger.Warn("content omitted: binary file", zap.String("path", full))
		stats.SkippedFiles++
		*contents = append(*contents, document.FileContent{
			Path: full, Format: format, Size: info.Size(), Omitted: "binary_file",
		})
		return
	}

	stats.ProcessedFiles++
	*contents = append(*contents, document.FileContent{
		Path: full, Format: format, Size: info.Size(), Content: string(data),
	})
}

func (w *Walker) skip(full string, entry os.DirEntry) bool {
	if w.resolver != nil && w.resolver.Restricted(full) {
		w.logger.Warn("restricted path skipped", zap.String("path", full))
		return true
	}
	if entry.IsDir() {
		for _, excluded := range w.cfg.ExcludedDirs {
			if entry.Name() == excluded {
				return true
			}
		}
		return false
	}
	for _, pattern := range w.cfg.ExcludedFiles {
		if ok, err := path.Match(pattern, entry.Name()); err == nil && ok {
			return true
		}
	}
	return false
}
