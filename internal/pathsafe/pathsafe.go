// Package pathsafe validates destination paths against a deny list and
// produces filesystem-safe, collision-free names.
package pathsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const maxStemLength = 200

// Resolver normalizes requested paths and rejects deny-listed prefixes.
type Resolver struct {
	restricted []string
	logger     *zap.Logger
}

// NewResolver builds a Resolver. Each restricted entry is treated as an
// absolute path prefix.
func NewResolver(restricted []string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs := make([]string, 0, len(restricted))
	for _, p := range restricted {
		if a, err := filepath.Abs(p); err == nil {
			abs = append(abs, filepath.Clean(a))
		}
	}
	return &Resolver{restricted: abs, logger: logger}
}

// Validate normalizes path to an absolute form, rejects it if it falls under
// a restricted prefix, and ensures its parent directory exists, creating it
// if absent. Directory-creation failure counts as validation failure.
func (r *Resolver) Validate(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		r.logger.Error("path normalization failed", zap.String("path", path), zap.Error(err))
		return false
	}
	if r.Restricted(abs) {
		r.logger.Error("restricted path rejected", zap.String("path", abs))
		return false
	}
	parent := filepath.Dir(abs)
	if _, err := os.Stat(parent); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(parent, 0o750); mkErr != nil {
			r.logger.Error("create parent directory failed",
				zap.String("dir", parent), zap.Error(mkErr))
			return false
		}
	}
	return true
}

// Restricted reports whether the absolute form of path falls under any
// deny-listed prefix.
func (r *Resolver) Restricted(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	abs = filepath.Clean(abs)
	for _, prefix := range r.restricted {
		if abs == prefix || strings.HasPrefix(abs, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// SanitizeName replaces characters illegal on common filesystems with an
// underscore and truncates the stem while preserving the extension.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	ext := filepath.Ext(cleaned)
	stem := strings.TrimSuffix(cleaned, ext)
	if runes := []rune(stem); len(runes) > maxStemLength {
		stem = string(runes[:maxStemLength])
	}
	return stem + ext
}

// UniquePath returns path unchanged if nothing exists there; otherwise it
// probes name_1.ext, name_2.ext, ... until an unused name is found.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
