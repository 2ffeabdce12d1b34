// Package archive assembles fetcher or walker output into a capture
// document and commits it through the persistence engine. It owns the
// continuation policy: unit failures are recorded and skipped, while root
// validation and resource exhaustion abort the whole operation.
package archive

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/fetch"
	"github.com/webvault/webvault/internal/index"
	"github.com/webvault/webvault/internal/metrics"
	"github.com/webvault/webvault/internal/pathsafe"
	"github.com/webvault/webvault/internal/walker"
)

// Engine is the persistence contract the aggregator commits through.
type Engine interface {
	Write(path string, content []byte) bool
	Read(path string) []byte
	Hash(path string) string
}

// Config carries the capture knobs the aggregator needs.
type Config struct {
	SaveDir        string
	Concurrency    int
	RetryAttempts  int
	FetchTimeout   time.Duration
	UserAgent      string
	AllowedDomains []string
	Walker         walker.Config
}

// Summary reports what a capture produced.
type Summary struct {
	Kind         string
	Source       string
	DocumentPath string
	CaptureID    string
	Captured     int
	Failed       int
	Warnings     []string
}

// Archiver drives captures end to end.
type Archiver struct {
	cfg      Config
	engine   Engine
	resolver *pathsafe.Resolver
	fetcher  fetch.Fetcher
	idx      *index.Store
	logger   *zap.Logger
	now      func() time.Time
}

// New constructs an Archiver. idx may be nil to skip capture indexing.
func New(cfg Config, engine Engine, resolver *pathsafe.Resolver, fetcher fetch.Fetcher, idx *index.Store, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		cfg:      cfg,
		engine:   engine,
		resolver: resolver,
		fetcher:  fetcher,
		idx:      idx,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// commitDocument writes the finished document with a bounded retry on lock
// contention: 3 attempts backed off 100ms, 200ms, 400ms. The engine reports
// every refusal the same way, so exhausting the attempts aborts the capture.
func (a *Archiver) commitDocument(kind, path string, data []byte) error {
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= 3; attempt++ {
		if a.engine.Write(path, data) {
			metrics.ObserveDocument(kind, "committed")
			return nil
		}
		if attempt < 3 {
			a.logger.Warn("document commit refused, retrying",
				zap.String("path", path), zap.Int("attempt", attempt))
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	metrics.ObserveDocument(kind, "failed")
	return fmt.Errorf("commit document %s: engine refused the write", path)
}

// recordCapture indexes a committed document; indexing problems never fail
// the capture that already committed.
func (a *Archiver) recordCapture(kind, source, path string) string {
	if a.idx == nil {
		return ""
	}
	capture, err := a.idx.Record(index.Capture{
		Kind:   kind,
		Source: source,
		Path:   path,
		Digest: a.engine.Hash(path),
	})
	if err != nil {
		a.logger.Warn("capture index record failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return capture.ID
}
