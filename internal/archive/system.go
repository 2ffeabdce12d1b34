package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/document"
	"github.com/webvault/webvault/internal/metrics"
	"github.com/webvault/webvault/internal/walker"
)

// SaveSystem captures the filesystem tree under root into a system document
// at <save_dir>/system_<timestamp>.yaml.
func (a *Archiver) SaveSystem(ctx context.Context, root string) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := walker.New(a.cfg.Walker, a.resolver, a.logger)
	tree, contents, stats, err := w.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("system capture aborted: %w", err)
	}
	metrics.AddResources("file", "ok", stats.ProcessedFiles)
	metrics.AddResources("file", "skipped", stats.SkippedFiles)

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	doc := document.NewSystemDocument(abs, a.now())
	doc.StructureTree = tree
	doc.Contents = contents
	doc.Metadata.Statistics = stats

	encoded, err := document.EncodeSystem(doc)
	if err != nil {
		return nil, err
	}
	docPath := filepath.Join(a.cfg.SaveDir, "system_"+a.now().Format("20060102_150405")+".yaml")
	if err := a.commitDocument("system", docPath, encoded); err != nil {
		return nil, err
	}

	summary := &Summary{
		Kind:         "system",
		Source:       abs,
		DocumentPath: docPath,
		CaptureID:    a.recordCapture("system", abs, docPath),
		Captured:     stats.ProcessedFiles,
		Failed:       stats.SkippedFiles + stats.ErrorFiles,
	}
	a.logger.Info("system capture committed",
		zap.String("root", abs),
		zap.String("document", docPath),
		zap.Int("processed", stats.ProcessedFiles),
		zap.Int("skipped", stats.SkippedFiles),
	)
	return summary, nil
}
