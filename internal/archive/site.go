package archive

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/contentproc"
	"github.com/webvault/webvault/internal/document"
	"github.com/webvault/webvault/internal/fetch"
	"github.com/webvault/webvault/internal/pathsafe"
)

// SaveSite captures the reachable resources of rawURL into a site document
// at <save_dir>/site_<timestamp>/site_data.yaml, with image and video bytes
// committed individually beside it.
func (a *Archiver) SaveSite(ctx context.Context, rawURL string) (*Summary, error) {
	if err := fetch.ValidateURL(rawURL, a.cfg.AllowedDomains); err != nil {
		return nil, fmt.Errorf("root URL rejected: %w", err)
	}

	stamp := a.now().Format("20060102_150405")
	siteDir := filepath.Join(a.cfg.SaveDir, "site_"+stamp)
	dirs := map[string]string{
		"image": filepath.Join(siteDir, "images"),
		"video": filepath.Join(siteDir, "videos"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create capture directory %s: %w", dir, err)
		}
	}

	pool := fetch.NewPool(a.fetcher, fetch.NewRetryPolicy(a.cfg.RetryAttempts), a.cfg.Concurrency, a.logger)

	rootOutcome := pool.FetchAll(ctx, []fetch.Request{{URL: rawURL, Kind: document.KindHTML}})[0]
	if rootOutcome.Status != fetch.StatusOK {
		return nil, fmt.Errorf("root fetch failed: %w", rootOutcome.Err)
	}

	discovered, err := fetch.Discover(rootOutcome.Record.Source, rootOutcome.Record.Content)
	if err != nil {
		return nil, fmt.Errorf("resource discovery: %w", err)
	}

	var requests []fetch.Request
	appendAll := func(urls []string, kind string) {
		for _, u := range urls {
			requests = append(requests, fetch.Request{URL: u, Kind: kind})
		}
	}
	appendAll(discovered.Stylesheets, document.KindCSS)
	appendAll(discovered.Scripts, document.KindJavaScript)
	appendAll(discovered.Images, document.KindImage)
	appendAll(discovered.Videos, document.KindVideo)

	doc := document.NewSiteDocument(rawURL, a.now())
	doc.HTML.Main = contentproc.SanitizeHTML(string(rootOutcome.Record.Content))
	for _, css := range discovered.InlineCSS {
		doc.CSS = append(doc.CSS, document.TextResource{Path: "inline", Content: css})
	}
	for _, js := range discovered.InlineJS {
		doc.JavaScript = append(doc.JavaScript, document.TextResource{Path: "inline", Content: js})
	}

	summary := &Summary{Kind: "site", Source: rawURL}
	for _, outcome := range pool.FetchAll(ctx, requests) {
		a.foldOutcome(doc, dirs, outcome, summary)
	}

	encoded, err := document.EncodeSite(doc)
	if err != nil {
		return nil, err
	}
	docPath := filepath.Join(siteDir, "site_data.yaml")
	if err := a.commitDocument("site", docPath, encoded); err != nil {
		return nil, err
	}

	summary.DocumentPath = docPath
	summary.CaptureID = a.recordCapture("site", rawURL, docPath)
	a.logger.Info("site capture committed",
		zap.String("url", rawURL),
		zap.String("document", docPath),
		zap.Int("captured", summary.Captured),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// foldOutcome merges one per-unit result into the document, applying the
// warn-and-continue policy for unit failures.
func (a *Archiver) foldOutcome(doc *document.SiteDocument, dirs map[string]string, outcome fetch.Outcome, summary *Summary) {
	if outcome.Status != fetch.StatusOK {
		summary.Failed++
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("%s: %v", outcome.Locator, outcome.Err))
		a.logger.Warn("resource not captured",
			zap.String("url", outcome.Locator),
			zap.String("status", outcome.Status.String()),
			zap.Error(outcome.Err),
		)
		return
	}

	record := outcome.Record
	switch record.Kind {
	case document.KindCSS:
		doc.CSS = append(doc.CSS, document.TextResource{
			Path: record.Source, Content: string(record.Content),
		})
		summary.Captured++
	case document.KindJavaScript:
		doc.JavaScript = append(doc.JavaScript, document.TextResource{
			Path: record.Source, Content: string(record.Content),
		})
		summary.Captured++
	case document.KindImage, document.KindVideo:
		a.foldBinary(doc, dirs[record.Kind], record, summary)
	default:
		// Markup partials discovered beside the root page.
		doc.HTML.Partials = append(doc.HTML.Partials, document.TextResource{
			Path: record.Source, Content: contentproc.SanitizeHTML(string(record.Content)),
		})
		summary.Captured++
	}
}

// foldBinary persists an image or video through the engine and references
// it by relative local path. A refused write downgrades to a unit failure.
func (a *Archiver) foldBinary(doc *document.SiteDocument, dir string, record *document.ResourceRecord, summary *Summary) {
	name := resourceFileName(record.Source, record.ContentType)
	target := pathsafe.UniquePath(filepath.Join(dir, name))

	if !a.engine.Write(target, record.Content) {
		summary.Failed++
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("%s: persist refused", record.Source))
		a.logger.Warn("resource persist refused",
			zap.String("url", record.Source), zap.String("target", target))
		return
	}
	record.LocalPath = target

	ref := document.BinaryResource{
		Path:        record.Source,
		LocalPath:   "./" + filepath.Base(dir) + "/" + filepath.Base(target),
		ContentType: record.ContentType,
		Size:        record.Size,
	}
	if record.Kind == document.KindImage {
		doc.Images = append(doc.Images, ref)
	} else {
		doc.Videos = append(doc.Videos, ref)
	}
	summary.Captured++
}

// resourceFileName derives a safe on-disk name for a fetched resource.
func resourceFileName(rawURL, contentType string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
		if base == "." || base == "/" {
			base = ""
		}
	}
	if base == "" {
		base = "resource" + contentproc.ExtensionFor(rawURL, contentType)
	}
	return pathsafe.SanitizeName(base)
}
