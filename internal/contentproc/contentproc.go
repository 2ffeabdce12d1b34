// Package contentproc classifies and normalizes captured content before it
// enters a document.
package contentproc

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.UGCPolicy()

// allowedTypePrefixes mirrors the capture allow-list: anything else is a
// validation failure for the unit.
var allowedTypePrefixes = []string{
	"text/",
	"image/",
	"video/",
	"application/javascript",
	"application/x-javascript",
	"application/json",
	"application/xml",
	"application/css",
}

// AllowedContentType reports whether a fetched content type may be archived.
func AllowedContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, prefix := range allowedTypePrefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// SanitizeHTML strips active content from captured markup before it is
// inlined into a document.
func SanitizeHTML(markup string) string {
	return htmlPolicy.Sanitize(markup)
}

// KindFor classifies a resource by content type, falling back to the
// locator's extension. Returns one of the document kinds or "".
func KindFor(contentType, locator string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return "html"
	case strings.HasPrefix(ct, "text/css"), strings.HasPrefix(ct, "application/css"):
		return "css"
	case strings.Contains(ct, "javascript"):
		return "javascript"
	case strings.HasPrefix(ct, "image/"):
		return "image"
	case strings.HasPrefix(ct, "video/"):
		return "video"
	}

	switch strings.ToLower(ExtensionFor(locator, "")) {
	case ".html", ".htm":
		return "html"
	case ".css":
		return "css"
	case ".js", ".mjs":
		return "javascript"
	case ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp":
		return "image"
	case ".mp4", ".webm", ".ogg":
		return "video"
	}
	return ""
}

// ExtensionFor guesses a file extension from a locator's path, falling back
// to the content type, then to ".bin".
func ExtensionFor(locator, contentType string) string {
	if u, err := url.Parse(locator); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return strings.ToLower(ext)
		}
	} else if ext := path.Ext(locator); ext != "" {
		return strings.ToLower(ext)
	}
	if contentType != "" {
		base := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ".bin"
}

// IsBinary reports whether data looks like non-text content. The heuristic
// matches the usual one: any byte outside the printable/whitespace set.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	sample := data
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	for _, b := range sample {
		switch {
		case b == 0x00:
			return true
		case b < 0x07, b > 0x0d && b < 0x20 && b != 0x1b:
			return true
		}
	}
	return false
}
