// Package document defines the in-memory shapes of the two capture
// documents and their YAML encoding.
package document

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Resource kinds.
const (
	KindHTML       = "html"
	KindCSS        = "css"
	KindJavaScript = "javascript"
	KindImage      = "image"
	KindVideo      = "video"
)

// ResourceRecord is one fetched or scanned unit. LocalPath is set only
// after the engine has committed the bytes.
type ResourceRecord struct {
	Source      string
	Content     []byte
	Kind        string
	ContentType string
	Size        int64
	Timestamp   time.Time
	LocalPath   string
}

// TextResource is an inlined stylesheet or script.
type TextResource struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// BinaryResource references a resource persisted beside the document.
type BinaryResource struct {
	Path        string `yaml:"path"`
	LocalPath   string `yaml:"local_path"`
	ContentType string `yaml:"content_type,omitempty"`
	Size        int64  `yaml:"size,omitempty"`
}

// HTMLSection holds the root markup and any captured partials.
type HTMLSection struct {
	Main     string         `yaml:"main"`
	Partials []TextResource `yaml:"partials,omitempty"`
}

// SiteMetadata describes where and when a site capture happened.
type SiteMetadata struct {
	URL         string `yaml:"url"`
	ExtractedAt string `yaml:"extracted_at"`
}

// SiteDocument is the full site capture.
type SiteDocument struct {
	HTML       HTMLSection      `yaml:"html"`
	CSS        []TextResource   `yaml:"css"`
	JavaScript []TextResource   `yaml:"javascript"`
	Images     []BinaryResource `yaml:"images"`
	Videos     []BinaryResource `yaml:"videos"`
	Metadata   SiteMetadata     `yaml:"metadata"`
}

// NewSiteDocument stamps metadata for a capture of url.
func NewSiteDocument(url string, at time.Time) *SiteDocument {
	return &SiteDocument{
		Metadata: SiteMetadata{
			URL:         url,
			ExtractedAt: at.UTC().Format(time.RFC3339),
		},
	}
}

// TreeNode is one entry of the structure tree.
type TreeNode struct {
	Name     string      `yaml:"name"`
	Kind     string      `yaml:"kind"` // file | directory
	Size     int64       `yaml:"size"`
	Modified string      `yaml:"modified"`
	Children []*TreeNode `yaml:"children,omitempty"`
}

// FileContent is one entry of the flat content list. Content and Omitted
// are mutually exclusive: a file past the size cap, unreadable, or binary
// appears with an omission reason instead of content.
type FileContent struct {
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
	Size    int64  `yaml:"size"`
	Content string `yaml:"content,omitempty"`
	Omitted string `yaml:"omitted,omitempty"`
}

// Statistics summarizes a system capture.
type Statistics struct {
	TotalFiles     int `yaml:"total_files"`
	ProcessedFiles int `yaml:"processed_files"`
	SkippedFiles   int `yaml:"skipped_files"`
	ErrorFiles     int `yaml:"error_files"`
}

// SystemMetadata describes where and when a system capture happened.
type SystemMetadata struct {
	BasePath   string     `yaml:"base_path"`
	SavedAt    string     `yaml:"saved_at"`
	Statistics Statistics `yaml:"statistics"`
}

// SystemDocument is the full filesystem capture.
type SystemDocument struct {
	StructureTree *TreeNode      `yaml:"structure_tree"`
	Contents      []FileContent  `yaml:"contents"`
	Metadata      SystemMetadata `yaml:"metadata"`
}

// NewSystemDocument stamps metadata for a capture rooted at basePath.
func NewSystemDocument(basePath string, at time.Time) *SystemDocument {
	return &SystemDocument{
		Metadata: SystemMetadata{
			BasePath: basePath,
			SavedAt:  at.UTC().Format(time.RFC3339),
		},
	}
}

// EncodeSite serializes a site document under a top-level "site" key.
func EncodeSite(doc *SiteDocument) ([]byte, error) {
	out, err := yaml.Marshal(map[string]*SiteDocument{"site": doc})
	if err != nil {
		return nil, fmt.Errorf("encode site document: %w", err)
	}
	return out, nil
}

// EncodeSystem serializes a system document under a top-level "system" key.
func EncodeSystem(doc *SystemDocument) ([]byte, error) {
	out, err := yaml.Marshal(map[string]*SystemDocument{"system": doc})
	if err != nil {
		return nil, fmt.Errorf("encode system document: %w", err)
	}
	return out, nil
}

// DecodeSite parses a previously committed site document.
func DecodeSite(data []byte) (*SiteDocument, error) {
	var wrapper struct {
		Site *SiteDocument `yaml:"site"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode site document: %w", err)
	}
	if wrapper.Site == nil {
		return nil, fmt.Errorf("decode site document: missing site key")
	}
	return wrapper.Site, nil
}

// DecodeSystem parses a previously committed system document.
func DecodeSystem(data []byte) (*SystemDocument, error) {
	var wrapper struct {
		System *SystemDocument `yaml:"system"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode system document: %w", err)
	}
	if wrapper.System == nil {
		return nil, fmt.Errorf("decode system document: missing system key")
	}
	return wrapper.System, nil
}
