package fetch

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Discovered holds the resource locators and inline content found in a
// page's markup. Locator lists are absolute URLs, deduplicated in document
// order.
type Discovered struct {
	Stylesheets []string
	Scripts     []string
	Images      []string
	Videos      []string
	InlineCSS   []string
	InlineJS    []string
}

// Discover parses markup and extracts every linked stylesheet, script,
// image, and video, resolving references against baseURL.
func Discover(baseURL string, body []byte) (*Discovered, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	found := &Discovered{}
	seen := make(map[string]struct{})

	add := func(list *[]string, ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		parsed, err := url.Parse(ref)
		if err != nil {
			return
		}
		absolute := base.ResolveReference(parsed)
		if absolute.Scheme != "http" && absolute.Scheme != "https" {
			return
		}
		key := absolute.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		*list = append(*list, key)
	}

	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if attr(n, "rel") == "stylesheet" {
					add(&found.Stylesheets, attr(n, "href"))
				}
			case "script":
				if src := attr(n, "src"); src != "" {
					add(&found.Scripts, src)
				} else if text := textContent(n); strings.TrimSpace(text) != "" {
					found.InlineJS = append(found.InlineJS, text)
				}
			case "style":
				if text := textContent(n); strings.TrimSpace(text) != "" {
					found.InlineCSS = append(found.InlineCSS, text)
				}
			case "img":
				add(&found.Images, attr(n, "src"))
			case "video":
				add(&found.Videos, attr(n, "src"))
			case "source":
				if n.Parent != nil && n.Parent.Data == "video" {
					add(&found.Videos, attr(n, "src"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
	}
	walker(doc)

	return found, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
