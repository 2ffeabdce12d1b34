package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// ClientConfig controls collector behavior.
type ClientConfig struct {
	UserAgent      string
	Timeout        time.Duration
	AllowedDomains []string
}

// Response is one successful HTTP retrieval.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client executes single HTTP GETs using a Colly collector.
type Client struct {
	cfg           ClientConfig
	baseCollector *colly.Collector
}

// NewClient builds a Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	return &Client{cfg: cfg, baseCollector: c}
}

// Fetch retrieves rawURL. Validation failures come back wrapped as
// non-retryable; transient transport failures are plain errors the retry
// policy may act on.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Response, error) {
	if err := ValidateURL(rawURL, c.cfg.AllowedDomains); err != nil {
		return Response{}, fatal(err)
	}

	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		result   Response
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = classifyHTTPError(r, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case visitErr := <-done:
		if fetchErr == nil && visitErr != nil {
			fetchErr = visitErr
		}
	}

	if fetchErr != nil {
		return Response{}, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}
	if result.StatusCode == 0 {
		return Response{}, fmt.Errorf("fetch %s: no response received", rawURL)
	}
	return result, nil
}

// classifyHTTPError separates validation-class HTTP failures (auth walls,
// client errors) from transient ones (timeouts, 5xx, 429).
func classifyHTTPError(r *colly.Response, err error) error {
	if r == nil || r.StatusCode == 0 {
		return err
	}
	code := r.StatusCode
	switch {
	case code == 401 || code == 403:
		return fatal(fmt.Errorf("authentication required (HTTP %d)", code))
	case code == 408 || code == 429 || code >= 500:
		return fmt.Errorf("transient HTTP %d: %w", code, err)
	case code >= 400:
		return fatal(fmt.Errorf("HTTP %d: %w", code, err))
	default:
		return err
	}
}

// ValidateURL rejects malformed locators, non-allowed protocols, and hosts
// outside the configured domain allow-list (empty list allows all).
func ValidateURL(raw string, allowedDomains []string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("protocol %q not allowed for %q", parsed.Scheme, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	if len(allowedDomains) == 0 {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range allowedDomains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("domain %q not in allow-list", host)
}
