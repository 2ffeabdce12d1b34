package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webvault/webvault/internal/contentproc"
	"github.com/webvault/webvault/internal/document"
	"github.com/webvault/webvault/internal/metrics"
)

// Fetcher retrieves one resource.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Response, error)
}

// Request names one resource to retrieve. Kind is the hint from discovery;
// the response's content type wins when they disagree.
type Request struct {
	URL  string
	Kind string
}

// Pool fans requests out to a fixed number of workers. A single resource
// failure never aborts the overall capture; the per-unit Outcome carries
// the classification instead.
type Pool struct {
	client Fetcher
	retry  *RetryPolicy
	size   int
	logger *zap.Logger
}

// NewPool builds a Pool of the given worker count.
func NewPool(client Fetcher, retry *RetryPolicy, size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 5
	}
	if retry == nil {
		retry = NewRetryPolicy(3)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{client: client, retry: retry, size: size, logger: logger}
}

// FetchAll retrieves every request and returns one Outcome per request, in
// input order.
func (p *Pool) FetchAll(ctx context.Context, requests []Request) []Outcome {
	outcomes := make([]Outcome, len(requests))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.fetchOne(ctx, requests[i])
			}
		}()
	}

	for i := range requests {
		select {
		case jobs <- i:
		case <-ctx.Done():
			outcomes[i] = Outcome{
				Locator: requests[i].URL,
				Kind:    requests[i].Kind,
				Status:  StatusRetryable,
				Err:     ctx.Err(),
			}
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (p *Pool) fetchOne(ctx context.Context, req Request) Outcome {
	var lastErr error

	for attempt := 1; ; attempt++ {
		metrics.FetchStarted()
		resp, err := p.client.Fetch(ctx, req.URL)
		metrics.FetchFinished()

		if err == nil {
			if !contentproc.AllowedContentType(resp.ContentType) {
				p.logger.Warn("disallowed content type",
					zap.String("url", req.URL), zap.String("content_type", resp.ContentType))
				metrics.ObserveResource(req.Kind, "fatal")
				return Outcome{
					Locator:  req.URL,
					Kind:     req.Kind,
					Status:   StatusFatal,
					Attempts: attempt,
					Err:      errors.New("content type not allowed: " + resp.ContentType),
				}
			}

			kind := req.Kind
			if detected := contentproc.KindFor(resp.ContentType, resp.URL); detected != "" {
				kind = detected
			}
			metrics.ObserveResource(kind, "ok")
			return Outcome{
				Locator:  req.URL,
				Kind:     kind,
				Status:   StatusOK,
				Attempts: attempt,
				Record: &document.ResourceRecord{
					Source:      req.URL,
					Content:     resp.Body,
					Kind:        kind,
					ContentType: resp.ContentType,
					Size:        int64(len(resp.Body)),
					Timestamp:   time.Now().UTC(),
				},
			}
		}

		lastErr = err
		var nr notRetryableError
		if errors.As(err, &nr) {
			p.logger.Warn("resource rejected by validation",
				zap.String("url", req.URL), zap.Error(err))
			metrics.ObserveResource(req.Kind, "fatal")
			return Outcome{
				Locator:  req.URL,
				Kind:     req.Kind,
				Status:   StatusFatal,
				Attempts: attempt,
				Err:      err,
			}
		}

		if !p.retry.ShouldRetry(err, attempt) {
			break
		}
		p.logger.Debug("retrying fetch",
			zap.String("url", req.URL), zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-time.After(p.retry.Backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = p.retry.MaxAttempts()
		}
		if attempt >= p.retry.MaxAttempts() {
			break
		}
	}

	p.logger.Warn("resource failed after retries",
		zap.String("url", req.URL), zap.Int("attempts", p.retry.MaxAttempts()), zap.Error(lastErr))
	metrics.ObserveResource(req.Kind, "retryable")
	return Outcome{
		Locator:  req.URL,
		Kind:     req.Kind,
		Status:   StatusRetryable,
		Attempts: p.retry.MaxAttempts(),
		Err:      lastErr,
	}
}
