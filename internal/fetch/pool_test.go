package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher serves canned responses per URL.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	maxBusy int32
	busy    int32
	respond func(url string, call int) (Response, error)
}

func newScriptedFetcher(respond func(url string, call int) (Response, error)) *scriptedFetcher {
	return &scriptedFetcher{calls: make(map[string]int), respond: respond}
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string) (Response, error) {
	cur := atomic.AddInt32(&f.busy, 1)
	defer atomic.AddInt32(&f.busy, -1)
	for {
		old := atomic.LoadInt32(&f.maxBusy)
		if cur <= old || atomic.CompareAndSwapInt32(&f.maxBusy, old, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	call := f.calls[url]
	f.mu.Unlock()
	return f.respond(url, call)
}

func fastRetry(attempts int) *RetryPolicy {
	p := NewRetryPolicy(attempts)
	p.baseDelay = 1
	p.maxDelay = 2
	return p
}

func TestFetchAllPartialFailureTolerance(t *testing.T) {
	// 10 resources: 3 always fail validation, 2 fail every retry attempt,
	// 5 succeed. The capture must yield exactly 5 successes and a recorded
	// failure for each of the other 5.
	fetcher := newScriptedFetcher(func(url string, _ int) (Response, error) {
		switch {
		case url == "https://ok.test/v1.css" || url == "https://ok.test/v2.css" ||
			url == "https://ok.test/v3.css" || url == "https://ok.test/v4.css" ||
			url == "https://ok.test/v5.css":
			return Response{URL: url, StatusCode: 200, ContentType: "text/css", Body: []byte("x{}")}, nil
		case url == "https://bad.test/a" || url == "https://bad.test/b" || url == "https://bad.test/c":
			return Response{}, fatal(errors.New("invalid locator"))
		default:
			return Response{}, errors.New("connection reset")
		}
	})

	var requests []Request
	for i := 1; i <= 5; i++ {
		requests = append(requests, Request{URL: fmt.Sprintf("https://ok.test/v%d.css", i), Kind: "css"})
	}
	requests = append(requests,
		Request{URL: "https://bad.test/a", Kind: "image"},
		Request{URL: "https://bad.test/b", Kind: "image"},
		Request{URL: "https://bad.test/c", Kind: "image"},
		Request{URL: "https://flaky.test/x", Kind: "video"},
		Request{URL: "https://flaky.test/y", Kind: "video"},
	)

	pool := NewPool(fetcher, fastRetry(3), 5, nil)
	outcomes := pool.FetchAll(context.Background(), requests)
	require.Len(t, outcomes, 10)

	var ok, fatalCount, retryable int
	for _, o := range outcomes {
		switch o.Status {
		case StatusOK:
			ok++
			require.NotNil(t, o.Record)
			assert.Equal(t, "css", o.Record.Kind)
		case StatusFatal:
			fatalCount++
			assert.Equal(t, 1, o.Attempts, "validation failures consume no retries")
			assert.Nil(t, o.Record)
		case StatusRetryable:
			retryable++
			assert.Error(t, o.Err)
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 3, fatalCount)
	assert.Equal(t, 2, retryable)

	// Retryable units exhausted every attempt.
	fetcher.mu.Lock()
	assert.Equal(t, 3, fetcher.calls["https://flaky.test/x"])
	assert.Equal(t, 3, fetcher.calls["https://flaky.test/y"])
	fetcher.mu.Unlock()
}

func TestFetchAllBoundedConcurrency(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 64)

	fetcher := newScriptedFetcher(func(url string, _ int) (Response, error) {
		started <- struct{}{}
		<-gate
		return Response{URL: url, StatusCode: 200, ContentType: "text/css", Body: []byte("x")}, nil
	})

	var requests []Request
	for i := 0; i < 12; i++ {
		requests = append(requests, Request{URL: fmt.Sprintf("https://h.test/%d.css", i), Kind: "css"})
	}

	pool := NewPool(fetcher, fastRetry(1), 3, nil)
	done := make(chan []Outcome)
	go func() { done <- pool.FetchAll(context.Background(), requests) }()

	// Exactly pool-size fetches may run at once.
	for i := 0; i < 3; i++ {
		<-started
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&fetcher.busy))
	close(gate)

	outcomes := <-done
	assert.Len(t, outcomes, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.maxBusy), int32(3))
}

func TestFetchAllDisallowedContentType(t *testing.T) {
	fetcher := newScriptedFetcher(func(url string, _ int) (Response, error) {
		return Response{URL: url, StatusCode: 200, ContentType: "application/zip", Body: []byte("PK")}, nil
	})

	pool := NewPool(fetcher, fastRetry(3), 1, nil)
	outcomes := pool.FetchAll(context.Background(), []Request{{URL: "https://h.test/a.zip", Kind: "image"}})
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFatal, outcomes[0].Status)
}

func TestFetchAllRetrySucceedsSecondAttempt(t *testing.T) {
	fetcher := newScriptedFetcher(func(url string, call int) (Response, error) {
		if call == 1 {
			return Response{}, errors.New("timeout")
		}
		return Response{URL: url, StatusCode: 200, ContentType: "image/png", Body: []byte("png")}, nil
	})

	pool := NewPool(fetcher, fastRetry(3), 1, nil)
	outcomes := pool.FetchAll(context.Background(), []Request{{URL: "https://h.test/p.png", Kind: "image"}})
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusOK, outcomes[0].Status)
	assert.Equal(t, 2, outcomes[0].Attempts)
}
