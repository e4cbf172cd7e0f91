package goAuthClient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// csrfManager obtains and caches the per-session synchronizer token. The
// cache is process-scoped and volatile: it holds exactly one whole value,
// replaced on rotation and dropped on Clear. Concurrent first-time fetches
// may each perform the bootstrap GET; the last response to land wins, which
// is sound because tokens are idempotently replaceable.
type csrfManager struct {
	client       *http.Client
	bootstrapURL string
	header       string
	maxAttempts  int
	backoffStep  time.Duration
	metrics      *Metrics

	mu    sync.Mutex
	token string
}

func newCSRFManager(client *http.Client, bootstrapURL string, cfg CSRFConfig, metrics *Metrics) *csrfManager {
	return &csrfManager{
		client:       client,
		bootstrapURL: bootstrapURL,
		header:       cfg.HeaderName,
		maxAttempts:  cfg.MaxAttempts,
		backoffStep:  cfg.BackoffStep,
		metrics:      metrics,
	}
}

// Token returns the cached synchronizer token, fetching it from the
// bootstrap endpoint when the cache is empty. Failed attempts back off
// linearly (step, 2*step, ...) before giving up with [ErrCSRFUnavailable].
func (c *csrfManager) Token(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != "" {
		return tok, nil
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		tok, err := c.fetch(ctx)
		if err == nil && tok != "" {
			c.metrics.Inc(MetricCSRFBootstrap)
			c.replace(tok)
			return tok, nil
		}
		c.metrics.Inc(MetricCSRFBootstrapFailure)

		if attempt == c.maxAttempts {
			break
		}
		backoff := time.Duration(attempt) * c.backoffStep
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}

	c.metrics.Inc(MetricCSRFUnavailable)
	return "", ErrCSRFUnavailable
}

func (c *csrfManager) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bootstrapURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tok := resp.Header.Get(c.header)
	if tok == "" {
		return "", fmt.Errorf("bootstrap response carried no %s header", c.header)
	}
	return tok, nil
}

// Attach sets the synchronizer header on req from the cached or freshly
// fetched token.
func (c *csrfManager) Attach(ctx context.Context, req *http.Request) error {
	tok, err := c.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set(c.header, tok)
	return nil
}

// Rotate overwrites the cache when resp carries a fresh token.
func (c *csrfManager) Rotate(resp *http.Response) {
	if resp == nil {
		return
	}
	tok := resp.Header.Get(c.header)
	if tok == "" {
		return
	}
	if c.replace(tok) {
		c.metrics.Inc(MetricCSRFRotated)
	}
}

// Clear drops the cached token. Called on logout and when a 401 passes
// through the dispatcher, since the server-side session the token was bound
// to is gone either way.
func (c *csrfManager) Clear() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *csrfManager) cached() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// replace stores tok and reports whether the cache actually changed.
func (c *csrfManager) replace(tok string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.token != tok
	c.token = tok
	return changed
}
