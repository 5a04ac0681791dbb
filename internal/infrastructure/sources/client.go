package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nutriweek/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 1 << 20
	userAgent    = "NutriWeek/1.0"
)

// restClient is the shared HTTP plumbing for the provider clients: one
// http.Client with a hard timeout, a token-bucket limiter per provider,
// and retry on transient status codes.
type restClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.SugaredLogger
}

func newRESTClient(log *zap.SugaredLogger, limit rate.Limit, burst int) *restClient {
	return &restClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

func exponentialBackoff(attempt int) time.Duration {
	return 500 * time.Millisecond << (attempt - 1)
}

// readLimitedBody reads at most limit bytes of the response body so a
// misbehaving provider cannot balloon memory.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// retryableStatus reports whether a status code is worth another attempt.
// 4xx responses other than 429 are terminal.
func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// getJSON executes a GET with retries and decodes the response into out.
// A 404 maps to domain.ErrNotFound; exhausted retries map to
// domain.ErrSourceUnavailable.
func (c *restClient) getJSON(ctx context.Context, provider, reqURL string, header http.Header, out interface{}) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
			}
			c.log.Warnw("request failed", "provider", provider, "attempt", attempt, "error", err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return domain.ErrNotFound
		case retryableStatus(resp.StatusCode):
			c.log.Warnw("provider error", "provider", provider, "attempt", attempt, "status", resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
			time.Sleep(exponentialBackoff(attempt))
		default:
			return fmt.Errorf("%w: status %d, body: %s", domain.ErrSourceUnavailable, resp.StatusCode, string(body))
		}
	}

	return lastErr
}
