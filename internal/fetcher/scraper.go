package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"covidmap/internal/config"
	"covidmap/pkg/utils"
)

// Scraper downloads raw resources with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	headers      http.Header
	bufferSizeKb int
}

// NewScraper creates a new scraper using the default retry policy.
func NewScraper() *Scraper {
	cfg := config.Default()

	return NewScraperWithConfig(&cfg.Retry, cfg.Source.BufferSizeKb)
}

// NewScraperWithConfig creates a new scraper with custom retry policy.
func NewScraperWithConfig(retryPolicy *config.RetryPolicy, bufferSizeKb int) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		headers:      utils.NewHTTPHelper().BuildHeaders(nil),
		bufferSizeKb: bufferSizeKb,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (s *Scraper) WithHTTPClient(client *http.Client) *Scraper {
	s.client = client

	return s
}

// FetchWithMetrics returns (body, statusCode, duration, error).
func (s *Scraper) FetchWithMetrics(ctx context.Context, url string) ([]byte, int, time.Duration, error) {
	var lastErr *FetchError

	var lastStatusCode int

	totalDuration := time.Duration(0)
	maxAttempts := max(s.retryPolicy.MaxAttempts, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				lastErr.Err = errors.Join(lastErr.Err, err)

				return nil, lastStatusCode, totalDuration, lastErr
			}
		}

		startTime := time.Now()

		body, statusCode, err := s.fetchOnce(ctx, url)
		totalDuration += time.Since(startTime)
		lastStatusCode = statusCode

		if err == nil {
			return body, statusCode, totalDuration, nil
		}

		lastErr = err
		lastErr.Attempts = attempt

		if !err.Retryable() || ctx.Err() != nil {
			break
		}
	}

	return nil, lastStatusCode, totalDuration, lastErr
}

// Fetch downloads url and returns its body.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, _, err := s.FetchWithMetrics(ctx, url)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) ([]byte, int, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, unavailable(url, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, &FetchError{Kind: ErrTransientFetch, Err: err, URL: url}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		kind := ErrDataUnavailable
		if isRetryableStatus(resp.StatusCode) {
			kind = ErrTransientFetch
		}

		return nil, resp.StatusCode, &FetchError{
			Kind:       kind,
			Err:        fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode),
			URL:        url,
			StatusCode: resp.StatusCode,
		}
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, resp.StatusCode, &FetchError{
			Kind:       ErrTransientFetch,
			Err:        fmt.Errorf("failed to read response body: %w", err),
			URL:        url,
			StatusCode: resp.StatusCode,
		}
	}

	if int64(len(body)) > limit {
		return nil, resp.StatusCode, &FetchError{
			Kind:       ErrDataUnavailable,
			Err:        fmt.Errorf("%w: %d KB", ErrResponseTooLarge, s.bufferSizeKb),
			URL:        url,
			StatusCode: resp.StatusCode,
		}
	}

	return body, resp.StatusCode, nil
}

// ReadLocalFile reads content from a local file path.
func (s *Scraper) ReadLocalFile(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, unavailable(filePath, err)
		}

		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return content, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}

	return statusCode >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
