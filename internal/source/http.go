package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPSource fetches a JSON array of raw records from a data API.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	maxRetries uint
	newBackOff func() backoff.BackOff
	log        *slog.Logger
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries caps the number of attempts, including the first.
func WithMaxRetries(n uint) HTTPOption {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithBackOff replaces the exponential retry schedule.
func WithBackOff(fn func() backoff.BackOff) HTTPOption {
	return func(s *HTTPSource) { s.newBackOff = fn }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) HTTPOption {
	return func(s *HTTPSource) { s.log = log }
}

// NewHTTP returns a source reading from rawURL.
func NewHTTP(rawURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:        rawURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch retries 5xx and 429 responses and transport errors; other 4xx
// responses fail immediately.
func (s *HTTPSource) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	target, err := s.requestURL(q)
	if err != nil {
		return nil, err
	}

	attempt := 0
	raws, err := backoff.Retry(ctx, func() ([]record.Raw, error) {
		if attempt > 0 {
			s.log.Warn("data API request failed, retrying", "attempt", attempt, "url", s.url)
		}
		attempt++
		return s.get(ctx, target)
	}, backoff.WithBackOff(s.newBackOff()), backoff.WithMaxTries(s.maxRetries))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	return clip(raws, q), nil
}

func (s *HTTPSource) requestURL(q Query) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("invalid data API url %q: %w", s.url, err)
	}
	values := u.Query()
	if !q.Since.IsZero() {
		values.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (s *HTTPSource) get(ctx context.Context, target string) ([]record.Raw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var raws []record.Raw
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode data API response: %w", err))
		}
		return raws, nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 512 {
		bodyStr = bodyStr[:512]
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, apiErr
	case resp.StatusCode >= 500:
		return nil, apiErr
	}
	return nil, backoff.Permanent(apiErr)
}
