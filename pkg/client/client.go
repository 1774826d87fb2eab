// Package client provides an HTTP page client with retry, backoff and
// error classification, usable as the fetch hook of a row source.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/paged-grid/pkg/metrics"
	"github.com/Sternrassler/paged-grid/pkg/pagination"
)

var (
	pageRequestsTotal = metrics.Factory().NewCounterVec(prometheus.CounterOpts{
		Name: "grid_page_requests_total",
		Help: "Total page requests by status",
	}, []string{"status"})

	pageRequestDuration = metrics.Factory().NewHistogram(prometheus.HistogramOpts{
		Name:    "grid_page_request_duration_seconds",
		Help:    "Page request duration in seconds, retries included",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// maxBodyBytes caps how much of a page response is read.
const maxBodyBytes = 32 << 20

// Config holds the client configuration.
type Config struct {
	// BaseURL is the rows endpoint; page and size are added as query parameters.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	Retry RetryConfig
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "paged-grid/1.0",
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// Client fetches pages of rows over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// pageResponse is the wire format of one page.
type pageResponse struct {
	Rows []json.RawMessage `json:"rows"`
}

// New creates a new page client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "paged-grid/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.Retry = cfg.Retry.normalized()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		config:     cfg,
		logger:     log.With().Str("component", "page-client").Logger(),
	}, nil
}

// FetchPage requests one page. A 204, a 404 or an empty row list is
// reported as (nil, nil) so the row source retries it on a later request.
func (c *Client) FetchPage(ctx context.Context, page, size int) ([]json.RawMessage, error) {
	startTime := time.Now()
	defer func() {
		pageRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	var rows []json.RawMessage
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		var err error
		rows, err = c.fetchOnce(ctx, page, size)
		return err
	}, classOf)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

func (c *Client) fetchOnce(ctx context.Context, page, size int) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page, size), nil)
	if err != nil {
		return nil, &PageError{Page: page, ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("page", page).
		Int("size", size).
		Msg("Requesting page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pageRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &PageError{Page: page, ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	pageRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	case resp.StatusCode >= 400:
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		class := classifyStatus(resp.StatusCode)
		c.logger.Warn().
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Page request error")
		return nil, &PageError{Page: page, StatusCode: resp.StatusCode, ErrorClass: class, Message: resp.Status}
	}

	var body pageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &PageError{Page: page, StatusCode: resp.StatusCode, ErrorClass: ErrorClassClient, Message: "decode page", Err: err}
	}
	return body.Rows, nil
}

func (c *Client) pageURL(page, size int) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	u.RawQuery = q.Encode()
	return u.String()
}

func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Rows adapts c to a row source fetch hook that decodes each row into R.
func Rows[R any](c *Client) pagination.FetchFunc[R] {
	return func(ctx context.Context, page, pageSize int) ([]R, error) {
		raw, err := c.FetchPage(ctx, page, pageSize)
		if err != nil || len(raw) == 0 {
			return nil, err
		}
		rows := make([]R, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &rows[i]); err != nil {
				return nil, fmt.Errorf("decode row %d of page %d: %w", i, page, err)
			}
		}
		return rows, nil
	}
}
