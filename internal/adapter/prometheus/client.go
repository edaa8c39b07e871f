package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"slochecker/internal/eval"
)

// Config holds Prometheus client configuration
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxConcurrency int64
}

// DefaultConfig returns default configuration
func DefaultConfig(prometheusURL string) Config {
	return Config{
		URL:            prometheusURL,
		Timeout:        10 * time.Second,
		MaxConcurrency: 10,
	}
}

// Client issues instant queries against a Prometheus-compatible API.
// It implements eval.MetricsSource. One outbound call per invocation;
// the scheduler owns any retry policy.
type Client struct {
	config Config
	client *http.Client
	sem    *semaphore.Weighted
}

// NewClient creates a new Prometheus client
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		sem: semaphore.NewWeighted(config.MaxConcurrency),
	}
}

// FetchInstant executes an instant query at the given evaluation
// timestamp and returns the single scalar result. Zero series or more
// than one series yields an ambiguous eval.FetchError rather than a
// made-up value: right after a service starts its metrics are often
// absent, and absent must not read as zero.
func (c *Client) FetchInstant(ctx context.Context, query string, at time.Time) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// Bound outbound concurrency against the backend
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return 0, &eval.FetchError{Kind: eval.FetchNetwork, Query: query, Err: fmt.Errorf("semaphore acquire: %w", err)}
	}
	defer c.sem.Release(1)

	resp, err := c.executeQuery(ctx, query, at)
	if err != nil {
		return 0, err
	}

	results := resp.Data.Result
	if len(results) != 1 {
		return 0, &eval.FetchError{
			Kind:  eval.FetchAmbiguous,
			Query: query,
			Err:   fmt.Errorf("expected exactly 1 result series, got %d", len(results)),
		}
	}

	value, err := results[0].Value.Value()
	if err != nil {
		return 0, &eval.FetchError{Kind: eval.FetchParse, Query: query, Err: err}
	}

	return value, nil
}

// executeQuery performs a single Prometheus instant query
func (c *Client) executeQuery(ctx context.Context, query string, at time.Time) (*QueryResponse, error) {
	queryURL := fmt.Sprintf("%s/api/v1/query", strings.TrimSuffix(c.config.URL, "/"))

	params := url.Values{}
	params.Add("query", query)
	params.Add("time", strconv.FormatInt(at.Unix(), 10))

	fullURL := queryURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, &eval.FetchError{Kind: eval.FetchNetwork, Query: query, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &eval.FetchError{Kind: eval.FetchNetwork, Query: query, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &eval.FetchError{Kind: eval.FetchNetwork, Query: query, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &eval.FetchError{
			Kind:  eval.FetchBackend,
			Query: query,
			Err:   fmt.Errorf("http status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result QueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &eval.FetchError{Kind: eval.FetchParse, Query: query, Err: fmt.Errorf("parse response: %w", err)}
	}

	if result.Status != "success" {
		return nil, &eval.FetchError{
			Kind:  eval.FetchBackend,
			Query: query,
			Err:   fmt.Errorf("prometheus error: %s", result.Error),
		}
	}

	return &result, nil
}
