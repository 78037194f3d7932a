// Package samsara is the read-only client for the Samsara fleet API: cursor
// pagination, ID/stat-type chunking, and per-unit error isolation.
package samsara

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"fleettwin/internal/metrics"
)

const (
	// DefaultBaseURL is the production API host. Tests point this at a
	// local httptest server.
	DefaultBaseURL = "https://api.samsara.com"

	// Server-side request constraints: at most 100 vehicle ids and 4 stat
	// types per request.
	DefaultIDChunk   = 100
	DefaultTypeChunk = 4

	// DefaultConcurrency bounds in-flight chunk requests per fetch.
	DefaultConcurrency = 4
)

// Client issues authenticated GETs against the fleet API. All fetch methods
// degrade per request unit; none returns a process-fatal error.
type Client struct {
	baseURL string
	token   string

	// Stats payloads are larger, so they get a longer timeout.
	httpc      *http.Client
	httpcStats *http.Client

	limiter     *rate.Limiter
	log         *slog.Logger
	idChunk     int
	typeChunk   int
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option    { return func(c *Client) { c.baseURL = u } }
func WithIDChunkSize(n int) Option   { return func(c *Client) { c.idChunk = n } }
func WithTypeChunkSize(n int) Option { return func(c *Client) { c.typeChunk = n } }
func WithConcurrency(n int) Option   { return func(c *Client) { c.concurrency = n } }

func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient builds a Client with the given bearer token.
func NewClient(token string, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		token:       token,
		httpc:       &http.Client{Timeout: 10 * time.Second},
		httpcStats:  &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(25), 25),
		log:         log,
		idChunk:     DefaultIDChunk,
		typeChunk:   DefaultTypeChunk,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(c)
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	return c
}

// getJSON performs one rate-limited GET and decodes the body into out.
// Non-2xx and transport failures come back as *TransportError, undecodable
// bodies as *MalformedResponseError.
func (c *Client) getJSON(ctx context.Context, hc *http.Client, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		return &TransportError{Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	status := strconv.Itoa(resp.StatusCode)
	metrics.UpstreamRequests.WithLabelValues(path, status).Inc()
	metrics.UpstreamDuration.WithLabelValues(path, status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &TransportError{Endpoint: path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Endpoint: path, Err: err}
	}
	return nil
}

// chunk splits ids into groups of at most size.
func chunk(ids []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var out [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}
