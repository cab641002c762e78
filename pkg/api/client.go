package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is used when no backend origin is configured.
	DefaultBaseURL = "http://localhost:3000"
	// DefaultTimeout bounds a single request unless overridden.
	DefaultTimeout = 180 * time.Second

	// apiPrefix is the canonical path prefix all relative endpoints resolve under.
	apiPrefix = "/api/v0"
	// authMarker is the path segment that must be present before the bearer
	// credential is attached to an outgoing request.
	authMarker = "/api/"
)

// Config holds the client settings. Zero-valued fields fall back to defaults.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// RequestOptions are per-call overrides for a single request.
type RequestOptions struct {
	Headers map[string]string
	Timeout time.Duration
}

// Client is the single chokepoint for backend communication. Every call
// resolves to exactly one Envelope; transport and HTTP failures are
// normalized, never returned as Go errors. Configuration updates are
// last-writer-wins and only affect requests issued afterwards.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	timeout time.Duration
	headers map[string]string
	auth    map[string]string

	rc *resty.Client
}

// New builds a client from the given config.
func New(cfg Config) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		headers: map[string]string{"Content-Type": "application/json"},
		rc:      resty.New(),
	}
	c.UpdateConfig(cfg)
	return c
}

// UpdateConfig applies non-zero fields to the client. In-flight requests keep
// the configuration they started with.
func (c *Client) UpdateConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		c.baseURL = strings.TrimRight(base, "/")
	}
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}
}

// SetAuthToken installs a bearer credential for subsequent requests.
func (c *Client) SetAuthToken(token string) {
	c.SetAuthHeaders(map[string]string{"Authorization": "Bearer " + token})
}

// SetAuthHeaders installs an opaque credential header map, replacing any
// previous one. The headers are injected verbatim when the injection rule
// is satisfied.
func (c *Client) SetAuthHeaders(headers map[string]string) {
	cp := make(map[string]string, len(headers))
	for k, v := range headers {
		cp[k] = v
	}

	c.mu.Lock()
	c.auth = cp
	c.mu.Unlock()
}

// ClearAuthToken removes the credential from subsequent requests.
func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	c.auth = nil
	c.mu.Unlock()
}

// Get issues a GET request against the given endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, opts *RequestOptions) (*Envelope, error) {
	return c.request(ctx, http.MethodGet, endpoint, nil, opts)
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any, opts *RequestOptions) (*Envelope, error) {
	return c.request(ctx, http.MethodPost, endpoint, body, opts)
}

// Put issues a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any, opts *RequestOptions) (*Envelope, error) {
	return c.request(ctx, http.MethodPut, endpoint, body, opts)
}

// Patch issues a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts *RequestOptions) (*Envelope, error) {
	return c.request(ctx, http.MethodPatch, endpoint, body, opts)
}

// Delete issues a DELETE request against the given endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string, opts *RequestOptions) (*Envelope, error) {
	return c.request(ctx, http.MethodDelete, endpoint, nil, opts)
}

// request is the shared primitive behind the verb helpers. The returned error
// is reserved for programmer-level failures (nil client, unmarshalable body);
// every ordinary failure comes back as an Error envelope.
func (c *Client) request(ctx context.Context, method, endpoint string, body any, opts *RequestOptions) (*Envelope, error) {
	if c == nil || c.rc == nil {
		return nil, fmt.Errorf("api client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	base, timeout, headers := c.snapshot(opts)
	target := resolveURL(base, endpoint)

	if injectAuth(base, target) {
		c.mu.RLock()
		for k, v := range c.auth {
			headers[k] = v
		}
		c.mu.RUnlock()
	}

	meta := stampMeta(headers)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := c.rc.R().SetContext(ctx).SetHeaders(headers)
	if body != nil && method != http.MethodGet {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		if isTimeout(err) {
			return timeoutEnvelope(meta), nil
		}
		return networkEnvelope(err, meta), nil
	}

	return normalize(resp.Body(), resp.StatusCode(), meta), nil
}

// snapshot captures the effective configuration for one request so that
// concurrent UpdateConfig calls never affect a request already in flight.
func (c *Client) snapshot(opts *RequestOptions) (base string, timeout time.Duration, headers map[string]string) {
	c.mu.RLock()
	base = c.baseURL
	timeout = c.timeout
	headers = make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		headers[k] = v
	}
	c.mu.RUnlock()

	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		for k, v := range opts.Headers {
			headers[k] = v
		}
	}
	return base, timeout, headers
}

// resolveURL builds the absolute request URL. Absolute endpoints pass through
// untouched; relative ones are normalized under the canonical API prefix
// without double-prefixing.
func resolveURL(base, endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}

	p := "/" + strings.TrimLeft(endpoint, "/")
	switch {
	case p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/") || strings.HasPrefix(p, apiPrefix+"?"):
		// already canonical
	case p == "/v0" || strings.HasPrefix(p, "/v0/") || strings.HasPrefix(p, "/v0?"):
		p = "/api" + p
	default:
		p = apiPrefix + p
	}
	return strings.TrimRight(base, "/") + p
}

// injectAuth decides whether the credential headers may be attached: only
// when the target is on the configured base URL and its path carries the API
// marker. Credentials never leak to third-party or proxy URLs.
func injectAuth(base, target string) bool {
	baseURL, err := url.Parse(base)
	if err != nil {
		return false
	}
	targetURL, err := url.Parse(target)
	if err != nil {
		return false
	}
	if !strings.EqualFold(baseURL.Scheme, targetURL.Scheme) || !strings.EqualFold(baseURL.Host, targetURL.Host) {
		return false
	}
	return strings.Contains(targetURL.Path, authMarker)
}

// isTimeout classifies a transport error as a timeout abort. Cancellation by
// the caller is treated as a network failure, not a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
