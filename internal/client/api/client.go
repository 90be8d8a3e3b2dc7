// Package api wraps the mall backend's REST endpoints. Every endpoint is a
// single method on Client that passes its parameters through unchanged;
// nothing is validated, cached or retried here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single request unless WithHTTPClient or
// WithTimeout says otherwise.
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries a fresh id on every outgoing request.
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the bearer token attached to requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Params is a query parameter set passed through verbatim, e.g.
// {"page": 1, "pageSize": 10, "keyword": "apple"}. Nil values are skipped.
type Params map[string]any

// Encode renders p as a query string with keys in sorted order.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		if p[k] == nil {
			continue
		}
		q.Set(k, fmt.Sprint(p[k]))
	}
	return q.Encode()
}

// Request describes one call against the backend.
type Request struct {
	Method string
	Path   string
	Query  Params
	Body   any
}

// Response is what the backend answered. It is returned for every HTTP
// status; only a failed round trip produces an error.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON parses the body for path lookups.
func (r *Response) JSON() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is the configured HTTP client of the mall backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu      sync.RWMutex
	headers map[string]string
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient bases the client on a copy of hc; later options never
// modify hc itself. A nil hc is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		cp := *hc
		c.httpClient = &cp
	}
}

// WithTransport keeps the default client but swaps its transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit makes requests wait for a token bucket of rps requests per
// second. rps <= 0 leaves requests unthrottled.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHeader adds a default header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a client rooted at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    u,
		logger:     zap.NewNop(),
		headers: map[string]string{
			"Accept": "application/json",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetTokenSource replaces the bearer token source. It exists because the
// session that owns the token is itself built on top of the client.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) buildURL(path string, query Params) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// path is already escaped by pathf, so it is appended as text
	s := c.baseURL.String() + path
	if q := query.Encode(); q != "" {
		s += "?" + q
	}
	return s
}

// Do executes req once.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("marshal request body: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("%s %s: %w", req.Method, req.Path, err)}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	c.mu.RLock()
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	tokens := c.tokens
	c.mu.RUnlock()

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	if tokens != nil {
		if token := tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("%s %s: %w", req.Method, req.Path, err)}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: httpResp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// Get performs a GET request with query parameters.
func (c *Client) Get(ctx context.Context, path string, query Params) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// pathf formats a URL template, path-escaping every argument.
func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
