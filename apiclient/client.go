// Package apiclient is the single chokepoint for calls to the restaurant API.
//
// Every request carries the current bearer access token when one is held,
// unless the caller supplies its own Authorization. Failures, including 401,
// are returned as *RequestError; the client never retries and never refreshes
// credentials, that policy belongs to the session service.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/restaurant-console/internal/metrics"
)

const (
	defaultTimeout  = 15 * time.Second
	maxErrorBody    = 64 << 10
	requestIDHeader = "X-Request-ID"
)

// TokenProvider is read by the client before each request. An empty string
// means no token is held.
type TokenProvider interface {
	AccessToken() string
}

// TokenProviderFunc adapts a function to TokenProvider
type TokenProviderFunc func() string

func (f TokenProviderFunc) AccessToken() string {
	return f()
}

// Client issues JSON requests against a base URL
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	tokens      TokenProvider
	tokenSource oauth2.TokenSource
	log         zerolog.Logger
	metrics     *metrics.Metrics
	userAgent   string
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sends requests through hc. hc is never modified; a nil hc
// keeps the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per request timeout. Zero keeps the default, or the
// timeout of a client passed to WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithTokenProvider sets where bearer tokens are read from
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) {
		c.tokens = tp
	}
}

// WithTokenSource authenticates requests with tokens from ts, which may
// refresh them. A failing ts fails the request before it is sent. It takes
// precedence over a TokenProvider.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = ts
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a Client for baseURL, e.g. "https://api.example.com"
func New(baseURL string, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[apiclient.New] base URL is required")
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       zerolog.Nop(),
		userAgent: "restaurant-console",
	}
	for _, opt := range options {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		// copy so the caller's client keeps its own timeout
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// SetTokenProvider wires the token source after construction, for when the
// provider itself depends on the client.
func (c *Client) SetTokenProvider(tp TokenProvider) {
	c.tokens = tp
}

type requestOptions struct {
	accessToken string
	headers     http.Header
	query       map[string]string
}

// RequestOption adjusts a single request
type RequestOption func(*requestOptions)

// WithAccessToken sends tok as the bearer credential instead of the one held
// by the token provider.
func WithAccessToken(tok string) RequestOption {
	return func(o *requestOptions) {
		o.accessToken = tok
	}
}

// WithHeader sets a request header. Setting Authorization here also
// overrides the held token.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// WithQuery adds a query parameter
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = map[string]string{}
		}
		o.query[key] = value
	}
}

// Get decodes the JSON response of GET path into out (which may be nil)
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts)
}

// Patch sends body as JSON and decodes the response into out
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPatch, path, body, out, opts)
}

// Delete issues DELETE path and decodes any response body into out
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	ro := requestOptions{}
	for _, opt := range opts {
		opt(&ro)
	}

	req, err := c.newRequest(ctx, method, path, body, ro)
	if err != nil {
		return err
	}
	requestID := req.Header.Get(requestIDHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start))
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("api request failed")
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, resp.StatusCode, elapsed)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", requestID).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRequestError(method, path, resp)
	}
	return decodeBody(resp.Body, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, ro requestOptions) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "[Client.%s] encode body for %s", method, path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.%s] build request for %s", method, path)
	}
	if len(ro.query) > 0 {
		q := req.URL.Query()
		for k, v := range ro.query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range ro.headers {
		req.Header[k] = v
	}

	switch {
	case ro.accessToken != "":
		bearer(ro.accessToken).SetAuthHeader(req)
	case req.Header.Get("Authorization") != "":
		// caller supplied its own credentials
	case c.tokenSource != nil:
		tok, err := c.tokenSource.Token()
		if err != nil {
			return nil, errors.Wrapf(err, "[Client.%s] token for %s", method, path)
		}
		tok.SetAuthHeader(req)
	case c.tokens != nil:
		if tok := c.tokens.AccessToken(); tok != "" {
			bearer(tok).SetAuthHeader(req)
		}
	}
	return req, nil
}

func bearer(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}

func decodeBody(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}
