// ABOUTME: HTTP client for the Korrekturleser API
// ABOUTME: Attaches bearer tokens, reports 401s and maps failures to typed errors

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/markalston/korrekturleser-cli/internal/cache"
)

// DefaultTextPath is where current backends serve text improvement.
const DefaultTextPath = "/api/text/"

// Client is the API client for the Korrekturleser backend
type Client struct {
	baseURL        string
	textPath       string
	httpClient     *http.Client
	timeout        *time.Duration
	tokenSource    func() string
	onUnauthorized func()
	configCache    *cache.Cache[ConfigResponse]
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero means no client timeout.
// A client passed to WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// WithTokenSource sets the function consulted for a bearer token right
// before every request. An empty result sends no Authorization header.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) {
		c.tokenSource = fn
	}
}

// WithUnauthorizedHandler sets the function called once for every 401 response
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithTextPath overrides the text improvement endpoint path
func WithTextPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.textPath = path
		}
	}
}

// WithConfigCache caches model lists per provider for ttl
func WithConfigCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.configCache = cache.New[ConfigResponse](ttl)
		}
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		textPath: DefaultTextPath,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the backend address this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login calls POST /api/auth/login
func (c *Client) Login(ctx context.Context, secret string) (*TokenResponse, error) {
	var tok TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, LoginRequest{Secret: secret}, &tok, classifyLogin)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized:
				apiErr.Message = "invalid secret"
			case http.StatusTooManyRequests:
				apiErr.Message = "too many login attempts, try again later"
			}
		}
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &APIError{Kind: ErrAuthentication, StatusCode: http.StatusOK, Message: "login response carried no token"}
	}
	return &tok, nil
}

// CurrentUser calls GET /api/auth/me
func (c *Client) CurrentUser(ctx context.Context) (*UserInfo, error) {
	var user UserInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user, classifyDefault); err != nil {
		return nil, err
	}
	return &user, nil
}

// Config calls GET /api/config/ for the given provider. An empty provider
// asks for the server default.
func (c *Client) Config(ctx context.Context, provider string) (*ConfigResponse, error) {
	if c.configCache != nil {
		if cached, ok := c.configCache.Get(provider); ok {
			return &cached, nil
		}
	}

	var query url.Values
	if provider != "" {
		query = url.Values{"provider": {provider}}
	}

	var cfg ConfigResponse
	if err := c.do(ctx, http.MethodGet, "/api/config/", query, nil, &cfg, classifyConfig); err != nil {
		return nil, err
	}

	if c.configCache != nil {
		c.configCache.Set(provider, cfg)
	}
	return &cfg, nil
}

// InvalidateConfig drops cached model lists
func (c *Client) InvalidateConfig() {
	if c.configCache != nil {
		c.configCache.Purge()
	}
}

// Modes calls GET /api/modes/
func (c *Client) Modes(ctx context.Context) (*ModesResponse, error) {
	var modes ModesResponse
	if err := c.do(ctx, http.MethodGet, "/api/modes/", nil, nil, &modes, classifyDefault); err != nil {
		return nil, err
	}
	return &modes, nil
}

// ImproveText calls POST on the text endpoint
func (c *Client) ImproveText(ctx context.Context, input *TextRequest) (*TextResponse, error) {
	var result TextResponse
	if err := c.do(ctx, http.MethodPost, c.textPath, nil, input, &result, classifyText); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats calls GET /api/stats/
func (c *Client) Stats(ctx context.Context) (*UsageStatsResponse, error) {
	var stats UsageStatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/stats/", nil, nil, &stats, classifyDefault); err != nil {
		return nil, err
	}
	return &stats, nil
}

// classify maps an HTTP status to an error kind. Status 0 means no usable
// response was received.
type classify func(status int) error

func classifyLogin(status int) error {
	if status == 0 {
		return ErrTransport
	}
	return ErrAuthentication
}

func classifyConfig(int) error {
	return ErrConfig
}

func classifyText(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrAuthentication
	default:
		return ErrTransport
	}
}

func classifyDefault(status int) error {
	if status == http.StatusUnauthorized {
		return ErrAuthentication
	}
	return ErrTransport
}

// do performs one round trip and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, kindOf classify) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &APIError{Kind: kindOf(0), Message: "failed to marshal request", Err: err}
		}
		body = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &APIError{Kind: kindOf(0), Message: "failed to create request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	// Read the token as late as possible so a logout or refresh between
	// building the call and sending it is honoured.
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("API request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return c.handleRequestError(ctx, kindOf(0), err)
	}
	defer resp.Body.Close()

	slog.Debug("API request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp, kindOf(resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Kind: kindOf(0), StatusCode: resp.StatusCode, Message: "invalid response from backend", Err: err}
	}
	return nil
}
