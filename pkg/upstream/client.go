// Package upstream is the typed client for the storefront commerce
// API. All catalog, cart, promo, and order state of record lives
// behind it; the gateway only caches and reconciles.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seifpharma/storefront-gateway/pkg/config"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/metrics"
)

const (
	accessTokenHeader = "Access-Token"

	errorBodyReadLimit int64 = 2048
)

var errBaseURLRequired = errors.New("upstream base url is required")

// APIError is a non-2xx answer from the upstream. It feeds the error
// dump so operators see which endpoint failed with what.
type APIError struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Endpoint, e.Status, e.Message)
}

func (e *APIError) UpstreamStatus() int      { return e.Status }
func (e *APIError) UpstreamEndpoint() string { return e.Endpoint }
func (e *APIError) UpstreamMessage() string  { return e.Message }

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Auth carries one caller's token pair through a request. Persist, when
// set, is invoked after a successful refresh so the rotated pair
// outlives the request; Drop is invoked when the refresh token itself
// is rejected, so the stored credential can be discarded.
type Auth struct {
	AccessToken  string
	RefreshToken string
	Persist      func(ctx context.Context, access, refresh string) error
	Drop         func(ctx context.Context) error
}

// Client talks to the storefront API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.UpstreamMetrics
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger attaches a logger for refresh events.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// New builds the upstream client from configuration.
func New(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client, nil
}

// do executes one request against the upstream, refreshing the access
// token and replaying exactly once when the first attempt comes back
// 401 and a refresh token is on hand.
func (c *Client) do(ctx context.Context, auth *Auth, method, endpoint string, body any, out any) error {
	err := c.doOnce(ctx, auth, method, endpoint, body, out)
	if err == nil {
		return nil
	}
	if auth == nil || auth.RefreshToken == "" || !IsUnauthorized(err) {
		return err
	}

	refreshed, refreshErr := c.RefreshToken(ctx, auth.RefreshToken)
	if refreshErr != nil {
		// The original 401 is the caller's problem; the refresh
		// failure only gets logged.
		if c.logg != nil {
			c.logg.Warn(ctx, "token refresh failed: "+refreshErr.Error())
		}
		if IsUnauthorized(refreshErr) && auth.Drop != nil {
			if dropErr := auth.Drop(ctx); dropErr != nil && c.logg != nil {
				c.logg.Warn(ctx, "dropping rejected credential failed: "+dropErr.Error())
			}
		}
		return err
	}

	auth.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		auth.RefreshToken = refreshed.RefreshToken
	}
	if auth.Persist != nil {
		if persistErr := auth.Persist(ctx, auth.AccessToken, auth.RefreshToken); persistErr != nil && c.logg != nil {
			c.logg.Warn(ctx, "persisting refreshed tokens failed: "+persistErr.Error())
		}
	}

	c.metrics.IncRefreshRetry(endpoint)
	return c.doOnce(ctx, auth, method, endpoint, body, out)
}

func (c *Client) doOnce(ctx context.Context, auth *Auth, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(endpoint), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil && auth.AccessToken != "" {
		req.Header.Set(accessTokenHeader, auth.AccessToken)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(started))
		return fmt.Errorf("execute %s request: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(started))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			Status:   resp.StatusCode,
			Endpoint: endpoint,
			Message:  readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) buildURL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, errorBodyReadLimit))
	if err != nil {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
