// Package client provides the rsywx gateway HTTP client with rate limiting,
// caching, retries and envelope decoding.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/rsywx-client/pkg/cache"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/ratelimit"
)

// HeaderAPIKey carries the static gateway API key.
const HeaderAPIKey = "X-API-Key"

// Client is the gateway client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	scope       string
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the gateway, e.g. https://api.rsywx.com
	BaseURL string

	// APIKey is sent as X-API-Key on every request. Optional.
	APIKey string

	// UserAgent header
	UserAgent string

	// Timeout bounds each attempt, including reading the body.
	Timeout time.Duration

	// Retry
	Retry RetryConfig

	// DefaultTTL applies to responses without Cache-Control or Expires.
	DefaultTTL time.Duration

	// Cache is optional; nil disables response caching.
	Cache *cache.Manager

	// RateLimiter is optional; nil disables request gating.
	RateLimiter *ratelimit.Tracker

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		UserAgent:  "rsywx-client/0.1.0",
		Timeout:    10 * time.Second,
		Retry:      DefaultRetryConfig(),
		DefaultTTL: cache.DefaultTTL,
	}
}

// New creates a new gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := logging.NewLogger(logging.ComponentClient)
	if cfg.APIKey == "" {
		logger.Warn().Str("base_url", base.String()).Msg("No API key configured, gateway may reject requests")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     base,
		scope:       base.Host,
		rateLimiter: cfg.RateLimiter,
		cache:       cfg.Cache,
		config:      cfg,
		logger:      logger,
	}, nil
}

// fetchResult is one completed attempt with its body fully read.
type fetchResult struct {
	status int
	header http.Header
	body   []byte
}

func (r *fetchResult) toResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.status, http.StatusText(r.status)),
		StatusCode:    r.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.header,
		Body:          io.NopCloser(bytes.NewReader(r.body)),
		ContentLength: int64(len(r.body)),
		Request:       req,
	}
}

// Get performs a GET request to a gateway path with rate limiting, caching,
// retries and the per-attempt timeout. Non-2xx responses are returned as
// *GatewayError. The returned body is fully buffered.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*http.Response, error) {
	o := buildOptions(opts)
	endpoint := "/" + strings.TrimLeft(path, "/")

	startTime := time.Now()
	defer func() {
		gatewayRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	target := *c.baseURL
	target.Path = c.baseURL.Path + endpoint
	if len(o.query) > 0 {
		target.RawQuery = o.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set(HeaderAPIKey, c.config.APIKey)
	}

	// Step 1: Check Cache
	cacheKey := cache.Key{Endpoint: endpoint, QueryParams: o.query, Scope: c.scope}
	var cachedEntry *cache.Entry
	if c.cache.Enabled() && !o.noCache {
		entry, err := c.cache.Lookup(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache lookup error")
		}
		if entry != nil && !entry.IsExpired() {
			c.logger.Debug().Str("endpoint", endpoint).Dur("ttl", entry.TTL()).Msg("Serving from cache")
			gatewayRequestsTotal.WithLabelValues(endpoint, "cache").Inc()
			return cache.EntryToResponse(entry, req), nil
		}
		if entry != nil && cache.ShouldMakeConditionalRequest(entry) {
			cachedEntry = entry
			cache.AddConditionalHeaders(req, entry)
			c.logger.Debug().Str("endpoint", endpoint).Str("etag", entry.ETag).Msg("Making conditional request")
		}
	}

	// Step 2: Execute with retry
	var result *fetchResult
	retryErr := retryWithBackoff(ctx, c.config.Retry, c.logger, func(attempt int) (ErrorClass, error) {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				gwErr := &GatewayError{Class: ErrorClassRateLimit, Path: endpoint, Message: "request gate", Err: err}
				gatewayErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
				gatewayRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
				// Waiting out an exhausted quota inside the retry loop cannot help.
				return "", gwErr
			}
		}

		res, err := c.attempt(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			}
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("HTTP request failed")
			gatewayErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			gatewayRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return ErrorClassNetwork, &GatewayError{Class: ErrorClassNetwork, Path: endpoint, Message: "transport", Err: err}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, res.header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		gatewayRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(res.status)).Inc()

		if errClass := classifyStatus(res.status); errClass != "" {
			gatewayErrorsTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", res.status).
				Str("error_class", string(errClass)).
				Msg("Gateway request error")
			return errClass, &GatewayError{
				StatusCode: res.status,
				Class:      errClass,
				Path:       endpoint,
				Message:    http.StatusText(res.status),
			}
		}

		result = res
		return "", nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	// Step 3: Handle 304 Not Modified
	if result.status == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		newExpires := time.Now().Add(c.defaultTTL())
		if fresh, err := cache.ResponseToEntry(result.toResponse(req), c.defaultTTL()); err == nil {
			newExpires = fresh.Expires
		}
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	resp := result.toResponse(req)

	// Step 4: Update Cache on success
	if o.cacheable != nil && !o.cacheable(result.body) {
		c.logger.Debug().Str("endpoint", endpoint).Msg("Response rejected for caching")
	} else if c.cache.Enabled() && cache.IsCacheable(resp) {
		entry, err := cache.ResponseToEntry(resp, c.defaultTTL())
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().Str("endpoint", endpoint).Dur("ttl", entry.TTL()).Msg("Cached response")
		}
	}

	return resp, nil
}

// attempt sends one request bounded by the per-call timeout and reads the
// whole body before the timeout context is released.
func (c *Client) attempt(ctx context.Context, req *http.Request) (*fetchResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.httpClient.Do(req.Clone(attemptCtx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &fetchResult{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// GetJSON fetches path and decodes the data member of its envelope into dst.
func (c *Client) GetJSON(ctx context.Context, path string, dst any, opts ...RequestOption) (Meta, error) {
	o := buildOptions(opts)

	opts = append(opts[:len(opts):len(opts)], withCacheCondition(envelopeSucceeded))
	resp, err := c.Get(ctx, path, opts...)
	if err != nil {
		return Meta{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Meta{}, fmt.Errorf("read body: %w", err)
	}

	meta, err := DecodeEnvelope(body, dst, o.extra...)
	if err != nil {
		gatewayErrorsTotal.WithLabelValues(string(ErrorClassEnvelope)).Inc()
		return meta, &GatewayError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassEnvelope,
			Path:       resp.Request.URL.Path,
			Message:    "envelope",
			Err:        err,
		}
	}
	if meta.Cached {
		gatewayCachedEnvelopesTotal.Inc()
	}
	return meta, nil
}

// GetBareJSON fetches path and decodes the whole body into dst. Used by the
// legacy endpoints that are not wrapped in an envelope.
func (c *Client) GetBareJSON(ctx context.Context, path string, dst any, opts ...RequestOption) error {
	resp, err := c.Get(ctx, path, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		gatewayErrorsTotal.WithLabelValues(string(ErrorClassEnvelope)).Inc()
		return &GatewayError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassEnvelope,
			Path:       resp.Request.URL.Path,
			Message:    "decode",
			Err:        err,
		}
	}
	return nil
}

func (c *Client) defaultTTL() time.Duration {
	if c.config.DefaultTTL > 0 {
		return c.config.DefaultTTL
	}
	return cache.DefaultTTL
}

// BaseURL returns the configured gateway base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cache returns the cache manager, which may be nil.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
