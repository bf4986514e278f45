// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/penny-vault/pvdogs/common"
	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://www.onvista.de"
	DefaultTimeout     = 30 * time.Second
	DefaultUnitTimeout = 2 * time.Minute
	DefaultRateLimit   = 10
	DefaultUserAgent   = "Mozilla/5.0 (compatible; pvdogs)"
)

// Config holds the settings used to talk to the portal and to size the fetch pool
type Config struct {
	BaseURL     string
	MaxWorkers  int
	Timeout     time.Duration
	UnitTimeout time.Duration
	RateLimit   int
	UserAgent   string
}

// DefaultConfig returns a configuration pointing at onvista.de with conservative limits
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		UnitTimeout: DefaultUnitTimeout,
		RateLimit:   DefaultRateLimit,
		UserAgent:   DefaultUserAgent,
	}
}

// Client retrieves portal pages and returns them as parsed HTML documents
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *common.PageCache
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the maximum number of requests per second sent upstream
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithPageCache keeps raw page bodies so a page requested twice in one process is only downloaded once
func WithPageCache(cache *common.PageCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a portal client for baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig builds a client using the timeout, rate limit and user agent in cfg
func NewClientFromConfig(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := []ClientOption{
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithRateLimit(cfg.RateLimit),
	}
	if cfg.UserAgent != "" {
		base = append(base, WithUserAgent(cfg.UserAgent))
	}

	return NewClient(cfg.BaseURL, append(base, opts...)...)
}

// URL joins path parts onto the portal base URL
func (c *Client) URL(parts ...string) string {
	trimmed := make([]string, 0, len(parts)+1)
	trimmed = append(trimmed, c.baseURL)
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			trimmed = append(trimmed, part)
		}
	}
	return strings.Join(trimmed, "/")
}

// Document downloads pageURL and parses it. Transport errors, non-2xx responses and
// unparseable bodies are all reported as ErrUpstreamUnavailable.
func (c *Client) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.Client.Document")
	defer span.End()

	span.SetAttributes(attribute.String("Url", pageURL))
	subLog := log.With().Str("Url", pageURL).Logger()

	body, cached := c.cachedBody(pageURL)
	if !cached {
		var err error
		body, err = c.get(ctx, pageURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "portal request failed")
			subLog.Warn().Err(err).Msg("portal request failed")
			return nil, err
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not parse html")
		subLog.Warn().Err(err).Msg("could not parse html")
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUpstreamUnavailable, pageURL, err)
	}

	if !cached && c.cache != nil {
		if err := c.cache.Set(pageURL, body); err != nil {
			subLog.Debug().Err(err).Msg("could not cache page")
		}
	}

	span.SetAttributes(attribute.Bool("Cached", cached), attribute.Int("Bytes", len(body)))
	return doc, nil
}

func (c *Client) cachedBody(pageURL string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(pageURL)
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	log.Debug().Str("Url", pageURL).Msg("portal request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstreamUnavailable, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrUpstreamUnavailable, pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUpstreamUnavailable, pageURL, err)
	}

	return body, nil
}
