// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch sends console commands to the remote interpreter.
//
// One request carries one command as {"command": "..."}; the interpreter
// answers {"output": [...]} or {"error": "..."}. Send never returns a Go
// error: every outcome, including network and decoding failures, is a
// Result the console renders.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"

	"github.com/jeranaias/kvterm/internal/log"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the dispatch client.
type Config struct {
	// BaseURL is the interpreter's site root (default: http://127.0.0.1:8000)
	BaseURL string

	// CommandPath is the command endpoint below BaseURL (default: /command/)
	CommandPath string

	// CSRFCookie names the cookie holding the anti-forgery token (default: csrftoken)
	CSRFCookie string

	// CSRFHeader is the request header carrying the token (default: X-CSRFToken)
	CSRFHeader string

	// Timeout bounds a whole round trip, including with a client from
	// WithHTTPClient. Zero means no timeout.
	Timeout time.Duration

	// RequestsPerSecond paces requests. Zero means unlimited.
	RequestsPerSecond float64

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://127.0.0.1:8000",
		CommandPath: "/command/",
		CSRFCookie:  DefaultCSRFCookie,
		CSRFHeader:  "X-CSRFToken",
		UserAgent:   "kvterm",
	}
}

func (c *Config) fillDefaults() {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.CommandPath == "" {
		c.CommandPath = defaults.CommandPath
	}
	if c.CSRFCookie == "" {
		c.CSRFCookie = defaults.CSRFCookie
	}
	if c.CSRFHeader == "" {
		c.CSRFHeader = defaults.CSRFHeader
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithTokenSource replaces the default cookie-jar token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient replaces the pooled HTTP client. Its Jar, if set, is used
// for the anti-forgery cookie. Config.Timeout still applies on top of the
// client's own Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts commands to the interpreter. It is safe for concurrent use,
// though the console only ever has one request in flight.
type Client struct {
	config     Config
	base       *url.URL
	endpoint   string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.fillDefaults()

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid interpreter URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid interpreter URL %q: scheme must be http or https", cfg.BaseURL)
	}
	endpoint, err := base.Parse("/" + strings.TrimLeft(cfg.CommandPath, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid command path: %w", err)
	}

	c := &Client{
		config:   cfg,
		base:     base,
		endpoint: endpoint.String(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = cleanhttp.DefaultPooledClient()
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	jarSource := JarTokenSource{Jar: c.httpClient.Jar, URL: base, Name: cfg.CSRFCookie}
	if c.tokens == nil {
		c.tokens = jarSource
	} else {
		c.tokens = Chain(c.tokens, jarSource)
	}

	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c, nil
}

// Endpoint returns the full command endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Prime loads the console page once so the interpreter can set its
// anti-forgery cookie in the jar.
func (c *Client) Prime(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return &Error{Kind: ErrKindRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyDoError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	_, found := c.tokens.Token()
	log.L().Debugw("primed anti-forgery token", "status", resp.StatusCode, "found", found)
	return nil
}

// Send issues one request for command and waits for its outcome.
func (c *Client) Send(ctx context.Context, command string) Result {
	requestID := uuid.NewString()
	start := time.Now()

	result := c.send(ctx, requestID, command)

	log.L().Debugw("command dispatched",
		"request_id", requestID,
		"command", command,
		"result", Describe(result),
		"duration", time.Since(start),
	)
	if f, ok := result.(TransportFailure); ok {
		log.L().Warnw("command transport failure", "request_id", requestID, "error", f.Cause)
	}
	return result
}

func (c *Client) send(ctx context.Context, requestID, command string) Result {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return TransportFailure{Cause: &Error{Kind: ErrKindRequest, Message: "request not sent", Cause: err}}
		}
	}

	body, err := json.Marshal(commandRequest{Command: command})
	if err != nil {
		return TransportFailure{Cause: &Error{Kind: ErrKindRequest, Message: "failed to marshal request", Cause: err}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return TransportFailure{Cause: &Error{Kind: ErrKindRequest, Message: "failed to create request", Cause: err}}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	// Same-origin Referer, required by CSRF checks over HTTPS.
	req.Header.Set("Referer", c.base.String()+"/")
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set(c.config.CSRFHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TransportFailure{Cause: classifyDoError(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TransportFailure{Cause: classifyDoError(err)}
	}

	result, err := Decode(data)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return TransportFailure{Cause: &Error{Kind: ErrKindStatus, Message: "unexpected status " + resp.Status, Cause: err}}
		}
		return TransportFailure{Cause: err}
	}
	return result
}

// withTimeout bounds ctx by Config.Timeout, if set.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.config.Timeout)
}

type commandRequest struct {
	Command string `json:"command"`
}

func classifyDoError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrKindTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: ErrKindTimeout, Message: "request timed out", Cause: err}
	}
	return &Error{Kind: ErrKindUnreachable, Message: "interpreter unreachable", Cause: err}
}
