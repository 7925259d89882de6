package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/syncdash/internal/config"
)

// Header names and values set on every request.
const (
	HeaderContentType   = "Content-Type"
	HeaderRequestedWith = "X-Requested-With"
	ContentTypeJSON     = "application/json"

	// DefaultRequestedWith marks a request as programmatic.
	DefaultRequestedWith = "XMLHttpRequest"
)

// Client issues JSON API calls. It is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       *url.URL
	requestedWith string
	logger        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. The client's own
// Timeout, if any, is the only timeout applied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestedWith overrides the X-Requested-With marker value.
func WithRequestedWith(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.requestedWith = v
		}
	}
}

// WithLogger sets the logger used for per-request debug logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client. Relative descriptor URLs are resolved against
// baseURL; an empty baseURL requires absolute descriptor URLs.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:    &http.Client{},
		requestedWith: DefaultRequestedWith,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		c.baseURL = u
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api_client")

	return c, nil
}

// NewFromConfig creates a Client from the client section of the configuration.
func NewFromConfig(cfg config.ClientConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	all := append([]Option{WithRequestedWith(cfg.RequestedWith), WithLogger(logger)}, opts...)
	return New(cfg.BaseURL, all...)
}

// Send issues the call described by d and returns the raw JSON body of a 2xx
// response. Failures are *StatusError or *TransportError; validation
// failures wrap ErrUnsupportedMethod or ErrInvalidDescriptor.
func (c *Client) Send(ctx context.Context, d Descriptor) (json.RawMessage, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	target, err := c.resolve(d.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	var body io.Reader
	if d.carriesBody() {
		payload, err := json.Marshal(d.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %v", ErrInvalidDescriptor, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	req.Header.Set(HeaderContentType, ContentTypeJSON)
	req.Header.Set(HeaderRequestedWith, c.requestedWith)

	start := time.Now()
	logger := c.logger.With("method", d.Method, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("request failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, &TransportError{Op: OpDo, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debug("failed to read response body", "status", resp.StatusCode, "error", err)
		return nil, &TransportError{Op: OpRead, Err: err}
	}

	logger.Debug("request completed",
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: data}
	}

	// Parsing is attempted regardless of the declared content type.
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &TransportError{Op: OpDecode, Err: err}
	}

	return raw, nil
}

// SendInto calls Send and decodes the result into v.
func (c *Client) SendInto(ctx context.Context, d Descriptor, v any) error {
	raw, err := c.Send(ctx, d)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &TransportError{Op: OpDecode, Err: err}
	}
	return nil
}

func (c *Client) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if c.baseURL == nil {
		if !ref.IsAbs() {
			return "", fmt.Errorf("relative URL %q without a base URL", raw)
		}
		return ref.String(), nil
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}
