package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/atelier/pkg/gemini"
	"mercator-hq/atelier/pkg/providers"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// ProviderName identifies this upstream in errors and metrics.
const ProviderName = "gemini"

// MaxResponseBytes bounds how much of an upstream body is read.
const MaxResponseBytes = 64 * 1024 * 1024

// Config contains upstream client configuration.
type Config struct {
	// BaseURL is the versioned API root, without a trailing slash.
	BaseURL string

	// EditModel serves edit requests through generateContent.
	EditModel string

	// GenerateModel serves generate requests through generateImage.
	GenerateModel string

	// Timeout bounds one upstream call. Zero means no client-side limit.
	Timeout time.Duration
}

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(action string, status int, duration time.Duration)
}

// Response is a raw upstream answer.
type Response struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client calls the upstream image API. Every call is a single attempt:
// there are no retries.
type Client struct {
	config   Config
	client   *http.Client
	tracer   trace.Tracer
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithTracer sets the tracer used for upstream spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a new upstream client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		tracer: noop.NewTracerProvider().Tracer(ProviderName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the upstream model serving action.
func (c *Client) Model(action gemini.Action) string {
	if action == gemini.ActionEdit {
		return c.config.EditModel
	}
	return c.config.GenerateModel
}

// Send performs exactly one POST for req and returns the raw status and
// body. Only transport failures are errors; non-2xx answers are returned
// as a Response.
func (c *Client) Send(ctx context.Context, req gemini.Request, apiKey string) (*Response, error) {
	action := req.Action()
	model := c.Model(action)

	payload, err := buildPayload(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upstream payload: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "gemini."+string(action),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gemini.action", string(action)),
			attribute.String("gemini.model", model),
		),
	)
	defer span.End()

	logger := logging.FromContext(ctx)
	logger.DebugContext(ctx, "sending request to upstream",
		"action", action,
		"model", model,
		"payload_bytes", len(payload),
	)

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(action), payload, apiKey)
	latency := time.Since(start)

	if err != nil {
		c.observe(action, 0, latency)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp.Latency = latency
	c.observe(action, resp.StatusCode, latency)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if !resp.OK() {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	logger.InfoContext(ctx, "upstream call completed",
		"action", action,
		"model", model,
		"status", resp.StatusCode,
		"latency_ms", latency.Milliseconds(),
	)

	return resp, nil
}

// Execute sends req and turns the answer into a Result. Non-2xx answers
// become *providers.ProviderError carrying the upstream status and message.
func (c *Client) Execute(ctx context.Context, req gemini.Request, apiKey string) (*gemini.Result, error) {
	resp, err := c.Send(ctx, req, apiKey)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		msg := gemini.UpstreamErrorMessage(req.Action(), resp.Body)
		logging.FromContext(ctx).ErrorContext(ctx, "upstream returned an error",
			"action", req.Action(),
			"status", resp.StatusCode,
			"message", msg,
			"latency_ms", resp.Latency.Milliseconds(),
		)
		return nil, &providers.ProviderError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	return gemini.Normalize(req.Action(), resp.Body)
}

// Ping lists models to check that the upstream is reachable and accepts
// apiKey. It returns the round trip time.
func (c *Client) Ping(ctx context.Context, apiKey string) (time.Duration, error) {
	ctx, span := c.tracer.Start(ctx, "gemini.ping", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, c.config.BaseURL+"/models", nil, apiKey)
	latency := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return latency, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if !resp.OK() {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return latency, &providers.ProviderError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    pingMessage(resp),
		}
	}
	return latency, nil
}

func (c *Client) endpoint(action gemini.Action) string {
	if action == gemini.ActionEdit {
		return fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, url.PathEscape(c.config.EditModel))
	}
	return fmt.Sprintf("%s/models/%s:generateImage", c.config.BaseURL, url.PathEscape(c.config.GenerateModel))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, apiKey string) (*Response, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &providers.TimeoutError{Provider: ProviderName, Timeout: c.config.Timeout}
		}
		return nil, &providers.ProviderError{
			Provider: ProviderName,
			Message:  "upstream request failed",
			Cause:    stripURL(err),
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, &providers.ProviderError{
			Provider: ProviderName,
			Message:  "failed to read upstream response",
			Cause:    stripURL(err),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) observe(action gemini.Action, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(string(action), status, d)
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// stripURL drops the request URL, which carries the key, from transport errors.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func pingMessage(resp *Response) string {
	var body struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
