package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the catalog API (10MB)
const maxResponseSize = 10 * 1024 * 1024

var (
	// ErrNetwork wraps transport failures and timeouts; no response was received
	ErrNetwork = errors.New("woocommerce: catalog unreachable")
	// ErrInvalidResponse indicates a 2xx body that could not be decoded
	ErrInvalidResponse = errors.New("woocommerce: invalid response")
)

// UpstreamHTTPError is a non-2xx answer from the catalog
type UpstreamHTTPError struct {
	StatusCode int
	Body       []byte
	// Code and Message are filled from the catalog's JSON error body when present
	Code    string
	Message string
}

func (e *UpstreamHTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("woocommerce: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("woocommerce: HTTP %d", e.StatusCode)
}

// StatusOf returns the upstream HTTP status carried by err, or 0
func StatusOf(err error) int {
	var httpErr *UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the catalog answered 404
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// Response is a successful catalog answer
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Client performs authenticated requests against one REST namespace of the catalog
type Client struct {
	cred       *Credential
	apiVersion string
	signer     *Signer
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.UpstreamMetrics
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used when no request logger is on the context
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records every round trip on m
func WithMetrics(m *telemetry.UpstreamMetrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithSignerOptions passes options through to the request signer
func WithSignerOptions(opts ...SignerOption) ClientOption {
	return func(c *Client) { c.signer = NewSigner(c.cred, opts...) }
}

// NewClient creates a catalog client. The credential is validated and then
// shared read-only by every request.
func NewClient(cred *Credential, opts ...ClientOption) (*Client, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cred:       cred,
		apiVersion: cred.APIVersion,
		signer:     NewSigner(cred),
		httpClient: &http.Client{
			Timeout:   cred.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithAPIVersion returns a client for another REST namespace on the same store
func (c *Client) WithAPIVersion(version string) *Client {
	clone := *c
	clone.apiVersion = strings.Trim(version, "/")
	return &clone
}

// APIVersion returns the REST namespace this client talks to
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// Get issues a signed GET for endpoint with params
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, params, nil)
}

// Post issues a signed POST with a JSON body
func (c *Client) Post(ctx context.Context, endpoint string, body any, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, params, body)
}

// Put issues a signed PUT with a JSON body
func (c *Client) Put(ctx context.Context, endpoint string, body any, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, params, body)
}

// Delete issues a signed DELETE
func (c *Client) Delete(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, params, nil)
}

// endpointURL joins base, namespace and endpoint: {base}/wp-json/{version}/{endpoint}
func (c *Client) endpointURL(endpoint string) string {
	return c.cred.BaseURL + "/wp-json/" + c.apiVersion + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body any) (*Response, error) {
	target := c.endpointURL(endpoint)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.signer.Authorize(req); err != nil {
		return nil, err
	}

	log := logger.For(ctx, c.logger).With(
		zap.String("upstream_method", method),
		zap.String("upstream_path", req.URL.Path),
		zap.String("upstream_query", logger.RedactQuery(req.URL.Query())),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(ctx, method, endpointLabel(endpoint), 0, time.Since(start))
		log.Warn("catalog request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	elapsed := time.Since(start)
	c.metrics.RecordUpstream(ctx, method, endpointLabel(endpoint), resp.StatusCode, elapsed)
	if err != nil {
		log.Warn("catalog response truncated", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}

	log.Debug("catalog request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", elapsed),
		zap.Int("body_size", len(respBody)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newUpstreamHTTPError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// endpointLabel collapses numeric path segments so metric labels stay bounded
func endpointLabel(endpoint string) string {
	segments := strings.Split(strings.Trim(endpoint, "/"), "/")
	for i, seg := range segments {
		if seg != "" && strings.Trim(seg, "0123456789") == "" {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func newUpstreamHTTPError(status int, body []byte) *UpstreamHTTPError {
	httpErr := &UpstreamHTTPError{StatusCode: status, Body: body}
	var wcErr wcError
	if json.Unmarshal(body, &wcErr) == nil {
		httpErr.Code = wcErr.Code
		httpErr.Message = wcErr.Message
	}
	return httpErr
}
