package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

const (
	// DefaultContentType is sent when the origin does not name one
	DefaultContentType = "image/jpeg"
	// DefaultMaxAge is how long browsers and shared caches may keep a proxied image
	DefaultMaxAge = 24 * time.Hour
	// DefaultTimeout bounds one origin fetch
	DefaultTimeout = 30 * time.Second

	maxRedirects = 5
)

var (
	// ErrMissingURL is returned when no url parameter was supplied
	ErrMissingURL = errors.New("imageproxy: URL parameter is required")
	// ErrInvalidURL is returned when the parameter is not an absolute http(s) URL
	ErrInvalidURL = errors.New("imageproxy: invalid URL")
	// ErrDomainNotAllowed is returned when the host is not on the allow-list
	ErrDomainNotAllowed = errors.New("imageproxy: domain not allowed")
	// ErrFetchFailed wraps transport failures talking to the origin
	ErrFetchFailed = errors.New("imageproxy: failed to fetch image")
)

// UpstreamHTTPError is a non-2xx answer from the image origin
type UpstreamHTTPError struct {
	StatusCode int
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("imageproxy: origin answered HTTP %d", e.StatusCode)
}

// Image is an origin response ready to be streamed. Callers must close Body.
type Image struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	ETag          string
	LastModified  string
}

// Proxy fetches images from allow-listed hosts
type Proxy struct {
	allow      *AllowList
	httpClient *http.Client
	userAgent  string
	maxAge     time.Duration
	logger     *zap.Logger
	metrics    *telemetry.UpstreamMetrics
}

// Option configures a Proxy
type Option func(*Proxy)

// WithHTTPClient replaces the origin client. The proxy works on a copy with
// redirect checking installed; hc itself is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Proxy) {
		if hc == nil {
			return
		}
		clone := *hc
		p.httpClient = &clone
	}
}

// WithUserAgent sets the User-Agent sent to origins
func WithUserAgent(ua string) Option {
	return func(p *Proxy) { p.userAgent = ua }
}

// WithMaxAge sets the cache lifetime advertised to clients
func WithMaxAge(d time.Duration) Option {
	return func(p *Proxy) {
		if d > 0 {
			p.maxAge = d
		}
	}
}

// WithLogger sets the logger used when no request logger is on the context
func WithLogger(l *zap.Logger) Option {
	return func(p *Proxy) { p.logger = l }
}

// WithMetrics records every proxy request on m
func WithMetrics(m *telemetry.UpstreamMetrics) Option {
	return func(p *Proxy) { p.metrics = m }
}

// New creates a proxy restricted to allow
func New(allow *AllowList, opts ...Option) *Proxy {
	p := &Proxy{
		allow: allow,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxAge: DefaultMaxAge,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.httpClient.CheckRedirect = p.checkRedirect
	return p
}

// CacheControl returns the Cache-Control value for proxied images
func (p *Proxy) CacheControl() string {
	secs := strconv.FormatInt(int64(p.maxAge/time.Second), 10)
	return "public, max-age=" + secs + ", s-maxage=" + secs
}

// Validate parses raw and checks it against the allow-list
func (p *Proxy) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if !p.allow.Allows(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotAllowed, u.Hostname())
	}
	return u, nil
}

// Fetch validates raw and opens the origin response. Every redirect hop is
// held to the same allow-list as the first request.
func (p *Proxy) Fetch(ctx context.Context, raw string) (*Image, error) {
	log := logger.For(ctx, p.logger)

	u, err := p.Validate(raw)
	if err != nil {
		p.metrics.RecordProxy(ctx, outcomeFor(err), 0)
		log.Info("image proxy request rejected", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		p.metrics.RecordProxy(ctx, telemetry.OutcomeBadRequest, 0)
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "image/*")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrDomainNotAllowed) {
			p.metrics.RecordProxy(ctx, telemetry.OutcomeRejected, 0)
			log.Warn("image redirect left the allow-list", zap.String("host", u.Hostname()), zap.Error(err))
			return nil, err
		}
		p.metrics.RecordProxy(ctx, telemetry.OutcomeNetwork, 0)
		log.Warn("image fetch failed", zap.String("host", u.Hostname()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		p.metrics.RecordProxy(ctx, telemetry.OutcomeHTTPError, 0)
		log.Warn("image origin returned error",
			zap.String("host", u.Hostname()),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &UpstreamHTTPError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	return &Image{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		ETag:          resp.Header.Get("ETag"),
		LastModified:  resp.Header.Get("Last-Modified"),
	}, nil
}

// Streamed records a completed transfer of n bytes
func (p *Proxy) Streamed(ctx context.Context, n int64) {
	p.metrics.RecordProxy(ctx, telemetry.OutcomeSuccess, n)
}

func (p *Proxy) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("imageproxy: stopped after %d redirects", maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: redirect to scheme %q", ErrDomainNotAllowed, req.URL.Scheme)
	}
	if !p.allow.Allows(req.URL.Hostname()) {
		return fmt.Errorf("%w: redirect to %s", ErrDomainNotAllowed, req.URL.Hostname())
	}
	return nil
}

// StatusFor maps a Fetch error onto the status the proxy endpoint answers with
func StatusFor(err error) int {
	var upstream *UpstreamHTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingURL), errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrDomainNotAllowed):
		return http.StatusForbidden
	case errors.As(err, &upstream):
		return upstream.StatusCode
	default:
		return http.StatusInternalServerError
	}
}

func outcomeFor(err error) string {
	if errors.Is(err, ErrDomainNotAllowed) {
		return telemetry.OutcomeRejected
	}
	return telemetry.OutcomeBadRequest
}
