// Package storefrontapi is an HTTP client for the storefront gateway's own
// catalog endpoints. It lets tools page through products the same way the
// storefront does.
package storefrontapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/browse"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// DefaultTimeout bounds a single page request
const DefaultTimeout = 30 * time.Second

// maxErrorBody is how much of an error response is read for diagnostics
const maxErrorBody = 64 << 10

// ErrInvalidBaseURL is returned by New for a base URL that is not absolute http(s)
var ErrInvalidBaseURL = errors.New("storefrontapi: base url must be an absolute http(s) url")

// StatusError is a non-2xx answer from the gateway
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storefrontapi: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("storefrontapi: status %d", e.StatusCode)
}

// Client fetches product pages from a running gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the fallback logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the gateway at baseURL, e.g. http://localhost:8080
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchPage implements browse.PageSource against /api/v1/products and /api/v1/search
func (c *Client) FetchPage(ctx context.Context, key browse.QueryKey, page, pageSize int) ([]catalog.Product, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(pageSize))

	switch key.Kind {
	case browse.KindAll:
		var body []productJSON
		if err := c.get(ctx, "/api/v1/products", params, &body); err != nil {
			return nil, err
		}
		return toProducts(body), nil
	case browse.KindCategory:
		params.Set("category", key.Value)
		var body []productJSON
		if err := c.get(ctx, "/api/v1/products", params, &body); err != nil {
			return nil, err
		}
		return toProducts(body), nil
	case browse.KindSearch:
		params.Set("q", key.Value)
		var body searchJSON
		if err := c.get(ctx, "/api/v1/search", params, &body); err != nil {
			return nil, err
		}
		return toProducts(body.Products), nil
	default:
		return nil, fmt.Errorf("%w: %q", browse.ErrUnknownKind, key.Kind)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("storefrontapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logger.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	log := logger.For(ctx, c.logger)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("storefront request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("storefrontapi: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("storefront request",
		zap.String("path", path),
		zap.String("query", params.Encode()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("storefrontapi: decode %s: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
		se.Code = envelope.Error.Code
		se.Message = envelope.Error.Message
	}
	return se
}

type imageJSON struct {
	ID     int64  `json:"id"`
	Src    string `json:"src"`
	SrcSet string `json:"srcset"`
	Name   string `json:"name"`
	Alt    string `json:"alt"`
}

type termJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type productJSON struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Permalink        string          `json:"permalink"`
	Status           string          `json:"status"`
	Featured         bool            `json:"featured"`
	ShortDescription string          `json:"short_description"`
	Price            decimal.Decimal `json:"price"`
	RegularPrice     decimal.Decimal `json:"regular_price"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	OnSale           bool            `json:"on_sale"`
	StockStatus      string          `json:"stock_status"`
	Images           []imageJSON     `json:"images"`
	Categories       []termJSON      `json:"categories"`
}

type searchJSON struct {
	Products []productJSON `json:"products"`
}

func toProducts(in []productJSON) []catalog.Product {
	out := make([]catalog.Product, 0, len(in))
	for _, p := range in {
		prod := catalog.Product{
			ID:               p.ID,
			Name:             p.Name,
			Slug:             p.Slug,
			Permalink:        p.Permalink,
			Status:           p.Status,
			Featured:         p.Featured,
			ShortDescription: p.ShortDescription,
			Price:            p.Price,
			RegularPrice:     p.RegularPrice,
			SalePrice:        p.SalePrice,
			OnSale:           p.OnSale,
			StockStatus:      catalog.StockStatus(p.StockStatus),
			Images:           make([]catalog.Image, 0, len(p.Images)),
			Categories:       make([]catalog.TermRef, 0, len(p.Categories)),
		}
		for _, img := range p.Images {
			prod.Images = append(prod.Images, catalog.Image{
				ID: img.ID, Src: img.Src, SrcSet: img.SrcSet, Name: img.Name, Alt: img.Alt,
			})
		}
		for _, t := range p.Categories {
			prod.Categories = append(prod.Categories, catalog.TermRef{ID: t.ID, Name: t.Name, Slug: t.Slug})
		}
		out = append(out, prod)
	}
	return out
}

var _ browse.PageSource = (*Client)(nil)
