package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/imageproxy"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ImageProxyHandler streams allow-listed catalog images through the gateway
type ImageProxyHandler struct {
	BaseHandler
	proxy  *imageproxy.Proxy
	logger *zap.Logger
}

// NewImageProxyHandler creates a new ImageProxyHandler
func NewImageProxyHandler(proxy *imageproxy.Proxy, log *zap.Logger) *ImageProxyHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageProxyHandler{proxy: proxy, logger: log}
}

// Serve fetches the image named by the url query parameter and streams it back
// GET /proxy/image?url=...
func (h *ImageProxyHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()

	img, err := h.proxy.Fetch(ctx, c.Query("url"))
	if err != nil {
		h.proxyError(c, err)
		return
	}
	defer img.Body.Close()

	header := c.Writer.Header()
	header.Set("Content-Type", img.ContentType)
	header.Set("Cache-Control", h.proxy.CacheControl())
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
	header.Set("Cross-Origin-Resource-Policy", "cross-origin")
	if img.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(img.ContentLength, 10))
	}
	if img.ETag != "" {
		header.Set("ETag", img.ETag)
	}
	if img.LastModified != "" {
		header.Set("Last-Modified", img.LastModified)
	}
	c.Status(http.StatusOK)

	n, err := io.Copy(c.Writer, img.Body)
	if err != nil {
		// Headers are already sent; the client sees a truncated body.
		logger.For(ctx, h.logger).Warn("image stream interrupted",
			zap.Int64("bytes", n),
			zap.Error(err),
		)
		return
	}
	h.proxy.Streamed(ctx, n)
}

func (h *ImageProxyHandler) proxyError(c *gin.Context, err error) {
	status := imageproxy.StatusFor(err)

	var upstream *imageproxy.UpstreamHTTPError
	switch {
	case errors.Is(err, imageproxy.ErrMissingURL):
		h.Error(c, status, dto.ErrCodeInvalidURL, "URL parameter is required")
	case errors.Is(err, imageproxy.ErrInvalidURL):
		h.Error(c, status, dto.ErrCodeInvalidURL, "Invalid URL")
	case errors.Is(err, imageproxy.ErrDomainNotAllowed):
		h.Error(c, status, dto.ErrCodeForbidden, "Domain not allowed")
	case errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound:
		h.Error(c, status, dto.ErrCodeNotFound, "Image not found")
	case errors.As(err, &upstream):
		h.Error(c, status, dto.ErrCodeUpstreamUnavailable, "Failed to fetch image")
	default:
		h.Error(c, status, dto.ErrCodeInternal, "Failed to proxy image")
	}
}
