package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Upstream outcomes reported on catalog and image proxy metrics.
const (
	OutcomeSuccess    = "success"
	OutcomeHTTPError  = "http_error"
	OutcomeNetwork    = "network_error"
	OutcomeRejected   = "rejected"
	OutcomeBadRequest = "bad_request"
)

// UpstreamMetrics records calls the gateway makes on behalf of the storefront.
// A nil *UpstreamMetrics is valid and records nothing.
type UpstreamMetrics struct {
	requests      *Counter
	duration      *Histogram
	proxyRequests *Counter
	proxyBytes    *Counter
}

// NewUpstreamMetrics registers the catalog and image proxy instruments on meter.
func NewUpstreamMetrics(meter metric.Meter) (*UpstreamMetrics, error) {
	requests, err := NewCounter(meter, InstrumentSpec{
		Name:        "catalog_upstream_requests_total",
		Description: "Requests sent to the remote catalog",
		Unit:        "{request}",
	})
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, InstrumentSpec{
		Name:        "catalog_upstream_request_duration_seconds",
		Description: "Remote catalog request latency",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	proxyRequests, err := NewCounter(meter, InstrumentSpec{
		Name:        "image_proxy_requests_total",
		Description: "Image proxy requests by outcome",
		Unit:        "{request}",
	})
	if err != nil {
		return nil, err
	}

	proxyBytes, err := NewCounter(meter, InstrumentSpec{
		Name:        "image_proxy_bytes_total",
		Description: "Image bytes streamed to clients",
		Unit:        "By",
	})
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{
		requests:      requests,
		duration:      duration,
		proxyRequests: proxyRequests,
		proxyBytes:    proxyBytes,
	}, nil
}

// RecordUpstream records one catalog round trip. status is 0 when no response arrived.
func (m *UpstreamMetrics) RecordUpstream(ctx context.Context, method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	switch {
	case status == 0:
		outcome = OutcomeNetwork
	case status < 200 || status > 299:
		outcome = OutcomeHTTPError
	}
	attrs := []attribute.KeyValue{
		AttrHTTPMethod.String(method),
		AttrUpstreamEndpoint.String(endpoint),
		AttrUpstreamOutcome.String(outcome),
		AttrHTTPStatusCode.Int(status),
	}
	m.requests.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, d, attrs...)
}

// RecordProxy records one image proxy request and the bytes it streamed.
func (m *UpstreamMetrics) RecordProxy(ctx context.Context, outcome string, bytes int64) {
	if m == nil {
		return
	}
	m.proxyRequests.Inc(ctx, AttrProxyOutcome.String(outcome))
	if bytes > 0 {
		m.proxyBytes.Add(ctx, bytes)
	}
}
