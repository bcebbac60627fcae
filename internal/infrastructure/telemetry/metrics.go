package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const (
	// DefaultExportInterval is used when MetricsConfig.ExportInterval is zero.
	DefaultExportInterval = time.Minute

	meterShutdownTimeout = 10 * time.Second
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration
	ServiceName       string
	Insecure          bool

	// Reader replaces the OTLP push exporter when set. The provider is then
	// not installed as the global meter provider.
	Reader sdkmetric.Reader
}

// MeterProvider owns the SDK meter provider the gateway records into.
// With metrics disabled it hands out meters from the global no-op provider.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	enabled  bool
}

// NewMeterProvider builds the meter provider described by cfg.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	reader := cfg.Reader
	if reader == nil {
		var err error
		if reader, err = otlpReader(ctx, cfg); err != nil {
			return nil, err
		}
	}

	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.enabled = true

	if cfg.Reader == nil {
		otel.SetMeterProvider(mp.provider)
		logger.Info("OpenTelemetry MeterProvider initialized",
			zap.String("collector_endpoint", cfg.CollectorEndpoint),
			zap.Duration("export_interval", exportInterval(cfg)),
			zap.String("service_name", cfg.ServiceName),
		)
	}

	return mp, nil
}

func exportInterval(cfg MetricsConfig) time.Duration {
	if cfg.ExportInterval <= 0 {
		return DefaultExportInterval
	}
	return cfg.ExportInterval
}

// otlpReader pushes to the collector over gRPC on a fixed interval.
func otlpReader(ctx context.Context, cfg MetricsConfig) (sdkmetric.Reader, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval(cfg))), nil
}

// Shutdown flushes pending measurements and stops the reader.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, meterShutdownTimeout)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	mp.logger.Info("OpenTelemetry MeterProvider shutdown complete")
	return nil
}

// Meter returns a named meter.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled reports whether measurements reach a reader.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.enabled
}

// InstrumentSpec names an instrument. Boundaries only apply to histograms.
type InstrumentSpec struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// Counter is a monotonic int64 counter.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter registers a counter on meter.
func NewCounter(meter metric.Meter, spec InstrumentSpec) (*Counter, error) {
	c, err := meter.Int64Counter(spec.Name,
		metric.WithDescription(spec.Description),
		metric.WithUnit(spec.Unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", spec.Name, err)
	}
	return &Counter{counter: c}, nil
}

func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram is a float64 histogram.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram registers a histogram on meter, using spec.Boundaries as
// explicit buckets when given.
func NewHistogram(meter metric.Meter, spec InstrumentSpec) (*Histogram, error) {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(spec.Description),
		metric.WithUnit(spec.Unit),
	}
	if len(spec.Boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(spec.Boundaries...))
	}

	h, err := meter.Float64Histogram(spec.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", spec.Name, err)
	}
	return &Histogram{histogram: h}, nil
}

func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// Attribute keys shared by the HTTP server, catalog upstream and image proxy metrics.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrUpstreamEndpoint = attribute.Key("upstream.endpoint")
	AttrUpstreamOutcome  = attribute.Key("upstream.outcome")
	AttrProxyOutcome     = attribute.Key("image_proxy.outcome")
)

var (
	// HTTPDurationBuckets covers inbound requests and catalog round trips, in seconds.
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// ResponseSizeBuckets is sized for JSON pages at the low end and
	// proxied images at the top, in bytes.
	ResponseSizeBuckets = []float64{100, 1000, 10000, 50000, 100000, 500000, 1000000, 5000000}
)
