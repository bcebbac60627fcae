package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Catalog    CatalogConfig
	ImageProxy ImageProxyConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// CatalogConfig holds the remote catalog endpoint and its credential
type CatalogConfig struct {
	BaseURL            string
	ConsumerKey        string
	ConsumerSecret     string
	APIVersion         string        // REST namespace, e.g. wc/v3
	AuthScheme         string        // oauth1 or basic
	SignaturePlacement string        // header or query
	Timeout            time.Duration // per upstream request
	AllowInsecureHTTP  bool          // permit http:// base URLs (local development only)
	DefaultPageSize    int           // per_page when a listing does not set one
	Currency           string        // ISO 4217 code used to format prices
	Locale             string        // BCP 47 tag used to format prices
	// PublicStatuses are the product statuses the public listing may request
	PublicStatuses      []string
	HideEmptyCategories bool
}

// ImageProxyConfig holds image proxy settings
type ImageProxyConfig struct {
	AllowedHosts []string
	Path         string // public path the rewriter points image references at
	MaxAge       time.Duration
	UserAgent    string
	RateLimit    int           // requests per client IP per RateWindow, 0 disables
	RateWindow   time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	ExportInterval    time.Duration
}

// ConfigurationError reports a required setting that is missing or unusable.
// The process must not start when Load returns one.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: %s is required", e.Field)
	}
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// Load loads configuration from .env, a TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_CATALOG_CONSUMER_SECRET)
// 2. .env in the working directory (never overrides variables already set)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: splitList(v.GetStringSlice("http.cors_allow_origins")),
			CORSAllowMethods: splitList(v.GetStringSlice("http.cors_allow_methods")),
			CORSAllowHeaders: splitList(v.GetStringSlice("http.cors_allow_headers")),
			TrustedProxies:   splitList(v.GetStringSlice("http.trusted_proxies")),
		},
		Catalog: CatalogConfig{
			BaseURL:            strings.TrimRight(v.GetString("catalog.base_url"), "/"),
			ConsumerKey:        v.GetString("catalog.consumer_key"),
			ConsumerSecret:     v.GetString("catalog.consumer_secret"),
			APIVersion:         v.GetString("catalog.api_version"),
			AuthScheme:         strings.ToLower(v.GetString("catalog.auth_scheme")),
			SignaturePlacement: strings.ToLower(v.GetString("catalog.signature_placement")),
			Timeout:            v.GetDuration("catalog.timeout"),
			AllowInsecureHTTP:  v.GetBool("catalog.allow_insecure_http"),
			DefaultPageSize:    v.GetInt("catalog.default_page_size"),
			Currency:           strings.ToUpper(v.GetString("catalog.currency")),
			Locale:             v.GetString("catalog.locale"),
			PublicStatuses:      splitList(v.GetStringSlice("catalog.public_statuses")),
			HideEmptyCategories: v.GetBool("catalog.hide_empty_categories"),
		},
		ImageProxy: ImageProxyConfig{
			AllowedHosts: splitList(v.GetStringSlice("image_proxy.allowed_hosts")),
			Path:         v.GetString("image_proxy.path"),
			MaxAge:       v.GetDuration("image_proxy.max_age"),
			UserAgent:    v.GetString("image_proxy.user_agent"),
			RateLimit:    v.GetInt("image_proxy.rate_limit"),
			RateWindow:   v.GetDuration("image_proxy.rate_window"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList accepts both TOML arrays and comma-separated env values
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-gateway"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// image streaming can outlast a JSON response
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Catalog.APIVersion == "" {
		cfg.Catalog.APIVersion = "wc/v3"
	}
	if cfg.Catalog.AuthScheme == "" {
		cfg.Catalog.AuthScheme = "oauth1"
	}
	if cfg.Catalog.SignaturePlacement == "" {
		cfg.Catalog.SignaturePlacement = "header"
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 30 * time.Second
	}
	if cfg.Catalog.DefaultPageSize == 0 {
		cfg.Catalog.DefaultPageSize = 10
	}
	if cfg.Catalog.Currency == "" {
		cfg.Catalog.Currency = "MYR"
	}
	if cfg.Catalog.Locale == "" {
		cfg.Catalog.Locale = "en-MY"
	}
	if len(cfg.Catalog.PublicStatuses) == 0 {
		cfg.Catalog.PublicStatuses = []string{"publish"}
	}
	if cfg.ImageProxy.Path == "" {
		cfg.ImageProxy.Path = "/api/v1/proxy/image"
	}
	if cfg.ImageProxy.MaxAge == 0 {
		cfg.ImageProxy.MaxAge = 24 * time.Hour
	}
	if cfg.ImageProxy.UserAgent == "" {
		cfg.ImageProxy.UserAgent = "Mozilla/5.0 (compatible; storefront-image-proxy/1.0)"
	}
	if cfg.ImageProxy.RateWindow == 0 {
		cfg.ImageProxy.RateWindow = time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Catalog.BaseURL == "" {
		return &ConfigurationError{Field: "catalog.base_url"}
	}
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || u.Host == "" {
		return &ConfigurationError{Field: "catalog.base_url", Reason: "must be an absolute URL"}
	}
	if u.Scheme != "https" && !(u.Scheme == "http" && c.Catalog.AllowInsecureHTTP) {
		return &ConfigurationError{Field: "catalog.base_url", Reason: "must use https"}
	}
	if c.Catalog.ConsumerKey == "" {
		return &ConfigurationError{Field: "catalog.consumer_key"}
	}
	if c.Catalog.ConsumerSecret == "" {
		return &ConfigurationError{Field: "catalog.consumer_secret"}
	}
	switch c.Catalog.AuthScheme {
	case "oauth1", "basic":
	default:
		return &ConfigurationError{Field: "catalog.auth_scheme", Reason: "must be oauth1 or basic"}
	}
	switch c.Catalog.SignaturePlacement {
	case "header", "query":
	default:
		return &ConfigurationError{Field: "catalog.signature_placement", Reason: "must be header or query"}
	}
	if c.Catalog.Timeout < 0 {
		return &ConfigurationError{Field: "catalog.timeout", Reason: "must not be negative"}
	}
	for _, status := range c.Catalog.PublicStatuses {
		switch status {
		case "publish", "draft", "pending", "private", "any":
		default:
			return &ConfigurationError{Field: "catalog.public_statuses", Reason: fmt.Sprintf("unknown product status %q", status)}
		}
	}
	if c.Catalog.DefaultPageSize < 1 || c.Catalog.DefaultPageSize > 100 {
		return &ConfigurationError{Field: "catalog.default_page_size", Reason: "must be between 1 and 100"}
	}
	if len(c.ImageProxy.AllowedHosts) == 0 {
		return &ConfigurationError{Field: "image_proxy.allowed_hosts"}
	}
	if c.ImageProxy.RateLimit < 0 {
		return &ConfigurationError{Field: "image_proxy.rate_limit", Reason: "must not be negative"}
	}

	if c.App.Env == "production" {
		if c.Catalog.AllowInsecureHTTP {
			return fmt.Errorf("catalog.allow_insecure_http must be false in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
