package woocommerce

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AuthScheme selects how every request of the process is authenticated
type AuthScheme string

const (
	// AuthSchemeOAuth1 signs each request with OAuth 1.0a HMAC-SHA1
	AuthSchemeOAuth1 AuthScheme = "oauth1"
	// AuthSchemeBasic sends the key and secret as HTTP basic credentials (HTTPS only)
	AuthSchemeBasic AuthScheme = "basic"
)

// Placement selects where OAuth parameters travel
type Placement string

const (
	PlacementHeader Placement = "header"
	PlacementQuery  Placement = "query"
)

const (
	// DefaultAPIVersion is the catalog REST namespace
	DefaultAPIVersion = "wc/v3"
	// ContentAPIVersion is the CMS namespace that serves category media
	ContentAPIVersion = "wp/v2"
	// DefaultTimeout bounds a single upstream request
	DefaultTimeout = 30 * time.Second
)

// Errors for catalog credential configuration
var (
	ErrCredentialMissingBaseURL = errors.New("woocommerce: base url is required")
	ErrCredentialMissingKey     = errors.New("woocommerce: consumer key is required")
	ErrCredentialMissingSecret  = errors.New("woocommerce: consumer secret is required")
	ErrCredentialInvalidBaseURL = errors.New("woocommerce: base url must be an absolute https url")
	ErrCredentialInvalidScheme  = errors.New("woocommerce: unknown auth scheme")
)

// Credential holds the catalog endpoint and consumer credentials.
// It is built once at startup and never mutated afterwards.
type Credential struct {
	// BaseURL is the store root, e.g. https://shop.example.com
	BaseURL string
	// ConsumerKey is the REST API consumer key (ck_...)
	ConsumerKey string
	// ConsumerSecret is the REST API consumer secret (cs_...)
	ConsumerSecret string
	// APIVersion is the REST namespace, wc/v3 unless overridden
	APIVersion string
	// Scheme is oauth1 or basic
	Scheme AuthScheme
	// Placement is header or query, oauth1 only
	Placement Placement
	// AllowInsecureHTTP permits an http:// BaseURL for local development
	AllowInsecureHTTP bool
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// NewCredential creates a credential with defaults for the optional fields
func NewCredential(baseURL, consumerKey, consumerSecret string) *Credential {
	return &Credential{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		APIVersion:     DefaultAPIVersion,
		Scheme:         AuthSchemeOAuth1,
		Placement:      PlacementHeader,
		Timeout:        DefaultTimeout,
	}
}

// Validate checks required fields and fills in defaults
func (c *Credential) Validate() error {
	if c.BaseURL == "" {
		return ErrCredentialMissingBaseURL
	}
	if c.ConsumerKey == "" {
		return ErrCredentialMissingKey
	}
	if c.ConsumerSecret == "" {
		return ErrCredentialMissingSecret
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return ErrCredentialInvalidBaseURL
	}
	if u.Scheme != "https" && !(u.Scheme == "http" && c.AllowInsecureHTTP) {
		return ErrCredentialInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	c.APIVersion = strings.Trim(c.APIVersion, "/")

	switch c.Scheme {
	case "":
		c.Scheme = AuthSchemeOAuth1
	case AuthSchemeOAuth1, AuthSchemeBasic:
	default:
		return fmt.Errorf("%w: %q", ErrCredentialInvalidScheme, c.Scheme)
	}
	if c.Scheme == AuthSchemeBasic && u.Scheme != "https" {
		return fmt.Errorf("%w: basic auth requires https", ErrCredentialInvalidBaseURL)
	}

	if c.Placement != PlacementQuery {
		c.Placement = PlacementHeader
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// String keeps the secret out of formatted output
func (c Credential) String() string {
	return fmt.Sprintf("Credential{BaseURL:%s ConsumerKey:%s Scheme:%s}", c.BaseURL, maskKey(c.ConsumerKey), c.Scheme)
}

// maskKey keeps the ck_/cs_ prefix and last four characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "****" + key[len(key)-4:]
}
