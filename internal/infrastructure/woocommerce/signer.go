package woocommerce

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 -- HMAC-SHA1 is what OAuth 1.0a mandates
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	oauthVersion         = "1.0"
	oauthSignatureMethod = "HMAC-SHA1"
)

// ErrInvalidSigningInput is returned when any signing input is not valid UTF-8
var ErrInvalidSigningInput = errors.New("woocommerce: signing input is not valid UTF-8")

// RequestDescriptor is the part of a request that the signature covers.
// Query parameters found in URL are merged with Query.
type RequestDescriptor struct {
	Method string
	URL    string
	Query  url.Values
}

// Signature is a per-request OAuth signature. It is never cached or reused.
type Signature struct {
	ConsumerKey string
	Nonce       string
	Timestamp   int64
	Digest      string
}

// Params returns the oauth_* parameters including the signature
func (s *Signature) Params() url.Values {
	return url.Values{
		"oauth_consumer_key":     {s.ConsumerKey},
		"oauth_nonce":            {s.Nonce},
		"oauth_signature":        {s.Digest},
		"oauth_signature_method": {oauthSignatureMethod},
		"oauth_timestamp":        {strconv.FormatInt(s.Timestamp, 10)},
		"oauth_version":          {oauthVersion},
	}
}

// AuthorizationHeader renders the signature as an OAuth Authorization header value
func (s *Signature) AuthorizationHeader() string {
	params := s.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(PercentEncode(k))
		builder.WriteString(`="`)
		builder.WriteString(PercentEncode(params.Get(k)))
		builder.WriteString(`"`)
	}
	return builder.String()
}

// PercentEncode encodes s per RFC 3986: only A-Z a-z 0-9 - . _ ~ pass through
// and every other byte becomes %XX with uppercase hex.
func PercentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var builder strings.Builder
	builder.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isUnreserved(b) {
			builder.WriteByte(b)
			continue
		}
		builder.WriteByte('%')
		builder.WriteByte(hex[b>>4])
		builder.WriteByte(hex[b&0x0F])
	}
	return builder.String()
}

func isUnreserved(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	case b == '-', b == '.', b == '_', b == '~':
		return true
	}
	return false
}

// NormalizeURL splits raw into the signature base URL (lowercase scheme and
// host, default port dropped, no query or fragment) and its query parameters.
func NormalizeURL(raw string) (string, url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("woocommerce: invalid request url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", nil, fmt.Errorf("woocommerce: request url must be absolute: %q", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host = host + ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("woocommerce: invalid request query: %w", err)
	}
	return scheme + "://" + host + path, query, nil
}

// NormalizeParams encodes every key and value, sorts by encoded key then
// encoded value, and joins the pairs with '&'.
func NormalizeParams(params url.Values) string {
	pairs := make([][2]string, 0, len(params))
	for k, vs := range params {
		ek := PercentEncode(k)
		for _, v := range vs {
			pairs = append(pairs, [2]string{ek, PercentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	var builder strings.Builder
	for i, p := range pairs {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(p[0])
		builder.WriteByte('=')
		builder.WriteString(p[1])
	}
	return builder.String()
}

// SignatureBaseString builds METHOD&enc(baseURL)&enc(normalized params)
func SignatureBaseString(method, baseURL string, params url.Values) string {
	return strings.ToUpper(method) + "&" + PercentEncode(baseURL) + "&" + PercentEncode(NormalizeParams(params))
}

// SignAt computes the signature for desc with a caller-supplied nonce and
// timestamp. Identical inputs always produce an identical digest.
func SignAt(desc RequestDescriptor, cred *Credential, nonce string, timestamp int64) (*Signature, error) {
	if err := checkUTF8(desc, cred, nonce); err != nil {
		return nil, err
	}

	baseURL, params, err := NormalizeURL(desc.URL)
	if err != nil {
		return nil, err
	}
	for k, vs := range desc.Query {
		params[k] = append(params[k], vs...)
	}
	// a caller-provided signature is never part of what gets signed
	params.Del("oauth_signature")
	params.Set("oauth_consumer_key", cred.ConsumerKey)
	params.Set("oauth_nonce", nonce)
	params.Set("oauth_signature_method", oauthSignatureMethod)
	params.Set("oauth_timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("oauth_version", oauthVersion)

	base := SignatureBaseString(desc.Method, baseURL, params)
	key := PercentEncode(cred.ConsumerSecret) + "&"

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))

	return &Signature{
		ConsumerKey: cred.ConsumerKey,
		Nonce:       nonce,
		Timestamp:   timestamp,
		Digest:      base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}, nil
}

func checkUTF8(desc RequestDescriptor, cred *Credential, nonce string) error {
	inputs := []string{desc.Method, desc.URL, cred.ConsumerKey, cred.ConsumerSecret, nonce}
	for k, vs := range desc.Query {
		inputs = append(inputs, k)
		inputs = append(inputs, vs...)
	}
	for _, s := range inputs {
		if !utf8.ValidString(s) {
			return ErrInvalidSigningInput
		}
	}
	return nil
}

// Signer authenticates outgoing requests with the process-wide credential
type Signer struct {
	cred  *Credential
	nonce func() string
	now   func() time.Time
}

// SignerOption configures a Signer
type SignerOption func(*Signer)

// WithNonceFunc replaces the random nonce source
func WithNonceFunc(fn func() string) SignerOption {
	return func(s *Signer) { s.nonce = fn }
}

// WithClock replaces the wall clock used for oauth_timestamp
func WithClock(fn func() time.Time) SignerOption {
	return func(s *Signer) { s.now = fn }
}

// NewSigner creates a signer for cred
func NewSigner(cred *Credential, opts ...SignerOption) *Signer {
	s := &Signer{
		cred:  cred,
		nonce: randomNonce,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sign signs desc with a fresh nonce and the current time
func (s *Signer) Sign(desc RequestDescriptor) (*Signature, error) {
	return SignAt(desc, s.cred, s.nonce(), s.now().Unix())
}

// Authorize attaches credentials to req according to the configured scheme
// and placement. req.URL must already carry every query parameter.
func (s *Signer) Authorize(req *http.Request) error {
	if s.cred.Scheme == AuthSchemeBasic {
		req.SetBasicAuth(s.cred.ConsumerKey, s.cred.ConsumerSecret)
		return nil
	}

	sig, err := s.Sign(RequestDescriptor{Method: req.Method, URL: req.URL.String()})
	if err != nil {
		return err
	}

	if s.cred.Placement == PlacementQuery {
		q := req.URL.Query()
		for k, vs := range sig.Params() {
			q[k] = vs
		}
		req.URL.RawQuery = q.Encode()
		return nil
	}

	req.Header.Set("Authorization", sig.AuthorizationHeader())
	return nil
}
