package woocommerce

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredential() *Credential {
	cred := NewCredential("https://shop.example.com", "ck_1", "cs_1")
	return cred
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ019", "abcXYZ019"},
		{"-._~", "-._~"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"*", "%2A"},
		{"/", "%2F"},
		{"=&", "%3D%26"},
		{"ü", "%C3%BC"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentEncode(tt.in))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantBase  string
		wantQuery url.Values
		wantErr   bool
	}{
		{
			name:      "lowercases scheme and host, drops default port and query",
			raw:       "HTTPS://Shop.Example.com:443/wp-json/wc/v3/products?per_page=20#top",
			wantBase:  "https://shop.example.com/wp-json/wc/v3/products",
			wantQuery: url.Values{"per_page": {"20"}},
		},
		{
			name:      "keeps non-default port",
			raw:       "http://localhost:8888/wp-json/wc/v3/products",
			wantBase:  "http://localhost:8888/wp-json/wc/v3/products",
			wantQuery: url.Values{},
		},
		{
			name:      "empty path becomes slash",
			raw:       "https://shop.example.com",
			wantBase:  "https://shop.example.com/",
			wantQuery: url.Values{},
		},
		{
			name:    "relative url",
			raw:     "/wp-json/wc/v3/products",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, query, err := NormalizeURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}

func TestNormalizeParams_SortsByKeyThenValue(t *testing.T) {
	params := url.Values{
		"b":     {"2"},
		"a":     {"z", "y"},
		"a b":   {"1"},
		"oauth": {"x"},
	}
	assert.Equal(t, "a=y&a=z&a%20b=1&b=2&oauth=x", NormalizeParams(params))
}

func TestSignatureBaseString(t *testing.T) {
	params := url.Values{
		"oauth_consumer_key":     {"ck_1"},
		"oauth_nonce":            {"abc"},
		"oauth_signature_method": {"HMAC-SHA1"},
		"oauth_timestamp":        {"1700000000"},
		"oauth_version":          {"1.0"},
		"per_page":               {"20"},
		"search":                 {"blue chair"},
	}

	got := SignatureBaseString("get", "https://shop.example.com/wp-json/wc/v3/products", params)

	want := "GET&https%3A%2F%2Fshop.example.com%2Fwp-json%2Fwc%2Fv3%2Fproducts&" +
		"oauth_consumer_key%3Dck_1%26oauth_nonce%3Dabc%26oauth_signature_method%3DHMAC-SHA1" +
		"%26oauth_timestamp%3D1700000000%26oauth_version%3D1.0%26per_page%3D20%26search%3Dblue%2520chair"
	assert.Equal(t, want, got)
}

func TestSignAt_MatchesIndependentHMAC(t *testing.T) {
	desc := RequestDescriptor{
		Method: http.MethodGet,
		URL:    "https://Shop.Example.com:443/wp-json/wc/v3/products?per_page=20",
		Query:  url.Values{"search": {"blue chair"}},
	}

	sig, err := SignAt(desc, testCredential(), "abc", 1700000000)
	require.NoError(t, err)

	base := "GET&https%3A%2F%2Fshop.example.com%2Fwp-json%2Fwc%2Fv3%2Fproducts&" +
		"oauth_consumer_key%3Dck_1%26oauth_nonce%3Dabc%26oauth_signature_method%3DHMAC-SHA1" +
		"%26oauth_timestamp%3D1700000000%26oauth_version%3D1.0%26per_page%3D20%26search%3Dblue%2520chair"
	mac := hmac.New(sha1.New, []byte("cs_1&"))
	mac.Write([]byte(base))

	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), sig.Digest)
	assert.Equal(t, "abc", sig.Nonce)
	assert.Equal(t, int64(1700000000), sig.Timestamp)
}

func TestSignAt_Deterministic(t *testing.T) {
	desc := RequestDescriptor{Method: "GET", URL: "https://shop.example.com/wp-json/wc/v3/products", Query: url.Values{"page": {"2"}}}

	first, err := SignAt(desc, testCredential(), "n1", 1700000000)
	require.NoError(t, err)
	second, err := SignAt(desc, testCredential(), "n1", 1700000000)
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
}

func TestSignAt_SensitiveToEveryInput(t *testing.T) {
	baseDesc := RequestDescriptor{Method: "GET", URL: "https://shop.example.com/wp-json/wc/v3/products", Query: url.Values{"page": {"2"}}}
	baseline, err := SignAt(baseDesc, testCredential(), "n1", 1700000000)
	require.NoError(t, err)

	otherSecret := testCredential()
	otherSecret.ConsumerSecret = "cs_2"

	otherKey := testCredential()
	otherKey.ConsumerKey = "ck_2"

	variants := map[string]func() (*Signature, error){
		"method": func() (*Signature, error) {
			d := baseDesc
			d.Method = "POST"
			return SignAt(d, testCredential(), "n1", 1700000000)
		},
		"url": func() (*Signature, error) {
			d := baseDesc
			d.URL = "https://shop.example.com/wp-json/wc/v3/products/categories"
			return SignAt(d, testCredential(), "n1", 1700000000)
		},
		"param value": func() (*Signature, error) {
			d := baseDesc
			d.Query = url.Values{"page": {"3"}}
			return SignAt(d, testCredential(), "n1", 1700000000)
		},
		"extra param": func() (*Signature, error) {
			d := baseDesc
			d.Query = url.Values{"page": {"2"}, "featured": {"true"}}
			return SignAt(d, testCredential(), "n1", 1700000000)
		},
		"secret": func() (*Signature, error) { return SignAt(baseDesc, otherSecret, "n1", 1700000000) },
		"key":    func() (*Signature, error) { return SignAt(baseDesc, otherKey, "n1", 1700000000) },
		"nonce":  func() (*Signature, error) { return SignAt(baseDesc, testCredential(), "n2", 1700000000) },
		"time":   func() (*Signature, error) { return SignAt(baseDesc, testCredential(), "n1", 1700000001) },
	}

	for name, sign := range variants {
		t.Run(name, func(t *testing.T) {
			sig, err := sign()
			require.NoError(t, err)
			assert.NotEqual(t, baseline.Digest, sig.Digest)
		})
	}
}

func TestSignAt_IgnoresIncomingSignatureParam(t *testing.T) {
	desc := RequestDescriptor{Method: "GET", URL: "https://shop.example.com/wp-json/wc/v3/products"}
	withSig := RequestDescriptor{Method: "GET", URL: desc.URL + "?oauth_signature=stale"}

	a, err := SignAt(desc, testCredential(), "n", 1)
	require.NoError(t, err)
	b, err := SignAt(withSig, testCredential(), "n", 1)
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
}

func TestSignAt_InvalidUTF8(t *testing.T) {
	tests := []struct {
		name string
		desc RequestDescriptor
		cred *Credential
	}{
		{
			name: "query value",
			desc: RequestDescriptor{Method: "GET", URL: "https://shop.example.com/", Query: url.Values{"search": {"\xff"}}},
			cred: testCredential(),
		},
		{
			name: "query key",
			desc: RequestDescriptor{Method: "GET", URL: "https://shop.example.com/", Query: url.Values{"\xfe": {"x"}}},
			cred: testCredential(),
		},
		{
			name: "secret",
			desc: RequestDescriptor{Method: "GET", URL: "https://shop.example.com/"},
			cred: &Credential{ConsumerKey: "ck", ConsumerSecret: "cs\xff"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SignAt(tt.desc, tt.cred, "n", 1)
			assert.ErrorIs(t, err, ErrInvalidSigningInput)
		})
	}
}

func TestSignature_AuthorizationHeader(t *testing.T) {
	sig := &Signature{ConsumerKey: "ck_1", Nonce: "abc", Timestamp: 1700000000, Digest: "a+b/c="}

	header := sig.AuthorizationHeader()

	assert.True(t, strings.HasPrefix(header, "OAuth "))
	assert.Contains(t, header, `oauth_consumer_key="ck_1"`)
	assert.Contains(t, header, `oauth_signature="a%2Bb%2Fc%3D"`)
	assert.Contains(t, header, `oauth_signature_method="HMAC-SHA1"`)
	assert.Contains(t, header, `oauth_timestamp="1700000000"`)
	assert.Contains(t, header, `oauth_version="1.0"`)
}

func TestSigner_UsesInjectedNonceAndClock(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	signer := NewSigner(testCredential(),
		WithNonceFunc(func() string { return "fixed" }),
		WithClock(func() time.Time { return fixed }),
	)
	desc := RequestDescriptor{Method: "GET", URL: "https://shop.example.com/wp-json/wc/v3/products"}

	sig, err := signer.Sign(desc)
	require.NoError(t, err)

	want, err := SignAt(desc, testCredential(), "fixed", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, want.Digest, sig.Digest)
}

func TestSigner_RandomNonce(t *testing.T) {
	signer := NewSigner(testCredential())
	desc := RequestDescriptor{Method: "GET", URL: "https://shop.example.com/"}

	a, err := signer.Sign(desc)
	require.NoError(t, err)
	b, err := signer.Sign(desc)
	require.NoError(t, err)

	assert.Len(t, a.Nonce, 32)
	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestSigner_Authorize(t *testing.T) {
	newRequest := func() *http.Request {
		req, _ := http.NewRequest(http.MethodGet, "https://shop.example.com/wp-json/wc/v3/products?per_page=5", nil)
		return req
	}
	fixedOpts := []SignerOption{
		WithNonceFunc(func() string { return "n" }),
		WithClock(func() time.Time { return time.Unix(42, 0) }),
	}

	t.Run("header placement", func(t *testing.T) {
		req := newRequest()
		require.NoError(t, NewSigner(testCredential(), fixedOpts...).Authorize(req))

		assert.True(t, strings.HasPrefix(req.Header.Get("Authorization"), "OAuth "))
		assert.Equal(t, "per_page=5", req.URL.RawQuery)
	})

	t.Run("query placement", func(t *testing.T) {
		cred := testCredential()
		cred.Placement = PlacementQuery
		req := newRequest()
		require.NoError(t, NewSigner(cred, fixedOpts...).Authorize(req))

		q := req.URL.Query()
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.Equal(t, "5", q.Get("per_page"))
		assert.Equal(t, "ck_1", q.Get("oauth_consumer_key"))
		assert.Equal(t, "n", q.Get("oauth_nonce"))
		assert.Equal(t, "42", q.Get("oauth_timestamp"))

		want, err := SignAt(RequestDescriptor{Method: "GET", URL: "https://shop.example.com/wp-json/wc/v3/products?per_page=5"}, cred, "n", 42)
		require.NoError(t, err)
		assert.Equal(t, want.Digest, q.Get("oauth_signature"))
	})

	t.Run("basic scheme", func(t *testing.T) {
		cred := testCredential()
		cred.Scheme = AuthSchemeBasic
		req := newRequest()
		require.NoError(t, NewSigner(cred).Authorize(req))

		user, pass, ok := req.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ck_1", user)
		assert.Equal(t, "cs_1", pass)
	})
}
