package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cmeth990/kgctl/pkg/egress"
	"github.com/cmeth990/kgctl/pkg/kgcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRetrievesAndCleansContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Test Page</title></head><body><article><p>Sample educational content here.</p></article></body></html>`))
	}))
	defer srv.Close()

	allow := egress.NewAllowlist()
	allow.Add(hostOf(srv.URL))

	f := New(allow, kgcache.NewMemoryCache(), 2)
	res, err := f.Fetch(context.Background(), srv.URL, 0)

	require.NoError(t, err)
	assert.Equal(t, "Test Page", res.Title)
	assert.Contains(t, res.Content, "Sample educational content")
	assert.False(t, res.FromCache)
}

func TestFetchReturnsCachedResultOnSecondCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`<html><body><article><p>Cacheable content about physics.</p></article></body></html>`))
	}))
	defer srv.Close()

	allow := egress.NewAllowlist()
	allow.Add(hostOf(srv.URL))
	f := New(allow, kgcache.NewMemoryCache(), 2)

	_, err := f.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	res2, err := f.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.True(t, res2.FromCache)
}

func TestFetchRejectsDisallowedDomain(t *testing.T) {
	allow := egress.NewAllowlist()
	f := New(allow, kgcache.NewMemoryCache(), 2)

	_, err := f.Fetch(context.Background(), "https://not-allowed.example.com/page", 0)
	assert.True(t, errors.Is(err, ErrDomainNotAllowed))
}

func TestFetchDetectsPaywall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="paywall">Subscribe now to unlock this premium article. Please purchase a subscription.</div></body></html>`))
	}))
	defer srv.Close()

	allow := egress.NewAllowlist()
	allow.Add(hostOf(srv.URL))
	f := New(allow, kgcache.NewMemoryCache(), 2)

	res, err := f.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	assert.True(t, res.IsPaywalled)
}

func TestFetchPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	allow := egress.NewAllowlist()
	allow.Add(hostOf(srv.URL))
	f := New(allow, kgcache.NewMemoryCache(), 2)

	_, err := f.Fetch(context.Background(), srv.URL, 0)
	assert.Error(t, err)
}

func TestEncodeDecodeResultRoundTrips(t *testing.T) {
	r := Result{URL: "https://example.com/a", Title: "A", Content: "Body text", IsPaywalled: true, PaywallConf: 0.6, Parser: "structured"}
	encoded, err := encodeResult(r)
	require.NoError(t, err)

	decoded, err := decodeResult(encoded)
	require.NoError(t, err)
	assert.Equal(t, r.URL, decoded.URL)
	assert.Equal(t, r.Title, decoded.Title)
	assert.Equal(t, r.Content, decoded.Content)
	assert.Equal(t, r.IsPaywalled, decoded.IsPaywalled)
	assert.Equal(t, r.PaywallConf, decoded.PaywallConf)
	assert.Equal(t, r.Parser, decoded.Parser)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
