// Package fetch retrieves and cleans source content: egress-allowlist
// gated, response-size bounded, HTML-tolerant with a tag-strip fallback,
// paywall-aware, and cached so repeat fetches of the same URL don't hit
// the network.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/cmeth990/kgctl/pkg/egress"
	"github.com/cmeth990/kgctl/pkg/kgcache"
)

// ErrDomainNotAllowed is returned when a URL's host isn't on the egress
// allowlist.
var ErrDomainNotAllowed = errors.New("domain not allowed")

// maxBodyBytes bounds how much of a response body is read, regardless of
// Content-Length: an attacker-controlled or misbehaving server shouldn't be
// able to force unbounded memory use.
const maxBodyBytes = 1 << 20

const defaultMaxLength = 10000

// Result is a fetched and cleaned document.
type Result struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Parser      string  `json:"parser"`
	IsPaywalled bool    `json:"is_paywalled"`
	PaywallConf float64 `json:"paywall_confidence"`
	FromCache   bool    `json:"-"`
}

// Fetcher fetches and caches source content over HTTP.
type Fetcher struct {
	client    *http.Client
	allowlist *egress.Allowlist
	cache     kgcache.Cache
	userAgent string
	sem       *semaphore.Weighted
}

// New builds a Fetcher. concurrency bounds simultaneous outbound requests
// (default 5 if <= 0); cache may be nil to disable caching.
func New(allowlist *egress.Allowlist, cache kgcache.Cache, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Fetcher{
		client:    &http.Client{Timeout: 20 * time.Second},
		allowlist: allowlist,
		cache:     cache,
		userAgent: "kgctl-fetcher/1.0",
		sem:       semaphore.NewWeighted(int64(concurrency)),
	}
}

// Fetch retrieves and cleans the content at url, using the cache when
// available. maxLength bounds the returned content (0 selects the default
// of 10000 characters).
func (f *Fetcher) Fetch(ctx context.Context, url string, maxLength int) (Result, error) {
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}
	if f.allowlist != nil && !f.allowlist.IsURLAllowed(url) {
		return Result{}, fmt.Errorf("%w: %s", ErrDomainNotAllowed, url)
	}

	args := []string{url}
	kwargs := map[string]interface{}{"max_length": maxLength}

	if f.cache != nil {
		if cached, ok, err := f.cache.Get(ctx, kgcache.TypeFetchedDoc, args, kwargs); err == nil && ok {
			res, decodeErr := decodeResult(cached)
			if decodeErr == nil {
				res.FromCache = true
				return res, nil
			}
		}
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer f.sem.Release(1)

	res, err := f.fetchLive(ctx, url, maxLength)
	if err != nil {
		return Result{}, err
	}

	if f.cache != nil {
		if encoded, encErr := encodeResult(res); encErr == nil {
			_ = f.cache.Set(ctx, kgcache.TypeFetchedDoc, args, kwargs, encoded, 0)
		}
	}

	return res, nil
}

func (f *Fetcher) fetchLive(ctx context.Context, url string, maxLength int) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, err
	}

	raw := string(body)
	parsed := ParseHTMLWithFallback(raw)
	paywall := egress.DetectPaywall(raw, url)

	cleaned := egress.SanitizeContent(parsed.Content, egress.ContentText, maxLength)

	return Result{
		URL:         url,
		Title:       parsed.Title,
		Content:     cleaned,
		Parser:      parsed.Parser,
		IsPaywalled: paywall.IsPaywall,
		PaywallConf: paywall.Confidence,
	}, nil
}

// encodeResult/decodeResult serialize a Result into the cache's plain
// string value without pulling in encoding/json for what amounts to five
// scalar fields, keeping a deterministic, delimiter-based format that's
// trivial to round-trip.
func encodeResult(r Result) (string, error) {
	fields := []string{
		r.URL,
		r.Title,
		strconv.FormatBool(r.IsPaywalled),
		strconv.FormatFloat(r.PaywallConf, 'f', -1, 64),
		r.Parser,
		r.Content,
	}
	for i, f := range fields[:5] {
		if strings.Contains(f, "\x1f") {
			return "", fmt.Errorf("encode result: field %d contains unit separator", i)
		}
	}
	return strings.Join(fields, "\x1f"), nil
}

func decodeResult(s string) (Result, error) {
	parts := strings.SplitN(s, "\x1f", 6)
	if len(parts) != 6 {
		return Result{}, fmt.Errorf("decode result: expected 6 fields, got %d", len(parts))
	}
	paywalled, err := strconv.ParseBool(parts[2])
	if err != nil {
		return Result{}, err
	}
	conf, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return Result{}, err
	}
	return Result{
		URL:         parts[0],
		Title:       parts[1],
		IsPaywalled: paywalled,
		PaywallConf: conf,
		Parser:      parts[4],
		Content:     parts[5],
	}, nil
}
