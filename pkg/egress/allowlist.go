// Package egress implements network egress controls: a domain allowlist
// gate, content sanitization, paywall detection, and the untrusted-content
// wrapper every prompt that embeds fetched or user text must use.
package egress

import (
	"net/url"
	"strings"
	"sync"
)

// defaultAllowedDomains lists known-safe academic and reference hosts.
var defaultAllowedDomains = []string{
	"api.semanticscholar.org", "semanticscholar.org",
	"export.arxiv.org", "arxiv.org",
	"api.openalex.org", "openalex.org",
	"en.wikipedia.org", "www.wikipedia.org", "wikipedia.org",
	"api.rest.v1.page.wikipedia.org",
	"openstax.org", "www.openstax.org",
	"khanacademy.org", "www.khanacademy.org",
	"ocw.mit.edu", "www.ocw.mit.edu",
	"libretexts.org",
	"doi.org", "crossref.org", "api.crossref.org",
	"reddit.com", "www.reddit.com", "old.reddit.com", "api.reddit.com",
	"twitter.com", "x.com",
}

// Allowlist gates which hosts may be fetched. The zero value is not usable;
// call NewAllowlist.
type Allowlist struct {
	mu      sync.RWMutex
	domains map[string]bool
}

// NewAllowlist returns an Allowlist seeded with the default domain set plus
// any extras (e.g. parsed from SECURITY_NETWORK_ALLOWLIST).
func NewAllowlist(extra ...string) *Allowlist {
	a := &Allowlist{domains: make(map[string]bool, len(defaultAllowedDomains)+len(extra))}
	for _, d := range defaultAllowedDomains {
		a.domains[normalizeDomain(d)] = true
	}
	for _, d := range extra {
		a.Add(d)
	}
	return a
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// Add registers an additional allowed domain.
func (a *Allowlist) Add(domain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.domains[normalizeDomain(domain)] = true
}

// Remove deregisters a domain.
func (a *Allowlist) Remove(domain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.domains, normalizeDomain(domain))
}

// Contains reports whether domain is exactly present in the allowlist.
func (a *Allowlist) Contains(domain string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.domains[normalizeDomain(domain)]
}

// Domains returns a snapshot of every allowed domain.
func (a *Allowlist) Domains() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.domains))
	for d := range a.domains {
		out = append(out, d)
	}
	return out
}

// extractHost parses rawURL and returns its lowercase host iff the scheme is
// http or https, or "" if rawURL can't be parsed as such.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}
	return normalizeDomain(parsed.Hostname())
}

// IsURLAllowed reports whether rawURL's scheme is http/https and its host
// equals, or is a sub-domain of, a domain in the allowlist. No network
// component may fetch a URL without first passing this check.
func (a *Allowlist) IsURLAllowed(rawURL string) bool {
	host := extractHost(rawURL)
	if host == "" {
		return false
	}
	if a.Contains(host) {
		return true
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for allowed := range a.domains {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
