package egress

import (
	"fmt"
	"regexp"
	"strings"
)

// paywallIndicators are tried as substrings against the lowercased HTML and
// URL (most entries have no regex metacharacters; the two that do are
// compiled separately below).
var paywallIndicators = []string{
	"subscribe", "subscription", "paywall", "premium", "unlock",
	"purchase", "buy now", "members only", "sign up",
	"piano.io", "metered", "freemium",
}

var (
	classPaywallPattern = regexp.MustCompile(`(?i)class.*paywall`)
	idPaywallPattern    = regexp.MustCompile(`(?i)id.*paywall`)
	dataPaywallPattern  = "data-paywall"
)

// PaywallResult is returned by DetectPaywall.
type PaywallResult struct {
	IsPaywall  bool     `json:"is_paywall"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
	Message    string   `json:"message,omitempty"`
}

// DetectPaywall scans html and (optionally) url for paywall indicators.
// Each matched indicator contributes 0.3 to confidence (capped at 1.0);
// content is flagged as paywalled when ≥2 indicators match or confidence
// reaches 0.6.
func DetectPaywall(html, url string) PaywallResult {
	if html == "" {
		return PaywallResult{}
	}

	htmlLower := strings.ToLower(html)
	urlLower := strings.ToLower(url)

	var matched []string
	for _, indicator := range paywallIndicators {
		if strings.Contains(htmlLower, indicator) || (urlLower != "" && strings.Contains(urlLower, indicator)) {
			matched = append(matched, indicator)
		}
	}
	if classPaywallPattern.MatchString(htmlLower) || classPaywallPattern.MatchString(urlLower) {
		matched = append(matched, "class.*paywall")
	}
	if idPaywallPattern.MatchString(htmlLower) || idPaywallPattern.MatchString(urlLower) {
		matched = append(matched, "id.*paywall")
	}
	if strings.Contains(htmlLower, dataPaywallPattern) || strings.Contains(urlLower, dataPaywallPattern) {
		matched = append(matched, dataPaywallPattern)
	}

	confidence := float64(len(matched)) * 0.3
	if confidence > 1.0 {
		confidence = 1.0
	}
	isPaywall := len(matched) >= 2 || confidence >= 0.6

	result := PaywallResult{IsPaywall: isPaywall, Confidence: confidence, Indicators: matched}
	if isPaywall {
		result.Message = fmt.Sprintf("Paywall detected (%d indicators)", len(matched))
	}
	return result
}
