// Package extractor turns raw user/source text into a candidate batch of
// entities, relations, and claims, deciding between cheap heuristic
// extraction and model extraction.
package extractor

import (
	"regexp"
	"strings"
)

// confidenceThreshold is the default threshold below which model
// extraction is preferred.
const confidenceThreshold = 0.7

const (
	minTextLength = 50
	maxTextLength = 10000
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{4}`),
	}
	numberPattern     = regexp.MustCompile(`\d+\.?\d*`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	properNounPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
)

// NERResults holds the pattern-matched entity candidates from simpleNER.
type NERResults struct {
	Dates       []string
	Numbers     []string
	URLs        []string
	Emails      []string
	ProperNouns []string
}

func (r NERResults) count() int {
	return len(r.Dates) + len(r.Numbers) + len(r.URLs) + len(r.Emails) + len(r.ProperNouns)
}

// simpleNER extracts dates, numbers, URLs, emails, and capitalized phrases
// with plain regexes — no model call.
func simpleNER(text string) NERResults {
	var dates []string
	for _, p := range datePatterns {
		dates = append(dates, p.FindAllString(text, -1)...)
	}
	return NERResults{
		Dates:       dates,
		Numbers:     numberPattern.FindAllString(text, -1),
		URLs:        urlPattern.FindAllString(text, -1),
		Emails:      emailPattern.FindAllString(text, -1),
		ProperNouns: properNounPattern.FindAllString(text, -1),
	}
}

// StatisticalExtraction counts frequent terms in text, used only for the
// confidence heuristic here.
type StatisticalExtraction struct {
	FrequentTerms map[string]int
	TotalWords    int
	UniqueWords   int
}

func statisticalExtraction(text string, minFrequency int) StatisticalExtraction {
	words := strings.Fields(strings.ToLower(text))
	freq := make(map[string]int)
	for _, w := range words {
		if len(w) > 3 {
			freq[w]++
		}
	}
	frequent := make(map[string]int)
	for w, c := range freq {
		if c >= minFrequency {
			frequent[w] = c
		}
	}
	return StatisticalExtraction{FrequentTerms: frequent, TotalWords: len(words), UniqueWords: len(freq)}
}

// CheapResult bundles the heuristic extraction's raw signals alongside the
// decision of whether model extraction is still required.
type CheapResult struct {
	UseModel   bool
	Confidence float64
	NER        NERResults
	Stats      StatisticalExtraction
}

// ShouldUseModel decides whether cheap extraction suffices or a model call
// is required: entity-count and frequent-term-count drive confidence; very
// short or very long input always forces a model call regardless of
// confidence.
func ShouldUseModel(text string) CheapResult {
	ner := simpleNER(text)
	stats := statisticalExtraction(text, 2)

	confidence := float64(ner.count())*0.1 + float64(len(stats.FrequentTerms))*0.05
	if confidence > 1.0 {
		confidence = 1.0
	}

	useModel := confidence < confidenceThreshold || len(text) < minTextLength || len(text) > maxTextLength

	return CheapResult{UseModel: useModel, Confidence: confidence, NER: ner, Stats: stats}
}

// topicName derives a fallback topic label when no better signal exists:
// the text after the last "=" if present (key=value style input), else
// the first detected proper noun, else the trimmed input itself.
func topicName(text string, ner NERResults) string {
	candidate := text
	if idx := strings.LastIndex(text, "="); idx >= 0 {
		candidate = strings.TrimSpace(text[idx+1:])
	}
	if len(ner.ProperNouns) > 0 {
		candidate = ner.ProperNouns[0]
	}
	return strings.TrimSpace(candidate)
}
