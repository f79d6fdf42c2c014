package discovery

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/cmeth990/kgctl/pkg/llm"
)

// queryTimeout bounds the optional LLM-assisted query expansion so a slow
// or unavailable model never stalls discovery.
const queryTimeout = 10 * time.Second

// DeterministicQueries builds the always-available query set from the
// domain name and its taxonomy metadata: the domain itself, word-prefix
// variations, and a category/gradeband-qualified query.
func DeterministicQueries(domainName, category, gradeband string) []string {
	queries := []string{domainName}

	words := strings.Fields(domainName)
	if len(words) > 1 {
		queries = append(queries, strings.Join(words[:min(2, len(words))], " "))
		queries = append(queries, words[0])
	}

	if category != "" {
		queries = append(queries, domainName+" "+category)
	}
	if gradeband != "" {
		queries = append(queries, domainName+" "+gradeband)
	}

	return dedupe(queries)
}

var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// ExpandQueriesWithModel asks a ModelClient for additional search queries
// and appends them to base, failing open (returning base unchanged) on
// timeout, error, or an unparseable response — query generation is a
// quality enhancement, never a hard dependency.
func ExpandQueriesWithModel(ctx context.Context, client llm.ModelClient, domainName, category, difficulty, gradeband string, base []string) []string {
	if client == nil {
		return base
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	prompt := buildQueryPrompt(domainName, category, difficulty, gradeband)
	resp, err := client.Invoke(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return base
	}

	match := jsonArrayPattern.FindString(resp.Content)
	if match == "" {
		return base
	}

	var extra []string
	if err := json.Unmarshal([]byte(match), &extra); err != nil {
		return base
	}

	return dedupe(append(append([]string{}, base...), extra...))
}

func buildQueryPrompt(domainName, category, difficulty, gradeband string) string {
	if category == "" {
		category = "unknown"
	}
	if difficulty == "" {
		difficulty = "intermediate"
	}
	if gradeband == "" {
		gradeband = "general"
	}
	return "Generate 3-5 optimized search queries for finding educational sources about \"" + domainName + "\".\n\n" +
		"Context:\n- Domain: " + domainName + "\n- Category: " + category +
		"\n- Difficulty: " + difficulty + "\n- Grade Level: " + gradeband +
		"\n\nRespond with a JSON array of query strings."
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
