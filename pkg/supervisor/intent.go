// Package supervisor implements the conversational FSM that routes a user
// turn through intent detection, the ingest pipeline (extract/link/write),
// approval gating, and query/discovery side-commands.
package supervisor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cmeth990/kgctl/pkg/egress"
	"github.com/cmeth990/kgctl/pkg/llm"
	"github.com/cmeth990/kgctl/pkg/models"
)

// DetectIntent classifies raw user input into an Intent using a keyword
// ladder. Unmatched input returns IntentUnknown rather than guessing, so the
// caller can ask the user for clarification instead of silently defaulting
// to ingest.
//
// client is optional: when non-nil, unmatched non-empty input gets one LLM
// classification attempt before falling back to IntentUnknown.
func DetectIntent(ctx context.Context, input string, client llm.ModelClient) (models.Intent, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return models.IntentUnknown, nil
	}

	if intent, ok := keywordIntent(trimmed); ok {
		return intent, nil
	}

	if client == nil {
		return models.IntentUnknown, nil
	}

	intent, err := classifyIntent(ctx, client, input)
	if err != nil {
		return models.IntentUnknown, err
	}
	return intent, nil
}

func keywordIntent(trimmed string) (models.Intent, bool) {
	switch {
	case strings.HasPrefix(trimmed, "/ingest"), strings.Contains(trimmed, "ingest"):
		return models.IntentExtractLinkWrite, true
	case strings.HasPrefix(trimmed, "/query"), strings.Contains(trimmed, "query"):
		return models.IntentQuery, true
	case strings.HasPrefix(trimmed, "/gather"), strings.Contains(trimmed, "gather sources"), strings.Contains(trimmed, "find sources"):
		return models.IntentGatherSources, true
	case strings.HasPrefix(trimmed, "/fetch"), strings.Contains(trimmed, "fetch content"):
		return models.IntentFetchContent, true
	case strings.HasPrefix(trimmed, "/scout"), strings.Contains(trimmed, "scout domains"), strings.Contains(trimmed, "find new domains"):
		return models.IntentScoutDomains, true
	case strings.HasPrefix(trimmed, "/test"), strings.Contains(trimmed, "test agents"), strings.Contains(trimmed, "parallel"):
		return models.IntentParallelTest, true
	case strings.HasPrefix(trimmed, "/help"):
		return models.IntentHelp, true
	case strings.HasPrefix(trimmed, "/status"):
		return models.IntentStatus, true
	case strings.HasPrefix(trimmed, "/cancel"):
		return models.IntentCancel, true
	default:
		return models.IntentUnknown, false
	}
}

const classificationPrompt = `Classify the user's message into exactly one of these intents:
help, status, cancel, gather_sources, fetch_content, scout_domains, parallel_test, extract_link_write, query, unknown.

Respond with only the intent label, nothing else.

Message:
%s`

var allowedClassifiedIntents = map[string]models.Intent{
	"help":               models.IntentHelp,
	"status":             models.IntentStatus,
	"cancel":             models.IntentCancel,
	"gather_sources":     models.IntentGatherSources,
	"fetch_content":      models.IntentFetchContent,
	"scout_domains":      models.IntentScoutDomains,
	"parallel_test":      models.IntentParallelTest,
	"extract_link_write": models.IntentExtractLinkWrite,
	"query":              models.IntentQuery,
}

var classificationLabelPattern = regexp.MustCompile(`[a-z_]+`)

func classifyIntent(ctx context.Context, client llm.ModelClient, input string) (models.Intent, error) {
	safe := egress.WrapUntrustedContent(egress.SanitizeForLLM(input, 2000))
	resp, err := client.Invoke(ctx, llm.Request{Prompt: fmt.Sprintf(classificationPrompt, safe)})
	if err != nil {
		return models.IntentUnknown, err
	}

	label := strings.ToLower(strings.TrimSpace(resp.Content))
	if match := classificationLabelPattern.FindString(label); match != "" {
		label = match
	}
	if intent, ok := allowedClassifiedIntents[label]; ok {
		return intent, nil
	}
	return models.IntentUnknown, nil
}

// extractDomain pulls a trailing domain/topic name off a command-style
// input ("gather sources for Algebra" -> "Algebra") for the common
// single-domain case. It returns the trimmed remainder after the last
// "for " if present, otherwise the whole trimmed input with any leading
// slash-command word removed.
func extractDomain(input string) string {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)

	if idx := strings.LastIndex(lower, " for "); idx != -1 {
		return strings.Trim(trimmed[idx+len(" for "):], " .?!")
	}

	fields := strings.Fields(trimmed)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		fields = fields[1:]
	}
	return strings.Trim(strings.Join(fields, " "), " .?!")
}
