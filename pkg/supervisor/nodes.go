package supervisor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cmeth990/kgctl/pkg/discovery"
	"github.com/cmeth990/kgctl/pkg/fetch"
	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/pipeline/extractor"
	"github.com/cmeth990/kgctl/pkg/pipeline/linker"
	"github.com/cmeth990/kgctl/pkg/pipeline/writer"
)

// helpText lists this module's command surface.
const helpText = `Knowledge graph agent

Commands:
/ingest <text> - extract, link, and propose a knowledge graph diff
/query <question> - query the knowledge graph
/gather sources for <domain> - discover sources for a domain
/fetch content for <domain> - fetch content from discovered sources
/scout domains for <domain> - discover sources for a domain not yet covered
/test agents for <domain> - run source gathering and scouting in parallel
/status - check agent status
/cancel - cancel the pending operation
/help - show this help`

func helpNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	return map[string]interface{}{"final_response": helpText}, nil
}

func statusNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	status := "Agent is running.\n"
	if state.ApprovalRequired {
		status += fmt.Sprintf("Waiting for approval (diff_id: %s)", orUnknown(state.DiffID))
	} else {
		status += "Ready for commands."
	}
	return map[string]interface{}{"final_response": status}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func cancelNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	return map[string]interface{}{
		"proposed_diff":     nil,
		"approval_required": false,
		"final_response":    "Operation cancelled.",
	}, nil
}

// waitForApprovalNode is a no-op terminal: the caller (worker/API layer)
// surfaces state.FinalResponse/ProposedDiff and waits for a follow-up turn
// carrying approval_decision. The real pause-and-resume happens outside
// the FSM, at the checkpoint boundary.
func waitForApprovalNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func extractNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	out, err := extractor.Extract(ctx, s.ExtractClient, state.UserInput, true)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	notes := cloneWorkingNotes(state.WorkingNotes)
	notes["extractor_output"] = out
	return map[string]interface{}{"working_notes": notes}, nil
}

func linkNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	extracted, err := extractorOutputFrom(state.WorkingNotes)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}

	var lookup linker.EntityLookup
	if s.Store != nil {
		lookup = linker.StoreLookup(s.Store)
	}
	linked, err := linker.Link(ctx, extracted, lookup)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}

	notes := cloneWorkingNotes(state.WorkingNotes)
	notes["linker_output"] = linked
	return map[string]interface{}{"working_notes": notes}, nil
}

func writeNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	linked, err := linkerOutputFrom(state.WorkingNotes)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}

	diff, diffID, err := writer.Write(linked, state.UserInput, s.SourceAgent, "", "user-initiated ingest")
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}

	summary := kgdiff.FormatDiffSummary(diff)

	return map[string]interface{}{
		"proposed_diff":        &diff,
		"diff_id":              diffID,
		"approval_required":    true,
		"crucial_decision_type": string(models.DecisionKGWrite),
		"final_response":       fmt.Sprintf("Proposed KG changes (%s):\n\n%s\n\nApprove or reject?", diffID, summary),
	}, nil
}

// commitNode applies an approved diff, or clears state on rejection.
func commitNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	switch state.ApprovalDecision {
	case models.ApprovalReject:
		return map[string]interface{}{
			"proposed_diff":            nil,
			"approval_required":        false,
			"crucial_decision_type":    "",
			"crucial_decision_context": nil,
			"final_response":           "Changes rejected. Please provide clarification or a new command.",
		}, nil
	case models.ApprovalApprove:
		// fall through
	default:
		return map[string]interface{}{"error": fmt.Sprintf("invalid approval decision: %q", state.ApprovalDecision)}, nil
	}

	if state.ProposedDiff == nil {
		return map[string]interface{}{"error": "no proposed diff to commit"}, nil
	}

	result, err := kgdiff.ApplyDiff(ctx, s.Store, *state.ProposedDiff)
	if err != nil {
		return map[string]interface{}{
			"error":          "failed to commit diff",
			"final_response": "Error committing changes. Please try again.",
		}, nil
	}

	if s.Changelog != nil {
		if _, err := kgdiff.RecordKGChange(ctx, s.Changelog, *state.ProposedDiff, state.DiffID, s.SourceAgent, "", "user-approved commit", &result); err != nil {
			return map[string]interface{}{"error": fmt.Sprintf("failed to record changelog entry: %s", err)}, nil
		}
	}

	summary := kgdiff.FormatDiffSummary(*state.ProposedDiff)
	response := fmt.Sprintf("✅ Committed to KG:\n\n%s\n\nNodes: +%d ~%d -%d\nEdges: +%d ~%d -%d",
		summary,
		result.Counts.NodesAdded, result.Counts.NodesUpdated, result.Counts.NodesDeleted,
		result.Counts.EdgesAdded, result.Counts.EdgesUpdated, result.Counts.EdgesDeleted,
	)

	return map[string]interface{}{
		"proposed_diff":            nil,
		"approval_required":        false,
		"crucial_decision_type":    "",
		"crucial_decision_context": nil,
		"final_response":           response,
	}, nil
}

func handleRejectNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	return map[string]interface{}{
		"proposed_diff":            nil,
		"approval_required":        false,
		"crucial_decision_type":    "",
		"crucial_decision_context": nil,
		"final_response":           "Changes rejected. What would you like to do instead?",
	}, nil
}

// queryNode supports fractal navigation commands (expand/zoom in, scale
// to/zoom to, orp/structure) over the graph store, falling back to a
// free-text node search.
func queryNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	queryText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(state.UserInput), "/query"))
	if queryText == "" {
		return map[string]interface{}{"final_response": "Please provide a query. Example: /query What is photosynthesis?"}, nil
	}
	if s.Store == nil {
		return map[string]interface{}{"final_response": "No graph store configured."}, nil
	}

	lower := strings.ToLower(queryText)

	switch {
	case strings.HasPrefix(lower, "expand "), strings.HasPrefix(lower, "zoom in "):
		id := lastField(queryText)
		nodes, edges, err := s.Store.Neighbors(ctx, id, models.EdgeContains)
		if err != nil || len(nodes) == 0 {
			return map[string]interface{}{"final_response": fmt.Sprintf("Could not expand hypernode %s", id)}, nil
		}
		response := fmt.Sprintf("Expanded Hypernode %s:\n\nNodes: %d\nEdges: %d\n\n", id, len(nodes), len(edges))
		response += formatNodeList(nodes)
		return map[string]interface{}{"final_response": response}, nil

	case strings.HasPrefix(lower, "scale to "), strings.HasPrefix(lower, "zoom to "):
		parts := strings.SplitN(queryText, " ", 3)
		if len(parts) < 3 {
			return map[string]interface{}{"final_response": "Usage: /query scale to <node_id> <micro|meso|macro>"}, nil
		}
		nodeID, targetScale := parts[1], strings.ToLower(parts[2])
		if targetScale != "micro" && targetScale != "meso" && targetScale != "macro" {
			return map[string]interface{}{"final_response": "Scale must be micro, meso, or macro"}, nil
		}
		nodes, _, err := s.Store.Neighbors(ctx, nodeID, "")
		if err != nil {
			return map[string]interface{}{"final_response": fmt.Sprintf("Could not query scale for %s", nodeID)}, nil
		}
		filtered := filterByScale(nodes, models.Scale(targetScale))
		response := fmt.Sprintf("Fractal Scale Query: %s -> %s\n\nFound %d nodes at %s scale\n", nodeID, targetScale, len(filtered), targetScale)
		response += formatNodeNames(filtered)
		return map[string]interface{}{"final_response": response}, nil

	case strings.HasPrefix(lower, "orp "), strings.HasPrefix(lower, "structure "):
		id := lastField(queryText)
		nodes, _, err := s.Store.Neighbors(ctx, id, "")
		if err != nil {
			return map[string]interface{}{"final_response": fmt.Sprintf("Could not query ORP structure for %s", id)}, nil
		}
		objects, processes, relations := countByORPRole(nodes)
		response := fmt.Sprintf("ORP Structure for %s:\n\nObjects: %d\nProcesses: %d\nRelations: %d", id, objects, processes, relations)
		return map[string]interface{}{"final_response": response}, nil

	default:
		results, err := s.Store.QueryNodes(ctx, queryText, 10)
		if err != nil || len(results) == 0 {
			return map[string]interface{}{"final_response": fmt.Sprintf(
				"No results found for: %s\n\nTry a different query or add knowledge first with /ingest\n\nFractal commands:\n- /query expand <hypernode_id>\n- /query scale to <node_id> <micro|meso|macro>\n- /query orp <node_id>",
				queryText)}, nil
		}
		response := fmt.Sprintf("Query: %s\n\nFound %d result(s):\n\n", queryText, len(results))
		response += formatNodeList(results)
		return map[string]interface{}{"final_response": response}, nil
	}
}

func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func formatNodeList(nodes []models.Node) string {
	var b strings.Builder
	for i, n := range nodes {
		if i >= 10 {
			break
		}
		name := nodeName(n)
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(name)
		b.WriteString(" (")
		b.WriteString(string(n.Label))
		b.WriteString(")\n")
	}
	return b.String()
}

func formatNodeNames(nodes []models.Node) string {
	var b strings.Builder
	for i, n := range nodes {
		if i >= 10 {
			break
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(nodeName(n))
		b.WriteString("\n")
	}
	return b.String()
}

func nodeName(n models.Node) string {
	if name, ok := n.Properties["name"].(string); ok && name != "" {
		return name
	}
	return n.ID
}

func filterByScale(nodes []models.Node, scale models.Scale) []models.Node {
	out := make([]models.Node, 0, len(nodes))
	for _, n := range nodes {
		if s, ok := n.Properties["scale"].(string); ok && models.Scale(s) == scale {
			out = append(out, n)
		}
	}
	return out
}

func countByORPRole(nodes []models.Node) (objects, processes, relations int) {
	for _, n := range nodes {
		role, _ := n.Properties["orp_role"].(string)
		switch models.ORPRole(role) {
		case models.ORPRoleObject:
			objects++
		case models.ORPRoleProcess:
			processes++
		case models.ORPRoleRelation:
			relations++
		}
	}
	return
}

// gatherSourcesNode discovers sources for the domain named in user_input.
// Domain extraction is keyword-based rather than an LLM-parsed request,
// since pkg/discovery already takes a single domain string and nothing in
// this codebase models multi-domain batched requests.
func gatherSourcesNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	domain := extractDomain(state.UserInput)
	if domain == "" || s.Discoverer == nil {
		return map[string]interface{}{"final_response": "Please specify a domain, e.g. \"gather sources for Algebra\"."}, nil
	}

	queries := discovery.DeterministicQueries(domain, "", "")
	result := s.Discoverer.Discover(ctx, domain, queries, discovery.Options{})

	notes := cloneWorkingNotes(state.WorkingNotes)
	notes["discovered_sources"] = result

	response := fmt.Sprintf("Discovered %d sources for %s (%d met quality threshold):\n\n",
		result.Statistics.Returned, domain, result.Statistics.MeetsQualityThreshold)
	for i, src := range result.Sources {
		if i >= 10 {
			break
		}
		response += fmt.Sprintf("%d. %s (%s, quality %.2f)\n", i+1, src.Title, src.Type, src.QualityScore)
	}
	for _, rec := range result.Recommendations {
		response += "\n" + rec
	}

	return map[string]interface{}{
		"working_notes":  notes,
		"final_response": response,
	}, nil
}

// fetchContentNode fetches content for sources already discovered in
// working_notes (or discovers them first if absent), capped at 10 sources.
func fetchContentNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	if s.Fetcher == nil {
		return map[string]interface{}{"final_response": "No content fetcher configured."}, nil
	}

	domain := extractDomain(state.UserInput)
	result, ok := state.WorkingNotes["discovered_sources"].(discovery.Result)
	if !ok {
		if domain == "" || s.Discoverer == nil {
			return map[string]interface{}{"final_response": "Please specify a domain, e.g. \"fetch content for Algebra\"."}, nil
		}
		result = s.Discoverer.Discover(ctx, domain, discovery.DeterministicQueries(domain, "", ""), discovery.Options{})
	}

	const maxSources = 10
	fetched := 0
	failed := 0
	for i, src := range result.Sources {
		if i >= maxSources {
			break
		}
		if _, err := s.Fetcher.Fetch(ctx, src.URL, 0); err != nil {
			failed++
			continue
		}
		fetched++
	}

	response := fmt.Sprintf("Fetched %d/%d sources for %s", fetched, fetched+failed, orDomain(domain, result.Domain))
	return map[string]interface{}{"final_response": response}, nil
}

func orDomain(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// scoutDomainsNode discovers sources for a domain not yet represented in
// the graph. This codebase has no distinct "novel domain" detector, so it
// is adapted from gatherSourcesNode against the extracted domain name
// rather than inventing a new domain-novelty subsystem.
func scoutDomainsNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	update, err := gatherSourcesNode(ctx, s, state)
	if err != nil {
		return update, err
	}
	if text, ok := update["final_response"].(string); ok {
		update["final_response"] = "Scouting new domain.\n\n" + text
	}
	return update, nil
}

// parallelTestNode runs source gathering and domain scouting concurrently
// and reports both.
func parallelTestNode(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error) {
	type outcome struct {
		update map[string]interface{}
		err    error
	}
	gatherCh := make(chan outcome, 1)
	scoutCh := make(chan outcome, 1)

	go func() {
		u, e := gatherSourcesNode(ctx, s, state)
		gatherCh <- outcome{u, e}
	}()
	go func() {
		u, e := scoutDomainsNode(ctx, s, state)
		scoutCh <- outcome{u, e}
	}()

	gatherResult, scoutResult := <-gatherCh, <-scoutCh

	response := "Parallel agent test:\n\n--- Source gathering ---\n"
	if gatherResult.err != nil {
		response += fmt.Sprintf("error: %s\n", gatherResult.err)
	} else if text, ok := gatherResult.update["final_response"].(string); ok {
		response += text + "\n"
	}
	response += "\n--- Domain scouting ---\n"
	if scoutResult.err != nil {
		response += fmt.Sprintf("error: %s\n", scoutResult.err)
	} else if text, ok := scoutResult.update["final_response"].(string); ok {
		response += text + "\n"
	}

	return map[string]interface{}{"final_response": response}, nil
}
