package supervisor

import (
	"context"
	"fmt"

	"github.com/cmeth990/kgctl/pkg/discovery"
	"github.com/cmeth990/kgctl/pkg/fetch"
	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/llm"
	"github.com/cmeth990/kgctl/pkg/models"
)

// DefaultRecursionCap bounds how many node transitions a single turn may
// take before the FSM aborts with an error.
const DefaultRecursionCap = 30

// nodeFunc is a single FSM node: it receives the current state and returns
// a partial state update map, applied via ApplyStateUpdate. Returning only
// changed keys rather than a full state keeps nodes from clobbering fields
// they never touch.
type nodeFunc func(ctx context.Context, s *Supervisor, state models.AgentState) (map[string]interface{}, error)

// Supervisor wires the conversational FSM's dependencies and runs one turn
// per call to RunGraph.
type Supervisor struct {
	Store       kgdiff.Store
	Changelog   kgdiff.ChangelogStore
	Checkpoints CheckpointStore
	Discoverer  *discovery.Discoverer
	Fetcher     *fetch.Fetcher

	// ExtractClient drives pipeline extraction; IntentClient is the
	// fallback classifier for unmatched intent input. Either may be nil.
	ExtractClient llm.ModelClient
	IntentClient  llm.ModelClient

	SourceAgent  string
	RecursionCap int
}

// NewSupervisor constructs a Supervisor, defaulting RecursionCap when unset.
func NewSupervisor(store kgdiff.Store, changelog kgdiff.ChangelogStore, checkpoints CheckpointStore, discoverer *discovery.Discoverer, fetcher *fetch.Fetcher, extractClient, intentClient llm.ModelClient, sourceAgent string) *Supervisor {
	return &Supervisor{
		Store:         store,
		Changelog:     changelog,
		Checkpoints:   checkpoints,
		Discoverer:    discoverer,
		Fetcher:       fetcher,
		ExtractClient: extractClient,
		IntentClient:  intentClient,
		SourceAgent:   sourceAgent,
		RecursionCap:  DefaultRecursionCap,
	}
}

// ErrRecursionCapExceeded is returned when a turn takes more node
// transitions than RecursionCap allows.
type ErrRecursionCapExceeded struct {
	Cap int
}

func (e ErrRecursionCapExceeded) Error() string {
	return fmt.Sprintf("supervisor: recursion cap of %d node transitions exceeded", e.Cap)
}

const nodeEnd = ""

// RunGraph runs one supervisor turn for state, persisting the resulting
// checkpoint under threadID, and satisfies queue.GraphRunner. It loads any
// existing checkpoint for threadID and merges state onto it before running,
// so a follow-up turn (e.g. an approval decision) sees the prior turn's
// proposed_diff and working_notes.
func (s *Supervisor) RunGraph(ctx context.Context, state models.AgentState, threadID string) (models.AgentState, error) {
	current := state
	if s.Checkpoints != nil {
		if prior, ok, err := s.Checkpoints.Load(ctx, threadID); err == nil && ok {
			current = mergeIncomingState(prior, state)
		}
	}

	result, err := s.run(ctx, current)
	if err != nil {
		result.Error = err.Error()
	}

	if s.Checkpoints != nil {
		if saveErr := s.Checkpoints.Save(ctx, threadID, result); saveErr != nil {
			return result, fmt.Errorf("supervisor: save checkpoint: %w", saveErr)
		}
	}

	return result, err
}

// mergeIncomingState layers a new turn's fields onto the prior checkpoint:
// the new user_input/approval_decision drive this turn, while
// proposed_diff/diff_id/working_notes/approval_required carry over from
// the prior turn until a node clears them.
func mergeIncomingState(prior, incoming models.AgentState) models.AgentState {
	out := prior
	out.UserInput = incoming.UserInput
	out.ChatID = orString(incoming.ChatID, prior.ChatID)
	out.ApprovalDecision = incoming.ApprovalDecision
	out.Error = ""
	out.FinalResponse = ""
	if incoming.Intent != models.IntentUnknown {
		out.Intent = incoming.Intent
	}
	return out
}

func orString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// run drives the FSM to completion for one turn.
//
// When the incoming state already carries an approval_decision for a
// pending diff, the turn routes straight to commit/handle_reject, skipping
// intent detection entirely: re-running detect_intent against the
// (stale, carried-over) user_input from the turn that produced the diff
// would otherwise re-trigger a fresh extract->link->write and silently
// discard the pending decision. If approval is pending and this turn
// carries no decision, only help/status/cancel are allowed through; any
// other input re-surfaces the pending prompt instead of starting new work.
func (s *Supervisor) run(ctx context.Context, state models.AgentState) (models.AgentState, error) {
	recursionCap := s.RecursionCap
	if recursionCap <= 0 {
		recursionCap = DefaultRecursionCap
	}

	var node string
	if state.ApprovalRequired && state.ApprovalDecision != "" {
		node = s.routeIntent(state)
	} else {
		var err error
		state, err = s.detectIntent(ctx, state)
		if err != nil {
			return state, err
		}
		if state.ApprovalRequired && state.Intent != models.IntentHelp && state.Intent != models.IntentStatus && state.Intent != models.IntentCancel {
			state.FinalResponse = "A decision is still pending approval. Reply approve or reject."
			return state, nil
		}
		node = s.routeAfterIntent(state)
	}

	steps := 0
	for node != nodeEnd {
		// wait_for_approval is a pure terminal: route_intent only ever
		// sends it here to mean "stop and show the pending prompt", so
		// there is nothing to execute.
		if node == "wait_for_approval" {
			return state, nil
		}

		steps++
		if steps > recursionCap {
			return state, ErrRecursionCapExceeded{Cap: recursionCap}
		}

		fn, ok := nodeTable[node]
		if !ok {
			return state, fmt.Errorf("supervisor: unknown node %q", node)
		}

		update, err := fn(ctx, s, state)
		if err != nil {
			return state, err
		}
		state, err = ApplyStateUpdate(state, update)
		if err != nil {
			return state, err
		}

		node = s.next(node, state)
	}

	return state, nil
}

var nodeTable = map[string]nodeFunc{
	"help":              helpNode,
	"status":            statusNode,
	"cancel":            cancelNode,
	"wait_for_approval": waitForApprovalNode,
	"extract":           extractNode,
	"link":              linkNode,
	"write":             writeNode,
	"commit":            commitNode,
	"handle_reject":     handleRejectNode,
	"query":             queryNode,
	"gather_sources":    gatherSourcesNode,
	"fetch_content":     fetchContentNode,
	"scout_domains":     scoutDomainsNode,
	"parallel_test":     parallelTestNode,
}

// detectIntent runs intent classification and, if the result is
// IntentUnknown, short-circuits with a clarification prompt rather than
// guessing (see DetectIntent's doc comment).
func (s *Supervisor) detectIntent(ctx context.Context, state models.AgentState) (models.AgentState, error) {
	intent, err := DetectIntent(ctx, state.UserInput, s.IntentClient)
	if err != nil {
		intent = models.IntentUnknown
	}
	state.Intent = intent
	if intent == models.IntentUnknown {
		state.FinalResponse = "I didn't understand that. Try /help to see available commands."
	}
	return state, nil
}

// routeAfterIntent is the edge out of detect_intent.
func (s *Supervisor) routeAfterIntent(state models.AgentState) string {
	switch state.Intent {
	case models.IntentHelp:
		return "help"
	case models.IntentStatus:
		return "status"
	case models.IntentCancel:
		return "cancel"
	case models.IntentGatherSources:
		return "gather_sources"
	case models.IntentFetchContent:
		return "fetch_content"
	case models.IntentScoutDomains:
		return "scout_domains"
	case models.IntentParallelTest:
		return "parallel_test"
	case models.IntentExtractLinkWrite:
		return "extract"
	case models.IntentQuery:
		return "query"
	default:
		return nodeEnd
	}
}

// next is the shared "what happens after this node" edge, reused after
// both "write" and "wait_for_approval".
func (s *Supervisor) next(from string, state models.AgentState) string {
	switch from {
	case "extract":
		return "link"
	case "link":
		return "write"
	case "write", "wait_for_approval":
		return s.routeIntent(state)
	default:
		return nodeEnd
	}
}

func (s *Supervisor) routeIntent(state models.AgentState) string {
	if state.ApprovalRequired && state.ApprovalDecision == "" {
		return "wait_for_approval"
	}
	switch state.ApprovalDecision {
	case models.ApprovalReject:
		return "handle_reject"
	case models.ApprovalApprove:
		return "commit"
	}
	return nodeEnd
}
