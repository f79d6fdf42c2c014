package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmeth990/kgctl/pkg/breaker"
	"github.com/cmeth990/kgctl/pkg/cost"
)

// TrackedClient wraps a ModelClient with circuit breaking, budget
// enforcement, cost tracking, and a single transparent retry for
// transient errors.
type TrackedClient struct {
	base      ModelClient
	breakers  *breaker.Registry
	tracker   *cost.Tracker
	budget    *cost.Budget
	envelopes *cost.EnvelopeManager

	Model    string
	Provider string
	Domain   string
	Queue    string
	Agent    string
}

// NewTrackedClient wires base behind the cost/budget/breaker stack.
func NewTrackedClient(base ModelClient, breakers *breaker.Registry, tracker *cost.Tracker, budget *cost.Budget, envelopes *cost.EnvelopeManager) *TrackedClient {
	return &TrackedClient{base: base, breakers: breakers, tracker: tracker, budget: budget, envelopes: envelopes}
}

// errDomainPaused is returned when the domain's circuit is open.
var errDomainPaused = errors.New("llm: domain is paused by circuit breaker")

// Invoke runs the full tracked-call sequence: circuit check, cost estimate,
// envelope/budget enforcement, the retried call, and usage recording.
func (c *TrackedClient) Invoke(ctx context.Context, req Request) (Response, error) {
	if req.Model == "" {
		req.Model = c.Model
	}

	// Step 1: circuit check.
	if c.Domain != "" && c.breakers != nil && !c.breakers.AllowDomain(c.Domain) {
		return Response{}, fmt.Errorf("%w: %s", errDomainPaused, c.Domain)
	}

	// Step 2: estimate tokens/cost.
	estInputTokens := EstimateTokens(req.Prompt)
	estOutputTokens := estInputTokens / 2
	if estOutputTokens < 1 {
		estOutputTokens = 1
	}
	estimatedCost := cost.CalculateCost(req.Model, estInputTokens, estOutputTokens)

	// Step 3: enforce envelopes and hard caps with the estimate.
	if c.envelopes != nil {
		if err := c.envelopes.EnforceAllCaps(cost.EnforceParams{
			Agent: c.Agent, Queue: c.Queue, AdditionalCost: estimatedCost,
		}); err != nil {
			c.openDomainOnBudgetError(err)
			return Response{}, err
		}
	}
	if c.budget != nil {
		if err := c.budget.Enforce(c.Domain, c.Queue, estimatedCost); err != nil {
			c.openDomainOnBudgetError(err)
			return Response{}, err
		}
	}

	// Step 4: invoke with one transparent retry for transient errors;
	// BudgetExceededError is never retriable (it cannot occur here, but the
	// predicate is defensive against a base client that wraps one).
	start := time.Now()
	resp, err := retryOnce(ctx, func() (Response, error) {
		return c.base.Invoke(ctx, req)
	}, func(e error) bool {
		var bee *cost.BudgetExceededError
		return errors.As(e, &bee)
	})
	duration := time.Since(start)

	if err != nil {
		if c.tracker != nil {
			c.tracker.RecordCall(cost.RecordCallParams{
				Model: req.Model, Provider: c.Provider,
				InputTokens: estInputTokens, OutputTokens: 0,
				Domain: c.Domain, Queue: c.Queue, Agent: c.Agent,
				DurationMS: float64(duration.Milliseconds()),
				Success:    false, Error: err.Error(),
			})
		}
		return Response{}, err
	}

	// Step 5: actual usage, falling back to the estimate.
	inputTokens, outputTokens := estInputTokens, estOutputTokens
	if resp.Usage.Known {
		inputTokens, outputTokens = resp.Usage.InputTokens, resp.Usage.OutputTokens
	}

	// Step 6: record the call; if materially over estimate and now over
	// budget, pause the domain.
	var call = cost.CalculateCost(req.Model, inputTokens, outputTokens)
	if c.tracker != nil {
		c.tracker.RecordCall(cost.RecordCallParams{
			Model: req.Model, Provider: c.Provider,
			InputTokens: inputTokens, OutputTokens: outputTokens,
			Domain: c.Domain, Queue: c.Queue, Agent: c.Agent,
			DurationMS: float64(duration.Milliseconds()),
			Success:    true,
		})
	}

	if call > estimatedCost*1.5 && c.budget != nil {
		if bErr := c.budget.Enforce(c.Domain, c.Queue, 0); bErr != nil {
			c.openDomainOnBudgetError(bErr)
		}
	}

	return resp, nil
}

func (c *TrackedClient) openDomainOnBudgetError(err error) {
	var bee *cost.BudgetExceededError
	if c.Domain == "" || c.breakers == nil || !errors.As(err, &bee) {
		return
	}
	c.breakers.PauseDomain(c.Domain)
}
