package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cmeth990/kgctl/pkg/breaker"
	"github.com/cmeth990/kgctl/pkg/cost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls   int
	failN   int // fail the first failN calls
	resp    Response
	failErr error
}

func (f *fakeClient) Invoke(ctx context.Context, req Request) (Response, error) {
	f.calls++
	if f.calls <= f.failN {
		return Response{}, f.failErr
	}
	return f.resp, nil
}

func TestTrackedClientInvokeSuccessRecordsCall(t *testing.T) {
	base := &fakeClient{resp: Response{Content: "hi", Usage: Usage{InputTokens: 10, OutputTokens: 5, Known: true}}}
	tracker := cost.NewTracker()
	tc := NewTrackedClient(base, breaker.NewRegistry(breaker.DefaultConfig()), tracker, cost.NewBudget(tracker), cost.NewEnvelopeManager(tracker))
	tc.Model = "gpt-4o-mini"
	tc.Domain = "Algebra"

	resp, err := tc.Invoke(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	assert.Equal(t, 1, tracker.Stats().TotalCalls)
}

func TestTrackedClientFailsFastWhenDomainCircuitOpen(t *testing.T) {
	base := &fakeClient{resp: Response{Content: "hi"}}
	reg := breaker.NewRegistry(breaker.DefaultConfig())
	reg.PauseDomain("Algebra")

	tracker := cost.NewTracker()
	tc := NewTrackedClient(base, reg, tracker, cost.NewBudget(tracker), cost.NewEnvelopeManager(tracker))
	tc.Domain = "Algebra"
	tc.Model = "gpt-4o-mini"

	_, err := tc.Invoke(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDomainPaused))
	assert.Equal(t, 0, base.calls)
}

func TestTrackedClientBlocksOnBudgetExceeded(t *testing.T) {
	base := &fakeClient{resp: Response{Content: "hi"}}
	tracker := cost.NewTracker()
	budget := cost.NewBudget(tracker)
	budget.SetGlobalDailyLimit(0)

	tc := NewTrackedClient(base, breaker.NewRegistry(breaker.DefaultConfig()), tracker, budget, cost.NewEnvelopeManager(tracker))
	tc.Model = "gpt-4o-mini"

	_, err := tc.Invoke(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	var bee *cost.BudgetExceededError
	assert.ErrorAs(t, err, &bee)
	assert.Equal(t, 0, base.calls)
}

func TestTrackedClientRetriesOnceOnTransientError(t *testing.T) {
	base := &fakeClient{failN: 1, failErr: errors.New("connection reset by peer"), resp: Response{Content: "ok"}}
	tracker := cost.NewTracker()
	tc := NewTrackedClient(base, breaker.NewRegistry(breaker.DefaultConfig()), tracker, cost.NewBudget(tracker), cost.NewEnvelopeManager(tracker))
	tc.Model = "gpt-4o-mini"

	resp, err := tc.Invoke(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, base.calls)
}

func TestTrackedClientDoesNotRetryNonTransientError(t *testing.T) {
	base := &fakeClient{failN: 5, failErr: errors.New("invalid api key")}
	tracker := cost.NewTracker()
	tc := NewTrackedClient(base, breaker.NewRegistry(breaker.DefaultConfig()), tracker, cost.NewBudget(tracker), cost.NewEnvelopeManager(tracker))
	tc.Model = "gpt-4o-mini"

	_, err := tc.Invoke(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, 1, base.calls)
}

func TestTrackedClientFallsBackToEstimateWhenUsageUnknown(t *testing.T) {
	base := &fakeClient{resp: Response{Content: "hi"}} // Usage.Known == false
	tracker := cost.NewTracker()
	tc := NewTrackedClient(base, breaker.NewRegistry(breaker.DefaultConfig()), tracker, cost.NewBudget(tracker), cost.NewEnvelopeManager(tracker))
	tc.Model = "gpt-4o-mini"

	_, err := tc.Invoke(context.Background(), Request{Prompt: "a reasonably long prompt for estimating"})
	require.NoError(t, err)
	assert.Greater(t, tracker.Total(), 0.0)
}
