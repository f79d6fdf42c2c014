package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/cmeth990/kgctl/pkg/breaker"
	"github.com/cmeth990/kgctl/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name    string
	pool    PoolName
	sources []Source
	err     error
	calls   int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Pool() PoolName  { return f.pool }
func (f *fakeProvider) Search(ctx context.Context, queries []string, domain string) ([]Source, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sources, nil
}

func highQualitySource(url string, typ SourceType, provenance string) Source {
	return Source{
		URL:     url,
		Title:   url,
		Type:    typ,
		Domain:  "thermodynamics",
		Signals: QualitySignals{PeerReviewed: true, PublishedYear: 2024, CitationCount: 200, Provenance: provenance, DomainRelevant: true},
	}
}

func TestDiscoverRanksFreeHighQualitySourcesFirst(t *testing.T) {
	reg := NewProviderRegistry()
	academic := &fakeProvider{
		name: "arxiv", pool: PoolAcademic,
		sources: []Source{highQualitySource("https://arxiv.org/abs/1", TypeAcademicPaper, "arxiv")},
	}
	educational := &fakeProvider{
		name: "openstax", pool: PoolEducational,
		sources: []Source{highQualitySource("https://openstax.org/books/x", TypeTextbook, "openstax")},
	}
	reg.Register(academic, true, 1)
	reg.Register(educational, true, 1)

	d := NewDiscoverer(reg, ratelimit.New(), breaker.NewRegistry(breaker.DefaultConfig()))
	result := d.Discover(context.Background(), "thermodynamics", []string{"thermodynamics"}, Options{MaxSources: 10})

	require.Len(t, result.Sources, 2)
	assert.Equal(t, 2, result.Statistics.FreeSources)
	assert.Equal(t, 0, result.Statistics.PaidSources)
}

func TestDiscoverFiltersBelowQualityThreshold(t *testing.T) {
	reg := NewProviderRegistry()
	low := &fakeProvider{
		name: "web_search", pool: PoolGeneral,
		sources: []Source{{URL: "https://random.example.com/a", Type: TypeWeb, Signals: QualitySignals{}}},
	}
	reg.Register(low, true, 1)

	d := NewDiscoverer(reg, ratelimit.New(), breaker.NewRegistry(breaker.DefaultConfig()))
	result := d.Discover(context.Background(), "thermodynamics", []string{"thermodynamics"}, Options{MaxSources: 10, MinQuality: 0.9})

	assert.Empty(t, result.Sources)
	assert.Equal(t, 1, result.Statistics.TotalDiscovered)
	assert.Equal(t, 0, result.Statistics.MeetsQualityThreshold)
}

func TestDiscoverEnforcesSourceTypeDiversityQuota(t *testing.T) {
	reg := NewProviderRegistry()
	var many []Source
	for i := 0; i < 10; i++ {
		many = append(many, highQualitySource("https://arxiv.org/abs/"+string(rune('a'+i)), TypeAcademicPaper, "arxiv"))
	}
	academic := &fakeProvider{name: "arxiv", pool: PoolAcademic, sources: many}
	educational := &fakeProvider{name: "openstax", pool: PoolEducational, sources: []Source{
		highQualitySource("https://openstax.org/books/x", TypeTextbook, "openstax"),
	}}
	reg.Register(academic, true, 1)
	reg.Register(educational, true, 2)

	d := NewDiscoverer(reg, ratelimit.New(), breaker.NewRegistry(breaker.DefaultConfig()))
	result := d.Discover(context.Background(), "thermodynamics", []string{"thermodynamics"}, Options{MaxSources: 6})

	assert.LessOrEqual(t, result.Statistics.SourceTypeCounts[TypeAcademicPaper], 3)
	assert.Equal(t, 1, result.Statistics.SourceTypeCounts[TypeTextbook])
	assert.Len(t, result.Sources, 6)
}

func TestDiscoverSkipsProviderWhenSourceCircuitOpen(t *testing.T) {
	reg := NewProviderRegistry()
	flaky := &fakeProvider{name: "flaky", pool: PoolGeneral, err: errors.New("boom")}
	reg.Register(flaky, true, 1)

	breakers := breaker.NewRegistry(breaker.DefaultConfig())
	breakers.SourceCircuit("flaky").ForceOpen()

	d := NewDiscoverer(reg, ratelimit.New(), breakers)
	result := d.Discover(context.Background(), "thermodynamics", []string{"thermodynamics"}, Options{MaxSources: 10})

	assert.Equal(t, 0, flaky.calls)
	assert.Empty(t, result.Sources)
}

func TestDiscoverRecordsFailureAgainstCircuitOnProviderError(t *testing.T) {
	reg := NewProviderRegistry()
	failing := &fakeProvider{name: "failing", pool: PoolGeneral, err: errors.New("boom")}
	reg.Register(failing, true, 1)

	breakers := breaker.NewRegistry(breaker.DefaultConfig())
	d := NewDiscoverer(reg, ratelimit.New(), breakers)
	d.Discover(context.Background(), "thermodynamics", []string{"thermodynamics"}, Options{MaxSources: 10})

	assert.Equal(t, 1, failing.calls)
	status := breakers.SourceCircuit("failing").Status()
	assert.Equal(t, 1, status.FailureCount)
}

func TestDiscoverRespectsSourceTypesOption(t *testing.T) {
	reg := NewProviderRegistry()
	academic := &fakeProvider{name: "arxiv", pool: PoolAcademic, sources: []Source{
		highQualitySource("https://arxiv.org/abs/1", TypeAcademicPaper, "arxiv"),
	}}
	general := &fakeProvider{name: "web_search", pool: PoolGeneral, sources: []Source{
		highQualitySource("https://random.example.com/a", TypeWeb, "web_search"),
	}}
	reg.Register(academic, true, 1)
	reg.Register(general, true, 2)

	d := NewDiscoverer(reg, ratelimit.New(), breaker.NewRegistry(breaker.DefaultConfig()))
	result := d.Discover(context.Background(), "thermodynamics", []string{"thermodynamics"}, Options{
		MaxSources:  10,
		SourceTypes: []PoolName{PoolAcademic},
	})

	assert.Equal(t, 0, general.calls)
	assert.Equal(t, 1, academic.calls)
	require.Len(t, result.Sources, 1)
}

func TestProviderRegistrySkipsDisabledProviders(t *testing.T) {
	reg := NewProviderRegistry()
	reg.Register(&fakeProvider{name: "crossref", pool: PoolAcademic}, false, 4)
	reg.Register(&fakeProvider{name: "arxiv", pool: PoolAcademic}, true, 2)

	providers := reg.ForPool(PoolAcademic)
	require.Len(t, providers, 1)
	assert.Equal(t, "arxiv", providers[0].Name())
}

func TestProviderRegistryOrdersByPriority(t *testing.T) {
	reg := NewProviderRegistry()
	reg.Register(&fakeProvider{name: "openalex", pool: PoolAcademic}, true, 3)
	reg.Register(&fakeProvider{name: "semantic_scholar", pool: PoolAcademic}, true, 1)
	reg.Register(&fakeProvider{name: "arxiv", pool: PoolAcademic}, true, 2)

	providers := reg.ForPool(PoolAcademic)
	require.Len(t, providers, 3)
	assert.Equal(t, "semantic_scholar", providers[0].Name())
	assert.Equal(t, "arxiv", providers[1].Name())
	assert.Equal(t, "openalex", providers[2].Name())
}
