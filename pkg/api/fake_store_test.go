package api

import (
	"context"
	"sync"

	"github.com/cmeth990/kgctl/pkg/models"
)

// fakeGraphStore is an in-memory kgdiff.Store + kgdiff.ChangelogStore double
// for this package's tests (pkg/kgdiff has its own equivalent fakeStore;
// it's unexported there, so handler tests need their own).
type fakeGraphStore struct {
	mu       sync.Mutex
	nodes    map[string]models.Node
	entries  []models.ChangelogEntry
	nextVers int64
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{nodes: map[string]models.Node{}}
}

func (f *fakeGraphStore) ApplyDiff(_ context.Context, diff models.Diff) (models.ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range diff.Nodes.Add {
		f.nodes[n.ID] = n
	}
	for _, n := range diff.Nodes.Update {
		f.nodes[n.ID] = n
	}
	for _, id := range diff.Nodes.Delete {
		delete(f.nodes, id)
	}
	return models.ApplyResult{Counts: diff.Counts()}, nil
}

func (f *fakeGraphStore) GetNode(_ context.Context, id string) (models.Node, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	return n, ok, nil
}

func (f *fakeGraphStore) GetEdge(_ context.Context, _, _ string, _ models.EdgeType) (models.Edge, bool, error) {
	return models.Edge{}, false, nil
}

func (f *fakeGraphStore) QueryNodes(_ context.Context, _ string, _ int) ([]models.Node, error) {
	return nil, nil
}

func (f *fakeGraphStore) Neighbors(_ context.Context, _ string, _ models.EdgeType) ([]models.Node, []models.Edge, error) {
	return nil, nil, nil
}

func (f *fakeGraphStore) AppendChangelogEntry(_ context.Context, entry models.ChangelogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeGraphStore) NextVersion(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextVers++
	return f.nextVers, nil
}

func (f *fakeGraphStore) ChangelogEntriesAfter(_ context.Context, v int64) ([]models.ChangelogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChangelogEntry
	for _, e := range f.entries {
		if e.Version > v {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeGraphStore) LatestChangelogEntry(_ context.Context) (models.ChangelogEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return models.ChangelogEntry{}, false, nil
	}
	return f.entries[len(f.entries)-1], true, nil
}
