// Package kgdiff implements diff application, changelog versioning, and
// rollback over a graph store. It treats the underlying graph store as an
// opaque interface: any type implementing Store can back it, in-process or
// backed by a database.
package kgdiff

import (
	"context"

	"github.com/cmeth990/kgctl/pkg/models"
)

// Store is the minimal graph-store contract kgdiff needs. pkg/database
// provides an in-process implementation; the interface lets that be swapped
// for an external graph database without this package changing.
type Store interface {
	ApplyDiff(ctx context.Context, diff models.Diff) (models.ApplyResult, error)
	GetNode(ctx context.Context, id string) (models.Node, bool, error)
	GetEdge(ctx context.Context, from, to string, edgeType models.EdgeType) (models.Edge, bool, error)

	// QueryNodes is the graph store's free-text query operation: a match
	// over node name/description properties, returning up to limit results.
	QueryNodes(ctx context.Context, text string, limit int) ([]models.Node, error)

	// Neighbors returns the nodes directly reachable from id via edgeType
	// (any direction if edgeType is empty), for hypernode expansion and
	// fractal-structure navigation.
	Neighbors(ctx context.Context, id string, edgeType models.EdgeType) ([]models.Node, []models.Edge, error)
}

// ChangelogStore persists ChangelogEntry records. pkg/database's changelog
// table is the production implementation.
type ChangelogStore interface {
	AppendChangelogEntry(ctx context.Context, entry models.ChangelogEntry) error
	NextVersion(ctx context.Context) (int64, error)
	ChangelogEntriesAfter(ctx context.Context, version int64) ([]models.ChangelogEntry, error)
	LatestChangelogEntry(ctx context.Context) (models.ChangelogEntry, bool, error)
}
