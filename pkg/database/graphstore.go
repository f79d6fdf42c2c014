package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// GraphStore is the Postgres-backed kgdiff.Store implementation: the
// knowledge graph itself, persisted as two tables (kg_nodes, kg_edges) and
// reachable only through ApplyDiff/QueryNodes/Neighbors.
type GraphStore struct {
	db *sql.DB
}

// NewGraphStore wraps db as a GraphStore.
func NewGraphStore(db *sql.DB) *GraphStore { return &GraphStore{db: db} }

// ApplyDiff applies every bucket of diff inside one transaction, upserting
// adds/updates and deleting removed nodes/edges.
func (g *GraphStore) ApplyDiff(ctx context.Context, diff models.Diff) (models.ApplyResult, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ApplyResult{}, fmt.Errorf("begin apply diff tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	for _, n := range append(append([]models.Node{}, diff.Nodes.Add...), diff.Nodes.Update...) {
		if err := upsertNode(ctx, tx, n, now); err != nil {
			return models.ApplyResult{}, err
		}
	}
	for _, id := range diff.Nodes.Delete {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kg_nodes WHERE id = $1`, id); err != nil {
			return models.ApplyResult{}, fmt.Errorf("deleting node %s: %w", id, err)
		}
	}

	for _, e := range append(append([]models.Edge{}, diff.Edges.Add...), diff.Edges.Update...) {
		if err := upsertEdge(ctx, tx, e, now); err != nil {
			return models.ApplyResult{}, err
		}
	}
	for _, e := range diff.Edges.Delete {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM kg_edges WHERE from_id = $1 AND to_id = $2 AND edge_type = $3
		`, e.From, e.To, string(e.Type)); err != nil {
			return models.ApplyResult{}, fmt.Errorf("deleting edge %s->%s: %w", e.From, e.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.ApplyResult{}, fmt.Errorf("committing apply diff: %w", err)
	}

	return models.ApplyResult{Counts: diff.Counts()}, nil
}

func upsertNode(ctx context.Context, tx *sql.Tx, n models.Node, now time.Time) error {
	props, err := json.Marshal(n.Properties)
	if err != nil {
		return fmt.Errorf("marshaling properties for node %s: %w", n.ID, err)
	}
	var provenance []byte
	if n.Provenance != nil {
		provenance, err = json.Marshal(n.Provenance)
		if err != nil {
			return fmt.Errorf("marshaling provenance for node %s: %w", n.ID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kg_nodes (id, label, properties, provenance, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label, properties = EXCLUDED.properties,
			provenance = EXCLUDED.provenance, updated_at = EXCLUDED.updated_at
	`, n.ID, string(n.Label), props, provenance, now)
	if err != nil {
		return fmt.Errorf("upserting node %s: %w", n.ID, err)
	}
	return nil
}

func upsertEdge(ctx context.Context, tx *sql.Tx, e models.Edge, now time.Time) error {
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("marshaling properties for edge %s->%s: %w", e.From, e.To, err)
	}
	var provenance []byte
	if e.Provenance != nil {
		provenance, err = json.Marshal(e.Provenance)
		if err != nil {
			return fmt.Errorf("marshaling provenance for edge %s->%s: %w", e.From, e.To, err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kg_edges (from_id, to_id, edge_type, properties, provenance, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (from_id, to_id, edge_type) DO UPDATE SET
			properties = EXCLUDED.properties, provenance = EXCLUDED.provenance,
			updated_at = EXCLUDED.updated_at
	`, e.From, e.To, string(e.Type), props, provenance, now)
	if err != nil {
		return fmt.Errorf("upserting edge %s->%s: %w", e.From, e.To, err)
	}
	return nil
}

// GetNode fetches a single node by ID.
func (g *GraphStore) GetNode(ctx context.Context, id string) (models.Node, bool, error) {
	row := g.db.QueryRowContext(ctx, `SELECT id, label, properties, provenance FROM kg_nodes WHERE id = $1`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Node{}, false, nil
	}
	if err != nil {
		return models.Node{}, false, err
	}
	return n, true, nil
}

// GetEdge fetches a single edge by its composite key.
func (g *GraphStore) GetEdge(ctx context.Context, from, to string, edgeType models.EdgeType) (models.Edge, bool, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT from_id, to_id, edge_type, properties, provenance
		FROM kg_edges WHERE from_id = $1 AND to_id = $2 AND edge_type = $3
	`, from, to, string(edgeType))
	e, err := scanEdge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Edge{}, false, nil
	}
	if err != nil {
		return models.Edge{}, false, err
	}
	return e, true, nil
}

// QueryNodes does a case-insensitive substring match against the node's
// "name" property (and falls back to the node ID): the graph store's
// free-text query.
func (g *GraphStore) QueryNodes(ctx context.Context, text string, limit int) ([]models.Node, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT id, label, properties, provenance FROM kg_nodes
		WHERE properties->>'name' ILIKE $1 OR id ILIKE $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, "%"+text+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// Neighbors returns the nodes and edges directly connected to id via
// edgeType in either direction (any edge type if edgeType is empty),
// backing the supervisor's fractal navigation commands.
func (g *GraphStore) Neighbors(ctx context.Context, id string, edgeType models.EdgeType) ([]models.Node, []models.Edge, error) {
	var edgeRows *sql.Rows
	var err error
	if edgeType != "" {
		edgeRows, err = g.db.QueryContext(ctx, `
			SELECT from_id, to_id, edge_type, properties, provenance FROM kg_edges
			WHERE (from_id = $1 OR to_id = $1) AND edge_type = $2
		`, id, string(edgeType))
	} else {
		edgeRows, err = g.db.QueryContext(ctx, `
			SELECT from_id, to_id, edge_type, properties, provenance FROM kg_edges
			WHERE from_id = $1 OR to_id = $1
		`, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying neighbor edges: %w", err)
	}
	defer edgeRows.Close()

	edges, err := scanEdges(edgeRows)
	if err != nil {
		return nil, nil, err
	}

	neighborIDs := make([]string, 0, len(edges))
	seen := make(map[string]bool)
	for _, e := range edges {
		other := e.To
		if e.To == id {
			other = e.From
		}
		if !seen[other] {
			seen[other] = true
			neighborIDs = append(neighborIDs, other)
		}
	}
	if len(neighborIDs) == 0 {
		return nil, edges, nil
	}

	placeholders := make([]string, len(neighborIDs))
	args := make([]interface{}, len(neighborIDs))
	for i, nid := range neighborIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = nid
	}
	nodeRows, err := g.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, label, properties, provenance FROM kg_nodes WHERE id IN (%s)
	`, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying neighbor nodes: %w", err)
	}
	defer nodeRows.Close()

	nodes, err := scanNodes(nodeRows)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

type nodeScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row nodeScanner) (models.Node, error) {
	var n models.Node
	var label string
	var props, provenance []byte
	if err := row.Scan(&n.ID, &label, &props, &provenance); err != nil {
		return models.Node{}, err
	}
	n.Label = models.NodeKind(label)
	if len(props) > 0 {
		if err := json.Unmarshal(props, &n.Properties); err != nil {
			return models.Node{}, fmt.Errorf("unmarshaling node properties: %w", err)
		}
	}
	if len(provenance) > 0 {
		var p models.Provenance
		if err := json.Unmarshal(provenance, &p); err != nil {
			return models.Node{}, fmt.Errorf("unmarshaling node provenance: %w", err)
		}
		n.Provenance = &p
	}
	return n, nil
}

func scanNodes(rows *sql.Rows) ([]models.Node, error) {
	var nodes []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func scanEdge(row nodeScanner) (models.Edge, error) {
	var e models.Edge
	var edgeType string
	var props, provenance []byte
	if err := row.Scan(&e.From, &e.To, &edgeType, &props, &provenance); err != nil {
		return models.Edge{}, err
	}
	e.Type = models.EdgeType(edgeType)
	if len(props) > 0 {
		if err := json.Unmarshal(props, &e.Properties); err != nil {
			return models.Edge{}, fmt.Errorf("unmarshaling edge properties: %w", err)
		}
	}
	if len(provenance) > 0 {
		var p models.Provenance
		if err := json.Unmarshal(provenance, &p); err != nil {
			return models.Edge{}, fmt.Errorf("unmarshaling edge provenance: %w", err)
		}
		e.Provenance = &p
	}
	return e, nil
}

func scanEdges(rows *sql.Rows) ([]models.Edge, error) {
	var edges []models.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
