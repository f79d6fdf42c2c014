// Package models holds the shared data types for the knowledge graph: nodes,
// edges, diffs, changelog entries, task records, conversation checkpoints,
// and cost records. These are plain data structures; behavior lives in the
// packages that operate on them (kgschema, kgdiff, validation, ...).
package models

import "time"

// NodeKind enumerates the polymorphic node labels.
type NodeKind string

// Node kinds and their ID prefixes.
const (
	NodeKindConcept   NodeKind = "Concept"
	NodeKindClaim     NodeKind = "Claim"
	NodeKindEvidence  NodeKind = "Evidence"
	NodeKindSource    NodeKind = "Source"
	NodeKindMethod    NodeKind = "Method"
	NodeKindScope     NodeKind = "Scope"
	NodeKindPosition  NodeKind = "Position"
	NodeKindHypernode NodeKind = "Hypernode"
	NodeKindProcess   NodeKind = "Process"
)

// AllNodeKinds lists every recognized node kind, in ID-prefix order.
var AllNodeKinds = []NodeKind{
	NodeKindConcept,
	NodeKindClaim,
	NodeKindEvidence,
	NodeKindSource,
	NodeKindMethod,
	NodeKindScope,
	NodeKindPosition,
	NodeKindHypernode,
	NodeKindProcess,
}

// Scale is the Hypernode/Concept fractal scale tag.
type Scale string

// Recognized scales.
const (
	ScaleMicro Scale = "micro"
	ScaleMeso  Scale = "meso"
	ScaleMacro Scale = "macro"
)

// ORPRole is the Object/Relation/Process tag a Concept plays in the taxonomy.
type ORPRole string

// Recognized ORP roles.
const (
	ORPRoleObject   ORPRole = "Object"
	ORPRoleRelation ORPRole = "Relation"
	ORPRoleProcess  ORPRole = "Process"
)

// ConfidenceTier is the derived claim tier.
type ConfidenceTier string

// Recognized confidence tiers.
const (
	TierProvisional ConfidenceTier = "Provisional"
	TierSupported   ConfidenceTier = "Supported"
	TierAudited     ConfidenceTier = "Audited"
)

// Provenance is attached to every node and edge.
type Provenance struct {
	SourceAgent     string     `json:"source_agent"`
	SourceDocument  string     `json:"source_document,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Confidence      float64    `json:"confidence"`
	Reasoning       string     `json:"reasoning,omitempty"`
	Evidence        []string   `json:"evidence,omitempty"`
	LastVerifiedAt  *time.Time `json:"last_verified_at,omitempty"`
	EvidenceSummary string     `json:"evidence_summary,omitempty"`
}

// Node is a polymorphic graph node record.
type Node struct {
	ID         string                 `json:"id"`
	Label      NodeKind               `json:"label"`
	Properties map[string]interface{} `json:"properties"`
	Provenance *Provenance            `json:"_provenance,omitempty"`
}

// Clone returns a deep-ish copy of the node (properties map is copied one level deep).
func (n Node) Clone() Node {
	clone := n
	clone.Properties = make(map[string]interface{}, len(n.Properties))
	for k, v := range n.Properties {
		clone.Properties[k] = v
	}
	if n.Provenance != nil {
		p := *n.Provenance
		clone.Provenance = &p
	}
	return clone
}
