// Package kgschema is the graph's schema and ID service: node kind / edge
// type catalogs, the PREFIX:uuid ID scheme, and the derived claim-tiering
// formulas that annotate Claims at write time.
package kgschema

import "github.com/cmeth990/kgctl/pkg/models"

// Bounds referenced by validation.
const (
	MaxPropertyValueLength = 4000
	MaxEntityProperties    = 40
	MaxNodesAdd            = 300
	MaxEdgesAdd            = 600
	MaxNodesUpdate         = 300
	MaxEdgesUpdate         = 600
	MaxNodesDelete         = 100
	MaxEdgesDelete         = 200
	MaxSourcesPerDomain    = 50
)

// nodeKindSet is the node-kind allowlist, derived from models.AllNodeKinds.
var nodeKindSet = func() map[models.NodeKind]bool {
	m := make(map[models.NodeKind]bool, len(models.AllNodeKinds))
	for _, k := range models.AllNodeKinds {
		m[k] = true
	}
	return m
}()

// IsNodeKind reports whether kind is in the node-kind allowlist.
func IsNodeKind(kind models.NodeKind) bool {
	return nodeKindSet[kind]
}

// edgeTypeSet is the edge-type allowlist, derived from models.AllEdgeTypes.
var edgeTypeSet = func() map[models.EdgeType]bool {
	m := make(map[models.EdgeType]bool, len(models.AllEdgeTypes))
	for _, t := range models.AllEdgeTypes {
		m[t] = true
	}
	return m
}()

// IsEdgeType reports whether t is in the edge-type allowlist.
func IsEdgeType(t models.EdgeType) bool {
	return edgeTypeSet[t]
}

// kindPair is an unordered key for the legal from/to kind table.
type kindPair struct {
	from models.NodeKind
	to   models.NodeKind
}

// legalEndpoints lists, for each edge type, the node kinds allowed at each
// end. An empty slice means "any node kind" (used for the broad relational
// types like RELATED_TO and CONTRADICTS).
var legalEndpoints = map[models.EdgeType]struct {
	From []models.NodeKind
	To   []models.NodeKind
}{
	models.EdgeDefines:  {From: []models.NodeKind{models.NodeKindSource, models.NodeKindEvidence}, To: []models.NodeKind{models.NodeKindConcept}},
	models.EdgeSupports: {From: []models.NodeKind{models.NodeKindEvidence, models.NodeKindSource}, To: []models.NodeKind{models.NodeKindClaim, models.NodeKindConcept}},
	models.EdgeRefutes:  {From: []models.NodeKind{models.NodeKindEvidence, models.NodeKindSource}, To: []models.NodeKind{models.NodeKindClaim, models.NodeKindConcept}},
	models.EdgePrereq:   {From: []models.NodeKind{models.NodeKindConcept}, To: []models.NodeKind{models.NodeKindConcept}},
	models.EdgePartOf:   {From: nil, To: nil},
	models.EdgeIsA:      {From: []models.NodeKind{models.NodeKindConcept}, To: []models.NodeKind{models.NodeKindConcept}},
	models.EdgeRelatedTo: {From: nil, To: nil},
	models.EdgeContains: {From: []models.NodeKind{models.NodeKindHypernode}, To: nil},
	models.EdgeNestedIn: {From: nil, To: []models.NodeKind{models.NodeKindHypernode}},
	models.EdgeInputsTo: {From: nil, To: []models.NodeKind{models.NodeKindProcess}},
	models.EdgeOutputsFrom: {From: []models.NodeKind{models.NodeKindProcess}, To: nil},
	models.EdgeScalesTo: {From: []models.NodeKind{models.NodeKindConcept, models.NodeKindHypernode}, To: []models.NodeKind{models.NodeKindConcept, models.NodeKindHypernode}},
	models.EdgeMirrors:  {From: nil, To: nil},
	models.EdgeContradicts: {From: []models.NodeKind{models.NodeKindClaim}, To: []models.NodeKind{models.NodeKindClaim}},
	models.EdgeUnderScope: {From: nil, To: []models.NodeKind{models.NodeKindScope}},
}

func kindAllowed(allowed []models.NodeKind, kind models.NodeKind) bool {
	if allowed == nil {
		return true
	}
	for _, k := range allowed {
		if k == kind {
			return true
		}
	}
	return false
}

// LegalEndpoints reports whether an edge of type t may run from a node of
// kind "from" to a node of kind "to". Unknown edge types are always illegal.
func LegalEndpoints(t models.EdgeType, from, to models.NodeKind) bool {
	spec, ok := legalEndpoints[t]
	if !ok {
		return false
	}
	return kindAllowed(spec.From, from) && kindAllowed(spec.To, to)
}

// corePropertyNames lists properties every kind accepts regardless of label,
// on top of any kind-specific names in propertyNamesByKind.
var corePropertyNames = map[string]bool{
	"id": true, "name": true, "label": true, "description": true,
	"created_at": true, "updated_at": true,
}

// propertyNamesByKind lists the documented, kind-specific property names. It
// is advisory for validation (pkg/validation may allow additional
// caller-supplied keys up to MaxEntityProperties); it exists primarily so
// the writer and linker agree on a vocabulary.
var propertyNamesByKind = map[models.NodeKind][]string{
	models.NodeKindConcept: {
		"definition", "category", "upper_ontology", "orp_role", "scale",
		"aliases", "domain",
	},
	models.NodeKindClaim: {
		"statement", "confidence", "confidence_tier", "p_error",
		"source_id", "evidence_ids", "evidence_summary",
	},
	models.NodeKindEvidence: {
		"summary", "evidence_type", "strength", "source_id",
	},
	models.NodeKindSource: {
		"url", "title", "author", "published_at", "quality_score", "cost",
		"source_type",
	},
	models.NodeKindMethod: {
		"summary", "method_type",
	},
	models.NodeKindScope: {
		"constraints", "applies_to",
	},
	models.NodeKindPosition: {
		"stance", "holder",
	},
	models.NodeKindHypernode: {
		"scale", "member_count", "cluster_hint",
	},
	models.NodeKindProcess: {
		"summary", "inputs", "outputs",
	},
}

// PropertyNames returns the documented property-name vocabulary for kind,
// including the kind-agnostic core names.
func PropertyNames(kind models.NodeKind) []string {
	names := make([]string, 0, len(corePropertyNames)+len(propertyNamesByKind[kind]))
	for n := range corePropertyNames {
		names = append(names, n)
	}
	names = append(names, propertyNamesByKind[kind]...)
	return names
}
