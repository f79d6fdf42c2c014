// Package linker normalizes extracted entity names, resolves them to
// canonical node IDs (existing store match, intra-batch dedupe, or a new
// ID), and rewrites relation endpoints accordingly.
package linker

import (
	"context"
	"strings"

	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/kgschema"
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/validation"
)

// NormalizeName lowercases and collapses whitespace/hyphens to underscores
// for matching.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.Join(strings.Fields(name), "_")
	return name
}

// EntityLookup resolves a normalized entity name to an existing canonical
// node ID in the store. Looking it up is best-effort: a failing or absent
// store must never block linking.
type EntityLookup func(ctx context.Context, normalizedName string) (id string, found bool)

// StoreLookup builds an EntityLookup from a kgdiff.Store by checking
// whether a node with that normalized name as its ID already exists.
// Production callers that index entities by name rather than ID should
// supply their own EntityLookup instead.
func StoreLookup(store kgdiff.Store) EntityLookup {
	return func(ctx context.Context, normalizedName string) (string, bool) {
		if store == nil {
			return "", false
		}
		node, ok, err := store.GetNode(ctx, normalizedName)
		if err != nil || !ok {
			return "", false
		}
		return node.ID, true
	}
}

// Link assigns canonical IDs to a batch of extracted entities — via store
// match, then intra-batch name dedupe, then a freshly generated ID — and
// rewrites relation from/to references to the canonical IDs.
func Link(ctx context.Context, in validation.ExtractorOutput, lookup EntityLookup) (validation.LinkerOutput, error) {
	out := validation.LinkerOutput{
		Entities:     make(map[string]validation.ExtractedEntity),
		CanonicalIDs: make(map[string]string),
	}

	seenByName := make(map[string]string) // normalized name -> canonical id
	nameToCanonical := make(map[string]string)

	for _, e := range in.Entities {
		normalized := NormalizeName(e.Name)

		var canonical string
		if lookup != nil && normalized != "" {
			if id, found := lookup(ctx, normalized); found {
				canonical = id
			}
		}
		if canonical == "" && normalized != "" {
			if id, found := seenByName[normalized]; found {
				canonical = id
			}
		}
		if canonical == "" {
			id, err := kgschema.GenerateID(e.Kind)
			if err != nil {
				id, err = kgschema.GenerateID(models.NodeKindConcept)
				if err != nil {
					return validation.LinkerOutput{}, err
				}
			}
			canonical = id
		}

		if normalized != "" {
			seenByName[normalized] = canonical
		}
		nameToCanonical[e.Name] = canonical
		out.CanonicalIDs[canonical] = canonical
		out.Entities[canonical] = e
	}

	for _, r := range in.Relations {
		from, ok := nameToCanonical[r.FromName]
		if !ok {
			from = r.FromName
		}
		to, ok := nameToCanonical[r.ToName]
		if !ok {
			to = r.ToName
		}
		out.Relations = append(out.Relations, validation.LinkedRelation{From: from, To: to, Type: r.Type})
	}

	return validation.ValidateLinkerOutput(out), nil
}
