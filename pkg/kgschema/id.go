package kgschema

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cmeth990/kgctl/pkg/models"
)

// prefixByKind and kindByPrefix hold the PREFIX:uuid scheme used throughout
// the graph.
var prefixByKind = map[models.NodeKind]string{
	models.NodeKindConcept:   "C",
	models.NodeKindClaim:     "CL",
	models.NodeKindEvidence:  "E",
	models.NodeKindSource:    "SRC",
	models.NodeKindMethod:    "M",
	models.NodeKindScope:     "S",
	models.NodeKindPosition:  "PO",
	models.NodeKindHypernode: "HN",
	models.NodeKindProcess:   "P",
}

var kindByPrefix = func() map[string]models.NodeKind {
	m := make(map[string]models.NodeKind, len(prefixByKind))
	for kind, prefix := range prefixByKind {
		m[prefix] = kind
	}
	return m
}()

// GenerateID returns a new "PREFIX:uuid" identifier for the given node kind.
func GenerateID(kind models.NodeKind) (string, error) {
	prefix, ok := prefixByKind[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	return prefix + ":" + uuid.NewString(), nil
}

// ValidateID reports whether id is syntactically a well-formed node ID: a
// known prefix, a colon, and a parseable UUID.
func ValidateID(id string) bool {
	_, err := KindOf(id)
	return err == nil
}

// KindOf recovers the node kind encoded in id's prefix. It returns
// ErrMalformedID if id has no "PREFIX:" structure, ErrUnknownPrefix if the
// prefix isn't registered, and nil on success.
func KindOf(id string) (models.NodeKind, error) {
	prefix, rest, found := strings.Cut(id, ":")
	if !found || prefix == "" || rest == "" {
		return "", ErrMalformedID
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", ErrMalformedID
	}
	kind, ok := kindByPrefix[prefix]
	if !ok {
		return "", ErrUnknownPrefix
	}
	return kind, nil
}

// PrefixFor returns the ID prefix registered for kind, and whether it exists.
func PrefixFor(kind models.NodeKind) (string, bool) {
	p, ok := prefixByKind[kind]
	return p, ok
}
