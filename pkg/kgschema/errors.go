package kgschema

import "errors"

var (
	// ErrUnknownKind indicates a node kind not in AllNodeKinds.
	ErrUnknownKind = errors.New("kgschema: unknown node kind")

	// ErrMalformedID indicates an ID that does not match PREFIX:uuid.
	ErrMalformedID = errors.New("kgschema: malformed id")

	// ErrUnknownPrefix indicates an ID prefix with no registered node kind.
	ErrUnknownPrefix = errors.New("kgschema: unknown id prefix")
)
