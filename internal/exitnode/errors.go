package exitnode

import "errors"

// Domain lookup failures, distinct from transport errors produced by the
// netbird package. Callers match them with errors.Is.
var (
	ErrPeerNotFound     = errors.New("peer not found")
	ErrExitNodeNotFound = errors.New("exit node not found")
	ErrAmbiguousPeer    = errors.New("multiple peers share that hostname")
	ErrNoDefaultRoute   = errors.New("no exit-node route exists for that peer")
)
