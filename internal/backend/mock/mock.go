// Package mock provides a test double for backend.Responder.
package mock

import (
	"context"
	"sync"

	"switchboard/internal/backend"
)

// Responder is a configurable mock implementation of [backend.Responder].
//
// Safe for concurrent use.
type Responder struct {
	mu sync.Mutex

	// Reply is returned by Answer when Err is nil.
	Reply string

	// Err, when non-nil, is returned by Answer.
	Err error

	// Queries records every query passed to Answer, in order.
	Queries []backend.Query
}

// Compile-time interface assertion.
var _ backend.Responder = (*Responder)(nil)

// Answer implements backend.Responder.
func (r *Responder) Answer(_ context.Context, q backend.Query) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Queries = append(r.Queries, q)
	if r.Err != nil {
		return "", r.Err
	}
	return r.Reply, nil
}

// CallCount returns the number of Answer invocations so far.
func (r *Responder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Queries)
}
