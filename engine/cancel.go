package engine

import "sync/atomic"

// CancelToken is the cancellation token Design Notes calls for in place
// of the original's global `mxsolver` pointer consulted from a signal
// handler: an atomic flag installed once at the top level and checked
// at the oracle-call boundary, never touched concurrently with the
// search loop itself except by the signal handler that sets it.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns an uncancelled token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel marks the token cancelled. Safe to call from a signal handler.
func (c *CancelToken) Cancel() { c.flag.Store(true) }

// Cancelled reports whether Cancel has been called. A nil receiver is
// treated as never cancelled, so callers that don't care about
// cancellation can pass a nil *CancelToken everywhere.
func (c *CancelToken) Cancelled() bool {
	return c != nil && c.flag.Load()
}

// firstToken returns the first non-nil token in tokens, or nil.
func firstToken(tokens []*CancelToken) *CancelToken {
	for _, t := range tokens {
		if t != nil {
			return t
		}
	}
	return nil
}
