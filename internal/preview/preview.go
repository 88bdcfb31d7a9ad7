// Package preview implements last-request-wins admission for voice preview
// playback: each new preview supersedes any in-flight one, and a result
// arriving for a superseded request is discarded.
package preview

import "sync/atomic"

// Tracker hands out monotonically increasing generation tokens. A result is
// current only if its token still matches the latest issued one.
type Tracker struct {
	generation atomic.Uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin marks the start of a new preview and returns its token. Any earlier
// token becomes stale immediately.
func (t *Tracker) Begin() uint64 {
	return t.generation.Add(1)
}

// Current reports whether the token still identifies the latest preview.
func (t *Tracker) Current(token uint64) bool {
	return t.generation.Load() == token
}
