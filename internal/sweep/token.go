package sweep

import "sync/atomic"

// Token is a level-triggered cancellation flag shared between the sweep worker
// and its caller. Once set it stays set until the caller clears it; the engine
// only ever reads it. Checked at every loop-iteration boundary and inside every
// wait, so cancellation is cooperative, never preemptive.
type Token struct {
	set atomic.Bool
}

func NewToken() *Token { return &Token{} }

// Set requests cancellation.
func (t *Token) Set() { t.set.Store(true) }

// Clear re-arms the token for a new run.
func (t *Token) Clear() { t.set.Store(false) }

// IsSet reports whether cancellation has been requested.
func (t *Token) IsSet() bool { return t.set.Load() }
