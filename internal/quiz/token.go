package quiz

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Tracker detects stale quiz responses. Each new request begins a token
// derived from its target; only the most recent token is current. A
// response arriving for a superseded token is discarded by the caller, not
// applied. This is cooperative cancellation: the in-flight provider call
// itself is not aborted.
type Tracker struct {
	mu      sync.Mutex
	current string
	seq     atomic.Int64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin starts a new request for the given target ("summary" or a section
// index plus quiz type) and returns its token, superseding any in-flight
// request.
func (t *Tracker) Begin(target string) string {
	token := fmt.Sprintf("%s#%d", target, t.seq.Add(1))
	t.mu.Lock()
	t.current = token
	t.mu.Unlock()
	return token
}

// IsCurrent reports whether a token still identifies the active request.
func (t *Tracker) IsCurrent(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current == token
}
