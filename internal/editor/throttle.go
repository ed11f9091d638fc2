package editor

import (
	"sync"
	"time"
)

// Outbound emission rates. Cursor moves are frequent and cheap; selections
// change less often and are gated coarser. Both caps hold regardless of how
// fast the local caret moves.
const (
	CursorEmitInterval    = 50 * time.Millisecond
	SelectionEmitInterval = 100 * time.Millisecond
)

// Throttle is a minimum-interval gate for outbound presence emissions.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottle builds a gate allowing at most one emission per interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an emission may happen now, and if so consumes the
// current interval window.
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
