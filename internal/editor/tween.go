package editor

import (
	"math"
	"time"

	"github.com/codesync/codesync-server/internal/core"
)

// TweenDuration is the window over which a remote cursor glides from its
// last rendered position to a newly received one. Position updates arrive at
// a throttled rate coarser than the frame rate; interpolation fills the gap.
const TweenDuration = 100 * time.Millisecond

// remoteCursor is the per-participant animation state.
type remoteCursor struct {
	target       core.Position
	lastRendered core.Position
	start        time.Time
}

// newRemoteCursor starts a participant at its first reported position, with
// nothing to animate.
func newRemoteCursor(pos core.Position) *remoteCursor {
	return &remoteCursor{target: pos, lastRendered: pos}
}

// retarget points the cursor at a new position and restarts the tween clock.
func (c *remoteCursor) retarget(pos core.Position, now time.Time) {
	c.target = pos
	c.start = now
}

// renderedAt linearly interpolates the cursor position for the given time.
// done reports that the tween has finished and no further frame is needed.
func (c *remoteCursor) renderedAt(now time.Time) (pos core.Position, done bool) {
	if c.target == c.lastRendered {
		return c.target, true
	}

	progress := float64(now.Sub(c.start)) / float64(TweenDuration)
	if progress >= 1 {
		return c.target, true
	}
	if progress < 0 {
		progress = 0
	}

	return core.Position{
		Line:   lerp(c.lastRendered.Line, c.target.Line, progress),
		Column: lerp(c.lastRendered.Column, c.target.Column, progress),
	}, false
}

// settle marks the tween finished so the cursor stops driving frames.
func (c *remoteCursor) settle() {
	c.lastRendered = c.target
}

func lerp(from, to int, progress float64) int {
	return int(math.Round(float64(from) + float64(to-from)*progress))
}
