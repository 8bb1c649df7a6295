// clock.go — Continuous-mode frame clock used by the live preview.
package anim

import "time"

// State is the run state of a continuous Clock.
type State int

const (
	Running State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "paused"
	}
	return "running"
}

// Clock advances a frame counter around a Loop, throttled to the loop's FPS
// regardless of how often Tick is called. A Clock is owned by a single driver
// and is not safe for concurrent use.
type Clock struct {
	loop  Loop
	frame int
	state State
	last  time.Time // zero until the first qualifying tick after a (re)start
}

// NewClock returns a running clock at frame 0.
func NewClock(loop Loop) *Clock {
	return &Clock{loop: loop.Normalize(), state: Running}
}

// Loop returns the clock's loop definition.
func (c *Clock) Loop() Loop { return c.loop }

// Frame returns the current frame index.
func (c *Clock) Frame() int { return c.frame }

// Phase returns the phase of the current frame.
func (c *Clock) Phase() float64 { return c.loop.Phase(c.frame) }

// State returns Running or Paused.
func (c *Clock) State() State { return c.state }

// Running reports whether the clock advances on ticks.
func (c *Clock) Running() bool { return c.state == Running }

// SetFrame jumps to frame, wrapped into the loop.
func (c *Clock) SetFrame(frame int) {
	c.frame = c.loop.Wrap(frame)
}

// Pause stops advancement. The frame index is preserved.
func (c *Clock) Pause() {
	c.state = Paused
}

// Resume restarts advancement from the current frame. The next Tick qualifies
// immediately.
func (c *Clock) Resume() {
	if c.state == Running {
		return
	}
	c.state = Running
	c.last = time.Time{}
}

// Toggle flips between Running and Paused and returns the new state.
func (c *Clock) Toggle() State {
	if c.state == Running {
		c.Pause()
	} else {
		c.Resume()
	}
	return c.state
}

// Restart forgets the last advance time so the next Tick qualifies at once.
func (c *Clock) Restart() {
	c.last = time.Time{}
}

// Advance moves one frame forward unconditionally, wrapping at the loop end.
func (c *Clock) Advance() int {
	c.frame = (c.frame + 1) % c.loop.Frames
	return c.frame
}

// Tick advances one frame if the clock is running and at least one frame
// interval has elapsed since the last advance. It reports whether it advanced.
//
// The advance time moves by whole intervals so a refresh rate that does not
// divide the interval still averages out to the loop FPS. When Tick falls more
// than one interval behind, the clock resyncs to now instead of catching up.
func (c *Clock) Tick(now time.Time) bool {
	if c.state != Running {
		return false
	}
	interval := c.loop.FrameInterval()
	if c.last.IsZero() {
		c.Advance()
		c.last = now
		return true
	}
	elapsed := now.Sub(c.last)
	if elapsed < interval {
		return false
	}
	c.Advance()
	if elapsed >= 2*interval {
		c.last = now
	} else {
		c.last = c.last.Add(interval)
	}
	return true
}
