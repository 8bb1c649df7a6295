// Package anim provides the animation time model shared by the live preview
// and the export pipeline: a fixed-length loop of logical frames and the clock
// that walks it.
package anim

import (
	"iter"
	"time"
)

// Defaults match a three second loop at 15 logical frames per second.
const (
	DefaultFrames = 45
	DefaultFPS    = 15
)

// Loop defines the length and cadence of one animation loop. Preview and export
// must use the same Loop so both reproduce the same motion.
type Loop struct {
	Frames int // Frames per loop (default: 45)
	FPS    int // Logical frames per second (default: 15)
}

// DefaultLoop returns the 45 frame / 15 fps loop.
func DefaultLoop() Loop {
	return Loop{Frames: DefaultFrames, FPS: DefaultFPS}
}

// Normalize replaces non-positive fields with defaults.
func (l Loop) Normalize() Loop {
	if l.Frames <= 0 {
		l.Frames = DefaultFrames
	}
	if l.FPS <= 0 {
		l.FPS = DefaultFPS
	}
	return l
}

// Phase maps a frame index to its position in [0,1). Indices outside the loop
// are wrapped first.
func (l Loop) Phase(frame int) float64 {
	l = l.Normalize()
	return float64(l.Wrap(frame)) / float64(l.Frames)
}

// Wrap folds any integer into [0, Frames).
func (l Loop) Wrap(frame int) int {
	l = l.Normalize()
	frame %= l.Frames
	if frame < 0 {
		frame += l.Frames
	}
	return frame
}

// FrameInterval is the wall-clock time between two logical frames.
func (l Loop) FrameInterval() time.Duration {
	l = l.Normalize()
	return time.Second / time.Duration(l.FPS)
}

// FrameDelay is the per-frame display duration written into exported
// animations, rounded to whole milliseconds (67ms at 15 fps).
func (l Loop) FrameDelay() time.Duration {
	return l.FrameInterval().Round(time.Millisecond)
}

// Duration is the length of one full loop.
func (l Loop) Duration() time.Duration {
	l = l.Normalize()
	return time.Duration(l.Frames) * l.FrameInterval()
}

// Enumerate yields every (frame, phase) pair of one loop exactly once, in
// increasing frame order, with no wraparound.
func (l Loop) Enumerate() iter.Seq2[int, float64] {
	l = l.Normalize()
	return func(yield func(int, float64) bool) {
		for i := range l.Frames {
			if !yield(i, float64(i)/float64(l.Frames)) {
				return
			}
		}
	}
}
