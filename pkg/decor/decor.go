// Package decor paints the procedural card backgrounds. Every entry point is a
// pure function of its arguments: the same surface size and phase always
// produce the same pixels, so any frame of a loop can be re-rendered on demand.
//
// Animated overlays only use periodic functions of 2π·k·phase with integer k,
// or drift that wraps around the surface, so phase 1 looks like phase 0 and an
// exported loop closes without a visible jump.
package decor

import (
	"math"
	"math/rand/v2"

	"github.com/fogleman/gg"
)

// StaticFunc paints a still background onto dc.
type StaticFunc func(dc *gg.Context, w, h float64) error

// Func paints a background plus its overlay at phase ∈ [0,1).
type Func func(dc *gg.Context, w, h, phase float64) error

// Set groups the three entry points of one decoration.
type Set struct {
	Static  StaticFunc
	Preview Func
	Export  Func
}

// Animate builds a Set whose animated variants paint the static background
// followed by an overlay. A nil export overlay reuses the preview overlay.
func Animate(static func(dc *gg.Context, w, h float64), preview, export func(dc *gg.Context, w, h, phase float64)) Set {
	if export == nil {
		export = preview
	}
	return Set{
		Static: func(dc *gg.Context, w, h float64) error {
			static(dc, w, h)
			return nil
		},
		Preview: func(dc *gg.Context, w, h, phase float64) error {
			static(dc, w, h)
			dc.Push()
			preview(dc, w, h, phase)
			dc.Pop()
			return nil
		},
		Export: func(dc *gg.Context, w, h, phase float64) error {
			static(dc, w, h)
			dc.Push()
			export(dc, w, h, phase)
			dc.Pop()
			return nil
		},
	}
}

// GradientSet is the fallback decoration: a two-stop vertical linear gradient
// with no overlay.
func GradientSet(top, bottom string) Set {
	paint := func(dc *gg.Context, w, h float64) {
		Gradient(dc, w, h, Hex(top), Hex(bottom))
	}
	return Animate(paint, func(*gg.Context, float64, float64, float64) {}, nil)
}

// unit converts a length laid out on the 400px base width to a surface of
// width w.
func unit(w float64) float64 { return w / 400 }

// wave returns sin(2π·k·phase + offset); k must be an integer for the loop to close.
func wave(phase float64, k int, offset float64) float64 {
	return math.Sin(2*math.Pi*float64(k)*phase + offset)
}

// seeded returns a generator that yields the same sequence on every call with
// the same seed.
func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
