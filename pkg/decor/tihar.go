// tihar.go — Tihar Lights: dusk gradient, star field and a row of diyas.
package decor

import (
	"github.com/fogleman/gg"
)

// Tihar is the tihar1 decoration.
var Tihar = Animate(tiharStatic, tiharPreview, tiharExport)

const tiharStars = 24

func tiharStatic(dc *gg.Context, w, h float64) {
	verticalGradient(dc, w, h,
		stop{0, Hex("#4b1d52")},
		stop{0.45, Hex("#ff8c00")},
		stop{1, Hex("#ffd700")},
	)
	tiharStarField(dc, w, h, 0, false)
	for i, x := range tiharDiyaSlots(w) {
		diya(dc, x, h*0.9, w*0.045, 1+0.05*float64(i%2))
	}
}

func tiharDiyaSlots(w float64) []float64 {
	return []float64{w * 0.12, w * 0.31, w * 0.5, w * 0.69, w * 0.88}
}

// tiharStarField places stars from a fixed seed; when twinkle is set their
// brightness follows the phase.
func tiharStarField(dc *gg.Context, w, h, phase float64, twinkle bool) {
	rng := seeded(1)
	for i := range tiharStars {
		x := w * rng.Float64()
		y := h * 0.45 * rng.Float64()
		r := w * (0.004 + 0.008*rng.Float64())
		alpha := 0.7
		if twinkle {
			alpha = 0.55 + 0.45*wave(phase, 2, float64(i)*0.7)
		}
		star(dc, x, y, r*2, r*0.8, 5, 0, Alpha(Hex("#fffacd"), alpha))
	}
}

func tiharPreview(dc *gg.Context, w, h, phase float64) {
	tiharStarField(dc, w, h, phase, true)
	for i, x := range tiharDiyaSlots(w) {
		flicker := 1 + 0.15*wave(phase, 6, float64(i)*1.3)
		diya(dc, x, h*0.9, w*0.045, flicker)
	}
}

func tiharExport(dc *gg.Context, w, h, phase float64) {
	tiharPreview(dc, w, h, phase)
	for i, x := range []float64{w * 0.2, w * 0.8} {
		sway := 0.12 * wave(phase, 1, float64(i)*3.14)
		lantern(dc, x, 0, w*0.06, sway)
	}
}
