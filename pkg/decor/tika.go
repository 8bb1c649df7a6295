// tika.go — Traditional Tika: crimson gradient, mandala and a marigold ring.
package decor

import (
	"math"

	"github.com/fogleman/gg"
)

// Tika is the dashain2 decoration.
var Tika = Animate(tikaStatic, tikaPreview, tikaExport)

func tikaStatic(dc *gg.Context, w, h float64) {
	verticalGradient(dc, w, h,
		stop{0, Hex("#dc143c")},
		stop{0.55, Hex("#e8413f")},
		stop{1, Hex("#ff6347")},
	)
	border(dc, w, h, w*0.04, max(w*0.01, 1), Hex("#ffd700b3"))
	border(dc, w, h, w*0.06, max(w*0.004, 1), Hex("#ffd70066"))
	glow(dc, w/2, h*0.3, w*0.3, Hex("#ffd70040"))
	mandala(dc, w/2, h*0.3, w*0.08, 12, 0, Hex("#ffd700cc"), Hex("#fff8dc"))
	tikaMarigolds(dc, w, h, 1)
}

func tikaMarigolds(dc *gg.Context, w, h, scale float64) {
	for i := range 8 {
		a := float64(i) * 2 * math.Pi / 8
		x := w/2 + math.Cos(a)*w*0.35
		y := h*0.55 + math.Sin(a)*h*0.3
		marigold(dc, x, y, w*0.035, scale)
	}
}

func tikaPreview(dc *gg.Context, w, h, phase float64) {
	rotation := phase * 2 * math.Pi
	mandala(dc, w/2, h*0.3, w*0.08, 12, rotation, Hex("#ffd700"), Hex("#fff8dc"))
	tikaMarigolds(dc, w, h, 1+0.2*wave(phase, 2, 0))
}

func tikaExport(dc *gg.Context, w, h, phase float64) {
	tikaPreview(dc, w, h, phase)
	rng := seeded(2)
	for i := range 14 {
		x := w * (0.08 + 0.84*rng.Float64())
		y := h * (0.08 + 0.84*rng.Float64())
		a := 0.6 * math.Max(0, wave(phase, 3, float64(i)))
		sparkle(dc, x, y, w*0.015, a)
	}
}
