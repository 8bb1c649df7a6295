// durga.go — Durga's Grace: warm ivory light, trident and orbiting sparkles.
package decor

import (
	"math"

	"github.com/fogleman/gg"
)

// Durga is the dashain5 decoration.
var Durga = Animate(durgaStatic, durgaPreview, durgaExport)

func durgaStatic(dc *gg.Context, w, h float64) {
	verticalGradient(dc, w, h,
		stop{0, Hex("#fef9e7")},
		stop{0.6, Hex("#fbefd0")},
		stop{1, Hex("#f8f4e6")},
	)
	glow(dc, w/2, h*0.35, w*0.45, Hex("#ffb34780"))
	trident(dc, w/2, h*0.38, w*0.16, Hex("#b22222b3"))
	lotus(dc, w/2, h*0.62, w*0.12, Hex("#e75480b3"))
	border(dc, w, h, w*0.035, max(w*0.008, 1), Hex("#b8860b99"))
}

func durgaPreview(dc *gg.Context, w, h, phase float64) {
	cx, cy := w/2, h*0.35
	intensity := 0.08 + 0.04*wave(phase, 1, 0)
	glow(dc, cx, cy, w*0.4, Alpha(Hex("#ffd700"), intensity*3))

	radius := w * 0.3
	for i := range 8 {
		fi := float64(i)
		angle := fi*2*math.Pi/8 + phase*2*math.Pi
		r := radius*0.7 + 20*unit(w)*wave(phase, 2, fi)
		x := cx + math.Cos(angle)*r
		y := cy + math.Sin(angle)*r*0.6
		sparkle(dc, x, y, w*0.018, 0.2+0.15*wave(phase, 3, fi))
	}
}

func durgaExport(dc *gg.Context, w, h, phase float64) {
	durgaPreview(dc, w, h, phase)
	glowAlpha := 0.08 + 0.04*wave(phase, 1, math.Pi/2)
	glow(dc, w/2, h*0.38, w*0.2, Alpha(Hex("#ff4500"), glowAlpha*3))
	trident(dc, w/2, h*0.38, w*0.16, Alpha(Hex("#b22222"), 0.5+glowAlpha*3))

	cx, cy := w/2, h*0.35
	for ring := range 2 {
		n := 6 + ring*4
		orbit := w * (0.38 + 0.08*float64(ring))
		dir := 1.0
		if ring == 1 {
			dir = -1
		}
		for i := range n {
			fi := float64(i)
			angle := fi*2*math.Pi/float64(n) + dir*phase*2*math.Pi
			x := cx + math.Cos(angle)*orbit
			y := cy + math.Sin(angle)*orbit*0.7
			alpha := 0.25 + 0.15*wave(phase, 5, fi)
			dc.Push()
			dc.SetColor(Alpha(Hex("#ffd700"), alpha))
			dc.DrawCircle(x, y, 2.5)
			dc.Fill()
			dc.Pop()
		}
	}
}
