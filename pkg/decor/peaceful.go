// peaceful.go — Peaceful Blessings: quiet silver gradient with a glowing emblem.
package decor

import (
	"github.com/fogleman/gg"
)

// Peaceful is the dashain4 decoration.
var Peaceful = Animate(peacefulStatic, peacefulPreview, peacefulExport)

func peacefulStatic(dc *gg.Context, w, h float64) {
	verticalGradient(dc, w, h,
		stop{0, Hex("#f8f9fa")},
		stop{0.3, Hex("#f1f3f4")},
		stop{0.7, Hex("#e8eaed")},
		stop{1, Hex("#dadce0")},
	)
	emblem(dc, w/2, h*0.35, w*0.12, Alpha(Hex("#6c757d"), 0.15))
	u := unit(w)
	border(dc, w, h, w*0.05, 2*u, Hex("#6c757d33"), 10*u, 10*u)

	petal := Hex("#f4a7b966")
	s := w * 0.08
	lotus(dc, w*0.1, h*0.1, s, petal)
	lotus(dc, w*0.9, h*0.1, s, petal)
	lotus(dc, w*0.1, h*0.9, s, petal)
	lotus(dc, w*0.9, h*0.9, s, petal)
}

func peacefulPreview(dc *gg.Context, w, h, phase float64) {
	intensity := 0.05 + 0.03*wave(phase, 1, 0)
	glow(dc, w/2, h*0.35, w*0.22, Alpha(Hex("#dc3545"), intensity*2))
	emblem(dc, w/2, h*0.35, w*0.12, Alpha(Hex("#dc3545"), intensity*4))

	u := unit(w)
	for i := range 3 {
		fi := float64(i)
		x := w*(0.3+fi*0.2) + 20*u*wave(phase, 1, fi)
		y := h * (0.7 + 0.1*wave(phase, 1, fi*0.7+1))
		alpha := 0.1 + 0.05*wave(phase, 1, fi)
		dc.Push()
		dc.SetColor(Alpha(Hex("#ffc107"), alpha*3))
		dc.DrawCircle(x, y, 3*u)
		dc.Fill()
		dc.Pop()
	}
}

func peacefulExport(dc *gg.Context, w, h, phase float64) {
	peacefulPreview(dc, w, h, phase)
	for i := range 4 {
		fi := float64(i)
		a := 0.25 + 0.2*wave(phase, 2, fi*1.6)
		lotus(dc, w*(0.2+0.2*fi), h*0.82, w*0.05, Alpha(Hex("#f4a7b9"), a))
	}
}
