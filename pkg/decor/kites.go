// kites.go — Kite Flying Day: open sky, sun, drifting clouds and swaying kites.
package decor

import (
	"math"

	"github.com/fogleman/gg"
)

// Kites is the dashain3 decoration.
var Kites = Animate(kitesStatic, kitesPreview, kitesExport)

type kiteSpec struct {
	x, y, size float64 // relative to the surface
	body, tail string
}

var kiteSpecs = []kiteSpec{
	{0.22, 0.22, 0.07, "#ff4500", "#ffffff"},
	{0.72, 0.16, 0.06, "#8a2be2", "#ffd700"},
	{0.55, 0.36, 0.05, "#228b22", "#ffffff"},
}

func kitesSky(dc *gg.Context, w, h float64) {
	verticalGradient(dc, w, h,
		stop{0, Hex("#87ceeb")},
		stop{0.7, Hex("#b0e0e6")},
		stop{1, Hex("#98fb98")},
	)
	dc.Push()
	dc.SetColor(Hex("#6fbf73"))
	dc.DrawEllipse(w*0.25, h*1.02, w*0.6, h*0.12)
	dc.DrawEllipse(w*0.85, h*1.03, w*0.55, h*0.1)
	dc.Fill()
	dc.Pop()
}

func kitesStatic(dc *gg.Context, w, h float64) {
	kitesSky(dc, w, h)
	sun(dc, w*0.82, h*0.08, w*0.06, 12, 0)
	kitesClouds(dc, w, h, 0)
	kitesFlock(dc, w, h, 0, 0)
}

// kitesClouds drifts clouds across one full width per loop, drawing each twice
// so the wrap at the right edge is seamless.
func kitesClouds(dc *gg.Context, w, h, phase float64) {
	clouds := [][2]float64{{0.05, 0.12}, {0.45, 0.06}, {0.7, 0.28}}
	for _, c := range clouds {
		x := math.Mod(c[0]+phase, 1) * w
		cloud(dc, x, h*c[1], w*0.1)
		cloud(dc, x-w, h*c[1], w*0.1)
	}
}

// kitePos returns the center and sway of kite i.
func kitePos(i int, w, h, phase, amplitude float64) (cx, cy, sway float64) {
	k := kiteSpecs[i]
	sway = amplitude * wave(phase, 1, float64(i)*2.1)
	bob := amplitude * 40 * unit(w) * wave(phase, 2, float64(i))
	return w*k.x + sway*w*0.1, h*k.y + bob, sway
}

func kitesFlock(dc *gg.Context, w, h, phase, amplitude float64) {
	for i, k := range kiteSpecs {
		cx, cy, sway := kitePos(i, w, h, phase, amplitude)
		s := w * k.size
		kiteString(dc, cx, cy+s, w*(0.3+0.2*float64(i)), h*0.98, unit(w))
		kite(dc, cx, cy, s, sway, Hex(k.body), Hex(k.tail))
	}
}

func kitesPreview(dc *gg.Context, w, h, phase float64) {
	// Redraw the sky so the drifting clouds replace the static ones.
	kitesSky(dc, w, h)
	sun(dc, w*0.82, h*0.08, w*0.06, 12, phase*2*math.Pi/12)
	kitesClouds(dc, w, h, phase)
	kitesFlock(dc, w, h, phase, 0.15)
}

func kitesExport(dc *gg.Context, w, h, phase float64) {
	kitesPreview(dc, w, h, phase)
	u := unit(w)
	for i := range 5 {
		x, y := birdPos(i, w, h, phase)
		bird(dc, x, y, u)
		bird(dc, x-w, y, u)
	}
}

func birdPos(i int, w, h, phase float64) (x, y float64) {
	x = math.Mod(0.1+0.2*float64(i)+phase, 1) * w
	y = h*0.5 + 8*unit(w)*wave(phase, 3, float64(i))
	return x, y
}

func bird(dc *gg.Context, x, y, u float64) {
	dc.Push()
	dc.SetColor(Hex("#2f4f4f99"))
	dc.SetLineWidth(1.5 * u)
	dc.MoveTo(x-6*u, y)
	dc.QuadraticTo(x-3*u, y-4*u, x, y)
	dc.QuadraticTo(x+3*u, y-4*u, x+6*u, y)
	dc.Stroke()
	dc.Pop()
}
