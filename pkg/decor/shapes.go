// shapes.go — Reusable drawing primitives for the festival decorations.
package decor

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

type stop struct {
	pos float64
	c   color.Color
}

// Gradient fills the whole surface with a two-stop vertical linear gradient.
func Gradient(dc *gg.Context, w, h float64, top, bottom color.Color) {
	verticalGradient(dc, w, h, stop{0, top}, stop{1, bottom})
}

func verticalGradient(dc *gg.Context, w, h float64, stops ...stop) {
	g := gg.NewLinearGradient(0, 0, 0, h)
	for _, s := range stops {
		g.AddColorStop(s.pos, s.c)
	}
	dc.Push()
	dc.SetFillStyle(g)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	dc.Pop()
}

// glow paints a soft radial halo that fades to transparent at r.
func glow(dc *gg.Context, cx, cy, r float64, c color.NRGBA) {
	g := gg.NewRadialGradient(cx, cy, 0, cx, cy, r)
	g.AddColorStop(0, c)
	g.AddColorStop(1, Alpha(c, 0))
	dc.Push()
	dc.SetFillStyle(g)
	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	dc.Pop()
}

func border(dc *gg.Context, w, h, inset, lineWidth float64, c color.Color, dash ...float64) {
	dc.Push()
	dc.SetColor(c)
	dc.SetLineWidth(lineWidth)
	if len(dash) > 0 {
		dc.SetDash(dash...)
	}
	dc.DrawRectangle(inset, inset, w-2*inset, h-2*inset)
	dc.Stroke()
	dc.Pop()
}

// mandala draws petals rotated around (cx, cy) plus two rings.
func mandala(dc *gg.Context, cx, cy, r float64, petals int, rotation float64, petal, ring color.NRGBA) {
	dc.Push()
	dc.SetColor(petal)
	for i := range petals {
		angle := rotation + float64(i)*2*math.Pi/float64(petals)
		dc.Push()
		dc.RotateAbout(angle, cx, cy)
		dc.DrawEllipse(cx+r*0.62, cy, r*0.38, r*0.14)
		dc.Fill()
		dc.Pop()
	}
	dc.SetColor(ring)
	dc.SetLineWidth(max(r*0.05, 1))
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()
	dc.DrawCircle(cx, cy, r*0.3)
	dc.Fill()
	dc.Pop()
}

// marigold draws layered petals; scale pulses the whole flower.
func marigold(dc *gg.Context, cx, cy, r, scale float64) {
	r *= scale
	layers := []color.NRGBA{Hex("#ff8c00"), Hex("#ffa500"), Hex("#ffd700")}
	dc.Push()
	for li, c := range layers {
		lr := r * (1 - float64(li)*0.3)
		dc.SetColor(c)
		n := 10 - li*2
		for i := range n {
			a := float64(i) * 2 * math.Pi / float64(n)
			dc.DrawCircle(cx+math.Cos(a)*lr*0.55, cy+math.Sin(a)*lr*0.55, lr*0.42)
			dc.Fill()
		}
	}
	dc.SetColor(Hex("#b8860b"))
	dc.DrawCircle(cx, cy, r*0.2)
	dc.Fill()
	dc.Pop()
}

// diya draws an oil lamp with its flame; flicker scales the flame height.
func diya(dc *gg.Context, cx, cy, s, flicker float64) {
	dc.Push()
	glow(dc, cx, cy-s*0.6, s*1.6*flicker, Hex("#ffd27f80"))

	dc.SetColor(Hex("#8b4513"))
	dc.DrawEllipticalArc(cx, cy, s, s*0.55, 0, math.Pi)
	dc.ClosePath()
	dc.Fill()
	dc.SetColor(Hex("#cd853f"))
	dc.DrawEllipse(cx, cy, s, s*0.18)
	dc.Fill()

	top := cy - s*1.25*flicker
	dc.SetColor(Hex("#ff8c00"))
	dc.MoveTo(cx, top)
	dc.QuadraticTo(cx+s*0.4, cy-s*0.45, cx, cy-s*0.08)
	dc.QuadraticTo(cx-s*0.4, cy-s*0.45, cx, top)
	dc.ClosePath()
	dc.Fill()
	dc.SetColor(Hex("#fff3b0"))
	dc.DrawEllipse(cx, cy-s*0.35, s*0.1, s*0.2*flicker)
	dc.Fill()
	dc.Pop()
}

// kite draws a diamond kite rotated by sway around its center, with its tail.
func kite(dc *gg.Context, cx, cy, s, sway float64, body, accent color.NRGBA) {
	dc.Push()
	dc.RotateAbout(sway, cx, cy)
	dc.SetColor(body)
	dc.MoveTo(cx, cy-s)
	dc.LineTo(cx+s*0.7, cy)
	dc.LineTo(cx, cy+s)
	dc.LineTo(cx-s*0.7, cy)
	dc.ClosePath()
	dc.Fill()

	dc.SetColor(accent)
	dc.SetLineWidth(max(s*0.05, 1))
	dc.DrawLine(cx, cy-s, cx, cy+s)
	dc.DrawLine(cx-s*0.7, cy, cx+s*0.7, cy)
	dc.Stroke()

	dc.SetLineWidth(max(s*0.03, 1))
	dc.MoveTo(cx, cy+s)
	dc.CubicTo(cx+s*0.3, cy+s*1.4, cx-s*0.3, cy+s*1.8, cx, cy+s*2.2)
	dc.Stroke()
	for i := 1; i <= 3; i++ {
		ty := cy + s + float64(i)*s*0.38
		dc.DrawRegularPolygon(3, cx, ty, s*0.1, 0)
		dc.Fill()
	}
	dc.Pop()
}

// kiteString draws the line from a kite down to its anchor on the ground.
func kiteString(dc *gg.Context, x1, y1, x2, y2, u float64) {
	dc.Push()
	dc.SetColor(Hex("#ffffff99"))
	dc.SetLineWidth(max(u, 1))
	dc.MoveTo(x1, y1)
	dc.QuadraticTo((x1+x2)/2+20*u, (y1+y2)/2, x2, y2)
	dc.Stroke()
	dc.Pop()
}

// lotus draws a five-petal lotus sitting on (cx, cy).
func lotus(dc *gg.Context, cx, cy, s float64, c color.NRGBA) {
	dc.Push()
	dc.SetColor(c)
	for i := range 5 {
		angle := -math.Pi/2 + (float64(i)-2)*math.Pi/6
		dc.Push()
		dc.RotateAbout(angle+math.Pi/2, cx, cy)
		dc.DrawEllipse(cx, cy-s*0.5, s*0.2, s*0.5)
		dc.Fill()
		dc.Pop()
	}
	dc.Pop()
}

// star draws a filled star polygon.
func star(dc *gg.Context, cx, cy, outer, inner float64, points int, rotation float64, c color.NRGBA) {
	dc.Push()
	dc.SetColor(c)
	for i := range points * 2 {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := rotation - math.Pi/2 + float64(i)*math.Pi/float64(points)
		x, y := cx+math.Cos(a)*r, cy+math.Sin(a)*r
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	dc.Fill()
	dc.Pop()
}

// sparkle draws a four-point twinkle.
func sparkle(dc *gg.Context, x, y, r, alpha float64) {
	if alpha <= 0 {
		return
	}
	star(dc, x, y, r, r*0.25, 4, 0, Alpha(Hex("#ffffff"), alpha))
}

// sun draws a disc with rotating rays.
func sun(dc *gg.Context, cx, cy, r float64, rays int, rotation float64) {
	dc.Push()
	glow(dc, cx, cy, r*2.2, Hex("#fff8dc90"))
	dc.SetColor(Hex("#ffd700"))
	dc.SetLineWidth(max(r*0.12, 1))
	dc.SetLineCap(gg.LineCapRound)
	for i := range rays {
		a := rotation + float64(i)*2*math.Pi/float64(rays)
		dc.DrawLine(cx+math.Cos(a)*r*1.25, cy+math.Sin(a)*r*1.25, cx+math.Cos(a)*r*1.7, cy+math.Sin(a)*r*1.7)
		dc.Stroke()
	}
	dc.SetColor(Hex("#ffcc33"))
	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	dc.Pop()
}

// cloud draws a puffy cloud whose left edge starts at x.
func cloud(dc *gg.Context, x, y, s float64) {
	dc.Push()
	dc.SetColor(Hex("#ffffffe6"))
	dc.DrawCircle(x+s*0.5, y, s*0.5)
	dc.DrawCircle(x+s*1.1, y-s*0.3, s*0.6)
	dc.DrawCircle(x+s*1.7, y, s*0.5)
	dc.DrawRoundedRectangle(x+s*0.2, y, s*1.8, s*0.45, s*0.2)
	dc.Fill()
	dc.Pop()
}

// lantern draws a hanging lantern swinging around its hook at (x, y).
func lantern(dc *gg.Context, x, y, s, sway float64) {
	dc.Push()
	dc.RotateAbout(sway, x, y)
	dc.SetColor(Hex("#8b4513"))
	dc.SetLineWidth(1)
	dc.DrawLine(x, y, x, y+s*0.6)
	dc.Stroke()
	glow(dc, x, y+s*1.2, s*1.1, Hex("#ff450055"))
	dc.SetColor(Hex("#dc143c"))
	dc.DrawRoundedRectangle(x-s*0.4, y+s*0.6, s*0.8, s*1.2, s*0.3)
	dc.Fill()
	dc.SetColor(Hex("#ffd700"))
	dc.DrawRectangle(x-s*0.3, y+s*0.55, s*0.6, s*0.12)
	dc.DrawRectangle(x-s*0.3, y+s*1.75, s*0.6, s*0.12)
	dc.Fill()
	dc.Pop()
}

// trident draws Durga's trishul centered on (cx, cy).
func trident(dc *gg.Context, cx, cy, s float64, c color.NRGBA) {
	dc.Push()
	dc.SetColor(c)
	dc.SetLineWidth(max(s*0.06, 1))
	dc.SetLineCap(gg.LineCapRound)
	dc.DrawLine(cx, cy-s*0.6, cx, cy+s)
	dc.Stroke()
	dc.MoveTo(cx-s*0.45, cy-s*0.7)
	dc.QuadraticTo(cx-s*0.45, cy-s*0.1, cx, cy-s*0.1)
	dc.QuadraticTo(cx+s*0.45, cy-s*0.1, cx+s*0.45, cy-s*0.7)
	dc.Stroke()
	dc.MoveTo(cx, cy-s)
	dc.LineTo(cx+s*0.08, cy-s*0.6)
	dc.LineTo(cx-s*0.08, cy-s*0.6)
	dc.ClosePath()
	dc.Fill()
	dc.Pop()
}

// emblem draws the concentric blessing mark used by the minimalist template.
func emblem(dc *gg.Context, cx, cy, r float64, c color.NRGBA) {
	dc.Push()
	dc.SetColor(c)
	dc.SetLineWidth(max(r*0.06, 1))
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()
	dc.DrawArc(cx, cy, r*0.6, math.Pi*0.15, math.Pi*0.85)
	dc.Stroke()
	dc.DrawArc(cx, cy-r*0.1, r*0.35, math.Pi*1.15, math.Pi*1.85)
	dc.Stroke()
	dc.DrawCircle(cx, cy-r*0.55, r*0.08)
	dc.Fill()
	dc.Pop()
}
