// sink.go — Half-block preview renderer for tcell screens.
package terminal

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	xdraw "golang.org/x/image/draw"

	"github.com/xob0t/festivecard/pkg/preview"
)

// upperHalf paints the top pixel as foreground and the bottom one as background.
const upperHalf = '▀'

// Sink presents preview frames on a terminal, two pixel rows per cell row,
// with a status line at the bottom.
type Sink struct {
	screen tcell.Screen

	mu      sync.Mutex
	buf     *image.RGBA
	last    preview.Status
	message string
}

// NewSink wraps screen. The screen must already be initialized.
func NewSink(screen tcell.Screen) *Sink {
	return &Sink{screen: screen}
}

// Present scales img into the screen and redraws the status line.
func (s *Sink) Present(img image.Image, st preview.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows := s.screen.Size()
	rows-- // status line
	if cols <= 0 || rows <= 0 {
		return nil
	}
	pw, ph := fitCells(img.Bounds(), cols, rows)
	if s.buf == nil || s.buf.Rect.Dx() != pw || s.buf.Rect.Dy() != ph {
		s.buf = image.NewRGBA(image.Rect(0, 0, pw, ph))
	}
	xdraw.ApproxBiLinear.Scale(s.buf, s.buf.Rect, img, img.Bounds(), xdraw.Src, nil)

	s.screen.Clear()
	ox, oy := (cols-pw)/2, (rows-ph/2)/2
	for cy := range ph / 2 {
		for x := range pw {
			top := s.buf.RGBAAt(x, 2*cy)
			bottom := s.buf.RGBAAt(x, 2*cy+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.screen.SetContent(ox+x, oy+cy, upperHalf, nil, style)
		}
	}
	s.last = st
	s.drawStatus(cols, rows)
	s.screen.Show()
	return nil
}

// SetMessage shows msg on the status line right away.
func (s *Sink) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
	cols, rows := s.screen.Size()
	if cols <= 0 || rows <= 0 {
		return
	}
	s.drawStatus(cols, rows-1)
	s.screen.Show()
}

// Message returns the status message.
func (s *Sink) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *Sink) drawStatus(cols, y int) {
	icon := "▶"
	if s.last.State == "paused" {
		icon = "⏸"
	}
	line := fmt.Sprintf(" %s %s  %d/%d  space pause  ←/→ template  s png  e gif  q quit",
		icon, s.last.Template, s.last.Frame+1, max(s.last.Frames, 1))
	if s.message != "" {
		line += "  │ " + s.message
	}
	line = runewidth.Truncate(line, cols, "…")

	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		s.screen.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
	for ; x < cols; x++ {
		s.screen.SetContent(x, y, ' ', nil, style)
	}
}

// fitCells returns the pixel size that fits b into cols×rows cells while
// keeping its aspect ratio. The height is always even.
func fitCells(b image.Rectangle, cols, rows int) (int, int) {
	w, h := float64(b.Dx()), float64(b.Dy())
	if w <= 0 || h <= 0 {
		return 1, 2
	}
	scale := math.Min(float64(cols)/w, float64(rows*2)/h)
	pw := max(int(math.Round(w*scale)), 1)
	ph := max(int(math.Round(h*scale))&^1, 2)
	return min(pw, cols), min(ph, rows*2)
}
