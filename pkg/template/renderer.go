// renderer.go - Frame compositor. Layers a card onto a gg surface in a fixed
// order: clear -> decoration -> photo -> name -> wish -> watermark. Every
// layer runs inside its own Push/Pop so no drawing state leaks into the next.
package template

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/festivecard/pkg/decor"
)

// ErrSurface is returned when a compose target cannot be drawn on.
var ErrSurface = errors.New("unusable render surface")

// DefaultWatermark is drawn at the bottom of every card unless disabled.
const DefaultWatermark = "Made with festivecard"

// layout on the 400×600 base.
const (
	photoSize      = 120
	photoTop       = 120
	nameYWithPhoto = 280
	nameYNoPhoto   = 200
	wishGap        = 60
	wishMargin     = 40
	wishLeading    = 7
	watermarkSize  = 8
	watermarkInset = 10
	errorLabelSize = 14
)

var (
	gold        = decor.Hex("#FFD700")
	shadowColor = decor.Hex("#000000cc")
	errorColor  = decor.Hex("#ff6b6b")
)

type faceKey struct {
	family string
	size   float64
	bold   bool
	italic bool
}

// Renderer composes frames. It caches font faces and the prepared photo, so a
// Renderer must only be used from one goroutine at a time; give each driver
// its own and share the Registry and FontManager.
type Renderer struct {
	registry *Registry
	fonts    *FontManager

	// Watermark text; empty disables the watermark.
	Watermark string

	faces map[faceKey]font.Face

	photoSrc  image.Image
	photoSize int
	photo     image.Image
}

// NewRenderer creates a compositor drawing templates from reg with fonts from fm.
func NewRenderer(reg *Registry, fm *FontManager) *Renderer {
	return &Renderer{
		registry:  reg,
		fonts:     fm,
		Watermark: DefaultWatermark,
		faces:     make(map[faceKey]font.Face),
	}
}

// Registry returns the template registry the renderer draws from.
func (r *Renderer) Registry() *Registry { return r.registry }

// Compose draws one complete frame of content onto dc. Decoration failures are
// recovered and replaced by an error frame; only an unusable surface is
// returned as an error.
func (r *Renderer) Compose(dc *gg.Context, content CardContent, mode Mode, phase float64) error {
	if dc == nil {
		return fmt.Errorf("%w: nil context", ErrSurface)
	}
	if dc.Width() <= 0 || dc.Height() <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrSurface, dc.Width(), dc.Height())
	}
	if _, ok := dc.Image().(*image.RGBA); !ok {
		return fmt.Errorf("%w: backing image is not RGBA", ErrSurface)
	}

	w, h := float64(dc.Width()), float64(dc.Height())
	scale := w / BaseWidth

	resetState(dc)
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()

	tpl := r.registry.Resolve(content.Template)
	layer(dc, func() {
		if err := paintDecoration(dc, tpl, mode, w, h, phase); err != nil {
			log.Printf("[RENDER] template %s (%s): %v", tpl.ID, mode, err)
			r.drawErrorFrame(dc, w, h, scale)
		}
	})

	hasPhoto := content.Photo != nil
	if hasPhoto {
		layer(dc, func() { r.drawPhoto(dc, content.Photo, w, scale) })
	}

	nameAt := Point{X: BaseWidth / 2, Y: nameYNoPhoto}
	if hasPhoto {
		nameAt.Y = nameYWithPhoto
	}
	if content.Positions.Name != nil {
		nameAt = *content.Positions.Name
	}
	hasName := strings.TrimSpace(content.Name) != ""
	if hasName {
		layer(dc, func() { r.drawName(dc, content.Name, content.Font, nameAt, scale) })
	}

	if strings.TrimSpace(content.Wish) != "" {
		wishAt := nameAt
		if hasName {
			wishAt.Y += wishGap
		}
		if content.Positions.Wish != nil {
			wishAt = *content.Positions.Wish
		}
		layer(dc, func() { r.drawWish(dc, content.Wish, content.Font, wishAt, w, scale) })
	}

	if r.Watermark != "" {
		layer(dc, func() { r.drawWatermark(dc, w, h, scale) })
	}
	return nil
}

// resetState returns dc to gg's initial drawing state.
func resetState(dc *gg.Context) {
	dc.Identity()
	dc.ResetClip()
	dc.ClearPath()
	dc.SetLineWidth(1)
	dc.SetDash()
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetFillRule(gg.FillRuleWinding)
}

// layer runs draw between Push and Pop. gg keeps the clip mask and current path
// across Pop, so those are reset explicitly.
func layer(dc *gg.Context, draw func()) {
	dc.Push()
	defer func() {
		dc.Pop()
		dc.ResetClip()
		dc.ClearPath()
		dc.SetDash()
	}()
	draw()
}

// paintDecoration invokes the template, turning a panic into an error.
func paintDecoration(dc *gg.Context, tpl Template, mode Mode, w, h, phase float64) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return tpl.Render(dc, w, h, mode, phase)
}

func (r *Renderer) drawErrorFrame(dc *gg.Context, w, h, scale float64) {
	resetState(dc)
	dc.SetColor(errorColor)
	dc.Clear()
	if face, err := r.face("Go", errorLabelSize*scale, false, false); err == nil {
		dc.SetFontFace(face)
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored("Template Error", w/2, h/2, 0.5, 0.5)
	}
}

func (r *Renderer) drawPhoto(dc *gg.Context, src image.Image, w, scale float64) {
	size := photoSize * scale
	x := (w - size) / 2
	y := photoTop * scale
	cx, cy, radius := x+size/2, y+size/2, size/2

	dc.DrawCircle(cx, cy, radius)
	dc.Clip()
	dc.DrawImage(r.preparedPhoto(src, int(math.Round(size))), int(math.Round(x)), int(math.Round(y)))
	dc.ResetClip()

	// Soft glow under the ring, then the ring itself.
	for i := 3; i >= 1; i-- {
		dc.SetRGBA(1, 1, 1, 0.12)
		dc.SetLineWidth((4 + float64(i)*3) * scale)
		dc.DrawCircle(cx, cy, radius)
		dc.Stroke()
	}
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(4 * scale)
	dc.DrawCircle(cx, cy, radius)
	dc.Stroke()
}

// preparedPhoto center-crops src to a size×size square, reusing the last result
// while the source and size are unchanged.
func (r *Renderer) preparedPhoto(src image.Image, size int) image.Image {
	if r.photo != nil && r.photoSrc == src && r.photoSize == size {
		return r.photo
	}
	r.photoSrc = src
	r.photoSize = size
	r.photo = imaging.Fill(src, max(size, 1), max(size, 1), imaging.Center, imaging.Lanczos)
	return r.photo
}

func (r *Renderer) drawName(dc *gg.Context, name string, fs FontSettings, at Point, scale float64) {
	face, err := r.face(fs.Family, fs.Size*scale, fs.Bold, fs.Italic)
	if err != nil {
		log.Printf("[RENDER] name font: %v", err)
		return
	}
	dc.SetFontFace(face)
	x, y := at.X*scale, at.Y*scale

	dc.SetColor(shadowColor)
	dc.DrawStringAnchored(name, x+2*scale, y+2*scale, 0.5, 0)

	// A 2px stroke: the text stamped around the anchor in gold.
	d := max(scale, 1)
	dc.SetColor(gold)
	for _, o := range [][2]float64{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
		dc.DrawStringAnchored(name, x+o[0]*d, y+o[1]*d, 0.5, 0)
	}

	dc.SetColor(decor.Hex(fs.Color))
	dc.DrawStringAnchored(name, x, y, 0.5, 0)
}

// WishSize returns the wish font size for a name size: half of it, at least 12.
func WishSize(nameSize float64) float64 {
	return max(12, nameSize*0.5)
}

func (r *Renderer) drawWish(dc *gg.Context, wish string, fs FontSettings, at Point, w, scale float64) {
	size := WishSize(fs.Size)
	face, err := r.face(fs.Family, size*scale, false, fs.Italic)
	if err != nil {
		log.Printf("[RENDER] wish font: %v", err)
		return
	}
	dc.SetFontFace(face)

	lineHeight := (size + wishLeading) * scale
	lines := WrapText(face, wish, w-wishMargin*scale)
	x, y := at.X*scale, at.Y*scale
	for i, line := range lines {
		ly := y + float64(i)*lineHeight
		dc.SetColor(decor.Alpha(shadowColor, 0.5))
		dc.DrawStringAnchored(line, x+scale, ly+scale, 0.5, 0)
		dc.SetColor(decor.Hex(fs.Color))
		dc.DrawStringAnchored(line, x, ly, 0.5, 0)
	}
}

func (r *Renderer) drawWatermark(dc *gg.Context, w, h, scale float64) {
	face, err := r.face("Go", watermarkSize*scale, false, false)
	if err != nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetRGBA(1, 1, 1, 0.3)
	dc.DrawStringAnchored(r.Watermark, w/2, h-watermarkInset*scale, 0.5, 0)
}

func (r *Renderer) face(fam string, size float64, b, i bool) (font.Face, error) {
	key := faceKey{strings.ToLower(fam), math.Round(size*4) / 4, b, i}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f, err := r.fonts.Face(fam, key.size, b, i)
	if err != nil {
		return nil, err
	}
	r.faces[key] = f
	return f, nil
}

// WrapText breaks text into lines that each fit within maxWidth pixels when
// drawn with face. Words are split on whitespace and packed greedily; a word
// wider than maxWidth gets a line of its own.
func WrapText(face font.Face, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	limit := fixed.Int26_6(maxWidth * 64)
	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		testLine := currentLine + " " + word
		if font.MeasureString(face, testLine) > limit {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = testLine
		}
	}
	lines = append(lines, currentLine)
	return lines
}

// NewSurface allocates a transparent drawing surface.
func NewSurface(w, h int) (*gg.Context, error) {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurface, w, h)
	}
	return gg.NewContext(w, h), nil
}
