// quantize.go — Shared-palette color quantization for GIF output.
//
// Every frame of the loop is fed to one median-cut pass so all frames share a
// single palette; per-frame palettes make flat areas shimmer between frames.
package generator

import (
	"image"
	"image/color"

	goquantize "github.com/ericpauley/go-quantize/quantize"
)

const lutBits = 5

// filmstrip stacks frames vertically so the quantizer sees the whole loop as
// one image.
type filmstrip struct {
	frames []*image.RGBA
	h      int
}

func newFilmstrip(frames []*image.RGBA) *filmstrip {
	return &filmstrip{frames: frames, h: frames[0].Bounds().Dy()}
}

func (s *filmstrip) ColorModel() color.Model { return color.RGBAModel }

func (s *filmstrip) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.frames[0].Bounds().Dx(), s.h*len(s.frames))
}

func (s *filmstrip) At(x, y int) color.Color {
	f := s.frames[y/s.h]
	b := f.Bounds()
	return f.RGBAAt(b.Min.X+x, b.Min.Y+y%s.h)
}

// sharedPalette builds at most size colors covering every frame.
func sharedPalette(frames []*image.RGBA, size int) color.Palette {
	q := goquantize.MedianCutQuantizer{Aggregation: goquantize.Mean}
	pal := q.Quantize(make(color.Palette, 0, size), newFilmstrip(frames))
	if len(pal) == 0 {
		pal = color.Palette{color.RGBA{A: 255}}
	}
	return pal
}

func lutKey(r, g, b uint8) int {
	return int(r>>(8-lutBits))<<(2*lutBits) | int(g>>(8-lutBits))<<lutBits | int(b>>(8-lutBits))
}

// quantize converts frames to paletted images sharing one palette. Nearest
// palette entries are memoized per 15-bit color cell.
func quantize(frames []*image.RGBA) []*image.Paletted {
	pal := sharedPalette(frames, 256)
	lut := make([]int16, 1<<(3*lutBits))
	for i := range lut {
		lut[i] = -1
	}

	out := make([]*image.Paletted, len(frames))
	for fi, f := range frames {
		b := f.Bounds()
		p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
		for y := range b.Dy() {
			src := f.Pix[y*f.Stride : y*f.Stride+4*b.Dx()]
			dst := p.Pix[y*p.Stride : y*p.Stride+b.Dx()]
			for x := range dst {
				r, g, bl := src[4*x], src[4*x+1], src[4*x+2]
				k := lutKey(r, g, bl)
				if lut[k] < 0 {
					lut[k] = int16(pal.Index(color.RGBA{r, g, bl, 255}))
				}
				dst[x] = uint8(lut[k])
			}
		}
		out[fi] = p
	}
	return out
}
