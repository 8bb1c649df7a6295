// apng.go — Animated PNG writer backed by github.com/setanarut/apng.
package generator

import (
	"fmt"
	"image"
	"image/draw"
	"io"

	"github.com/setanarut/apng"
)

// APNG encodes full-color animated PNGs.
type APNG struct{}

func (APNG) Ext() string  { return "apng" }
func (APNG) MIME() string { return "image/apng" }

func (APNG) Encode(w io.Writer, frames []image.Image, opts Options) error {
	if err := checkFrames(frames, &opts); err != nil {
		return err
	}

	delay := uint16(centiseconds(opts.Delay))
	a := apng.APNG{
		Images:    make([]image.Image, len(frames)),
		Delays:    make([]uint16, len(frames)),
		LoopCount: uint32(max(opts.LoopCount, 0)),
	}
	for i, f := range frames {
		a.Images[i] = normalize(f)
		a.Delays[i] = delay
	}

	if err := apng.EncodeAll(w, &a); err != nil {
		return fmt.Errorf("encode APNG: %w", err)
	}
	return nil
}

// normalize returns img with its bounds at the origin; apng rejects sub-images.
func normalize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() {
			return rgba
		}
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
