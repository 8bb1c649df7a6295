// gif.go — Animated GIF writer with a shared 256-color palette.
package generator

import (
	"fmt"
	"image"
	"image/gif"
	"io"
)

// GIF encodes looping animated GIFs.
type GIF struct{}

func (GIF) Ext() string  { return "gif" }
func (GIF) MIME() string { return "image/gif" }

func (GIF) Encode(w io.Writer, frames []image.Image, opts Options) error {
	if err := checkFrames(frames, &opts); err != nil {
		return err
	}

	rgba := make([]*image.RGBA, len(frames))
	for i, f := range frames {
		rgba[i] = normalize(f).(*image.RGBA)
	}
	paletted := quantize(rgba)

	delay := centiseconds(opts.Delay)
	anim := &gif.GIF{
		Image:     paletted,
		Delay:     make([]int, len(paletted)),
		Disposal:  make([]byte, len(paletted)),
		LoopCount: max(opts.LoopCount, 0),
		Config: image.Config{
			ColorModel: paletted[0].Palette,
			Width:      opts.Width,
			Height:     opts.Height,
		},
	}
	for i := range paletted {
		anim.Delay[i] = delay
		anim.Disposal[i] = gif.DisposalNone
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode GIF: %w", err)
	}
	return nil
}
