// png.go — PNG still writer.
package generator

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// PNG encodes the first frame of a sequence as a still image.
type PNG struct{}

func (PNG) Ext() string  { return "png" }
func (PNG) MIME() string { return "image/png" }

func (PNG) Encode(w io.Writer, frames []image.Image, opts Options) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	return EncodePNG(w, frames[0])
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}
