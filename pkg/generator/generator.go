// Package generator encodes captured frame sequences into animation files.
//
// All output follows the same pipeline: frames are rendered first, then handed
// to an Encoder that containerizes them as GIF, APNG, MJPEG AVI or, for a
// single still, PNG.
package generator

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrNoFrames is returned when an encoder is given an empty sequence.
var ErrNoFrames = errors.New("no frames to encode")

// Options describes the sequence being encoded.
type Options struct {
	Width     int           // pixel width every frame must have
	Height    int           // pixel height every frame must have
	Delay     time.Duration // display time of each frame
	LoopCount int           // 0 = loop forever
	Quality   int           // JPEG quality for AVI (default: 90)
}

// Encoder writes a frame sequence in one container format.
type Encoder interface {
	Encode(w io.Writer, frames []image.Image, opts Options) error
	Ext() string  // file extension, without the dot
	MIME() string // content type of the output
}

var encoders = map[string]Encoder{
	"gif":  GIF{},
	"apng": APNG{},
	"avi":  AVI{},
	"png":  PNG{},
}

// Formats lists the animated formats in display order.
func Formats() []string { return []string{"gif", "apng", "avi"} }

// ForFormat returns the encoder for a format name or file extension.
func ForFormat(name string) (Encoder, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "."))
	if key == "" {
		key = "gif"
	}
	if enc, ok := encoders[key]; ok {
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported format %q: use gif, apng, avi or png", name)
}

// ForAnimation is ForFormat restricted to Formats. Still formats are rejected
// because they would keep only the first captured frame.
func ForAnimation(name string) (Encoder, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "."))
	if key == "" {
		key = "gif"
	}
	if !slices.Contains(Formats(), key) {
		return nil, fmt.Errorf("unsupported animation format %q: use %s", name, strings.Join(Formats(), ", "))
	}
	return encoders[key], nil
}

// Generate writes frames to output. The format is inferred from the file extension:
//   - ".gif"  → animated GIF
//   - ".apng" → animated PNG
//   - ".avi"  → MJPEG AVI video
//   - ".png"  → still PNG of the first frame
func Generate(output string, frames []image.Image, opts Options) error {
	enc, err := ForFormat(filepath.Ext(output))
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := enc.Encode(f, frames, opts); err != nil {
		return err
	}
	return f.Sync()
}

// checkFrames validates the sequence against opts, filling in a missing size
// from the first frame.
func checkFrames(frames []image.Image, opts *Options) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		b := frames[0].Bounds()
		opts.Width, opts.Height = b.Dx(), b.Dy()
	}
	for i, f := range frames {
		if f == nil {
			return fmt.Errorf("frame %d is nil", i)
		}
		if b := f.Bounds(); b.Dx() != opts.Width || b.Dy() != opts.Height {
			return fmt.Errorf("frame %d is %dx%d, want %dx%d", i, b.Dx(), b.Dy(), opts.Width, opts.Height)
		}
	}
	return nil
}

// centiseconds rounds d to the 1/100 s units GIF and APNG store, at least 1.
func centiseconds(d time.Duration) int {
	cs := int((d + 5*time.Millisecond) / (10 * time.Millisecond))
	return max(cs, 1)
}
