package generator

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testFrames returns n frames with a moving vertical bar.
func testFrames(n, w, h int) []image.Image {
	frames := make([]image.Image, n)
	for i := range n {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				c := color.RGBA{uint8(40 + y), 20, 90, 255}
				if x == i%w {
					c = color.RGBA{255, 215, 0, 255}
				}
				img.SetRGBA(x, y, c)
			}
		}
		frames[i] = img
	}
	return frames
}

var loopOpts = Options{Width: 32, Height: 48, Delay: 67 * time.Millisecond}

func TestGIFEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := (GIF{}).Encode(&buf, testFrames(45, 32, 48), loopOpts); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Image) != 45 {
		t.Fatalf("frames = %d, want 45", len(g.Image))
	}
	for i, d := range g.Delay {
		if d != 7 {
			t.Fatalf("frame %d delay = %d cs, want 7", i, d)
		}
	}
	if g.LoopCount != 0 {
		t.Fatalf("loop count = %d, want 0 (forever)", g.LoopCount)
	}
	if g.Config.Width != 32 || g.Config.Height != 48 {
		t.Fatalf("size = %dx%d", g.Config.Width, g.Config.Height)
	}
}

func TestQuantizeKeepsDistinctColors(t *testing.T) {
	frames := testFrames(3, 32, 48)
	rgba := make([]*image.RGBA, len(frames))
	for i, f := range frames {
		rgba[i] = f.(*image.RGBA)
	}
	out := quantize(rgba)
	if len(out[0].Palette) > 256 {
		t.Fatalf("palette has %d colors", len(out[0].Palette))
	}
	// The gold bar survives quantization.
	r, g, b, _ := out[0].At(0, 10).RGBA()
	if r>>8 < 240 || g>>8 < 200 || b>>8 > 20 {
		t.Fatalf("bar color = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	for i := 1; i < len(out); i++ {
		if len(out[i].Palette) != len(out[0].Palette) {
			t.Fatal("frames do not share a palette")
		}
	}
}

func TestSharedPaletteFillsToSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x + y) * 2), 255})
		}
	}
	pal := sharedPalette([]*image.RGBA{img}, 256)
	if len(pal) < 200 || len(pal) > 256 {
		t.Fatalf("palette size = %d, want close to 256", len(pal))
	}
}

func TestSharedPaletteCoversEveryFrame(t *testing.T) {
	// Each color appears in only one frame; a palette built from the first
	// frame alone would lose the others.
	colors := []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	frames := make([]*image.RGBA, len(colors))
	for i, c := range colors {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for y := range 8 {
			for x := range 8 {
				img.SetRGBA(x, y, c)
			}
		}
		frames[i] = img
	}
	out := quantize(frames)
	for i, c := range colors {
		if got := color.RGBAModel.Convert(out[i].At(3, 3)).(color.RGBA); got != c {
			t.Errorf("frame %d = %v, want %v", i, got, c)
		}
	}
}

func TestAPNGEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := (APNG{}).Encode(&buf, testFrames(45, 32, 48), loopOpts); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("missing PNG signature")
	}
	i := bytes.Index(data, []byte("acTL"))
	if i < 0 {
		t.Fatal("missing acTL chunk")
	}
	if n := binary.BigEndian.Uint32(data[i+4:]); n != 45 {
		t.Fatalf("acTL frames = %d, want 45", n)
	}
	if plays := binary.BigEndian.Uint32(data[i+8:]); plays != 0 {
		t.Fatalf("acTL plays = %d, want 0", plays)
	}
	// Still decodable as a regular PNG (the default image).
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("png decode: %v", err)
	}
}

func TestAVIEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := (AVI{}).Encode(&buf, testFrames(45, 32, 48), loopOpts); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatal("missing RIFF/AVI header")
	}
	if size := binary.LittleEndian.Uint32(data[4:8]); int(size) != len(data)-8 {
		t.Fatalf("RIFF size = %d, file is %d", size, len(data))
	}
	if us := binary.LittleEndian.Uint32(data[32:36]); us != 67000 {
		t.Fatalf("µs per frame = %d", us)
	}
	if n := binary.LittleEndian.Uint32(data[48:52]); n != 45 {
		t.Fatalf("total frames = %d, want 45", n)
	}
	if c := bytes.Count(data, []byte("00dc")); c < 90 {
		t.Fatalf("found %d 00dc markers, want at least 90 (chunks + index)", c)
	}
}

func TestEncodersRejectBadSequences(t *testing.T) {
	for _, name := range []string{"gif", "apng", "avi", "png"} {
		enc, err := ForFormat(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := enc.Encode(&bytes.Buffer{}, nil, loopOpts); !errors.Is(err, ErrNoFrames) {
			t.Errorf("%s: empty sequence err = %v", name, err)
		}
	}
	mixed := append(testFrames(2, 32, 48), testFrames(1, 16, 16)...)
	if err := (GIF{}).Encode(&bytes.Buffer{}, mixed, loopOpts); err == nil {
		t.Error("mixed frame sizes accepted")
	}
}

func TestForFormat(t *testing.T) {
	tests := map[string]string{"": "gif", "GIF": "gif", ".apng": "apng", "avi": "avi", "png": "png"}
	for in, want := range tests {
		enc, err := ForFormat(in)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", in, err)
		}
		if enc.Ext() != want {
			t.Errorf("ForFormat(%q) = %s, want %s", in, enc.Ext(), want)
		}
	}
	if _, err := ForFormat("mp4"); err == nil {
		t.Error("mp4 accepted")
	}
}

func TestForAnimationRejectsStills(t *testing.T) {
	for _, in := range []string{"", "gif", ".APNG", "avi"} {
		if _, err := ForAnimation(in); err != nil {
			t.Errorf("ForAnimation(%q): %v", in, err)
		}
	}
	for _, in := range []string{"png", ".png", "bmp"} {
		if _, err := ForAnimation(in); err == nil {
			t.Errorf("ForAnimation(%q) accepted a non-animated format", in)
		}
	}
}

func TestGenerateByExtension(t *testing.T) {
	dir := t.TempDir()
	frames := testFrames(5, 32, 48)
	for _, name := range []string{"a.gif", "a.apng", "a.avi", "a.png"} {
		out := filepath.Join(dir, name)
		if err := Generate(out, frames, loopOpts); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
			t.Fatalf("%s: not written (%v)", name, err)
		}
	}
	if err := Generate(filepath.Join(dir, "a.bmp"), frames, loopOpts); err == nil {
		t.Error("bmp accepted")
	}
}

func TestCentiseconds(t *testing.T) {
	tests := map[time.Duration]int{67 * time.Millisecond: 7, 100 * time.Millisecond: 10, 0: 1, 4 * time.Millisecond: 1}
	for in, want := range tests {
		if got := centiseconds(in); got != want {
			t.Errorf("centiseconds(%v) = %d, want %d", in, got, want)
		}
	}
}
