// avi.go - Pure Go AVI writer using the Motion JPEG (MJPEG) video codec.
// Each frame becomes one JPEG "00dc" chunk in the movi list, followed by an
// idx1 index so players can seek.
package generator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"time"
)

// AVI encodes MJPEG AVI videos. AVI has better native Windows support for
// MJPEG than MP4.
type AVI struct{}

func (AVI) Ext() string  { return "avi" }
func (AVI) MIME() string { return "video/x-msvideo" }

// riffWriter accumulates little-endian RIFF fields.
type riffWriter struct {
	bytes.Buffer
}

func (w *riffWriter) fourCC(s string) { w.WriteString(s) }
func (w *riffWriter) u32(v uint32)    { binary.Write(w, binary.LittleEndian, v) }
func (w *riffWriter) u16(v uint16)    { binary.Write(w, binary.LittleEndian, v) }

func (AVI) Encode(out io.Writer, frames []image.Image, opts Options) error {
	if err := checkFrames(frames, &opts); err != nil {
		return err
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	// Encode every frame up front; chunk sizes vary per frame.
	chunks := make([][]byte, len(frames))
	var largest uint32
	var total uint64
	for i, f := range frames {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, f, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode JPEG frame %d: %w", i, err)
		}
		chunks[i] = buf.Bytes()
		largest = max(largest, uint32(len(chunks[i])))
		total += uint64(len(chunks[i]))
	}

	delay := opts.Delay
	if delay <= 0 {
		delay = time.Second / 15
	}
	delayMS := uint32(max(delay.Milliseconds(), 1))
	microSecPerFrame := uint32(delay.Microseconds())
	totalFrames := uint32(len(frames))
	width, height := uint32(opts.Width), uint32(opts.Height)
	bytesPerSec := uint32(total * 1000 / uint64(delayMS) / uint64(totalFrames))

	padded := func(n int) uint32 { return uint32(n + n%2) }
	moviSize := uint32(4)
	for _, c := range chunks {
		moviSize += 8 + padded(len(c)) // "00dc" + size + data
	}
	idx1Size := 8 + totalFrames*16 // idx1 header + entries

	// Total file size = RIFF header (12) + hdrl list + movi list + idx1
	hdrlSize := uint32(4 + 64 + 124) // LIST + avih + strl
	fileSize := 4 + (8 + hdrlSize) + (8 + moviSize) + idx1Size

	w := &riffWriter{}
	w.Grow(int(fileSize) + 8)

	w.fourCC("RIFF")
	w.u32(fileSize)
	w.fourCC("AVI ")

	// === hdrl LIST ===
	w.fourCC("LIST")
	w.u32(hdrlSize)
	w.fourCC("hdrl")

	// === avih (Main AVI Header) - 56 bytes + 8 header ===
	w.fourCC("avih")
	w.u32(56)
	w.u32(microSecPerFrame)
	w.u32(bytesPerSec) // max bytes per sec
	w.u32(0)           // padding granularity
	w.u32(0x10)        // flags: AVIF_HASINDEX
	w.u32(totalFrames)
	w.u32(0)       // initial frames
	w.u32(1)       // number of streams
	w.u32(largest) // suggested buffer size
	w.u32(width)
	w.u32(height)
	for range 4 {
		w.u32(0) // reserved
	}

	// === strl LIST (Stream List) ===
	w.fourCC("LIST")
	w.u32(116) // strl size: strh(64) + strf(48) + 4
	w.fourCC("strl")

	// === strh (Stream Header) - 56 bytes + 8 header ===
	// Rate/scale of 1000/delay keeps fractional frame rates exact.
	w.fourCC("strh")
	w.u32(56)
	w.fourCC("vids") // fccType
	w.fourCC("MJPG") // fccHandler
	w.u32(0)         // flags
	w.u16(0)         // priority
	w.u16(0)         // language
	w.u32(0)         // initial frames
	w.u32(delayMS)   // scale
	w.u32(1000)      // rate
	w.u32(0)         // start
	w.u32(totalFrames)
	w.u32(largest) // suggested buffer size
	w.u32(0)       // quality
	w.u32(0)       // sample size
	w.u16(0)       // left
	w.u16(0)       // top
	w.u16(uint16(width))
	w.u16(uint16(height))

	// === strf (Stream Format - BITMAPINFOHEADER) - 40 bytes + 8 header ===
	w.fourCC("strf")
	w.u32(40)
	w.u32(40) // biSize
	w.u32(width)
	w.u32(height)
	w.u16(1)  // biPlanes
	w.u16(24) // biBitCount
	w.fourCC("MJPG")
	w.u32(width * height * 3)
	w.u32(0) // biXPelsPerMeter
	w.u32(0) // biYPelsPerMeter
	w.u32(0) // biClrUsed
	w.u32(0) // biClrImportant

	// === movi LIST ===
	w.fourCC("LIST")
	w.u32(moviSize)
	w.fourCC("movi")
	for _, c := range chunks {
		w.fourCC("00dc")
		w.u32(uint32(len(c)))
		w.Write(c)
		if len(c)%2 != 0 {
			w.WriteByte(0)
		}
	}

	// === idx1 (Index) ===
	w.fourCC("idx1")
	w.u32(totalFrames * 16)
	offset := uint32(4) // offset from movi start
	for _, c := range chunks {
		w.fourCC("00dc")
		w.u32(0x10) // flags: AVIIF_KEYFRAME
		w.u32(offset)
		w.u32(uint32(len(c)))
		offset += 8 + padded(len(c))
	}

	if _, err := out.Write(w.Bytes()); err != nil {
		return fmt.Errorf("write AVI: %w", err)
	}
	return nil
}
