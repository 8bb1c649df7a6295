// Package export captures one full animation loop off-screen and encodes it
// into a downloadable artifact.
//
// A Driver owns its own surface and Renderer. Each export enumerates the loop
// exactly once, composing every frame in Export mode, then hands the frame
// sequence to an encoder. Only one export runs at a time; a second request
// while one is in flight is rejected with ErrBusy instead of queued.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/xob0t/festivecard/pkg/anim"
	"github.com/xob0t/festivecard/pkg/generator"
	"github.com/xob0t/festivecard/pkg/template"
)

var (
	ErrBusy    = errors.New("export already in progress")
	ErrCapture = errors.New("frame capture failed")
	ErrEncode  = errors.New("encoding failed")
)

// State is the export lifecycle.
type State int

const (
	Idle State = iota
	Capturing
	Encoding
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Encoding:
		return "encoding"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Progress is reported to the caller as an export advances.
type Progress struct {
	Percent int    `json:"percent"`
	Text    string `json:"text"`
	State   State  `json:"-"`
	Frame   int    `json:"frame"`
	Total   int    `json:"total"`
	Err     error  `json:"-"`
}

// Artifact is an encoded card ready for download.
type Artifact struct {
	Filename  string
	MIME      string
	Data      []byte
	Width     int
	Height    int
	Frames    int
	Delay     time.Duration
	Template  string
	CreatedAt time.Time
}

// Request describes one animated export.
type Request struct {
	Content  template.CardContent
	Encoder  generator.Encoder
	Progress func(Progress) // optional; called from the exporting goroutine
}

// Driver runs exports. Its methods are safe for concurrent use.
type Driver struct {
	renderer *template.Renderer
	loop     anim.Loop
	width    int
	height   int

	// Yield runs once per captured frame so other goroutines get scheduled.
	Yield func()
	// Now stamps artifacts.
	Now func() time.Time

	mu    sync.Mutex
	state State
	last  Progress

	// newSurface allocates the capture surface; tests replace it.
	newSurface func(w, h int) (*gg.Context, error)
}

// NewDriver creates an export driver drawing w×h frames with r. The renderer
// must not be shared with another driver.
func NewDriver(r *template.Renderer, loop anim.Loop, w, h int) *Driver {
	return &Driver{
		renderer:   r,
		loop:       loop.Normalize(),
		width:      w,
		height:     h,
		Yield:      runtime.Gosched,
		Now:        time.Now,
		newSurface: template.NewSurface,
	}
}

// Loop returns the loop every export enumerates.
func (d *Driver) Loop() anim.Loop { return d.loop }

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Last returns the most recent progress report.
func (d *Driver) Last() Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// acquire moves Idle (or a finished state) to Capturing, or fails with ErrBusy.
func (d *Driver) acquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Capturing || d.state == Encoding {
		return ErrBusy
	}
	d.state = Capturing
	d.last = Progress{State: Capturing, Total: d.loop.Frames, Text: "Starting..."}
	return nil
}

func (d *Driver) report(req Request, p Progress) {
	d.mu.Lock()
	d.state = p.State
	d.last = p
	d.mu.Unlock()
	if req.Progress != nil {
		req.Progress(p)
	}
}

// Export runs one export synchronously and returns the artifact.
func (d *Driver) Export(ctx context.Context, req Request) (*Artifact, error) {
	if err := d.acquire(); err != nil {
		return nil, err
	}
	return d.run(ctx, req)
}

// Start takes the export guard synchronously and runs the export in a new
// goroutine; done receives the outcome. It returns ErrBusy when an export is
// already running.
func (d *Driver) Start(ctx context.Context, req Request, done func(*Artifact, error)) error {
	if err := d.acquire(); err != nil {
		return err
	}
	go func() {
		a, err := d.run(ctx, req)
		if done != nil {
			done(a, err)
		}
	}()
	return nil
}

func (d *Driver) run(ctx context.Context, req Request) (*Artifact, error) {
	enc := req.Encoder
	if enc == nil {
		enc = generator.GIF{}
	}
	total := d.loop.Frames
	start := time.Now()

	frames, err := d.capture(ctx, req, total)
	if err != nil {
		return nil, d.fail(req, fmt.Errorf("%w: %w", ErrCapture, err))
	}

	d.report(req, Progress{
		Percent: 90,
		Text:    fmt.Sprintf("Creating %s...", strings.ToUpper(enc.Ext())),
		State:   Encoding,
		Frame:   total,
		Total:   total,
	})

	opts := generator.Options{
		Width:     d.width,
		Height:    d.height,
		Delay:     d.loop.FrameDelay(),
		LoopCount: 0,
	}
	var out bytes.Buffer
	if err := enc.Encode(&out, frames, opts); err != nil {
		return nil, d.fail(req, fmt.Errorf("%w: %w", ErrEncode, err))
	}

	now := d.Now()
	a := &Artifact{
		Filename:  fmt.Sprintf("festival-card-animated-%d.%s", now.UnixMilli(), enc.Ext()),
		MIME:      enc.MIME(),
		Data:      out.Bytes(),
		Width:     d.width,
		Height:    d.height,
		Frames:    total,
		Delay:     d.loop.FrameDelay(),
		Template:  string(req.Content.Template),
		CreatedAt: now,
	}
	d.report(req, Progress{Percent: 100, Text: "Download ready!", State: Done, Frame: total, Total: total})
	log.Printf("[EXPORT] %s: %d frames, %d bytes in %v", a.Filename, total, len(a.Data), time.Since(start).Round(time.Millisecond))

	d.mu.Lock()
	d.state = Idle
	d.mu.Unlock()
	return a, nil
}

// capture composes every frame of the loop in order on a fresh surface and
// copies each out as an independent image.
func (d *Driver) capture(ctx context.Context, req Request, total int) ([]image.Image, error) {
	dc, err := d.newSurface(d.width, d.height)
	if err != nil {
		return nil, err
	}

	frames := make([]image.Image, 0, total)
	for i, phase := range d.loop.Enumerate() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.renderer.Compose(dc, req.Content, template.Export, phase); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frame, err := snapshot(dc, d.width, d.height)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, frame)

		d.report(req, Progress{
			Percent: (i + 1) * 80 / total,
			Text:    fmt.Sprintf("Generating frames... %d/%d", i+1, total),
			State:   Capturing,
			Frame:   i + 1,
			Total:   total,
		})
		d.Yield()
	}
	if len(frames) != total {
		return nil, fmt.Errorf("captured %d frames, want %d", len(frames), total)
	}
	return frames, nil
}

// snapshot copies the surface pixels into a new RGBA image.
func snapshot(dc *gg.Context, w, h int) (*image.RGBA, error) {
	src, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, errors.New("surface is not RGBA")
	}
	if b := src.Bounds(); b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("surface is %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		copy(out.Pix[y*out.Stride:y*out.Stride+4*w], src.Pix[y*src.Stride:y*src.Stride+4*w])
	}
	return out, nil
}

// fail reports err, passes through Failed, and leaves the driver Idle.
func (d *Driver) fail(req Request, err error) error {
	log.Printf("[EXPORT] %v", err)
	d.report(req, Progress{Percent: 0, Text: "Export failed: " + err.Error(), State: Failed, Total: d.loop.Frames, Err: err})
	d.mu.Lock()
	d.state = Idle
	d.mu.Unlock()
	return err
}

// Still renders the card as it looks at frame of loop and encodes it as a PNG
// artifact. A negative frame means no preview has run and renders phase 0.
func Still(r *template.Renderer, content template.CardContent, loop anim.Loop, frame, w, h int) (*Artifact, error) {
	dc, err := template.NewSurface(w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	loop = loop.Normalize()
	phase := 0.0
	if frame >= 0 {
		phase = loop.Phase(frame)
	}
	if err := r.Compose(dc, content, template.Preview, phase); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	var out bytes.Buffer
	if err := generator.EncodePNG(&out, dc.Image()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	now := time.Now()
	return &Artifact{
		Filename:  fmt.Sprintf("festival-card-%d.png", now.UnixMilli()),
		MIME:      generator.PNG{}.MIME(),
		Data:      out.Bytes(),
		Width:     w,
		Height:    h,
		Frames:    1,
		Template:  string(content.Template),
		CreatedAt: now,
	}, nil
}
