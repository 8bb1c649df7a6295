// Package preview drives the live animated card preview.
//
// A Driver owns the visible surface, the frame clock and its own Renderer.
// Run is the only goroutine that draws; every other method hands a command to
// it and waits for the result, so the drawing state needs no locks.
package preview

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"github.com/fogleman/gg"

	"github.com/xob0t/festivecard/pkg/anim"
	"github.com/xob0t/festivecard/pkg/export"
	"github.com/xob0t/festivecard/pkg/template"
)

// ErrStopped is returned by commands sent after Run has returned.
var ErrStopped = errors.New("preview stopped")

// DefaultRefresh is the host refresh interval the scheduler ticks at.
const DefaultRefresh = 16 * time.Millisecond

// Status describes the frame currently on screen.
type Status struct {
	Frame    int                 `json:"frame"`
	Phase    float64             `json:"phase"`
	State    string              `json:"state"`
	Template template.TemplateID `json:"template"`
	Frames   int                 `json:"frames"`
}

// Sink receives every presented frame. img is the driver's surface and is only
// valid for the duration of the call. Present is called from the Run goroutine.
type Sink interface {
	Present(img image.Image, st Status) error
}

// Ticker is the refresh source. It mirrors time.Ticker so tests can drive the
// scheduler by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Options configure a Driver.
type Options struct {
	Width, Height int
	Loop          anim.Loop
	Refresh       time.Duration              // default DefaultRefresh
	NewTicker     func(time.Duration) Ticker // default NewTicker
	Content       template.CardContent       // initial content
	Paused        bool                       // start paused
}

// Driver is the live preview scheduler.
type Driver struct {
	renderer  *template.Renderer
	sink      Sink
	width     int
	height    int
	refresh   time.Duration
	newTicker func(time.Duration) Ticker

	cmds chan func()
	done chan struct{}

	// Owned by the Run goroutine.
	clock   *anim.Clock
	content template.CardContent
	surface *gg.Context
	ticker  Ticker
}

// NewDriver creates a preview driver drawing with r and presenting to sink.
// The renderer must not be shared with another driver.
func NewDriver(r *template.Renderer, sink Sink, opts Options) *Driver {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTicker
	}
	clock := anim.NewClock(opts.Loop)
	if opts.Paused {
		clock.Pause()
	}
	return &Driver{
		renderer:  r,
		sink:      sink,
		width:     opts.Width,
		height:    opts.Height,
		refresh:   opts.Refresh,
		newTicker: opts.NewTicker,
		cmds:      make(chan func()),
		done:      make(chan struct{}),
		clock:     clock,
		content:   opts.Content,
	}
}

// Run draws the first frame and then serves ticks and commands until ctx is
// cancelled. No frame is presented after Run returns.
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.done)

	surface, err := template.NewSurface(d.width, d.height)
	if err != nil {
		return err
	}
	d.surface = surface
	d.draw()
	if d.clock.Running() {
		d.startTicker()
	}
	defer d.stopTicker()

	for {
		var tick <-chan time.Time
		if d.ticker != nil {
			tick = d.ticker.C()
		}
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-d.cmds:
			cmd()
		case now := <-tick:
			// A tick may already be queued when Pause lands.
			if !d.clock.Running() {
				continue
			}
			if d.clock.Tick(now) {
				d.draw()
			}
		}
	}
}

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} { return d.done }

func (d *Driver) startTicker() {
	d.stopTicker()
	d.ticker = d.newTicker(d.refresh)
}

func (d *Driver) stopTicker() {
	if d.ticker != nil {
		d.ticker.Stop()
		d.ticker = nil
	}
}

func (d *Driver) status() Status {
	return Status{
		Frame:    d.clock.Frame(),
		Phase:    d.clock.Phase(),
		State:    d.clock.State().String(),
		Template: d.content.Template,
		Frames:   d.clock.Loop().Frames,
	}
}

// draw composes the current frame on the visible surface and presents it.
func (d *Driver) draw() {
	if err := d.renderer.Compose(d.surface, d.content, template.Preview, d.clock.Phase()); err != nil {
		log.Printf("[PREVIEW] compose frame %d: %v", d.clock.Frame(), err)
		return
	}
	if d.sink == nil {
		return
	}
	if err := d.sink.Present(d.surface.Image(), d.status()); err != nil {
		log.Printf("[PREVIEW] present frame %d: %v", d.clock.Frame(), err)
	}
}

// do runs fn on the Run goroutine and waits for it to finish.
func (d *Driver) do(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	cmd := func() {
		fn()
		close(reply)
	}
	select {
	case d.cmds <- cmd:
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// fn runs before Run can observe anything else, so reply always closes.
	<-reply
	return nil
}

// SetContent replaces the card content. The pending tick is dropped, the frame
// index is kept and the new content is drawn at once, even while paused.
func (d *Driver) SetContent(ctx context.Context, c template.CardContent) error {
	return d.do(ctx, func() {
		d.stopTicker()
		d.content = c
		d.draw()
		if d.clock.Running() {
			d.startTicker()
		}
	})
}

// Content returns the content being previewed.
func (d *Driver) Content(ctx context.Context) (template.CardContent, error) {
	var c template.CardContent
	err := d.do(ctx, func() { c = d.content })
	return c, err
}

// Pause stops the animation on the current frame. Nothing is presented until
// Resume or a content change.
func (d *Driver) Pause(ctx context.Context) error {
	return d.do(ctx, func() {
		d.clock.Pause()
		d.stopTicker()
	})
}

// Resume continues the animation from the paused frame.
func (d *Driver) Resume(ctx context.Context) error {
	return d.do(ctx, func() {
		if d.clock.Running() && d.ticker != nil {
			return
		}
		d.clock.Resume()
		d.startTicker()
	})
}

// Toggle flips between running and paused and returns the new status.
func (d *Driver) Toggle(ctx context.Context) (Status, error) {
	var st Status
	err := d.do(ctx, func() {
		if d.clock.Toggle() == anim.Running {
			d.startTicker()
		} else {
			d.stopTicker()
		}
		st = d.status()
	})
	return st, err
}

// Status reports the frame on screen.
func (d *Driver) Status(ctx context.Context) (Status, error) {
	var st Status
	err := d.do(ctx, func() { st = d.status() })
	return st, err
}

// Snapshot renders the current frame off the visible surface as a PNG
// artifact and returns it with the frame index.
func (d *Driver) Snapshot(ctx context.Context) (*export.Artifact, int, error) {
	var (
		a     *export.Artifact
		frame int
		serr  error
	)
	err := d.do(ctx, func() {
		frame = d.clock.Frame()
		a, serr = export.Still(d.renderer, d.content, d.clock.Loop(), frame, d.width, d.height)
	})
	if err != nil {
		return nil, 0, err
	}
	return a, frame, serr
}
