package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/xob0t/festivecard/pkg/anim"
	"github.com/xob0t/festivecard/pkg/template"
)

// manualTicker delivers ticks only when the test sends them.
type manualTicker struct{ c chan time.Time }

func (m manualTicker) C() <-chan time.Time { return m.c }
func (m manualTicker) Stop()               {}

type recordingSink struct {
	mu       sync.Mutex
	statuses []Status
}

func (s *recordingSink) Present(img image.Image, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statuses)
}

func (s *recordingSink) last() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[len(s.statuses)-1]
}

type harness struct {
	d      *Driver
	sink   *recordingSink
	ticks  chan time.Time
	now    time.Time
	cancel context.CancelFunc
}

func start(t *testing.T) *harness {
	t.Helper()
	fm, _, err := template.NewFontManager("")
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		sink:  &recordingSink{},
		ticks: make(chan time.Time),
		now:   time.Unix(1_700_000_000, 0),
	}
	h.d = NewDriver(template.NewRenderer(template.Default(), fm), h.sink, Options{
		Width:     40,
		Height:    60,
		Loop:      anim.DefaultLoop(),
		NewTicker: func(time.Duration) Ticker { return manualTicker{h.ticks} },
		Content:   template.CardContent{Template: "dashain2", Name: "Alice", Font: template.DefaultFont()},
	})
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.d.Done()
	})
	// Blocks until Run is serving commands.
	if _, err := h.d.Status(context.Background()); err != nil {
		t.Fatal(err)
	}
	return h
}

// tick delivers one tick a full frame interval after the previous one.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	h.now = h.now.Add(100 * time.Millisecond)
	select {
	case h.ticks <- h.now:
	case <-time.After(time.Second):
		t.Fatal("driver is not consuming ticks")
	}
}

// tickRefused reports whether the driver ignored a tick for a short while.
func (h *harness) tickRefused() bool {
	select {
	case h.ticks <- h.now.Add(time.Hour):
		return false
	case <-time.After(30 * time.Millisecond):
		return true
	}
}

func (h *harness) status(t *testing.T) Status {
	t.Helper()
	st, err := h.d.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestPreviewAdvancesOnTicks(t *testing.T) {
	h := start(t)
	if n := h.sink.count(); n != 1 {
		t.Fatalf("initial presents = %d, want 1", n)
	}
	for range 3 {
		h.tick(t)
	}
	st := h.status(t)
	if st.Frame != 3 || st.State != "running" || st.Template != "dashain2" || st.Frames != 45 {
		t.Fatalf("status = %+v", st)
	}
	if n := h.sink.count(); n != 4 {
		t.Fatalf("presents = %d, want 4", n)
	}
}

func TestPreviewThrottlesToLoopFPS(t *testing.T) {
	h := start(t)
	h.tick(t)
	// 16ms later is inside the same logical frame.
	h.ticks <- h.now.Add(16 * time.Millisecond)
	if st := h.status(t); st.Frame != 1 {
		t.Fatalf("frame = %d, want 1", st.Frame)
	}
}

func TestPreviewWrapsAtLoopEnd(t *testing.T) {
	h := start(t)
	for range 45 {
		h.tick(t)
	}
	if st := h.status(t); st.Frame != 0 {
		t.Fatalf("frame after a full loop = %d", st.Frame)
	}
}

func TestPauseResumeKeepsFrame(t *testing.T) {
	h := start(t)
	ctx := context.Background()
	for range 20 {
		h.tick(t)
	}
	if err := h.d.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	presented := h.sink.count()

	if !h.tickRefused() {
		t.Fatal("paused driver consumed a tick")
	}
	st := h.status(t)
	if st.Frame != 20 || st.State != "paused" {
		t.Fatalf("paused status = %+v", st)
	}
	if h.sink.count() != presented {
		t.Fatal("frame presented while paused")
	}

	if err := h.d.Resume(ctx); err != nil {
		t.Fatal(err)
	}
	h.tick(t)
	if st := h.status(t); st.Frame != 21 || st.State != "running" {
		t.Fatalf("resumed status = %+v", st)
	}
	if last := h.sink.last(); last.Frame != 21 {
		t.Fatalf("last presented frame = %d", last.Frame)
	}
}

func TestToggle(t *testing.T) {
	h := start(t)
	st, err := h.d.Toggle(context.Background())
	if err != nil || st.State != "paused" {
		t.Fatalf("toggle = %+v, %v", st, err)
	}
	st, _ = h.d.Toggle(context.Background())
	if st.State != "running" {
		t.Fatalf("second toggle = %+v", st)
	}
	h.tick(t)
}

func TestContentChangeRendersWhilePaused(t *testing.T) {
	h := start(t)
	ctx := context.Background()
	for range 5 {
		h.tick(t)
	}
	h.d.Pause(ctx)
	before := h.sink.count()

	c := template.CardContent{Template: "tihar1", Name: "Bob", Font: template.DefaultFont()}
	if err := h.d.SetContent(ctx, c); err != nil {
		t.Fatal(err)
	}
	if h.sink.count() != before+1 {
		t.Fatalf("presents = %d, want %d", h.sink.count(), before+1)
	}
	if last := h.sink.last(); last.Frame != 5 || last.Template != "tihar1" || last.State != "paused" {
		t.Fatalf("change frame = %+v", last)
	}
	if !h.tickRefused() {
		t.Fatal("content change restarted a paused preview")
	}
	if got, _ := h.d.Content(ctx); got.Name != "Bob" {
		t.Fatalf("content = %+v", got)
	}
}

func TestContentChangeKeepsRunning(t *testing.T) {
	h := start(t)
	h.tick(t)
	h.d.SetContent(context.Background(), template.CardContent{Template: "dashain3", Font: template.DefaultFont()})
	h.tick(t)
	if st := h.status(t); st.Frame != 2 || st.Template != "dashain3" {
		t.Fatalf("status = %+v", st)
	}
}

func TestNoPresentAfterStop(t *testing.T) {
	h := start(t)
	h.cancel()
	<-h.d.Done()
	n := h.sink.count()

	if _, err := h.d.Status(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("status after stop: err = %v", err)
	}
	if err := h.d.SetContent(context.Background(), template.CardContent{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("set content after stop: err = %v", err)
	}
	if !h.tickRefused() {
		t.Fatal("stopped driver consumed a tick")
	}
	if h.sink.count() != n {
		t.Fatal("frame presented after stop")
	}
}

func TestSnapshot(t *testing.T) {
	h := start(t)
	for range 7 {
		h.tick(t)
	}
	before := h.sink.count()
	a, frame, err := h.d.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame != 7 || a.MIME != "image/png" {
		t.Fatalf("snapshot frame=%d mime=%s", frame, a.MIME)
	}
	img, err := png.Decode(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 60 {
		t.Fatalf("bounds = %v", b)
	}
	if h.sink.count() != before {
		t.Fatal("snapshot presented a frame")
	}
}

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster(90)
	if frame, _ := b.Latest(); frame != nil {
		t.Fatal("latest before first present")
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	ch, unsubscribe := b.Subscribe()
	if err := b.Present(img, Status{Frame: 1}); err != nil {
		t.Fatal(err)
	}
	if err := b.Present(img, Status{Frame: 2}); err != nil {
		t.Fatal(err)
	}

	frame, st := b.Latest()
	if st.Frame != 2 {
		t.Fatalf("status = %+v", st)
	}
	if _, err := jpeg.Decode(bytes.NewReader(frame)); err != nil {
		t.Fatalf("latest is not a JPEG: %v", err)
	}
	// The unread frame was replaced, not queued behind.
	got := <-ch
	if !bytes.Equal(got, frame) {
		t.Fatal("subscriber did not get the newest frame")
	}
	select {
	case <-ch:
		t.Fatal("subscriber got a stale frame")
	default:
	}

	late, unsubscribeLate := b.Subscribe()
	if !bytes.Equal(<-late, frame) {
		t.Fatal("late subscriber did not start with the latest frame")
	}
	if b.Subscribers() != 2 {
		t.Fatalf("subscribers = %d", b.Subscribers())
	}
	unsubscribe()
	unsubscribe()
	unsubscribeLate()
	if b.Subscribers() != 0 {
		t.Fatalf("subscribers after unsubscribe = %d", b.Subscribers())
	}
}
