package terminal

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/xob0t/festivecard/pkg/anim"
	"github.com/xob0t/festivecard/pkg/export"
	"github.com/xob0t/festivecard/pkg/preview"
	"github.com/xob0t/festivecard/pkg/template"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(w, h)
	return screen
}

func readScreenLine(screen tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := range width {
		ch, _, _, _ := screen.GetContent(x, y)
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

func newTestApp(t *testing.T) (*App, tcell.SimulationScreen) {
	t.Helper()
	screen := newScreen(t, 60, 20)
	fm, _, err := template.NewFontManager("")
	if err != nil {
		t.Fatal(err)
	}
	reg := template.Default()
	sink := NewSink(screen)
	spec := template.CardSpec{Template: "dashain2", Name: "Alice"}
	content, _ := template.MergeCard(&spec, reg, nil)

	loop := anim.Loop{Frames: 3, FPS: 15}
	pd := preview.NewDriver(template.NewRenderer(reg, fm), sink, preview.Options{
		Width: 40, Height: 60, Loop: loop, Content: content, Paused: true,
	})
	ed := export.NewDriver(template.NewRenderer(reg, fm), loop, 40, 60)
	app := NewApp(screen, sink, reg, pd, ed, spec, nil)
	app.OutDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	go pd.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-pd.Done()
	})
	if _, err := pd.Status(context.Background()); err != nil {
		t.Fatal(err)
	}
	return app, screen
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestSinkDrawsFrameAndStatus(t *testing.T) {
	screen := newScreen(t, 20, 11)
	sink := NewSink(screen)

	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for y := range 60 {
		for x := range 40 {
			c := color.RGBA{255, 0, 0, 255}
			if y >= 30 {
				c = color.RGBA{0, 0, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	if err := sink.Present(img, preview.Status{Frame: 4, Frames: 45, State: "running", Template: "tihar1"}); err != nil {
		t.Fatal(err)
	}

	// 10 rows of cells hold 20 pixel rows: the frame is 13×20 pixels.
	ch, _, style, _ := screen.GetContent(10, 0)
	if ch != upperHalf {
		t.Fatalf("cell = %q, want half block", ch)
	}
	fg, bg, _ := style.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) || bg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("top cell colors = %v/%v", fg, bg)
	}
	_, _, style, _ = screen.GetContent(10, 9)
	if fg, bg, _ := style.Decompose(); fg != tcell.NewRGBColor(0, 0, 255) || bg != tcell.NewRGBColor(0, 0, 255) {
		t.Errorf("bottom cell colors = %v/%v", fg, bg)
	}
	if ch, _, _, _ := screen.GetContent(0, 0); ch == upperHalf {
		t.Error("frame is not centered")
	}

	status := readScreenLine(screen, 10, 20)
	if !strings.HasPrefix(status, " ▶ tihar1  5/45") {
		t.Fatalf("status = %q", status)
	}
	if !strings.HasSuffix(status, "…") {
		t.Fatalf("long status not truncated: %q", status)
	}
}

func TestFitCells(t *testing.T) {
	tests := []struct {
		cols, rows int
		wantW      int
		wantH      int
	}{
		{20, 10, 13, 20},
		{80, 24, 32, 48},
		{4, 100, 4, 6},
	}
	for _, tt := range tests {
		w, h := fitCells(image.Rect(0, 0, 400, 600), tt.cols, tt.rows)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitCells(%d, %d) = %d×%d, want %d×%d", tt.cols, tt.rows, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestKeysSwitchTemplateAndToggle(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	app.HandleKey(ctx, tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	st, _ := app.Preview.Status(ctx)
	if st.Template != "tihar1" {
		t.Fatalf("after right: %q", st.Template)
	}
	c, _ := app.Preview.Content(ctx)
	tpl, _ := app.Registry.Lookup("tihar1")
	if c.Wish != tpl.Wish("en") {
		t.Fatalf("wish did not follow the template: %q", c.Wish)
	}

	app.HandleKey(ctx, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	app.HandleKey(ctx, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	if st, _ := app.Preview.Status(ctx); st.Template != "dashain5" {
		t.Fatalf("left wrap: %q", st.Template)
	}

	app.HandleKey(ctx, key(' '))
	if st, _ := app.Preview.Status(ctx); st.State != "running" {
		t.Fatalf("space did not resume: %+v", st)
	}

	if !app.HandleKey(ctx, key('q')) || !app.HandleKey(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatal("q/Esc should quit")
	}
	if app.HandleKey(ctx, key('x')) {
		t.Fatal("unbound key quit")
	}
}

func TestSnapshotKeyWritesPNG(t *testing.T) {
	app, _ := newTestApp(t)
	app.HandleKey(context.Background(), key('s'))

	if msg := app.Sink.Message(); !strings.HasPrefix(msg, "Saved ") {
		t.Fatalf("message = %q", msg)
	}
	matches, _ := filepath.Glob(filepath.Join(app.OutDir, "festival-card-*.png"))
	if len(matches) != 1 {
		t.Fatalf("snapshots = %v", matches)
	}
}

func TestExportKeyWritesGIF(t *testing.T) {
	app, _ := newTestApp(t)
	app.HandleKey(context.Background(), key('e'))

	deadline := time.Now().Add(10 * time.Second)
	for {
		matches, _ := filepath.Glob(filepath.Join(app.OutDir, "festival-card-animated-*.gif"))
		if len(matches) == 1 && strings.HasPrefix(app.Sink.Message(), "Saved ") {
			data, err := os.ReadFile(matches[0])
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(string(data), "GIF89a") {
				t.Fatal("export is not a GIF")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("export not written; message %q", app.Sink.Message())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
