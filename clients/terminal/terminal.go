// Package terminal runs the live card preview inside a terminal.
//
// Frames are drawn with half-block characters by Sink. Keys: space pauses or
// resumes, left/right switch templates, s saves a PNG snapshot, e exports a GIF,
// q or Esc quits.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/xob0t/festivecard/pkg/export"
	"github.com/xob0t/festivecard/pkg/generator"
	"github.com/xob0t/festivecard/pkg/preview"
	"github.com/xob0t/festivecard/pkg/template"
)

// App wires a preview driver, an export driver and a tcell screen.
type App struct {
	Screen   tcell.Screen
	Sink     *Sink
	Registry *template.Registry
	Preview  *preview.Driver
	Export   *export.Driver
	OutDir   string // where snapshots and exports are written

	// Owned by the event loop.
	spec  template.CardSpec
	photo image.Image
}

// NewApp creates an app previewing spec. The preview driver must present to
// sink.
func NewApp(screen tcell.Screen, sink *Sink, reg *template.Registry, pd *preview.Driver, ed *export.Driver, spec template.CardSpec, photo image.Image) *App {
	return &App{
		Screen:   screen,
		Sink:     sink,
		Registry: reg,
		Preview:  pd,
		Export:   ed,
		OutDir:   ".",
		spec:     spec,
		photo:    photo,
	}
}

// Content returns the current compose input.
func (a *App) Content() template.CardContent {
	c, _ := template.MergeCard(&a.spec, a.Registry, a.photo)
	return c
}

// Run starts the preview and processes terminal events until the user quits or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- a.Preview.Run(ctx) }()
	go func() {
		<-ctx.Done()
		a.Screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		switch ev := a.Screen.PollEvent().(type) {
		case nil:
			cancel()
			return <-runErr
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return <-runErr
			}
		case *tcell.EventResize:
			a.Screen.Sync()
		case *tcell.EventKey:
			if a.HandleKey(ctx, ev) {
				cancel()
				return <-runErr
			}
		}
	}
}

// HandleKey applies one key press and reports whether the app should quit.
func (a *App) HandleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		a.switchTemplate(ctx, -1)
	case tcell.KeyRight:
		a.switchTemplate(ctx, 1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return true
		case ' ':
			if _, err := a.Preview.Toggle(ctx); err != nil {
				a.Sink.SetMessage("Error: " + err.Error())
			}
		case 's', 'S':
			a.saveSnapshot(ctx)
		case 'e', 'E':
			a.startExport(ctx)
		}
	}
	return false
}

func (a *App) switchTemplate(ctx context.Context, step int) {
	id := template.TemplateID(a.spec.Template)
	if id == "" {
		id = template.DefaultTemplate
	}
	a.spec.Template = string(a.Registry.Next(id, step))
	if err := a.Preview.SetContent(ctx, a.Content()); err != nil {
		a.Sink.SetMessage("Error: " + err.Error())
	}
}

func (a *App) saveSnapshot(ctx context.Context) {
	art, _, err := a.Preview.Snapshot(ctx)
	if err != nil {
		a.Sink.SetMessage("Error: " + err.Error())
		return
	}
	path, err := a.write(art)
	if err != nil {
		a.Sink.SetMessage("Error: " + err.Error())
		return
	}
	a.Sink.SetMessage("Saved " + path)
}

func (a *App) startExport(ctx context.Context) {
	req := export.Request{
		Content:  a.Content(),
		Encoder:  generator.GIF{},
		Progress: func(p export.Progress) { a.Sink.SetMessage(p.Text) },
	}
	err := a.Export.Start(ctx, req, func(art *export.Artifact, err error) {
		if err != nil {
			a.Sink.SetMessage("Export failed: " + err.Error())
			return
		}
		path, err := a.write(art)
		if err != nil {
			a.Sink.SetMessage("Error: " + err.Error())
			return
		}
		a.Sink.SetMessage("Saved " + path)
	})
	if errors.Is(err, export.ErrBusy) {
		a.Sink.SetMessage("Export already running")
	}
}

func (a *App) write(art *export.Artifact) (string, error) {
	if err := os.MkdirAll(a.OutDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(a.OutDir, art.Filename)
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", art.Filename, err)
	}
	log.Printf("[PREVIEW] wrote %s (%d bytes)", path, len(art.Data))
	return path, nil
}
