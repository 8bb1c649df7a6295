// festivecard — Animated festival greeting cards.
//
// Usage:
//
//	festivecard init [-o card.json] [-config]
//	festivecard templates
//	festivecard validate --card <path>
//	festivecard render -o <file.png> [--card <path>] [--frame N]
//	festivecard export -o <file.gif|.apng|.avi> [--card <path>] [--save]
//	festivecard bundle -o <file.gscard> --card <path> [--font <file>]...
//	festivecard preview [--card <path>] [--out <dir>]
//	festivecard serve [--port 8080] [--card <path>]
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/xob0t/festivecard/clients/server"
	"github.com/xob0t/festivecard/clients/terminal"
	"github.com/xob0t/festivecard/pkg/config"
	"github.com/xob0t/festivecard/pkg/export"
	"github.com/xob0t/festivecard/pkg/generator"
	"github.com/xob0t/festivecard/pkg/preview"
	"github.com/xob0t/festivecard/pkg/store"
	"github.com/xob0t/festivecard/pkg/template"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var run func(config.Settings, []string) error
	switch os.Args[1] {
	case "init":
		run = runInit
	case "templates":
		run = runTemplates
	case "validate":
		run = runValidate
	case "render":
		run = runRender
	case "export":
		run = runExport
	case "bundle":
		run = runBundle
	case "preview":
		run = runPreview
	case "serve":
		run = runServe
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err := run(settings, os.Args[2:]); err != nil {
		fatal(err)
	}
}

// cardSession is a loaded card with everything needed to compose it.
type cardSession struct {
	spec     *template.CardSpec
	photo    image.Image
	registry *template.Registry
	fonts    *template.FontManager
	cleanup  func()
}

// loadSession loads the card at path (or the default card when path is empty)
// and prints every warning.
func loadSession(s config.Settings, path string) (*cardSession, error) {
	sess := &cardSession{registry: template.Default(), cleanup: func() {}}

	if path == "" {
		sess.spec = &template.CardSpec{Template: string(template.DefaultTemplate)}
	} else {
		spec, warnings, cleanup, err := template.LoadCard(path)
		if err != nil {
			return nil, fmt.Errorf("load card: %w", err)
		}
		printWarnings(warnings)
		sess.spec, sess.cleanup = spec, cleanup
	}
	if sess.spec.Language == "" {
		sess.spec.Language = s.Language
	}

	fm, warnings, err := template.NewFontManager(s.FontDir)
	if err != nil {
		sess.cleanup()
		return nil, fmt.Errorf("fonts: %w", err)
	}
	printWarnings(warnings)
	if dir := sess.spec.FontDir(); dir != "" {
		w, err := fm.LoadDir(dir)
		if err != nil {
			printWarnings([]string{fmt.Sprintf("could not read bundle fonts: %v", err)})
		}
		printWarnings(w)
	}
	sess.fonts = fm
	printWarnings(template.ValidateCard(sess.spec, sess.registry, fm))

	if sess.spec.Photo != "" {
		photo, err := template.LoadPhoto(sess.spec.Photo)
		if err != nil {
			printWarnings([]string{fmt.Sprintf("photo skipped: %v", err)})
		} else {
			sess.photo = photo
		}
	}
	return sess, nil
}

func (c *cardSession) content() template.CardContent {
	content, warnings := template.MergeCard(c.spec, c.registry, c.photo)
	printWarnings(warnings)
	return content
}

func (c *cardSession) renderer(s config.Settings) *template.Renderer {
	r := template.NewRenderer(c.registry, c.fonts)
	r.Watermark = s.Watermark
	return r
}

func (c *cardSession) size(s config.Settings, w, h int) (int, int) {
	cw, ch := template.ResolveCanvas(c.spec.Canvas, s.Canvas.Width, s.Canvas.Height)
	if w > 0 {
		cw = min(w, template.MaxDimension)
	}
	if h > 0 {
		ch = min(h, template.MaxDimension)
	}
	return cw, ch
}

func runInit(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var out string
	var writeConfig bool
	fs.StringVar(&out, "o", "card.json", "Output path for the sample card")
	fs.BoolVar(&writeConfig, "config", false, "Also write the default settings file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(out, []byte(template.GetExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write card: %w", err)
	}
	fmt.Printf("Created: %s\n", out)

	if writeConfig {
		path, err := config.Path()
		if err != nil {
			return err
		}
		if err := config.Save(path, s); err != nil {
			return err
		}
		fmt.Printf("Created: %s\n", path)
	}
	fmt.Printf("Run: festivecard render -o card.png --card %s\n", out)
	return nil
}

func runTemplates(s config.Settings, args []string) error {
	fmt.Print(template.FormatTemplates(template.Default()))
	return nil
}

func runValidate(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var cardPath string
	fs.StringVar(&cardPath, "card", "", "Path to card.json or .gscard bundle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cardPath == "" {
		return fmt.Errorf("--card is required for validate")
	}

	spec, warnings, cleanup, err := template.LoadCard(cardPath)
	if err != nil {
		return err
	}
	defer cleanup()

	fm, fontWarnings, err := template.NewFontManager(s.FontDir)
	if err != nil {
		return err
	}
	if dir := spec.FontDir(); dir != "" {
		w, _ := fm.LoadDir(dir)
		fontWarnings = append(fontWarnings, w...)
	}
	warnings = append(warnings, fontWarnings...)
	warnings = append(warnings, template.ValidateCard(spec, template.Default(), fm)...)
	if spec.Photo != "" {
		if _, err := os.Stat(spec.Photo); err != nil {
			warnings = append(warnings, fmt.Sprintf("photo %s: %v", spec.Photo, err))
		}
	}

	if len(warnings) == 0 {
		fmt.Printf("OK: %s\n", cardPath)
		return nil
	}
	printWarnings(warnings)
	return fmt.Errorf("%d problem(s) in %s", len(warnings), cardPath)
}

func runRender(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var (
		output   string
		cardPath string
		frame    int
		width    int
		height   int
	)
	fs.StringVar(&output, "o", "", "Output PNG path")
	fs.StringVar(&output, "output", "", "Output PNG path")
	fs.StringVar(&cardPath, "card", "", "Path to card.json or .gscard bundle")
	fs.IntVar(&frame, "frame", -1, "Animation frame to render (default: static phase 0)")
	fs.IntVar(&width, "w", 0, "Width in pixels (default: card canvas)")
	fs.IntVar(&height, "h", 0, "Height in pixels (default: card canvas)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if output == "" {
		return fmt.Errorf("output file is required (-o)")
	}

	sess, err := loadSession(s, cardPath)
	if err != nil {
		return err
	}
	defer sess.cleanup()

	w, h := sess.size(s, width, height)
	fmt.Printf("Rendering %s (%dx%d)\n", sess.spec.Template, w, h)
	a, err := export.Still(sess.renderer(s), sess.content(), s.AnimLoop(), frame, w, h)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, a.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

func runExport(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var (
		output   string
		cardPath string
		format   string
		width    int
		height   int
		save     bool
	)
	fs.StringVar(&output, "o", "", "Output file (.gif, .apng or .avi)")
	fs.StringVar(&output, "output", "", "Output file (.gif, .apng or .avi)")
	fs.StringVar(&cardPath, "card", "", "Path to card.json or .gscard bundle")
	fs.StringVar(&format, "format", "", "Format when -o has no known extension")
	fs.IntVar(&width, "w", 0, "Width in pixels (default: card canvas)")
	fs.IntVar(&height, "h", 0, "Height in pixels (default: card canvas)")
	fs.BoolVar(&save, "save", false, "Also keep the export in the artifact store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if output == "" {
		return fmt.Errorf("output file is required (-o)")
	}
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
		if format == "" {
			format = s.Format
		}
	}
	enc, err := generator.ForAnimation(format)
	if err != nil {
		return err
	}

	sess, err := loadSession(s, cardPath)
	if err != nil {
		return err
	}
	defer sess.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, h := sess.size(s, width, height)
	d := export.NewDriver(sess.renderer(s), s.AnimLoop(), w, h)
	last := ""
	a, err := d.Export(ctx, export.Request{
		Content: sess.content(),
		Encoder: enc,
		Progress: func(p export.Progress) {
			if p.Text != last && (p.Frame%15 == 0 || p.Percent >= 90) {
				fmt.Printf("[%3d%%] %s\n", p.Percent, p.Text)
				last = p.Text
			}
		},
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, a.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	if save {
		st, err := store.Open(s.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		rec, err := st.Save(ctx, *a)
		if err != nil {
			return err
		}
		if _, err := st.Prune(ctx, s.KeepExports); err != nil {
			return err
		}
		fmt.Printf("Stored as #%d in %s\n", rec.ID, s.DBPath)
	}
	fmt.Printf("Done: %s (%d frames, %d bytes)\n", output, a.Frames, len(a.Data))
	return nil
}

func runBundle(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("bundle", flag.ExitOnError)
	var output, cardPath string
	var fonts multiFlag
	fs.StringVar(&output, "o", "", "Output .gscard path")
	fs.StringVar(&cardPath, "card", "", "Path to card.json")
	fs.Var(&fonts, "font", "Font file to include (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if output == "" || cardPath == "" {
		return fmt.Errorf("-o and --card are required for bundle")
	}

	spec, warnings, cleanup, err := template.LoadCard(cardPath)
	if err != nil {
		return err
	}
	defer cleanup()
	printWarnings(warnings)

	if err := template.WriteBundle(output, spec, spec.Photo, fonts); err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", output)
	return nil
}

type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func runPreview(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	var cardPath, outDir, logPath string
	fs.StringVar(&cardPath, "card", "", "Path to card.json or .gscard bundle")
	fs.StringVar(&outDir, "out", ".", "Directory for snapshots and exports")
	fs.StringVar(&logPath, "log", "", "Write logs to this file while the preview runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := loadSession(s, cardPath)
	if err != nil {
		return err
	}
	defer sess.cleanup()

	// Log lines would tear the terminal picture.
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}
	defer log.SetOutput(os.Stderr)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	w, h := sess.size(s, 0, 0)
	sink := terminal.NewSink(screen)
	pd := preview.NewDriver(sess.renderer(s), sink, preview.Options{
		Width:   w,
		Height:  h,
		Loop:    s.AnimLoop(),
		Refresh: s.Refresh(),
		Content: sess.content(),
	})
	ed := export.NewDriver(sess.renderer(s), s.AnimLoop(), w, h)
	app := terminal.NewApp(screen, sink, sess.registry, pd, ed, *sess.spec, sess.photo)
	app.OutDir = outDir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

func runServe(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var port, cardPath string
	var noOpen bool
	fs.StringVar(&port, "port", "", "Listen port (default: from settings)")
	fs.StringVar(&port, "p", "", "Listen port (default: from settings)")
	fs.StringVar(&cardPath, "card", "", "Initial card.json or .gscard bundle")
	fs.BoolVar(&noOpen, "no-open", false, "Do not open a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr := s.Addr
	if port != "" {
		addr = ":" + port
	}

	sess, err := loadSession(s, cardPath)
	if err != nil {
		return err
	}
	defer sess.cleanup()

	st, err := store.Open(s.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := server.New(server.Options{
		Settings: s,
		Registry: sess.registry,
		Fonts:    sess.fonts,
		Store:    st,
		Card:     sess.spec,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, addr, !noOpen)
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`festivecard — Animated Festival Greeting Cards

USAGE:
    festivecard init [-o card.json] [-config]
    festivecard templates
    festivecard validate --card <path>
    festivecard render -o <file.png> [--card <path>] [options]
    festivecard export -o <file> [--card <path>] [options]
    festivecard bundle -o <file.gscard> --card <path> [--font <file>]...
    festivecard preview [--card <path>] [--out <dir>]
    festivecard serve [--port 8080] [--card <path>] [--no-open]

RENDER:
    --frame <n>            Animation frame to render (default: phase 0)
    -w, -h <px>            Override the card canvas size

EXPORT:
    -o <file>              .gif, .apng or .avi (format follows the extension)
    --format <name>        gif, apng or avi when -o has no extension
    --save                 Keep the export in the artifact store

PREVIEW KEYS:
    space                  Pause / resume
    ← / →                  Previous / next template
    s                      Save PNG snapshot
    e                      Export GIF
    q, Esc                 Quit

SETTINGS:
    $FESTIVECARD_CONFIG or <config dir>/festivecard/config.json

EXAMPLES:
    festivecard init
    festivecard render -o card.png --card card.json
    festivecard export -o card.gif --card card.json
    festivecard export -o card.apng --card card.gscard --save
    festivecard preview --card card.json
    festivecard serve
`)
}
