// Package server provides the festivecard web UI and HTTP API.
//
// One Server owns a live preview driver streamed as MJPEG, an export driver
// for animated downloads and the artifact store. The current card lives in the
// server and every change is pushed into the preview.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/xob0t/festivecard/pkg/config"
	"github.com/xob0t/festivecard/pkg/export"
	"github.com/xob0t/festivecard/pkg/generator"
	"github.com/xob0t/festivecard/pkg/preview"
	"github.com/xob0t/festivecard/pkg/store"
	"github.com/xob0t/festivecard/pkg/template"
)

//go:embed web/*
var webContent embed.FS

const (
	thumbWidth  = 150
	thumbHeight = 225
	maxUpload   = 10 << 20
)

// Options configure a Server.
type Options struct {
	Settings config.Settings
	Registry *template.Registry    // default template.Default()
	Fonts    *template.FontManager // required
	Store    *store.Store          // nil keeps artifacts in memory
	Card     *template.CardSpec    // initial card
}

// Server is the HTTP host for one live preview.
type Server struct {
	settings config.Settings
	registry *template.Registry
	fonts    *template.FontManager
	store    *store.Store
	ownStore bool

	preview  *preview.Driver
	stream   *preview.Broadcaster
	exporter *export.Driver

	thumbMu sync.Mutex
	thumbs  *template.Renderer
	thumbed map[template.TemplateID][]byte

	mu        sync.Mutex
	spec      template.CardSpec
	photo     image.Image
	photoName string
	exporting bool // set until exportDone has stored the result
	exportErr string
	exportID  int64

	engine *gin.Engine
}

// New creates a server. Call Start (or Run) before serving requests.
func New(opts Options) (*Server, error) {
	if opts.Fonts == nil {
		return nil, errors.New("server: font manager is required")
	}
	if opts.Registry == nil {
		opts.Registry = template.Default()
	}
	s := &Server{
		settings: opts.Settings,
		registry: opts.Registry,
		fonts:    opts.Fonts,
		store:    opts.Store,
		stream:   preview.NewBroadcaster(opts.Settings.JPEGQuality),
		thumbed:  make(map[template.TemplateID][]byte),
	}
	if s.store == nil {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, err
		}
		s.store, s.ownStore = st, true
	}

	if opts.Card != nil {
		s.spec = *opts.Card
	} else {
		s.spec = template.CardSpec{Template: string(template.DefaultTemplate)}
	}
	if s.spec.Language == "" {
		s.spec.Language = opts.Settings.Language
	}

	w, h := opts.Settings.Canvas.Width, opts.Settings.Canvas.Height
	loop := opts.Settings.AnimLoop()

	s.preview = preview.NewDriver(s.newRenderer(), s.stream, preview.Options{
		Width:   w,
		Height:  h,
		Loop:    loop,
		Refresh: opts.Settings.Refresh(),
		Content: s.content(),
	})
	s.exporter = export.NewDriver(s.newRenderer(), loop, w, h)
	s.thumbs = s.newRenderer()
	s.engine = s.routes()
	return s, nil
}

func (s *Server) newRenderer() *template.Renderer {
	r := template.NewRenderer(s.registry, s.fonts)
	r.Watermark = s.settings.Watermark
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Start runs the preview driver until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go func() {
		if err := s.preview.Run(ctx); err != nil {
			log.Printf("[SERVER] preview stopped: %v", err)
		}
	}()
}

// Close releases the in-memory store, if the server opened one.
func (s *Server) Close() error {
	if s.ownStore {
		return s.store.Close()
	}
	return nil
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string, openUI bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.Start(ctx)

	hs := &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	url := "http://localhost" + addr
	log.Printf("[SERVER] festivecard UI → %s", url)
	if openUI {
		go openBrowser(url)
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return hs.Shutdown(shutdown)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = maxUpload

	api := r.Group("/api")
	{
		api.GET("/health", s.health)

		api.GET("/templates", s.listTemplates)
		api.GET("/templates/:id/thumbnail.png", s.thumbnail)

		api.GET("/card", s.getCard)
		api.PUT("/card", s.putCard)
		api.POST("/card/photo", s.uploadPhoto)
		api.DELETE("/card/photo", s.deletePhoto)

		api.POST("/preview/toggle", s.togglePreview)
		api.GET("/preview/status", s.previewStatus)
		api.GET("/preview/frame.jpg", s.previewFrame)
		api.GET("/preview/stream", s.previewStream)

		api.POST("/export/static", s.exportStatic)
		api.POST("/export/animated", s.exportAnimated)
		api.GET("/export/status", s.exportStatus)

		api.GET("/exports", s.listExports)
		api.GET("/exports/:id", s.getExport)
		api.DELETE("/exports/:id", s.deleteExport)

		api.GET("/share/qr", s.shareQR)
	}

	index, err := webContent.ReadFile("web/index.html")
	if err != nil {
		log.Printf("[SERVER] embedded UI missing: %v", err)
	}
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	return r
}

// content merges the current card into compose input. Callers must not hold mu.
func (s *Server) content() template.CardContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := template.MergeCard(&s.spec, s.registry, s.photo)
	return c
}

func (s *Server) pushContent(c *gin.Context) error {
	return s.preview.SetContent(c.Request.Context(), s.content())
}

func abort(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error()})
}

// ── Health & templates ──

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"templates": len(s.registry.List()),
		"formats":   generator.Formats(),
		"streams":   s.stream.Subscribers(),
	})
}

func (s *Server) listTemplates(c *gin.Context) {
	list := s.registry.List()
	out := make([]gin.H, 0, len(list))
	for _, t := range list {
		out = append(out, gin.H{
			"id":        t.ID,
			"name":      t.Name,
			"colors":    t.Colors,
			"wishes":    t.Wishes,
			"thumbnail": "/api/templates/" + string(t.ID) + "/thumbnail.png",
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) thumbnail(c *gin.Context) {
	id := template.TemplateID(c.Param("id"))
	if _, ok := s.registry.Lookup(id); !ok {
		abort(c, http.StatusNotFound, fmt.Errorf("unknown template %q", id))
		return
	}

	s.thumbMu.Lock()
	defer s.thumbMu.Unlock()
	if data, ok := s.thumbed[id]; ok {
		c.Data(http.StatusOK, "image/png", data)
		return
	}
	dc, err := template.NewSurface(thumbWidth, thumbHeight)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	content := template.CardContent{Template: id, Font: template.DefaultFont()}
	if err := s.thumbs.Compose(dc, content, template.Static, 0); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	var buf bytes.Buffer
	if err := generator.EncodePNG(&buf, dc.Image()); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	s.thumbed[id] = buf.Bytes()
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ── Card ──

func (s *Server) getCard(c *gin.Context) {
	s.mu.Lock()
	spec := s.spec
	hasPhoto := s.photo != nil
	photoName := s.photoName
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"card": spec, "photo": hasPhoto, "photo_name": photoName})
}

func (s *Server) putCard(c *gin.Context) {
	var spec template.CardSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("decode card: %w", err))
		return
	}
	if spec.Language == "" {
		spec.Language = s.settings.Language
	}
	// Photos arrive through /api/card/photo only.
	spec.Photo = ""
	warnings := template.ValidateCard(&spec, s.registry, s.fonts)

	s.mu.Lock()
	s.spec = spec
	s.mu.Unlock()

	if err := s.pushContent(c); err != nil {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"card": spec, "warnings": warnings})
}

func (s *Server) uploadPhoto(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("no photo uploaded"))
		return
	}
	f, err := header.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	defer f.Close()

	img, err := template.DecodePhoto(io.LimitReader(f, maxUpload))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.photo = img
	s.photoName = header.Filename
	s.mu.Unlock()

	if err := s.pushContent(c); err != nil {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	b := img.Bounds()
	c.JSON(http.StatusOK, gin.H{"name": header.Filename, "width": b.Dx(), "height": b.Dy()})
}

func (s *Server) deletePhoto(c *gin.Context) {
	s.mu.Lock()
	s.photo = nil
	s.photoName = ""
	s.mu.Unlock()
	if err := s.pushContent(c); err != nil {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ── Preview ──

func (s *Server) togglePreview(c *gin.Context) {
	st, err := s.preview.Toggle(c.Request.Context())
	if err != nil {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) previewStatus(c *gin.Context) {
	st, err := s.preview.Status(c.Request.Context())
	if err != nil {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) previewFrame(c *gin.Context) {
	frame, st := s.stream.Latest()
	if frame == nil {
		abort(c, http.StatusServiceUnavailable, errors.New("no frame rendered yet"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame", strconv.Itoa(st.Frame))
	c.Data(http.StatusOK, "image/jpeg", frame)
}

func (s *Server) previewStream(c *gin.Context) {
	frames, unsubscribe := s.stream.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-s.preview.Done():
			return false
		case frame := <-frames:
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame))
			if _, err := w.Write(frame); err != nil {
				return false
			}
			_, err := io.WriteString(w, "\r\n")
			return err == nil
		}
	})
}

// ── Export ──

func attachment(c *gin.Context, name, mime string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, mime, data)
}

func (s *Server) exportStatic(c *gin.Context) {
	a, frame, err := s.preview.Snapshot(c.Request.Context())
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	rec, err := s.store.Save(c.Request.Context(), *a)
	if err != nil {
		log.Printf("[SERVER] %v", err)
	} else {
		c.Header("X-Artifact-ID", strconv.FormatInt(rec.ID, 10))
	}
	c.Header("X-Frame", strconv.Itoa(frame))
	attachment(c, a.Filename, a.MIME, a.Data)
}

func (s *Server) exportAnimated(c *gin.Context) {
	format := c.DefaultQuery("format", s.settings.Format)
	enc, err := generator.ForAnimation(format)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	req := export.Request{Content: s.content(), Encoder: enc}
	s.mu.Lock()
	err = s.exporter.Start(context.Background(), req, s.exportDone)
	if err == nil {
		s.exporting, s.exportErr = true, ""
	}
	s.mu.Unlock()
	if errors.Is(err, export.ErrBusy) {
		abort(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "format": format, "frames": s.exporter.Loop().Frames})
}

// exportDone stores a finished animated export.
func (s *Server) exportDone(a *export.Artifact, err error) {
	if err == nil {
		var rec store.Record
		rec, err = s.store.Save(context.Background(), *a)
		if err == nil {
			if _, perr := s.store.Prune(context.Background(), s.settings.KeepExports); perr != nil {
				log.Printf("[SERVER] %v", perr)
			}
			s.mu.Lock()
			s.exporting, s.exportID, s.exportErr = false, rec.ID, ""
			s.mu.Unlock()
			return
		}
	}
	s.mu.Lock()
	s.exporting, s.exportErr = false, err.Error()
	s.mu.Unlock()
}

func (s *Server) exportStatus(c *gin.Context) {
	p := s.exporter.Last()
	s.mu.Lock()
	id, exportErr, exporting := s.exportID, s.exportErr, s.exporting
	s.mu.Unlock()
	state := s.exporter.State()
	label := state.String()
	if exporting && state == export.Idle {
		label = "saving"
	}
	c.JSON(http.StatusOK, gin.H{
		"state":       label,
		"phase":       p.State.String(),
		"percent":     p.Percent,
		"text":        p.Text,
		"frame":       p.Frame,
		"total":       p.Total,
		"error":       exportErr,
		"artifact_id": id,
	})
}

func exportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) listExports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	list, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []store.Record{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getExport(c *gin.Context) {
	id, ok := exportID(c)
	if !ok {
		return
	}
	rec, data, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	attachment(c, rec.Filename, rec.MIME, data)
}

func (s *Server) deleteExport(c *gin.Context) {
	id, ok := exportID(c)
	if !ok {
		return
	}
	err := s.store.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// ── Share ──

// shareQR returns a QR code for text, defaulting to this UI's address.
func (s *Server) shareQR(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		text = "http://" + c.Request.Host + "/"
	}
	size := 256
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = min(max(v, 64), 1024)
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
