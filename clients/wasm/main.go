//go:build js && wasm

// festivecard WASM — client-side card renderer.
// Compiled with: GOOS=js GOARCH=wasm go build -o festivecard.wasm ./clients/wasm/
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"syscall/js"
	"time"

	"github.com/xob0t/festivecard/pkg/anim"
	"github.com/xob0t/festivecard/pkg/export"
	"github.com/xob0t/festivecard/pkg/generator"
	"github.com/xob0t/festivecard/pkg/template"
)

// In-memory photo store; a card's "photo" field names an entry.
var (
	assetsMu sync.RWMutex
	assets   = make(map[string]image.Image)
)

var (
	registry = template.Default()
	fonts    *template.FontManager
	stills   *template.Renderer
	loop     = anim.DefaultLoop()

	exportersMu sync.Mutex
	exporters   = make(map[[2]int]*export.Driver)
)

// frameYield is the pause between captured frames.
const frameYield = 5 * time.Millisecond

func main() {
	fm, _, err := template.NewFontManager("")
	if err != nil {
		fmt.Println("festivecard WASM: fonts:", err)
		return
	}
	fonts = fm
	stills = template.NewRenderer(registry, fonts)
	fmt.Println("festivecard WASM loaded")

	js.Global().Set("goRenderCard", js.FuncOf(renderCard))
	js.Global().Set("goExportAnimation", js.FuncOf(exportAnimation))
	js.Global().Set("goListTemplates", js.FuncOf(listTemplates))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func fail(format string, args ...any) js.Value {
	return js.ValueOf("error: " + fmt.Sprintf(format, args...))
}

// goRegisterAsset(id, base64Data) — decode a photo into Go memory.
func registerAsset(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return fail("need id, base64Data")
	}
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return fail("invalid base64: %v", err)
	}
	img, err := template.DecodePhoto(bytes.NewReader(data))
	if err != nil {
		return fail("%v", err)
	}
	assetsMu.Lock()
	assets[args[0].String()] = img
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goRemoveAsset(id) — drop a photo from Go memory.
func removeAsset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("need id")
	}
	assetsMu.Lock()
	delete(assets, args[0].String())
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// card parses specJSON into compose input and its canvas size.
func card(specJSON string) (template.CardContent, int, int) {
	spec, _ := template.ParseCard([]byte(specJSON))
	assetsMu.RLock()
	photo := assets[spec.Photo]
	assetsMu.RUnlock()
	content, _ := template.MergeCard(spec, registry, photo)
	w, h := template.ResolveCanvas(spec.Canvas, template.BaseWidth, template.BaseHeight)
	return content, w, h
}

// goRenderCard(specJSON, frame) — render one frame and return base64 PNG.
func renderCard(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("need specJSON")
	}
	frame := -1
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		frame = args[1].Int()
	}
	content, w, h := card(args[0].String())
	a, err := export.Still(stills, content, loop, frame, w, h)
	if err != nil {
		return fail("render: %v", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(a.Data))
}

// goExportAnimation(specJSON, format, onProgress) — capture one loop in the
// background. Returns a Promise resolving to the base64 artifact; onProgress,
// when given, receives (percent, text) after every step.
func exportAnimation(this js.Value, args []js.Value) any {
	return newPromise(func(resolve, reject js.Value) {
		if len(args) < 1 {
			reject.Invoke(jsError("need specJSON"))
			return
		}
		format := "gif"
		if len(args) > 1 && args[1].Type() == js.TypeString {
			format = args[1].String()
		}
		enc, err := generator.ForAnimation(format)
		if err != nil {
			reject.Invoke(jsError(err.Error()))
			return
		}
		var onProgress js.Value
		if len(args) > 2 && args[2].Type() == js.TypeFunction {
			onProgress = args[2]
		}

		content, w, h := card(args[0].String())
		req := export.Request{Content: content, Encoder: enc}
		if !onProgress.IsUndefined() {
			req.Progress = func(p export.Progress) { onProgress.Invoke(p.Percent, p.Text) }
		}
		err = exporterFor(w, h).Start(context.Background(), req, func(a *export.Artifact, err error) {
			if err != nil {
				reject.Invoke(jsError("export: " + err.Error()))
				return
			}
			resolve.Invoke(base64.StdEncoding.EncodeToString(a.Data))
		})
		if err != nil {
			reject.Invoke(jsError(err.Error()))
		}
	})
}

// exporterFor returns the export driver for a canvas size. One driver per size
// keeps the busy guard meaningful across calls.
func exporterFor(w, h int) *export.Driver {
	exportersMu.Lock()
	defer exportersMu.Unlock()
	key := [2]int{w, h}
	d, ok := exporters[key]
	if !ok {
		d = export.NewDriver(template.NewRenderer(registry, fonts), loop, w, h)
		// Sleeping parks the goroutine so the browser event loop can paint.
		d.Yield = func() { time.Sleep(frameYield) }
		exporters[key] = d
	}
	return d
}

func newPromise(run func(resolve, reject js.Value)) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(this js.Value, p []js.Value) any {
		defer executor.Release()
		run(p[0], p[1])
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}

func jsError(msg string) js.Value {
	return js.Global().Get("Error").New(msg)
}

// goListTemplates() — JSON array of {id, name, colors, wishes}.
func listTemplates(this js.Value, args []js.Value) any {
	type entry struct {
		ID     template.TemplateID `json:"id"`
		Name   string              `json:"name"`
		Colors [2]string           `json:"colors"`
		Wishes map[string]string   `json:"wishes"`
	}
	var out []entry
	for _, t := range registry.List() {
		out = append(out, entry{t.ID, t.Name, t.Colors, t.Wishes})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fail("%v", err)
	}
	return js.ValueOf(string(data))
}
