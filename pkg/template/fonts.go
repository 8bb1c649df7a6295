// fonts.go - Font families with bold/italic variants. The embedded Go fonts
// back the common CSS family names; TTF/OTF files from a font directory add
// more families. Parsed fonts are shared; faces are created per caller since
// a font.Face is not safe for concurrent use.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// variant indexes: regular, bold, italic, bold italic.
const (
	regular = iota
	bold
	italic
	boldItalic
)

func variantOf(b, i bool) int {
	switch {
	case b && i:
		return boldItalic
	case b:
		return bold
	case i:
		return italic
	}
	return regular
}

type family struct {
	name     string
	variants [4]*opentype.Font
}

// pick returns the requested variant, degrading to the closest available one.
func (f *family) pick(v int) *opentype.Font {
	order := map[int][]int{
		regular:    {regular},
		bold:       {bold, regular},
		italic:     {italic, regular},
		boldItalic: {boldItalic, bold, italic, regular},
	}[v]
	for _, o := range order {
		if f.variants[o] != nil {
			return f.variants[o]
		}
	}
	for _, o := range f.variants {
		if o != nil {
			return o
		}
	}
	return nil
}

// FontManager holds parsed font families keyed by lower-cased name.
type FontManager struct {
	mu       sync.RWMutex
	families map[string]*family
}

var builtinFamilies = []struct {
	name    string
	aliases []string
	ttf     [4][]byte
}{
	{"Go", []string{"arial", "helvetica", "verdana", "sans-serif", "system-ui"},
		[4][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF}},
	{"Go Medium", []string{"georgia", "times new roman", "serif"},
		[4][]byte{gomedium.TTF, gobold.TTF, gomediumitalic.TTF, gobolditalic.TTF}},
	{"Go Mono", []string{"courier new", "courier", "monospace"},
		[4][]byte{gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF}},
	{"Go Smallcaps", []string{"fantasy", "cursive"},
		[4][]byte{gosmallcaps.TTF, nil, gosmallcapsitalic.TTF, nil}},
}

// NewFontManager creates a font manager with the embedded families and, when
// dir is set, every font file found there. Files that fail to load are
// reported as warnings.
func NewFontManager(dir string) (*FontManager, []string, error) {
	fm := &FontManager{families: make(map[string]*family)}

	for _, b := range builtinFamilies {
		f := &family{name: b.name}
		for v, data := range b.ttf {
			if data == nil {
				continue
			}
			parsed, err := opentype.Parse(data)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse font %s: %w", b.name, err)
			}
			f.variants[v] = parsed
		}
		fm.families[strings.ToLower(b.name)] = f
		for _, a := range b.aliases {
			fm.families[a] = f
		}
	}

	var warnings []string
	if dir != "" {
		w, err := fm.LoadDir(dir)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read font directory '%s': %v", dir, err))
		}
		warnings = append(warnings, w...)
	}
	return fm, warnings, nil
}

// LoadDir registers every .ttf/.otf file in dir. Unreadable files become
// warnings; only a failure to list dir is an error.
func (fm *FontManager) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var warnings []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		if err := fm.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not load font '%s': %v", e.Name(), err))
		}
	}
	return warnings, nil
}

// LoadFile registers one font file. The family and variant come from the file
// name: "Lobster-BoldItalic.ttf" adds the bold italic face of "Lobster".
func (fm *FontManager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}

	name, v := splitFontName(filepath.Base(path))
	fm.mu.Lock()
	defer fm.mu.Unlock()
	key := strings.ToLower(name)
	f, ok := fm.families[key]
	if !ok || isBuiltin(f) {
		f = &family{name: name}
		fm.families[key] = f
	}
	f.variants[v] = parsed
	return nil
}

func isBuiltin(f *family) bool {
	for _, b := range builtinFamilies {
		if f.name == b.name {
			return true
		}
	}
	return false
}

func splitFontName(file string) (string, int) {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	name, style, found := strings.Cut(base, "-")
	if !found {
		return base, regular
	}
	s := strings.ToLower(style)
	switch {
	case strings.Contains(s, "bold") && (strings.Contains(s, "italic") || strings.Contains(s, "oblique")):
		return name, boldItalic
	case strings.Contains(s, "bold"):
		return name, bold
	case strings.Contains(s, "italic") || strings.Contains(s, "oblique"):
		return name, italic
	}
	return name, regular
}

// Has reports whether name resolves to a known family.
func (fm *FontManager) Has(name string) bool {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	_, ok := fm.families[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Families returns the canonical family names, sorted.
func (fm *FontManager) Families() []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, f := range fm.families {
		if !seen[f.name] {
			seen[f.name] = true
			names = append(names, f.name)
		}
	}
	sort.Strings(names)
	return names
}

// Missing returns the distinct runes of text that family cannot draw, in order
// of first appearance. Unknown families are checked as Go, which is what Face
// falls back to. Whitespace and control characters are ignored.
func (fm *FontManager) Missing(name, text string) []rune {
	fm.mu.RLock()
	f, ok := fm.families[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		f = fm.families["go"]
	}
	src := f.pick(regular)
	fm.mu.RUnlock()

	var buf sfnt.Buffer
	seen := make(map[rune]bool)
	var missing []rune
	for _, r := range text {
		if seen[r] || unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		seen[r] = true
		if gi, err := src.GlyphIndex(&buf, r); err != nil || gi == 0 {
			missing = append(missing, r)
		}
	}
	return missing
}

// Covering returns the families that can draw every rune of text.
func (fm *FontManager) Covering(text string) []string {
	var names []string
	for _, name := range fm.Families() {
		if len(fm.Missing(name, text)) == 0 {
			names = append(names, name)
		}
	}
	return names
}

// Face returns a new font.Face of size pixels. Unknown families use Go.
func (fm *FontManager) Face(name string, size float64, b, i bool) (font.Face, error) {
	fm.mu.RLock()
	f, ok := fm.families[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		f = fm.families["go"]
	}
	src := f.pick(variantOf(b, i))
	fm.mu.RUnlock()

	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
