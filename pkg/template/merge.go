// merge.go — Merge a card spec onto template and font defaults.
package template

import (
	"fmt"
	"image"
	"strings"
)

// MergeCard resolves spec into the content a frame is composed from. Fields the
// spec leaves unset take their defaults: the template's wish in the card's
// language when wish is null, and DefaultFont for every zero font field.
// Problems that do not stop rendering are returned as warnings.
func MergeCard(spec *CardSpec, reg *Registry, photo image.Image) (CardContent, []string) {
	var warnings []string
	if spec == nil {
		spec = &CardSpec{}
	}

	id := TemplateID(strings.TrimSpace(spec.Template))
	if id == "" {
		id = DefaultTemplate
	}
	tpl, known := reg.Lookup(id)
	if !known {
		warnings = append(warnings, fmt.Sprintf("unknown template %q — using fallback gradient", id))
	}

	content := CardContent{
		Template:  id,
		Name:      strings.TrimSpace(spec.Name),
		Photo:     photo,
		Font:      DefaultFont(),
		Positions: spec.Positions,
	}

	lang := spec.Language
	if lang == "" {
		lang = "en"
	}
	if spec.Wish != nil {
		content.Wish = *spec.Wish
	} else if known {
		content.Wish = tpl.Wish(lang)
	}

	mergeFont(&content.Font, spec.Font)
	return content, warnings
}

// mergeFont applies non-zero font overrides.
func mergeFont(base *FontSettings, over FontSpec) {
	if over.Family != "" {
		base.Family = over.Family
	}
	if over.Size > 0 {
		base.Size = over.Size
	}
	if over.Color != "" {
		base.Color = over.Color
	}
	if over.Bold != nil {
		base.Bold = *over.Bold
	}
	if over.Italic {
		base.Italic = true
	}
}

// ResolveCanvas returns the pixel size for c: a known preset wins, then
// explicit dimensions, then the fallback size.
func ResolveCanvas(c Canvas, fallbackW, fallbackH int) (int, int) {
	if dims, ok := Presets[c.Preset]; ok {
		return dims[0], dims[1]
	}
	w, h := fallbackW, fallbackH
	if c.Width > 0 {
		w = c.Width
	}
	if c.Height > 0 {
		h = c.Height
	}
	return min(w, MaxDimension), min(h, MaxDimension)
}
