// validator.go — Validate a card spec against the registry and font manager.
package template

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xob0t/festivecard/pkg/decor"
)

// ValidateCard checks a card spec for values that render poorly or not at all.
// Returns warnings (never fatal errors) for graceful degradation; fm may be nil.
func ValidateCard(spec *CardSpec, reg *Registry, fm *FontManager) []string {
	if spec == nil {
		return nil
	}
	var warnings []string

	if spec.Template != "" {
		if _, ok := reg.Lookup(TemplateID(spec.Template)); !ok {
			warnings = append(warnings, fmt.Sprintf("unknown template %q — the fallback gradient will be drawn", spec.Template))
		}
	}
	if spec.Language != "" && !slices.Contains(Languages, spec.Language) {
		warnings = append(warnings, fmt.Sprintf("unknown language %q — English wish is used", spec.Language))
	}

	f := spec.Font
	if f.Family != "" && fm != nil && !fm.Has(f.Family) {
		warnings = append(warnings, fmt.Sprintf("unknown font family %q — Go is used", f.Family))
	}
	if f.Size != 0 && (f.Size < 8 || f.Size > 120) {
		warnings = append(warnings, fmt.Sprintf("font size %.0f is outside 8–120", f.Size))
	}
	if f.Color != "" {
		if _, err := decor.ParseHex(f.Color); err != nil {
			warnings = append(warnings, fmt.Sprintf("font color: %v — white is used", err))
		}
	}

	if fm != nil {
		family := f.Family
		if family == "" {
			family = DefaultFont().Family
		}
		text := spec.Name + " " + cardWish(spec, reg)
		if missing := fm.Missing(family, text); len(missing) > 0 {
			w := fmt.Sprintf("font family %q has no glyphs for %q — they render as boxes", family, string(missing[:min(len(missing), 8)]))
			if alt := fm.Covering(text); len(alt) > 0 {
				w += "; use " + strings.Join(alt, ", ")
			} else {
				w += "; add a font that covers them to the font directory"
			}
			warnings = append(warnings, w)
		}
	}

	for label, p := range map[string]*Point{"name": spec.Positions.Name, "wish": spec.Positions.Wish} {
		if p != nil && (p.X < 0 || p.X > BaseWidth || p.Y < 0 || p.Y > BaseHeight) {
			warnings = append(warnings, fmt.Sprintf("%s position (%.0f, %.0f) is off the %dx%d layout", label, p.X, p.Y, BaseWidth, BaseHeight))
		}
	}

	c := spec.Canvas
	if c.Preset != "" {
		if _, ok := Presets[c.Preset]; !ok {
			warnings = append(warnings, fmt.Sprintf("unknown canvas preset %q — ignored", c.Preset))
		}
	}
	if c.Width < 0 || c.Height < 0 || c.Width > MaxDimension || c.Height > MaxDimension {
		warnings = append(warnings, fmt.Sprintf("canvas %dx%d is out of range — clamped", c.Width, c.Height))
	}

	slices.Sort(warnings)
	return warnings
}

// cardWish is the wish text the card will draw.
func cardWish(spec *CardSpec, reg *Registry) string {
	if spec.Wish != nil {
		return *spec.Wish
	}
	if reg == nil {
		return ""
	}
	id := TemplateID(spec.Template)
	if id == "" {
		id = DefaultTemplate
	}
	return reg.Resolve(id).Wish(spec.Language)
}

// FormatTemplates returns a human-readable listing of the registered templates.
func FormatTemplates(reg *Registry) string {
	var b strings.Builder
	b.WriteString("Templates:\n")
	for _, t := range reg.List() {
		fmt.Fprintf(&b, "\n  [%s] %s  %s → %s\n", t.ID, t.Name, t.Colors[0], t.Colors[1])
		for _, lang := range Languages {
			if w, ok := t.Wishes[lang]; ok {
				fmt.Fprintf(&b, "    %-4s %s\n", lang+":", w)
			}
		}
	}
	return b.String()
}
