// registry.go — Template registry: ID → decoration entry points plus metadata.
package template

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/xob0t/festivecard/pkg/decor"
)

// FallbackID is reported for frames drawn with the fallback gradient.
const FallbackID TemplateID = "fallback"

// Registry maps template IDs to templates. It is built at startup and read-only
// afterwards, so lookups need no locking.
type Registry struct {
	byID     map[TemplateID]Template
	order    []TemplateID
	fallback Template
}

// NewRegistry returns an empty registry whose unknown IDs resolve to a
// #ff6b6b → #ffa500 gradient.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[TemplateID]Template),
		fallback: newTemplate(FallbackID, "Fallback", [2]string{"#ff6b6b", "#ffa500"}, nil, decor.GradientSet("#ff6b6b", "#ffa500")),
	}
}

// Register adds t. IDs must be unique and every entry point set.
func (r *Registry) Register(t Template) error {
	if t.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if _, dup := r.byID[t.ID]; dup {
		return fmt.Errorf("template %q already registered", t.ID)
	}
	if t.Static == nil || t.Preview == nil || t.Export == nil {
		return fmt.Errorf("template %q is missing a render function", t.ID)
	}
	r.byID[t.ID] = t
	r.order = append(r.order, t.ID)
	return nil
}

// Lookup returns the template registered under id.
func (r *Registry) Lookup(id TemplateID) (Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Resolve is Lookup that never fails: unknown IDs get the fallback template.
func (r *Registry) Resolve(id TemplateID) Template {
	if t, ok := r.byID[id]; ok {
		return t
	}
	return r.fallback
}

// List returns templates in registration order.
func (r *Registry) List() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Next returns the template after id in registration order, wrapping around;
// step may be negative.
func (r *Registry) Next(id TemplateID, step int) TemplateID {
	n := len(r.order)
	if n == 0 {
		return id
	}
	idx := -1
	for i, o := range r.order {
		if o == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r.order[0]
	}
	return r.order[((idx+step)%n+n)%n]
}

// Render paints the decoration for mode. Static ignores phase.
func (t Template) Render(dc *gg.Context, w, h float64, mode Mode, phase float64) error {
	switch mode {
	case Preview:
		return t.Preview(dc, w, h, phase)
	case Export:
		return t.Export(dc, w, h, phase)
	default:
		return t.Static(dc, w, h)
	}
}

// Wish returns the default wish in lang, falling back to English.
func (t Template) Wish(lang string) string {
	if w, ok := t.Wishes[lang]; ok {
		return w
	}
	return t.Wishes["en"]
}

func newTemplate(id TemplateID, name string, colors [2]string, wishes map[string]string, set decor.Set) Template {
	return Template{
		ID:      id,
		Name:    name,
		Colors:  colors,
		Wishes:  wishes,
		Static:  set.Static,
		Preview: set.Preview,
		Export:  set.Export,
	}
}

// Builtins returns the festival templates shipped with the binary.
func Builtins() []Template {
	return []Template{
		newTemplate("dashain2", "Traditional Tika", [2]string{"#dc143c", "#ff6347"}, map[string]string{
			"en": "Wishing you a blessed Dashain filled with love and happiness.",
			"ne": "तपाईंलाई प्रेम र खुशीले भरिएको धन्य दशैंको शुभकामना।",
		}, decor.Tika),
		newTemplate("tihar1", "Tihar Lights", [2]string{"#ff8c00", "#ffd700"}, map[string]string{
			"en": "Happy Tihar! May the festival of lights illuminate your path to success.",
			"ne": "शुभ तिहार! उज्यालोको यो चाडले तपाईंको सफलताको बाटो उज्यालो पारोस्।",
		}, decor.Tihar),
		newTemplate("dashain3", "Kite Flying Day", [2]string{"#87ceeb", "#98fb98"}, map[string]string{
			"en": "May your spirits soar high like kites in the sky this Dashain!",
			"ne": "यो दशैंमा तपाईंको आत्मा आकाशमा चंगाजस्तै माथि उड्दै जाओस्!",
		}, decor.Kites),
		newTemplate("dashain4", "Peaceful Blessings", [2]string{"#f5f5f5", "#e8e8e8"}, map[string]string{
			"en": "May this Dashain bring you inner peace and boundless joy.",
			"ne": "यो दशैंले तपाईंलाई भित्री शान्ति र असीम आनन्द ल्याओस्।",
		}, decor.Peaceful),
		newTemplate("dashain5", "Durga's Grace", [2]string{"#fef9e7", "#f8f4e6"}, map[string]string{
			"en": "May Maa Durga shower you with strength, wisdom and divine blessings.",
			"ne": "माँ दुर्गाले तपाईंलाई शक्ति, बुद्धि र दिव्य आशीर्वादले भरिदिऊन्।",
		}, decor.Durga),
	}
}

// Default returns a registry holding the built-in templates.
func Default() *Registry {
	r := NewRegistry()
	for _, t := range Builtins() {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// DefaultTemplate is the template new cards start with.
const DefaultTemplate TemplateID = "dashain2"
