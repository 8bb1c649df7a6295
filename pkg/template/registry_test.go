package template

import (
	"testing"

	"github.com/fogleman/gg"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	want := []TemplateID{"dashain2", "tihar1", "dashain3", "dashain4", "dashain5"}
	list := reg.List()
	if len(list) != len(want) {
		t.Fatalf("got %d templates, want %d", len(list), len(want))
	}
	for i, tpl := range list {
		if tpl.ID != want[i] {
			t.Errorf("template %d = %s, want %s", i, tpl.ID, want[i])
		}
		for _, lang := range Languages {
			if tpl.Wish(lang) == "" {
				t.Errorf("%s has no %s wish", tpl.ID, lang)
			}
		}
	}

	if tpl, ok := reg.Lookup("tihar1"); !ok || tpl.Name != "Tihar Lights" {
		t.Errorf("Lookup(tihar1) = %+v, %v", tpl.Name, ok)
	}
	if _, ok := reg.Lookup("doesNotExist"); ok {
		t.Error("unknown id should not be found")
	}
	if got := reg.Resolve("doesNotExist").ID; got != FallbackID {
		t.Errorf("Resolve(unknown) = %s, want fallback", got)
	}
}

func TestRegisterRejectsDuplicatesAndGaps(t *testing.T) {
	reg := Default()
	if err := reg.Register(Builtins()[0]); err == nil {
		t.Error("duplicate id accepted")
	}
	if err := reg.Register(Template{ID: "half", Static: func(*gg.Context, float64, float64) error { return nil }}); err == nil {
		t.Error("template without animated entry points accepted")
	}
	if err := reg.Register(Template{}); err == nil {
		t.Error("template without id accepted")
	}
}

func TestRegistryNext(t *testing.T) {
	reg := Default()
	tests := []struct {
		from TemplateID
		step int
		want TemplateID
	}{
		{"dashain2", 1, "tihar1"},
		{"dashain5", 1, "dashain2"},
		{"dashain2", -1, "dashain5"},
		{"doesNotExist", 1, "dashain2"},
	}
	for _, tt := range tests {
		if got := reg.Next(tt.from, tt.step); got != tt.want {
			t.Errorf("Next(%s, %d) = %s, want %s", tt.from, tt.step, got, tt.want)
		}
	}
}

func TestWishFallsBackToEnglish(t *testing.T) {
	tpl := Default().Resolve("dashain4")
	if tpl.Wish("fr") != tpl.Wishes["en"] {
		t.Errorf("Wish(fr) = %q", tpl.Wish("fr"))
	}
}
