package template

import (
	"archive/zip"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCardJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.json")
	body := `{"template":"tihar1","name":"Sita","wish":null,"language":"ne","photo":"me.png","font":{"size":40}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	spec, warnings, cleanup, err := LoadCard(path)
	defer cleanup()
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if spec.Photo != filepath.Join(dir, "me.png") {
		t.Errorf("photo = %q, want resolved path", spec.Photo)
	}

	content, warnings := MergeCard(spec, Default(), nil)
	if len(warnings) != 0 {
		t.Fatalf("merge warnings: %v", warnings)
	}
	if content.Wish != Default().Resolve("tihar1").Wishes["ne"] {
		t.Errorf("null wish should take the template's Nepali wish, got %q", content.Wish)
	}
	if content.Font.Size != 40 || !content.Font.Bold || content.Font.Family != "Arial" {
		t.Errorf("font = %+v", content.Font)
	}
}

func TestMergeCardEmptyWish(t *testing.T) {
	empty := ""
	content, _ := MergeCard(&CardSpec{Template: "dashain2", Wish: &empty}, Default(), nil)
	if content.Wish != "" {
		t.Errorf("explicit empty wish replaced with %q", content.Wish)
	}
	off := false
	content, _ = MergeCard(&CardSpec{Font: FontSpec{Bold: &off}}, Default(), nil)
	if content.Font.Bold || content.Template != DefaultTemplate {
		t.Errorf("content = %+v", content)
	}
}

func TestMergeCardUnknownTemplate(t *testing.T) {
	content, warnings := MergeCard(&CardSpec{Template: "doesNotExist"}, Default(), nil)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
	if content.Template != "doesNotExist" || content.Wish != "" {
		t.Errorf("content = %+v", content)
	}
}

func TestLoadCardMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	spec, warnings, cleanup, err := LoadCard(path)
	defer cleanup()
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "malformed") {
		t.Errorf("warnings = %v", warnings)
	}
	if spec.Template != string(DefaultTemplate) {
		t.Errorf("template = %q", spec.Template)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "source.png")
	writePNG(t, photo, 30, 20)

	spec := &CardSpec{Template: "dashain3", Name: "Ram"}
	bundle := filepath.Join(dir, "card"+BundleExt)
	if err := WriteBundle(bundle, spec, photo, nil); err != nil {
		t.Fatal(err)
	}

	loaded, _, cleanup, err := LoadCard(bundle)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if loaded.Name != "Ram" || loaded.Template != "dashain3" {
		t.Errorf("loaded = %+v", loaded)
	}
	img, err := LoadPhoto(loaded.Photo)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("photo bounds = %v", b)
	}

	cleanup()
	if _, err := os.Stat(loaded.Assets); !os.IsNotExist(err) {
		t.Error("cleanup left the extracted bundle behind")
	}
}

func TestLoadBundleRejectsZipSlip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil"+BundleExt)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("../escape.json")
	w.Write([]byte("{}"))
	zw.Close()
	f.Close()

	if _, _, cleanup, err := LoadCard(path); err == nil {
		cleanup()
		t.Fatal("zip slip entry accepted")
	}
}

func TestValidateCard(t *testing.T) {
	fm, _, err := NewFontManager("")
	if err != nil {
		t.Fatal(err)
	}
	bad := &CardSpec{
		Template:  "nope",
		Language:  "fr",
		Font:      FontSpec{Family: "Comic Sans", Size: 300, Color: "#12"},
		Positions: TextPositions{Name: &Point{X: 900, Y: 10}},
		Canvas:    Canvas{Preset: "huge", Width: -1},
	}
	if got := ValidateCard(bad, Default(), fm); len(got) != 8 {
		t.Errorf("got %d warnings, want 8: %v", len(got), got)
	}

	good, _ := ParseCard([]byte(GetExampleJSON()))
	if got := ValidateCard(good, Default(), fm); len(got) != 0 {
		t.Errorf("example card has warnings: %v", got)
	}
}

func TestValidateCardWarnsOnMissingGlyphs(t *testing.T) {
	fm, _, err := NewFontManager("")
	if err != nil {
		t.Fatal(err)
	}
	reg := Default()

	ne := &CardSpec{Template: "dashain2", Language: "ne"}
	got := ValidateCard(ne, reg, fm)
	if len(got) != 1 || !strings.Contains(got[0], "no glyphs") {
		t.Fatalf("Nepali wish with built-in fonts: %v", got)
	}

	en := &CardSpec{Template: "dashain2", Language: "en"}
	if got := ValidateCard(en, reg, fm); len(got) != 0 {
		t.Fatalf("English wish: %v", got)
	}

	wish := "नमस्ते"
	custom := &CardSpec{Template: "dashain2", Name: "Aarav", Wish: &wish}
	if got := ValidateCard(custom, reg, fm); len(got) != 1 {
		t.Fatalf("custom Devanagari wish: %v", got)
	}
}

func TestFontManagerMissing(t *testing.T) {
	fm, _, err := NewFontManager("")
	if err != nil {
		t.Fatal(err)
	}
	if m := fm.Missing("Arial", "Happy Dashain! café"); len(m) != 0 {
		t.Errorf("Go lacks %q", string(m))
	}
	if m := fm.Missing("Arial", "दशैं दशैं"); len(m) == 0 {
		t.Error("Go reported Devanagari coverage")
	}
	if alt := fm.Covering("दशैं"); len(alt) != 0 {
		t.Errorf("built-in families covering Devanagari: %v", alt)
	}
}

func TestResolveCanvas(t *testing.T) {
	if w, h := ResolveCanvas(Canvas{Preset: "card_hd"}, 400, 600); w != 800 || h != 1200 {
		t.Errorf("preset = %dx%d", w, h)
	}
	if w, h := ResolveCanvas(Canvas{Width: 500}, 400, 600); w != 500 || h != 600 {
		t.Errorf("partial = %dx%d", w, h)
	}
	if w, _ := ResolveCanvas(Canvas{Width: 99999}, 400, 600); w != MaxDimension {
		t.Errorf("clamp = %d", w)
	}
}

func TestFontManagerFamilies(t *testing.T) {
	fm, _, err := NewFontManager("")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Arial", "georgia", "Courier New", "Go Smallcaps"} {
		if !fm.Has(name) {
			t.Errorf("family %q missing", name)
		}
	}
	// Smallcaps has no bold variant; the regular face is used.
	if _, err := fm.Face("Go Smallcaps", 20, true, false); err != nil {
		t.Error(err)
	}
	if _, err := fm.Face("Unknown", 20, true, true); err != nil {
		t.Error(err)
	}

	_, warnings, err := NewFontManager(filepath.Join(t.TempDir(), "missing"))
	if err != nil || len(warnings) != 1 {
		t.Errorf("missing font dir: err=%v warnings=%v", err, warnings)
	}
}

func TestSplitFontName(t *testing.T) {
	tests := []struct {
		file string
		name string
		v    int
	}{
		{"Lobster-Regular.ttf", "Lobster", regular},
		{"Lobster-Bold.ttf", "Lobster", bold},
		{"Lobster-BoldItalic.otf", "Lobster", boldItalic},
		{"Mukta-Oblique.ttf", "Mukta", italic},
		{"Plain.ttf", "Plain", regular},
	}
	for _, tt := range tests {
		name, v := splitFontName(tt.file)
		if name != tt.name || v != tt.v {
			t.Errorf("splitFontName(%q) = %q, %d", tt.file, name, v)
		}
	}
}
