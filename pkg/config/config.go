// Package config loads festivecard settings from a JSON file under the user
// config directory. A missing file means defaults; a partial file overrides
// only the fields it sets.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/xob0t/festivecard/pkg/anim"
	"github.com/xob0t/festivecard/pkg/generator"
	"github.com/xob0t/festivecard/pkg/template"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "FESTIVECARD_CONFIG"

// Settings holds every tunable of the renderer and its hosts.
type Settings struct {
	Canvas struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"canvas"`
	Loop struct {
		Frames int `json:"frames"`
		FPS    int `json:"fps"`
	} `json:"loop"`
	RefreshMS   int    `json:"refresh_ms"`   // preview scheduler tick
	Format      string `json:"format"`       // default animated format
	Watermark   string `json:"watermark"`    // "" disables it
	Language    string `json:"language"`     // default wish language
	FontDir     string `json:"font_dir"`     // extra TTF/OTF families
	DBPath      string `json:"db_path"`      // artifact store
	Addr        string `json:"addr"`         // HTTP listen address
	KeepExports int    `json:"keep_exports"` // artifacts kept after pruning
	JPEGQuality int    `json:"jpeg_quality"` // preview stream quality
}

// Default returns the built-in settings.
func Default() Settings {
	var s Settings
	s.Canvas.Width = template.BaseWidth
	s.Canvas.Height = template.BaseHeight
	s.Loop.Frames = anim.DefaultFrames
	s.Loop.FPS = anim.DefaultFPS
	s.RefreshMS = 16
	s.Format = "gif"
	s.Watermark = template.DefaultWatermark
	s.Language = "en"
	s.Addr = ":8080"
	s.KeepExports = 50
	s.JPEGQuality = 80
	if root, err := configRoot(); err == nil {
		s.DBPath = filepath.Join(root, "exports.db")
	} else {
		s.DBPath = "festivecard-exports.db"
	}
	return s
}

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "festivecard"), nil
}

// Path returns the config file location: $FESTIVECARD_CONFIG when set,
// otherwise <UserConfigDir>/festivecard/config.json.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "config.json"), nil
}

// Load reads the settings file at Path.
func Load() (Settings, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads settings from path. A missing file yields defaults without
// error; malformed JSON yields defaults and the parse error.
func LoadFile(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	for _, w := range s.sanitize() {
		log.Printf("[CONFIG] %s: %s", path, w)
	}
	return s, nil
}

// Save writes s to path, creating parent directories.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// sanitize resets out-of-range values to their defaults and reports them.
func (s *Settings) sanitize() []string {
	d := Default()
	var warnings []string
	reset := func(ok bool, field string, fix func()) {
		if !ok {
			warnings = append(warnings, fmt.Sprintf("invalid %s, using default", field))
			fix()
		}
	}
	reset(s.Canvas.Width > 0 && s.Canvas.Width <= template.MaxDimension, "canvas.width", func() { s.Canvas.Width = d.Canvas.Width })
	reset(s.Canvas.Height > 0 && s.Canvas.Height <= template.MaxDimension, "canvas.height", func() { s.Canvas.Height = d.Canvas.Height })
	reset(s.Loop.Frames > 0 && s.Loop.Frames <= 600, "loop.frames", func() { s.Loop.Frames = d.Loop.Frames })
	reset(s.Loop.FPS > 0 && s.Loop.FPS <= 60, "loop.fps", func() { s.Loop.FPS = d.Loop.FPS })
	reset(s.RefreshMS > 0, "refresh_ms", func() { s.RefreshMS = d.RefreshMS })
	reset(slices.Contains(generator.Formats(), s.Format), "format", func() { s.Format = d.Format })
	reset(slices.Contains(template.Languages, s.Language), "language", func() { s.Language = d.Language })
	reset(s.KeepExports >= 0, "keep_exports", func() { s.KeepExports = d.KeepExports })
	reset(s.JPEGQuality > 0 && s.JPEGQuality <= 100, "jpeg_quality", func() { s.JPEGQuality = d.JPEGQuality })
	return warnings
}

// AnimLoop returns the configured animation loop.
func (s Settings) AnimLoop() anim.Loop {
	return anim.Loop{Frames: s.Loop.Frames, FPS: s.Loop.FPS}.Normalize()
}

// Refresh returns the preview scheduler interval.
func (s Settings) Refresh() time.Duration {
	return time.Duration(max(s.RefreshMS, 1)) * time.Millisecond
}
