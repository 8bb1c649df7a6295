// Package template turns card specs into composed frames: the registry of
// festival templates, font handling, card files and the frame compositor.
package template

import (
	"image"

	"github.com/xob0t/festivecard/pkg/decor"
)

// ── Template types ──

// TemplateID names a registered template.
type TemplateID string

// Mode selects which decoration entry point a compose call uses.
type Mode int

const (
	Static Mode = iota
	Preview
	Export
)

func (m Mode) String() string {
	switch m {
	case Static:
		return "static"
	case Preview:
		return "preview"
	case Export:
		return "export"
	}
	return "unknown"
}

// Template is one festival design. Values are registered once and never mutated.
type Template struct {
	ID     TemplateID
	Name   string
	Colors [2]string         // gradient palette, top then bottom
	Wishes map[string]string // language → default wish

	Static  decor.StaticFunc
	Preview decor.Func
	Export  decor.Func
}

// ── Content types ──

// FontSettings describes the text style shared by name and wish.
type FontSettings struct {
	Family string
	Size   float64
	Color  string
	Bold   bool
	Italic bool
}

// Point is a position on the 400×600 base layout.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextPositions holds user-placed anchors; nil means the default slot.
type TextPositions struct {
	Name *Point `json:"name,omitempty"`
	Wish *Point `json:"wish,omitempty"`
}

// CardContent is everything a frame shows besides the decoration. It is passed
// by value; Photo is treated as read-only.
type CardContent struct {
	Template  TemplateID
	Name      string
	Wish      string
	Photo     image.Image
	Font      FontSettings
	Positions TextPositions
}

// ── Card file types ──

// CardSpec is the JSON form of a card (card.json, PUT /api/card).
type CardSpec struct {
	Template  string        `json:"template"`
	Name      string        `json:"name,omitempty"`
	Wish      *string       `json:"wish"` // nil = template default, "" = none
	Language  string        `json:"language,omitempty"`
	Photo     string        `json:"photo,omitempty"`
	Font      FontSpec      `json:"font"`
	Positions TextPositions `json:"positions"`
	Canvas    Canvas        `json:"canvas"`

	// Assets is the directory relative paths were resolved against.
	Assets string `json:"-"`
}

// FontSpec is the JSON form of FontSettings. Zero values take the defaults.
type FontSpec struct {
	Family string  `json:"family,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Color  string  `json:"color,omitempty"`
	Bold   *bool   `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// Canvas defines output dimensions. Preset overrides explicit Width/Height.
type Canvas struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Preset string `json:"preset,omitempty"`
}

// ── Layout constants ──

const (
	BaseWidth  = 400
	BaseHeight = 600

	// MaxDimension bounds either canvas side.
	MaxDimension = 4096
)

// Presets maps canvas preset names to [width, height].
var Presets = map[string][2]int{
	"card":            {400, 600},
	"card_hd":         {800, 1200},
	"card_print":      {1200, 1800},
	"thumbnail":       {150, 225},
	"instagram_story": {1080, 1920},
}

// Languages lists the wish languages every built-in template carries.
var Languages = []string{"en", "ne"}

// DefaultFont returns the font used when the card does not set one.
func DefaultFont() FontSettings {
	return FontSettings{
		Family: "Arial",
		Size:   36,
		Color:  "#ffffff",
		Bold:   true,
	}
}
