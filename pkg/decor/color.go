// color.go — Hex color parsing shared by decorations and the compositor.
package decor

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading # is optional).
func ParseHex(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected #rgb, #rrggbb or #rrggbbaa", s)
	}

	channel := func(i int, name string) (uint8, error) {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid %s channel in %q: %w", name, s, err)
		}
		return uint8(v), nil
	}

	r, err := channel(0, "red")
	if err != nil {
		return color.NRGBA{}, err
	}
	g, err := channel(2, "green")
	if err != nil {
		return color.NRGBA{}, err
	}
	b, err := channel(4, "blue")
	if err != nil {
		return color.NRGBA{}, err
	}
	a := uint8(255)
	if len(hex) == 8 {
		if a, err = channel(6, "alpha"); err != nil {
			return color.NRGBA{}, err
		}
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// Hex converts a hex string to a color. Returns white on any parse error
// (safe default for rendering).
func Hex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		return color.NRGBA{255, 255, 255, 255}
	}
	return c
}

// Alpha returns c with its alpha replaced by a ∈ [0,1].
func Alpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(clamp01(a)*255 + 0.5)
	return c
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
