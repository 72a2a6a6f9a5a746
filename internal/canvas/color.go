package canvas

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 0xff},
	"white":       {0xff, 0xff, 0xff, 0xff},
	"red":         {0xff, 0, 0, 0xff},
	"green":       {0, 0x80, 0, 0xff},
	"blue":        {0, 0, 0xff, 0xff},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts "#rgb", "#rrggbb" and a handful of CSS color names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if named, ok := namedColors[strings.ToLower(s)]; ok {
		return named, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// ColorOr parses s, falling back to def when s is empty or malformed.
func ColorOr(s string, def color.NRGBA) color.NRGBA {
	if s == "" {
		return def
	}
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return c
}
