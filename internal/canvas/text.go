package canvas

import (
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/scene2video/internal/system"
)

// Align selects the horizontal anchor of FillText.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
)

var (
	fontOnce sync.Once
	fontTTF  *opentype.Font
	fontErr  error
)

func regularFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontTTF, fontErr
}

func (c *Canvas) face() (font.Face, error) {
	size := c.cur.fontSize
	if f, ok := c.faces[size]; ok {
		return f, nil
	}
	ttf, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	f, err := opentype.NewFace(ttf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %.1fpx: %w", size, err)
	}
	c.faces[size] = f
	return f, nil
}

// MeasureText returns the advance width of s at the current font size.
func (c *Canvas) MeasureText(s string) float64 {
	f, err := c.face()
	if err != nil {
		return 0
	}
	return fixedToFloat(font.MeasureString(f, s))
}

// FillText draws s centered horizontally on x and vertically on y.
func (c *Canvas) FillText(s string, x, y float64) {
	c.FillTextAligned(s, x, y, AlignCenter)
}

// FillTextAligned draws s with its vertical middle on y. With AlignLeft the
// text starts at x, otherwise it is centered on x.
func (c *Canvas) FillTextAligned(s string, x, y float64, align Align) {
	if s == "" || c.effectiveAlpha() == 0 {
		return
	}
	f, err := c.face()
	if err != nil {
		return
	}

	metrics := f.Metrics()
	ascent := fixedToFloat(metrics.Ascent)
	height := ascent + fixedToFloat(metrics.Descent)
	width := fixedToFloat(font.MeasureString(f, s))

	// one pixel of padding keeps bilinear sampling from clipping glyph edges
	mw := int(math.Ceil(width)) + 2
	mh := int(math.Ceil(height)) + 2
	mask := system.GetImage(image.Rect(0, 0, mw, mh))
	defer system.PutImage(mask)

	d := &font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(c.cur.fill),
		Face: f,
		Dot:  fixed.Point26_6{X: fixed.I(1), Y: floatToFixed(1 + ascent)},
	}
	d.DrawString(s)

	left := x
	if align == AlignCenter {
		left = x - width/2
	}
	c.DrawImage(mask, left-1, y-height/2-1, float64(mw), float64(mh))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
