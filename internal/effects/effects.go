// Package effects maps an animation kind, a direction and a phase progress to
// a canvas transform and alpha, and runs a draw callback inside that state.
package effects

import (
	"image/color"
	"math"
	"math/rand"
	"strings"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/timeline"
)

const (
	fadeOffset   = 50.0
	bounceHeight = 50.0
	floatHeight  = 20.0
	shakeWidth   = 10.0
	glitchJitter = 5.0
	lineSpacing  = 1.2
)

// TextHint lets the text-reveal kinds lay out glyphs themselves.
type TextHint struct {
	Text     string
	FontSize float64
	Color    color.Color
}

// ApplyAnimation runs draw once inside the transform for kind. The canvas
// state is restored on return, including when draw panics.
//
// progress is expected in [0, 1] and is not clamped here. For direction Out
// the animation runs backwards: p = 1 - progress.
//
// Text-reveal kinds draw hint themselves and do not call draw. Without a hint
// they fall back to a plain draw.
func ApplyAnimation(c *canvas.Canvas, kind timeline.AnimationKind, dir timeline.Direction, progress float64, draw func(), hint *TextHint) {
	restore := c.Save()
	defer restore()

	if draw == nil {
		draw = func() {}
	}

	in := dir == timeline.In
	p := progress
	if !in {
		p = 1 - progress
	}
	w, h := float64(c.Width()), float64(c.Height())
	cx, cy := c.Center()

	about := func(fn func()) {
		c.Translate(cx, cy)
		fn()
		c.Translate(-cx, -cy)
	}
	pick := func(whenIn, whenOut float64) float64 {
		if in {
			return whenIn
		}
		return whenOut
	}

	switch kind {
	case timeline.FadeIn, timeline.FadeOut:
		c.SetAlpha(p)
	case timeline.FadeUp:
		c.SetAlpha(p)
		c.Translate(0, (1-p)*fadeOffset)
	case timeline.FadeDown:
		c.SetAlpha(p)
		c.Translate(0, (p-1)*fadeOffset)
	case timeline.FadeLeft:
		c.SetAlpha(p)
		c.Translate((1-p)*fadeOffset, 0)
	case timeline.FadeRight:
		c.SetAlpha(p)
		c.Translate((p-1)*fadeOffset, 0)

	case timeline.SlideIn, timeline.SlideRight:
		c.Translate(pick(1-p, p)*w, 0)
	case timeline.SlideOut:
		c.Translate(pick(p-1, -p)*w, 0)
	case timeline.SlideUp:
		c.Translate(0, pick(1-p, p)*h)
	case timeline.SlideDown:
		c.Translate(0, pick(p-1, -p)*h)
	case timeline.SlideLeft:
		c.Translate(pick(p-1, -p)*w, 0)

	case timeline.GrowIn:
		about(func() { c.Scale(p, p) })
	case timeline.ShrinkIn:
		about(func() { c.Scale(2-p, 2-p) })
	case timeline.ZoomIn, timeline.ZoomOut:
		s := pick(p, 2-p)
		about(func() { c.Scale(s, s) })
		c.SetAlpha(pick(p, 1-(p-1)))
	case timeline.ScaleUp:
		about(func() { c.Scale(1, p) })
	case timeline.ScaleDown:
		about(func() { c.Scale(1, 2-p) })

	case timeline.Rotate:
		about(func() { c.Rotate(pick(1-p, p) * 2 * math.Pi) })
	case timeline.RotateLeft:
		about(func() { c.Rotate(pick(p-1, -p) * math.Pi) })
	case timeline.RotateRight:
		about(func() { c.Rotate(pick(1-p, p) * math.Pi) })
	case timeline.Flip, timeline.FlipX:
		about(func() { c.Scale(math.Cos(p*math.Pi), 1) })
	case timeline.FlipY:
		about(func() { c.Scale(1, math.Cos(p*math.Pi)) })

	case timeline.Bounce:
		c.Translate(0, -math.Abs(math.Sin(p*2*math.Pi))*bounceHeight)
	case timeline.Swing:
		about(func() { c.Rotate(math.Sin(p*2*math.Pi) * 0.2) })
	case timeline.Shake:
		c.Translate(math.Sin(p*8*math.Pi)*shakeWidth*(1-p), 0)
	case timeline.Pulse:
		s := pulse(p)
		about(func() { c.Scale(s, s) })
	case timeline.Float:
		c.Translate(0, math.Sin(p*2*math.Pi)*floatHeight)
	case timeline.Wobble:
		s := pulse(p)
		about(func() {
			c.Rotate(math.Sin(p*4*math.Pi) * 0.1)
			c.Scale(s, s)
		})

	case timeline.Typewriter, timeline.LetterByLetter, timeline.WordByWord:
		if hint != nil {
			c.SetFontSize(hint.FontSize)
			if hint.Color != nil {
				c.SetFillColor(hint.Color)
			}
			revealText(c, kind, p, hint.Text, cx, cy)
			return
		}
	case timeline.Glitch:
		glitch(c, progress)
	}

	draw()
}

func pulse(p float64) float64 {
	return 1 + math.Sin(p*2*math.Pi)*0.1
}

func revealText(c *canvas.Canvas, kind timeline.AnimationKind, p float64, text string, cx, cy float64) {
	switch kind {
	case timeline.Typewriter:
		runes := []rune(text)
		n := int(math.Floor(float64(len(runes)) * p))
		n = max(0, min(n, len(runes)))
		c.FillText(string(runes[:n]), cx, cy)

	case timeline.LetterByLetter:
		runes := []rune(text)
		startX := cx - c.MeasureText(text)/2
		for i, r := range runes {
			lp := p*float64(len(runes)) - float64(i)
			if lp <= 0 {
				continue
			}
			x := startX + c.MeasureText(string(runes[:i]))
			withAlpha(c, math.Min(lp, 1), func() {
				c.FillTextAligned(string(r), x, cy, canvas.AlignLeft)
			})
		}

	case timeline.WordByWord:
		words := strings.Fields(text)
		lineHeight := c.FontSize() * lineSpacing
		startY := cy - float64(len(words))*lineHeight/2 + lineHeight/2
		for i, word := range words {
			wp := p*float64(len(words)) - float64(i)
			if wp <= 0 {
				continue
			}
			y := startY + float64(i)*lineHeight
			withAlpha(c, math.Min(wp, 1), func() {
				c.FillText(word, cx, y)
			})
		}
	}
}

func withAlpha(c *canvas.Canvas, a float64, fn func()) {
	restore := c.Save()
	defer restore()
	c.MultiplyAlpha(a)
	fn()
}

// glitch jitters roughly one frame in ten. The generator is seeded from the
// progress, so a given frame always glitches the same way.
func glitch(c *canvas.Canvas, progress float64) {
	r := rand.New(rand.NewSource(int64(math.Round(progress * 1000))))
	if r.Float64() <= 0.9 {
		return
	}
	c.Translate(r.Float64()*2*glitchJitter-glitchJitter, r.Float64()*2*glitchJitter-glitchJitter)
	c.SetFillColor(color.RGBA{
		R: uint8(r.Intn(256)),
		G: uint8(r.Intn(256)),
		B: uint8(r.Intn(256)),
		A: 0xff,
	})
}
