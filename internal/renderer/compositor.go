// Package renderer turns a scene and a point in time into pixels. The live
// player and the exporter both go through Draw, so the same scene at the same
// elapsed time renders identically in both.
package renderer

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/effects"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/timeline"
)

const defaultFontSize = 48

var (
	defaultBackground = color.NRGBA{0, 0, 0, 0xff}
	defaultTextColor  = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

// Frame evaluates the scene at elapsedMs and draws it.
func Frame(c *canvas.Canvas, s *timeline.Scene, h media.Handle, elapsedMs float64) (State, error) {
	st := Evaluate(s, elapsedMs)
	return st, Draw(c, s, h, st, elapsedMs)
}

// Draw paints one frame: background, then the scene content inside the
// active animation. h may be nil for scenes without media, in which case only
// the background is drawn. A media error is returned after the frame has been
// drawn without the media; callers treat it as non-fatal.
func Draw(c *canvas.Canvas, s *timeline.Scene, h media.Handle, st State, elapsedMs float64) error {
	c.Reset()
	c.Clear(canvas.ColorOr(s.BackgroundColor, defaultBackground))

	var (
		hint     *effects.TextHint
		draw     func()
		mediaErr error
	)

	switch s.Kind {
	case timeline.KindText:
		if s.Text == nil {
			break
		}
		t := *s.Text
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		fill := canvas.ColorOr(t.Color, defaultTextColor)
		hint = &effects.TextHint{Text: t.Text, FontSize: size, Color: fill}
		draw = func() {
			c.SetFontSize(size)
			c.SetFillColor(fill)
			cx, cy := c.Center()
			c.FillText(t.Text, cx, cy)
		}

	case timeline.KindImage, timeline.KindVideo:
		if h == nil {
			break
		}
		img, err := h.Frame(MediaTime(s, h, elapsedMs))
		if err != nil {
			mediaErr = err
			break
		}
		v := s.VisualOrDefault()
		draw = func() { drawVisual(c, img, v) }
	}

	effects.ApplyAnimation(c, st.Kind, st.Direction, st.Progress, draw, hint)
	return mediaErr
}

// MediaTime maps scene-local time to media time. Looping videos wrap, others
// hold their last frame.
func MediaTime(s *timeline.Scene, h media.Handle, elapsedMs float64) time.Duration {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	at := time.Duration(math.Round(elapsedMs * float64(time.Millisecond)))

	vid, ok := media.Underlying(h).(media.Video)
	if !ok || vid.Duration() <= 0 {
		return at
	}
	dur := vid.Duration()
	if s.VisualOrDefault().Loop {
		return at % dur
	}
	if at >= dur {
		return dur - time.Millisecond
	}
	return at
}

// drawVisual fits img inside the canvas keeping its aspect ratio, applies the
// scene scale and centers it.
func drawVisual(c *canvas.Canvas, img image.Image, v timeline.VisualContent) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	cw, ch := float64(c.Width()), float64(c.Height())
	iw, ih := float64(b.Dx()), float64(b.Dy())

	fit := math.Min(cw/iw, ch/ih) * v.Scale
	dw, dh := iw*fit, ih*fit

	restore := c.Save()
	defer restore()
	c.MultiplyAlpha(v.Opacity)
	c.DrawImage(img, (cw-dw)/2, (ch-dh)/2, dw, dh)
}
