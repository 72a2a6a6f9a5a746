// Package canvas is a small immediate-mode 2D raster surface: an affine
// transform stack with scoped checkpoints, a global alpha, and image and text
// drawing on top of golang.org/x/image.
//
// Both the live player and the exporter draw through the same Canvas code, so
// a frame rendered at the same logical time is pixel-identical in both.
package canvas

import (
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/ivlev/scene2video/internal/errs"
)

type state struct {
	matrix   Matrix
	alpha    float64
	fill     color.Color
	fontSize float64
}

func defaultState() state {
	return state{matrix: Identity, alpha: 1, fill: color.White, fontSize: 48}
}

// Canvas is not safe for concurrent drawing. Claim arbitrates which loop may
// write to it.
type Canvas struct {
	img   *image.RGBA
	cur   state
	stack []state
	faces map[float64]font.Face

	claimed atomic.Bool
}

func New(width, height int) *Canvas {
	return &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		cur:   defaultState(),
		faces: make(map[float64]font.Face),
	}
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Center returns the canvas center in pixel coordinates.
func (c *Canvas) Center() (float64, float64) {
	return float64(c.Width()) / 2, float64(c.Height()) / 2
}

// Image exposes the backing buffer. It is overwritten by the next frame.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Snapshot copies the current pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	out := image.NewRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}

// Save pushes a checkpoint of the drawing state and returns the function that
// restores it. Restoring is idempotent and also unwinds any checkpoints saved
// after this one, so `defer c.Save()()` is safe on every exit path.
func (c *Canvas) Save() (restore func()) {
	depth := len(c.stack)
	c.stack = append(c.stack, c.cur)
	return func() {
		if len(c.stack) <= depth {
			return
		}
		c.cur = c.stack[depth]
		c.stack = c.stack[:depth]
	}
}

// Depth is the number of open checkpoints.
func (c *Canvas) Depth() int { return len(c.stack) }

// Reset drops every checkpoint and returns to the default state.
func (c *Canvas) Reset() {
	c.stack = c.stack[:0]
	c.cur = defaultState()
}

func (c *Canvas) Matrix() Matrix { return c.cur.matrix }

func (c *Canvas) Transform(m Matrix) { c.cur.matrix = c.cur.matrix.Mul(m) }

func (c *Canvas) Translate(x, y float64) { c.Transform(TranslateMatrix(x, y)) }

func (c *Canvas) Scale(sx, sy float64) { c.Transform(ScaleMatrix(sx, sy)) }

func (c *Canvas) Rotate(theta float64) { c.Transform(RotateMatrix(theta)) }

// Alpha returns the global alpha as set, which may lie outside [0, 1].
func (c *Canvas) Alpha() float64 { return c.cur.alpha }

// SetAlpha replaces the global alpha. Values are clamped at draw time.
func (c *Canvas) SetAlpha(a float64) { c.cur.alpha = a }

// MultiplyAlpha composes an additional opacity onto the global alpha.
func (c *Canvas) MultiplyAlpha(a float64) { c.cur.alpha *= a }

func (c *Canvas) SetFillColor(col color.Color) { c.cur.fill = col }

func (c *Canvas) FillColor() color.Color { return c.cur.fill }

func (c *Canvas) SetFontSize(size float64) {
	if size > 0 {
		c.cur.fontSize = size
	}
}

func (c *Canvas) FontSize() float64 { return c.cur.fontSize }

// Clear fills the whole surface with col, ignoring transform and alpha.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) effectiveAlpha() float64 {
	a := c.cur.alpha
	if math.IsNaN(a) || a <= 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// DrawImage draws src scaled into the rectangle (x, y, w, h) under the
// current transform and global alpha. A degenerate transform (for example a
// flip passing through zero width) draws nothing.
func (c *Canvas) DrawImage(src image.Image, x, y, w, h float64) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	if sb.Empty() || w == 0 || h == 0 {
		return
	}
	alpha := c.effectiveAlpha()
	if alpha == 0 {
		return
	}

	m := c.cur.matrix.
		Mul(TranslateMatrix(x, y)).
		Mul(ScaleMatrix(w/float64(sb.Dx()), h/float64(sb.Dy()))).
		Mul(TranslateMatrix(-float64(sb.Min.X), -float64(sb.Min.Y)))
	if m.Singular() {
		return
	}

	var opts *draw.Options
	if alpha < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha16{A: uint16(alpha * 0xffff)})}
	}
	draw.BiLinear.Transform(c.img, m.aff3(), src, sb, draw.Over, opts)
}

// Claim takes exclusive write ownership of the canvas for a non-live
// renderer. While claimed, the live player skips its writes. A second claim
// fails with errs.ErrExportInProgress.
func (c *Canvas) Claim() (release func(), err error) {
	if !c.claimed.CompareAndSwap(false, true) {
		return nil, errs.ErrExportInProgress
	}
	var once sync.Once
	return func() {
		once.Do(func() { c.claimed.Store(false) })
	}, nil
}

// Claimed reports whether an exclusive writer currently owns the canvas.
func (c *Canvas) Claimed() bool { return c.claimed.Load() }
