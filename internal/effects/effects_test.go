package effects

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/timeline"
)

func allKinds() []timeline.AnimationKind {
	var kinds []timeline.AnimationKind
	for _, f := range timeline.Families {
		kinds = append(kinds, f.Kinds...)
	}
	return kinds
}

func TestFadeAlpha(t *testing.T) {
	c := canvas.New(100, 100)
	tests := []struct {
		dir      timeline.Direction
		progress float64
		want     float64
	}{
		{timeline.In, 0.5, 0.5},
		{timeline.In, 1, 1},
		{timeline.Out, 0.25, 0.75},
		{timeline.Out, 1, 0},
	}
	for _, tt := range tests {
		var got float64
		ApplyAnimation(c, timeline.FadeIn, tt.dir, tt.progress, func() { got = c.Alpha() }, nil)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("fade %v @%v: alpha = %v, want %v", tt.dir, tt.progress, got, tt.want)
		}
	}
}

func TestSlideOffsets(t *testing.T) {
	c := canvas.New(200, 100)
	tests := []struct {
		kind     timeline.AnimationKind
		dir      timeline.Direction
		progress float64
		dx, dy   float64
	}{
		{timeline.SlideIn, timeline.In, 0, 200, 0},
		{timeline.SlideIn, timeline.In, 1, 0, 0},
		{timeline.SlideIn, timeline.Out, 1, 0, 0},
		{timeline.SlideLeft, timeline.In, 0, -200, 0},
		{timeline.SlideUp, timeline.In, 0.5, 0, 50},
		{timeline.SlideDown, timeline.Out, 0.5, 0, -50},
		{timeline.FadeUp, timeline.In, 0, 0, 50},
		{timeline.Bounce, timeline.In, 0.25, 0, -50},
	}
	for _, tt := range tests {
		var m canvas.Matrix
		ApplyAnimation(c, tt.kind, tt.dir, tt.progress, func() { m = c.Matrix() }, nil)
		x, y := m.Apply(0, 0)
		if math.Abs(x-tt.dx) > 1e-9 || math.Abs(y-tt.dy) > 1e-9 {
			t.Errorf("%s %v @%v: offset (%v, %v), want (%v, %v)", tt.kind, tt.dir, tt.progress, x, y, tt.dx, tt.dy)
		}
	}
}

func TestScaleAboutCenter(t *testing.T) {
	c := canvas.New(200, 100)
	var m canvas.Matrix
	ApplyAnimation(c, timeline.GrowIn, timeline.In, 0.5, func() { m = c.Matrix() }, nil)

	x, y := m.Apply(100, 50)
	if math.Abs(x-100) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("Center moved to (%v, %v)", x, y)
	}
	x, _ = m.Apply(200, 50)
	if math.Abs(x-150) > 1e-9 {
		t.Errorf("Expected right edge at 150, got %v", x)
	}
}

func TestZoomOutAlpha(t *testing.T) {
	c := canvas.New(10, 10)
	var alpha float64
	ApplyAnimation(c, timeline.ZoomOut, timeline.Out, 0.25, func() { alpha = c.Alpha() }, nil)
	// p = 0.75, alpha = 1 - (p - 1)
	if math.Abs(alpha-1.25) > 1e-9 {
		t.Errorf("Expected unclamped alpha 1.25, got %v", alpha)
	}
}

func TestEveryKindRestoresState(t *testing.T) {
	c := canvas.New(64, 48)
	before := c.Matrix()
	for _, kind := range allKinds() {
		for _, dir := range []timeline.Direction{timeline.In, timeline.Out} {
			for _, p := range []float64{0, 0.33, 0.5, 1} {
				calls := 0
				ApplyAnimation(c, kind, dir, p, func() { calls++ }, nil)
				if calls != 1 {
					t.Errorf("%s: draw called %d times without hint", kind, calls)
				}
				if c.Matrix() != before || c.Alpha() != 1 || c.Depth() != 0 {
					t.Fatalf("%s %v @%v leaked state", kind, dir, p)
				}
			}
		}
	}
}

func TestRestoreWhenDrawPanics(t *testing.T) {
	c := canvas.New(64, 48)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic to propagate")
			}
		}()
		ApplyAnimation(c, timeline.Rotate, timeline.In, 0.3, func() { panic("boom") }, nil)
	}()
	if c.Matrix() != canvas.Identity || c.Depth() != 0 {
		t.Errorf("State leaked after panic: %v depth=%d", c.Matrix(), c.Depth())
	}
}

func TestTextRevealOwnsDrawing(t *testing.T) {
	c := canvas.New(200, 100)
	hint := &TextHint{Text: "Hello world", FontSize: 24, Color: color.White}
	for _, kind := range []timeline.AnimationKind{timeline.Typewriter, timeline.LetterByLetter, timeline.WordByWord} {
		c.Clear(color.Black)
		ApplyAnimation(c, kind, timeline.In, 1, func() {
			t.Errorf("%s called draw with a hint", kind)
		}, hint)

		lit := false
		for i := 0; i < len(c.Image().Pix); i += 4 {
			if c.Image().Pix[i] > 128 {
				lit = true
				break
			}
		}
		if !lit {
			t.Errorf("%s drew no text at full progress", kind)
		}
	}
}

func TestTypewriterAtZeroDrawsNothing(t *testing.T) {
	c := canvas.New(100, 50)
	c.Clear(color.Black)
	ApplyAnimation(c, timeline.Typewriter, timeline.In, 0, nil, &TextHint{Text: "abc", FontSize: 20, Color: color.White})
	for i, v := range c.Image().Pix {
		if i%4 != 3 && v != 0 {
			t.Fatalf("Expected blank canvas, byte %d = %d", i, v)
		}
	}
}

func TestFlipMidpointDrawsNothing(t *testing.T) {
	c := canvas.New(20, 20)
	c.Clear(color.Black)
	img := canvas.New(20, 20)
	img.Clear(color.White)

	ApplyAnimation(c, timeline.Flip, timeline.In, 0.5, func() {
		c.DrawImage(img.Image(), 0, 0, 20, 20)
	}, nil)

	if got := c.Image().RGBAAt(10, 10); got.R > 10 {
		t.Errorf("Expected nothing drawn at the flip midpoint, got %v", got)
	}
}

func TestGlitchIsDeterministic(t *testing.T) {
	render := func() []byte {
		c := canvas.New(40, 40)
		src := canvas.New(10, 10)
		src.Clear(color.White)
		c.Clear(color.Black)
		for _, p := range []float64{0.1, 0.2, 0.37, 0.5, 0.91} {
			ApplyAnimation(c, timeline.Glitch, timeline.In, p, func() {
				c.DrawImage(src.Image(), 15, 15, 10, 10)
			}, nil)
		}
		return c.Image().Pix
	}
	if !bytes.Equal(render(), render()) {
		t.Error("Glitch output differs between identical runs")
	}
}

func TestApplyAnimationIdempotent(t *testing.T) {
	draw := func(c *canvas.Canvas) {
		src := canvas.New(30, 30)
		src.Clear(color.RGBA{200, 50, 50, 255})
		ApplyAnimation(c, timeline.Wobble, timeline.In, 0.4, func() {
			c.DrawImage(src.Image(), 35, 10, 30, 30)
		}, nil)
	}
	c := canvas.New(100, 50)
	c.Clear(color.Black)
	draw(c)
	first := c.Snapshot()
	c.Clear(color.Black)
	draw(c)
	if !bytes.Equal(first.Pix, c.Image().Pix) {
		t.Error("Same inputs produced different pixels")
	}
}
