package player

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/timeline"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// controlledVideo is a white still that records controller calls.
type controlledVideo struct {
	*media.Still
	mu      sync.Mutex
	plays   int
	pauses  int
	volume  float64
	loop    bool
	applied int
}

func newControlledVideo() *controlledVideo {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return &controlledVideo{Still: media.NewStill(img)}
}

func (v *controlledVideo) Duration() time.Duration { return 10 * time.Second }
func (v *controlledVideo) Play() error {
	v.mu.Lock()
	v.plays++
	v.mu.Unlock()
	return nil
}
func (v *controlledVideo) Pause() error {
	v.mu.Lock()
	v.pauses++
	v.mu.Unlock()
	return nil
}
func (v *controlledVideo) SetVolume(vol float64) {
	v.mu.Lock()
	v.volume = vol
	v.applied++
	v.mu.Unlock()
}
func (v *controlledVideo) SetLoop(loop bool) {
	v.mu.Lock()
	v.loop = loop
	v.mu.Unlock()
}

func textScene(in, stay, out int) *timeline.Scene {
	s := timeline.NewScene(timeline.KindText)
	s.DurationIn, s.DurationStay, s.DurationOut = &in, &stay, &out
	return s
}

func mustSelect(t *testing.T, p *Player, s *timeline.Scene) Token {
	t.Helper()
	tok, err := p.Select(s)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	return tok
}

func mustPlay(t *testing.T, p *Player) Token {
	t.Helper()
	tok, err := p.Play()
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	return tok
}

func newPlayer(t *testing.T, opts ...Option) (*Player, *manualClock, *canvas.Canvas, *media.Cache) {
	t.Helper()
	clock := newManualClock()
	c := canvas.New(32, 18)
	cache := media.NewCache(media.NewDecoder(zap.NewNop(), 0, 0), zap.NewNop())
	p := New(c, cache, zap.NewNop(), append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(p.Close)
	return p, clock, c, cache
}

func TestCompletionFiresOnceInMovieMode(t *testing.T) {
	completed := 0
	p, clock, _, _ := newPlayer(t, WithOnComplete(func() { completed++ }))

	mustSelect(t, p, textScene(500, 1000, 500))
	tok := mustPlay(t, p)
	if tok == 0 || p.State() != Playing {
		t.Fatalf("Expected playing with a token, got %v/%d", p.State(), tok)
	}

	for _, step := range []time.Duration{250, 350, 1150, 249} {
		clock.Advance(step * time.Millisecond)
		if !p.Tick(tok) {
			t.Fatalf("Tick stopped early at step %v", step)
		}
	}
	if completed != 0 {
		t.Fatalf("Completed before the scene ended")
	}

	clock.Advance(time.Millisecond) // elapsed = 2000
	if p.Tick(tok) {
		t.Error("Expected movie mode to stop scheduling at DONE")
	}
	clock.Advance(time.Second)
	p.Tick(tok)
	if completed != 1 {
		t.Errorf("Expected exactly one completion, got %d", completed)
	}
	if p.State() != Idle {
		t.Errorf("Expected IDLE after completion, got %v", p.State())
	}
}

func TestPreviewModeLoops(t *testing.T) {
	completed := 0
	p, clock, _, _ := newPlayer(t, WithLoop(true), WithOnComplete(func() { completed++ }))

	mustSelect(t, p, textScene(100, 100, 100))
	tok := mustPlay(t, p)
	for i := 0; i < 2; i++ {
		clock.Advance(300 * time.Millisecond)
		if !p.Tick(tok) {
			t.Fatalf("Preview mode stopped at loop %d", i)
		}
	}
	if completed != 2 {
		t.Errorf("Expected one completion per loop, got %d", completed)
	}
	if p.State() != Playing {
		t.Errorf("Expected still playing, got %v", p.State())
	}
}

func TestZeroDurationSceneTerminates(t *testing.T) {
	completed := 0
	p, _, _, _ := newPlayer(t, WithOnComplete(func() { completed++ }))
	mustSelect(t, p, textScene(0, 0, 0))
	tok := mustPlay(t, p)
	if p.Tick(tok) {
		t.Error("Zero-length scene should finish on the first tick")
	}
	if completed != 1 {
		t.Errorf("Expected one completion, got %d", completed)
	}
}

func TestPauseCancelsToken(t *testing.T) {
	p, clock, _, _ := newPlayer(t)
	mustSelect(t, p, textScene(500, 1000, 500))
	tok := mustPlay(t, p)
	clock.Advance(100 * time.Millisecond)
	p.Tick(tok)

	p.Pause()
	if p.State() != Paused {
		t.Errorf("Expected PAUSED, got %v", p.State())
	}
	if p.Tick(tok) {
		t.Error("Tick after Pause must be ignored")
	}

	resumed := mustPlay(t, p)
	if resumed == tok {
		t.Error("Expected a fresh token after resume")
	}
	if !p.Tick(resumed) {
		t.Error("Expected resumed token to tick")
	}
	if p.Tick(0) {
		t.Error("Zero token must never tick")
	}
}

func TestSelectWhilePlayingRestarts(t *testing.T) {
	p, clock, _, _ := newPlayer(t)
	mustSelect(t, p, textScene(500, 500, 500))
	old := mustPlay(t, p)
	clock.Advance(time.Second)

	tok := mustSelect(t, p, textScene(500, 500, 500))
	if tok == 0 || tok == old {
		t.Fatalf("Expected a new token, got %d (old %d)", tok, old)
	}
	if p.Tick(old) {
		t.Error("Stale token must be ignored")
	}
	if !p.Tick(tok) {
		t.Error("New token should tick")
	}
}

func TestOnCompleteCanAdvance(t *testing.T) {
	scenes := []*timeline.Scene{textScene(0, 10, 0), textScene(0, 10, 0)}
	var p *Player
	var clock *manualClock
	current := 0
	var next Token
	p, clock, _, _ = newPlayer(t, WithOnComplete(func() {
		if current < len(scenes)-1 {
			current++
			mustSelect(t, p, scenes[current])
			next = mustPlay(t, p)
		}
	}))

	mustSelect(t, p, scenes[0])
	tok := mustPlay(t, p)
	clock.Advance(10 * time.Millisecond)
	if p.Tick(tok) {
		t.Error("Finished token should stop")
	}
	if current != 1 || next == 0 {
		t.Fatalf("Expected advance to scene 1, got %d/%d", current, next)
	}
	if !p.Tick(next) {
		t.Error("Expected next scene to tick")
	}
}

func TestPausedRendersSettledFrame(t *testing.T) {
	p, clock, c, cache := newPlayer(t)

	video := newControlledVideo()
	s := timeline.NewScene(timeline.KindVideo)
	s.Visual.Media = &media.Resource{Key: "clip", Handle: video}
	s.Visual.Volume = 0.4
	s.Visual.Loop = true
	if _, err := cache.Get(context.Background(), s.Visual.Media, media.KindVideo); err != nil {
		t.Fatal(err)
	}

	mustSelect(t, p, s)
	if video.volume != 0.4 || !video.loop {
		t.Errorf("Expected volume/loop applied on select, got %v/%v", video.volume, video.loop)
	}
	// idle: settled frame shows the media at full opacity
	if got := c.Image().RGBAAt(16, 9); got.R < 250 {
		t.Errorf("Expected settled frame with media, got %v", got)
	}

	tok := mustPlay(t, p)
	clock.Advance(10 * time.Millisecond)
	p.Tick(tok)
	if video.plays != 1 {
		t.Errorf("Expected media play once, got %d", video.plays)
	}
	p.Pause()
	if video.pauses != 1 {
		t.Errorf("Expected media pause once, got %d", video.pauses)
	}
	if got := c.Image().RGBAAt(16, 9); got.R < 250 {
		t.Errorf("Expected settled frame after pause, got %v", got)
	}

	// re-selecting the same scene re-applies volume and loop
	before := video.applied
	s.Visual.Volume = 0.8
	mustSelect(t, p, s)
	if video.applied != before+1 || video.volume != 0.8 {
		t.Errorf("Expected controller settings re-applied, got %d calls, volume %v", video.applied-before, video.volume)
	}
}

func TestClaimedCanvasSuppressesDrawing(t *testing.T) {
	p, clock, c, _ := newPlayer(t)
	s := textScene(500, 1000, 500)
	s.BackgroundColor = "#ff0000"
	s.Text.Text = ""
	mustSelect(t, p, s)
	tok := mustPlay(t, p)

	release, err := c.Claim()
	if err != nil {
		t.Fatal(err)
	}
	c.Clear(color.RGBA{0, 0, 255, 255})
	clock.Advance(600 * time.Millisecond)
	if !p.Tick(tok) {
		t.Error("Clock should keep running while the canvas is claimed")
	}
	if got := c.Image().RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("Player drew into a claimed canvas: %v", got)
	}

	release()
	clock.Advance(10 * time.Millisecond)
	p.Tick(tok)
	if got := c.Image().RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected player to draw after release, got %v", got)
	}
}

func TestMissingMediaRendersBackground(t *testing.T) {
	p, clock, c, _ := newPlayer(t)
	s := timeline.NewScene(timeline.KindImage)
	s.BackgroundColor = "#00ff00"
	s.Visual.Media = &media.Resource{Key: "broken", Data: []byte("garbage")}
	mustSelect(t, p, s)
	tok := mustPlay(t, p)
	clock.Advance(700 * time.Millisecond)
	if !p.Tick(tok) {
		t.Fatal("Tick should continue with undecodable media")
	}
	if got := c.Image().RGBAAt(16, 9); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Expected background-only frame, got %v", got)
	}
}

func TestSelectRejectsInvalidScene(t *testing.T) {
	p, clock, _, _ := newPlayer(t)
	good := textScene(500, 1000, 500)
	mustSelect(t, p, good)

	tok, err := p.Select(textScene(-500, 1000, 500))
	if !errs.IsKind(err, errs.KindInvalidScene) {
		t.Fatalf("Expected an invalid scene error, got %v", err)
	}
	if tok != 0 || p.Scene() != good {
		t.Errorf("Rejected scene must not replace the selection")
	}

	// the host may break the selected scene after Select
	good.DurationStay = nil
	tok, err = p.Play()
	if !errs.IsKind(err, errs.KindInvalidScene) {
		t.Fatalf("Expected Play to reject the edited scene, got %v", err)
	}
	clock.Advance(100 * time.Millisecond)
	if tok != 0 || p.Tick(tok) || p.State() != Idle {
		t.Errorf("Expected IDLE with no token, got %v/%d", p.State(), tok)
	}
}

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// centerPixel reads the canvas under the player's lock, since a finished
// decode redraws from its own goroutine.
func centerPixel(p *Player, c *canvas.Canvas) color.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return c.Image().RGBAAt(16, 9)
}

var red = color.RGBA{255, 0, 0, 255}

func isRed(c color.RGBA) bool { return c.R > 250 && c.G < 5 && c.B < 5 }

func TestSettledFrameRedrawsWhenMediaLoads(t *testing.T) {
	p, _, c, cache := newPlayer(t)
	s := timeline.NewScene(timeline.KindImage)
	s.BackgroundColor = "#00ff00"
	s.Visual.Media = &media.Resource{Key: "red", Data: solidPNG(t, red)}

	mustSelect(t, p, s)
	deadline := time.Now().Add(5 * time.Second)
	for !isRed(centerPixel(p, c)) {
		if time.Now().After(deadline) {
			t.Fatalf("Idle frame never showed the media: cached=%d center=%v", cache.Len(), centerPixel(p, c))
		}
		time.Sleep(5 * time.Millisecond)
	}
	if p.State() != Idle {
		t.Errorf("Expected IDLE, got %v", p.State())
	}
}

func TestMediaRequestedOnCacheMiss(t *testing.T) {
	p, clock, c, cache := newPlayer(t)
	s := timeline.NewScene(timeline.KindImage)
	stay := 100000
	s.DurationStay = &stay
	s.BackgroundColor = "#00ff00"
	s.Visual.Media = nil

	mustSelect(t, p, s)
	tok := mustPlay(t, p)
	clock.Advance(time.Second)
	p.Tick(tok)

	waitForMedia := func(stage string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for {
			clock.Advance(time.Millisecond)
			if !p.Tick(tok) {
				t.Fatalf("%s: playback stopped", stage)
			}
			if isRed(c.Image().RGBAAt(16, 9)) {
				return
			}
			if time.Now().After(deadline) {
				t.Fatalf("%s: media never drawn, cached=%d", stage, cache.Len())
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	// bound after Select
	s.Visual.Media = &media.Resource{Key: "late", Data: solidPNG(t, red)}
	waitForMedia("bound late")

	// evicted while selected
	if err := cache.Evict("late"); err != nil {
		t.Fatal(err)
	}
	waitForMedia("after eviction")
	if cache.Len() != 1 {
		t.Errorf("Expected one cached entry, got %d", cache.Len())
	}
}
