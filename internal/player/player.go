// Package player drives live playback of one scene at a time. The host calls
// Tick once per presented frame with the token Play returned; the player
// renders into the shared canvas and reports when the scene is done.
package player

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/timeline"
)

type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "IDLE"
	}
}

// Clock is the time source. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Token identifies one scheduled run of the clock. Pause, Stop and Select
// cancel it; Tick ignores cancelled tokens. The zero Token is never valid.
type Token uint64

type Player struct {
	log    *zap.Logger
	canvas *canvas.Canvas
	cache  *media.Cache
	clock  Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	scene     *timeline.Scene
	start     time.Time
	token     Token
	lastToken Token
	completed bool

	loop       bool
	onComplete func()

	// media bookkeeping for the current scene
	selection    uint64
	requested    string
	applied      media.Handle
	mediaPlaying bool
	mediaErrSeen bool
}

type Option func(*Player)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(p *Player) { p.clock = c } }

// WithLoop selects preview mode: a finished scene restarts from ENTER instead
// of stopping.
func WithLoop(loop bool) Option { return func(p *Player) { p.loop = loop } }

// WithOnComplete sets the scene-complete callback. It runs at most once per
// activation, outside the player's lock, so it may call Select and Play.
func WithOnComplete(fn func()) Option { return func(p *Player) { p.onComplete = fn } }

func New(c *canvas.Canvas, cache *media.Cache, log *zap.Logger, opts ...Option) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		log:    log,
		canvas: c,
		cache:  cache,
		clock:  systemClock{},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetLoop switches between preview (looping) and movie mode.
func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	p.loop = loop
	p.mu.Unlock()
}

func (p *Player) SetOnComplete(fn func()) {
	p.mu.Lock()
	p.onComplete = fn
	p.mu.Unlock()
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Scene() *timeline.Scene {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scene
}

// Select makes s the active scene. If the player was playing it restarts on
// the new scene and returns the new token; otherwise it renders the settled
// frame and returns 0. A scene that fails validation is rejected with an
// InvalidScene error and the current selection stays as it was.
func (p *Player) Select(s *timeline.Scene) (Token, error) {
	if s != nil {
		if err := s.Validate(); err != nil {
			return 0, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pauseMediaLocked()
	p.token = 0
	p.scene = s
	p.selection++
	p.applied = nil
	p.requested = ""
	p.mediaErrSeen = false

	p.syncMediaLocked()

	if p.state == Playing && s != nil {
		return p.activateLocked(), nil
	}
	if s == nil {
		p.state = Idle
	}
	p.renderStaticLocked()
	return 0, nil
}

// Play starts the clock for the selected scene from ENTER. The scene is
// validated again since the host may have edited it after Select.
func (p *Player) Play() (Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scene == nil {
		return 0, nil
	}
	if err := p.scene.Validate(); err != nil {
		return 0, err
	}
	p.state = Playing
	return p.activateLocked(), nil
}

func (p *Player) activateLocked() Token {
	p.lastToken++
	p.token = p.lastToken
	p.start = p.clock.Now()
	p.completed = false
	p.log.Debug("Scene activated", zap.String("scene", p.scene.ID), zap.Uint64("token", uint64(p.token)))
	return p.token
}

// Pause freezes playback and shows the settled frame.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing {
		return
	}
	p.state = Paused
	p.token = 0
	p.pauseMediaLocked()
	p.renderStaticLocked()
}

// Stop returns to IDLE.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Idle
	p.token = 0
	p.pauseMediaLocked()
	p.renderStaticLocked()
}

// Close stops playback and abandons pending media loads.
func (p *Player) Close() {
	p.Stop()
	p.cancel()
}

// Render redraws the current frame without advancing anything. Hosts call it
// after the canvas was resized or released by an export.
func (p *Player) Render() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Playing {
		p.drawLocked(p.elapsedLocked())
		return
	}
	p.renderStaticLocked()
}

// Tick advances the clock for tok and draws one frame. It returns false when
// tok is stale or cancelled, or when the scene finished in movie mode; the
// host stops scheduling ticks for that token.
func (p *Player) Tick(tok Token) bool {
	p.mu.Lock()
	if tok == 0 || tok != p.token || p.state != Playing || p.scene == nil {
		p.mu.Unlock()
		return false
	}

	elapsed := p.elapsedLocked()
	st := renderer.Evaluate(p.scene, elapsed)
	if st.Phase != renderer.PhaseDone {
		p.drawLocked(elapsed)
		p.mu.Unlock()
		return true
	}

	var notify func()
	if !p.completed {
		p.completed = true
		notify = p.onComplete
	}

	keep := p.loop
	if keep {
		// new activation on the same token
		p.start = p.clock.Now()
		p.completed = false
		p.drawLocked(0)
	} else {
		p.state = Idle
		p.token = 0
		p.pauseMediaLocked()
	}
	p.mu.Unlock()

	if notify != nil {
		notify()
	}
	return keep
}

func (p *Player) elapsedLocked() float64 {
	return float64(p.clock.Now().Sub(p.start)) / float64(time.Millisecond)
}

func (p *Player) renderStaticLocked() {
	if p.scene == nil || p.canvas.Claimed() {
		return
	}
	h := p.syncMediaLocked()
	err := renderer.Draw(p.canvas, p.scene, h, renderer.Settled(p.scene), 0)
	p.reportMediaErrLocked(err)
}

func (p *Player) drawLocked(elapsed float64) {
	if p.canvas.Claimed() {
		return
	}
	h := p.syncMediaLocked()
	if ctrl, ok := media.Underlying(h).(media.Controller); ok && !p.mediaPlaying && p.state == Playing {
		if err := ctrl.Play(); err != nil {
			p.log.Warn("Media play failed", zap.String("scene", p.scene.ID), zap.Error(err))
		}
		p.mediaPlaying = true
	}
	_, err := renderer.Frame(p.canvas, p.scene, h, elapsed)
	p.reportMediaErrLocked(err)
}

// reportMediaErrLocked logs a media failure once per scene selection. The
// frame has already been drawn without the media.
func (p *Player) reportMediaErrLocked(err error) {
	if err == nil || p.mediaErrSeen {
		return
	}
	p.mediaErrSeen = true
	p.log.Warn("Rendering scene without media", zap.String("scene", p.scene.ID), zap.Error(err))
}
