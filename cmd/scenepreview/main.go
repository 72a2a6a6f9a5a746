// Command scenepreview plays a timeline in a window.
//
//	space       play / pause
//	left/right  previous / next scene
//	m           toggle movie mode (advance on completion) and preview mode (loop)
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/logger"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/player"
	"github.com/ivlev/scene2video/internal/system"
	"github.com/ivlev/scene2video/internal/timeline"
)

type Game struct {
	log      *zap.Logger
	timeline *timeline.Timeline
	canvas   *canvas.Canvas
	player   *player.Player

	index int
	movie bool
	token player.Token
}

func (g *Game) selectScene(i int) {
	if i < 0 || i >= g.timeline.Len() {
		return
	}
	s, _ := g.timeline.At(i)
	tok, err := g.player.Select(s)
	if err != nil {
		g.log.Warn("Scene rejected", zap.Int("index", i), zap.Error(err))
		return
	}
	g.index = i
	if tok != 0 {
		g.token = tok
	}
}

func (g *Game) play() {
	tok, err := g.player.Play()
	if err != nil {
		g.log.Warn("Scene rejected", zap.Int("index", g.index), zap.Error(err))
		return
	}
	g.token = tok
}

// onComplete advances in movie mode. It runs from inside Tick.
func (g *Game) onComplete() {
	if !g.movie {
		return
	}
	if g.index+1 >= g.timeline.Len() {
		g.log.Info("Timeline finished")
		return
	}
	next := g.index + 1
	g.selectScene(next)
	if g.index == next {
		g.play()
	}
}

func (g *Game) setMovie(movie bool) {
	g.movie = movie
	g.player.SetLoop(!movie)
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if g.player.State() == player.Playing {
			g.player.Pause()
			g.token = 0
		} else {
			g.play()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.selectScene(g.index + 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.selectScene(g.index - 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.setMovie(!g.movie)
	}

	if tok := g.token; tok != 0 {
		// a completion callback may already have scheduled the next token
		if !g.player.Tick(tok) && g.token == tok {
			g.token = 0
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.canvas.Image().Pix)

	mode := "preview"
	if g.movie {
		mode = "movie"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("scene %d/%d  %s  %s  FPS: %.0f",
		g.index+1, g.timeline.Len(), g.player.State(), mode, ebiten.ActualFPS()), 4, 4)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.canvas.Width(), g.canvas.Height()
}

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	path := flag.String("timeline", "", "timeline file (default: newest file in input/timelines/)")
	movie := flag.Bool("movie", false, "start in movie mode")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	zl, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	defer zl.Sync()

	if *path == "" {
		latest, err := system.FindLatestTimeline("input/timelines")
		if err != nil {
			log.Fatalf("[-] %v. Pass -timeline", err)
		}
		*path = latest
	}
	tl, err := timeline.Read(*path)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	if err := tl.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}
	if tl.Len() == 0 {
		log.Fatalf("[-] %s has no scenes", *path)
	}

	cache := media.NewCache(media.NewDecoder(zl, float64(cfg.PDFDPI), cfg.FPS), zl)
	defer cache.Clear()

	c := canvas.New(cfg.Width, cfg.Height)
	g := &Game{log: zl, timeline: tl, canvas: c}
	g.player = player.New(c, cache, zl, player.WithOnComplete(g.onComplete))
	defer g.player.Close()

	g.setMovie(*movie)
	g.selectScene(0)

	ebiten.SetWindowTitle("scene2video: " + *path)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.FPS)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
