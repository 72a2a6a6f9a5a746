package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/system"
	"github.com/ivlev/scene2video/internal/timeline"
	"github.com/ivlev/scene2video/internal/video"
)

var errNoTimeline = errors.New("no timeline")

// ProgressFunc receives the export progress in percent, once per frame.
type ProgressFunc func(percent float64)

// Exporter renders a timeline frame by frame into an encoder. It shares the
// canvas and media cache with live playback and claims the canvas for the
// duration of an export.
type Exporter struct {
	Config  *config.Config
	Canvas  *canvas.Canvas
	Cache   *media.Cache
	Encoder video.VideoEncoder
	log     *zap.Logger

	// BenchmarkLog receives the performance report when Config.ShowStats is set.
	BenchmarkLog string
}

func NewExporter(cfg *config.Config, c *canvas.Canvas, cache *media.Cache, enc video.VideoEncoder, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		Config:       cfg,
		Canvas:       c,
		Cache:        cache,
		Encoder:      enc,
		log:          log,
		BenchmarkLog: "benchmark.log",
	}
}

type exportStats struct {
	start, renderStart, encodeEnd time.Time
	preload                       time.Duration
	frames                        int
	scenes                        int
	media                         int
}

// Export encodes every scene of tl in order. The result is a function of the
// timeline and configuration only: frames are sampled on the scene clock, not
// on wall time.
//
// The canvas keeps the last exported frame after Export returns, whether it
// succeeded or not. A host sharing the canvas with a player.Player calls its
// Render method once Export returns to put the live frame back.
func (e *Exporter) Export(ctx context.Context, tl *timeline.Timeline, onProgress ProgressFunc) (out *video.Output, err error) {
	release, err := e.Canvas.Claim()
	if err != nil {
		return nil, err
	}
	defer release()

	stats := exportStats{start: time.Now()}

	if tl == nil {
		return nil, errs.InvalidScene("export", "", errNoTimeline)
	}
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	if err := e.Encoder.Available(); err != nil {
		return nil, err
	}

	params := e.Config.ExportParams()
	params.Width, params.Height = e.Canvas.Width(), e.Canvas.Height()

	total := 0
	for _, s := range tl.Scenes {
		total += renderer.FrameCount(s.TotalMs(), params.FPS)
	}
	if total == 0 {
		return nil, errs.Encoding("export", fmt.Errorf("timeline has no frames at %d fps", params.FPS))
	}

	handles, owned, err := e.preload(ctx, tl)
	defer func() {
		if rerr := e.releaseOwned(owned); rerr != nil {
			e.log.Warn("Releasing export media", zap.Error(rerr))
		}
	}()
	if err != nil {
		return nil, err
	}
	stats.preload = time.Since(stats.start)
	stats.media = len(handles)

	sink, err := e.Encoder.Open(ctx, params)
	if err != nil {
		return nil, err
	}
	closed := false
	defer func() {
		if err != nil && !closed {
			err = multierr.Append(err, sink.Abort())
		}
		if err != nil {
			out = nil
		}
	}()

	stats.renderStart = time.Now()
	written := 0
	for idx, s := range tl.Scenes {
		h := handles[identity(s)]
		mediaErrSeen := false
		frames := renderer.FrameCount(s.TotalMs(), params.FPS)

		for i := 0; i < frames; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if _, ferr := renderer.Frame(e.Canvas, s, h, renderer.FrameTime(i, params.FPS)); ferr != nil {
				if e.Config.StrictMedia {
					return nil, ferr
				}
				if !mediaErrSeen {
					mediaErrSeen = true
					e.log.Warn("Exporting scene without media", zap.Int("scene", idx), zap.String("id", s.ID), zap.Error(ferr))
				}
			}

			if err := sink.WriteFrame(e.Canvas.Image(), frameTimestamp(written, params.FPS)); err != nil {
				return nil, err
			}
			written++

			if onProgress != nil {
				onProgress(math.Min(float64(written)/float64(total)*100, 100))
			}
		}
		stats.scenes++
	}
	stats.frames = written

	// Close tears the encoder down on failure too
	closed = true
	out, err = sink.Close()
	if err != nil {
		return nil, err
	}
	stats.encodeEnd = time.Now()

	e.log.Info("Export finished",
		zap.Int("frames", written),
		zap.Int("scenes", len(tl.Scenes)),
		zap.String("mime", out.MIMEType),
		zap.Int("bytes", len(out.Data)))

	if e.Config.ShowStats {
		e.report(stats)
	}
	return out, nil
}

// frameTimestamp is the presentation time of the n-th frame of the movie,
// rounded to whole microseconds.
func frameTimestamp(n, fps int) time.Duration {
	us := math.Round(float64(n) * 1e6 / float64(fps))
	return time.Duration(us) * time.Microsecond
}

func identity(s *timeline.Scene) string {
	if res := s.Media(); res != nil {
		return res.Identity()
	}
	return ""
}

// preload decodes every unique resource once, with at most Config.Workers
// decodes in flight. owned lists the identities this export put into the
// cache; entries that were already there belong to someone else.
func (e *Exporter) preload(ctx context.Context, tl *timeline.Timeline) (map[string]media.Handle, []string, error) {
	refs := tl.Media()
	handles := make(map[string]media.Handle, len(refs))
	var owned []string
	if len(refs) == 0 {
		return handles, nil, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	workers := e.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, ref := range refs {
		ref := ref
		id := ref.Resource.Identity()
		_, cached := e.Cache.Peek(ref.Resource)

		g.Go(func() error {
			h, err := e.Cache.Get(gctx, ref.Resource, ref.Kind)
			if err != nil {
				if e.Config.StrictMedia || gctx.Err() != nil {
					return err
				}
				e.log.Warn("Media unavailable, exporting background only", zap.String("media", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			handles[id] = h
			if !cached {
				owned = append(owned, id)
			}
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return handles, owned, err
}

func (e *Exporter) releaseOwned(ids []string) error {
	var err error
	for _, id := range ids {
		err = multierr.Append(err, e.Cache.Evict(id))
	}
	return err
}

func (e *Exporter) report(s exportStats) {
	total := time.Since(s.start)
	render := s.encodeEnd.Sub(s.renderStart)
	fps := 0.0
	if render > 0 {
		fps = float64(s.frames) / render.Seconds()
	}
	proc := system.Snapshot()
	pool := system.ScratchStats()

	fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
		"Build: %s\n"+
		"Total Time: %.2fs\n"+
		"Media Preload: %.2fs (%d resources)\n"+
		"Render+Encode: %.2fs\n"+
		"Effective FPS: %.2f\n"+
		"RSS: %.1f MB | CPU: %.1f%% | Goroutines: %d\n"+
		"Scratch buffers: %d requests, %.0f%% reused\n"+
		"----------------------------\n",
		e.Config.BuildVersion, total.Seconds(), s.preload.Seconds(), s.media,
		render.Seconds(), fps, proc.RSSMegabytes(), proc.CPUPercent, proc.Goroutines,
		pool.Gets, pool.Reused()*100)

	entry := fmt.Sprintf("[%s] Build: %s | Scenes: %d | Frames: %d | %dx%d@%d | Total: %.2fs | Render: %.2fs | FPS: %.2f | RSS: %.1fMB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		e.Config.BuildVersion,
		s.scenes,
		s.frames,
		e.Canvas.Width(), e.Canvas.Height(), e.Config.FPS,
		total.Seconds(),
		render.Seconds(),
		fps,
		proc.RSSMegabytes(),
	)

	f, err := os.OpenFile(e.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		e.log.Warn("Cannot write benchmark log", zap.String("path", e.BenchmarkLog), zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		e.log.Warn("Cannot write benchmark log", zap.String("path", e.BenchmarkLog), zap.Error(err))
	}
}
