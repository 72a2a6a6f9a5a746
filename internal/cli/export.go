package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/engine"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/system"
	"github.com/ivlev/scene2video/internal/timeline"
	"github.com/ivlev/scene2video/internal/video"
)

const (
	timelineDir = "input/timelines"
	outputDir   = "output"
)

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		timelinePath, output, format, encoder, preset string
		width, height, fps, quality, workers          int
		strictMedia, stats                            bool
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Render a timeline into an mp4 or webm file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			flags := cmd.Flags()

			if flags.Changed("width") {
				cfg.Width = width
			}
			if flags.Changed("height") {
				cfg.Height = height
			}
			switch preset {
			case "":
			case "16:9":
				cfg.Width, cfg.Height = 1280, 720
			case "9:16":
				cfg.Width, cfg.Height = 720, 1280
			case "4:5":
				cfg.Width, cfg.Height = 1080, 1350
			default:
				return fmt.Errorf("unknown preset %q (16:9, 9:16, 4:5)", preset)
			}
			if flags.Changed("fps") {
				cfg.FPS = fps
			}
			if flags.Changed("format") {
				cfg.Format = format
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("strict-media") {
				cfg.StrictMedia = strictMedia
			}
			if flags.Changed("stats") {
				cfg.ShowStats = stats
			}
			if timelinePath != "" {
				cfg.TimelinePath = timelinePath
			}
			if output != "" {
				cfg.OutputVideo = output
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.TimelinePath == "" {
				latest, err := system.FindLatestTimeline(timelineDir)
				if err != nil {
					return fmt.Errorf("%w. Put a timeline into %s/", err, timelineDir)
				}
				cfg.TimelinePath = latest
				printInfo("Selected timeline: %s", latest)
			}

			// hardware encoders only exist for H.264
			switch {
			case flags.Changed("encoder"):
				cfg.VideoEncoder = encoder
			case strings.EqualFold(cfg.Format, "mp4"):
				cfg.VideoEncoder = system.GetBestH264Encoder()
				if cfg.VideoEncoder != "libx264" {
					printInfo("Hardware acceleration detected: %s", cfg.VideoEncoder)
				}
			}
			cfg.Quality = quality
			if quality == 0 {
				enc := cfg.VideoEncoder
				if strings.EqualFold(cfg.Format, "webm") {
					enc = "libvpx-vp9"
				}
				cfg.Quality = system.DefaultQuality(enc)
			}

			if cfg.OutputVideo == "" {
				base := strings.TrimSuffix(filepath.Base(cfg.TimelinePath), filepath.Ext(cfg.TimelinePath))
				name := fmt.Sprintf("%s_%s.%s", strings.ReplaceAll(base, " ", "_"),
					time.Now().Format("2006-01-02_15-04-05"), strings.ToLower(cfg.Format))
				cfg.OutputVideo = filepath.Join(outputDir, name)
			}
			if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
				return err
			}

			tl, err := timeline.Read(cfg.TimelinePath)
			if err != nil {
				return err
			}

			printInfo("Timeline: %s | Scenes: %d | Duration: %.2fs", cfg.TimelinePath, tl.Len(), float64(tl.TotalMs())/1000)
			printInfo("Resolution: %dx%d @ %d FPS | Encoder: %s | Quality: %d", cfg.Width, cfg.Height, cfg.FPS, cfg.VideoEncoder, cfg.Quality)

			log := opts.log
			cache := media.NewCache(media.NewDecoder(log, float64(cfg.PDFDPI), cfg.FPS), log)
			defer cache.Clear()

			exporter := engine.NewExporter(cfg, canvas.New(cfg.Width, cfg.Height), cache, video.NewFFmpegEncoder(log), log)
			bar := newProgressBar()
			out, err := exporter.Export(cmd.Context(), tl, bar.Update)
			if err != nil {
				if bar.last >= 0 && bar.last < 100 {
					fmt.Println()
				}
				return fmt.Errorf("export failed, the timeline can be exported again: %w", err)
			}

			printSuccess("Done! %s (%s, %.1f MB)", out.Path, out.MIMEType, float64(len(out.Data))/(1024*1024))
			return nil
		},
	}

	f := c.Flags()
	f.StringVarP(&timelinePath, "timeline", "t", "", "timeline file (default: newest file in "+timelineDir+"/)")
	f.StringVarP(&output, "output", "o", "", "output video (default: generated under "+outputDir+"/)")
	f.IntVar(&width, "width", 1280, "frame width")
	f.IntVar(&height, "height", 720, "frame height")
	f.StringVar(&preset, "preset", "", "format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	f.IntVar(&fps, "fps", 30, "frames per second")
	f.StringVar(&format, "format", "mp4", "container: mp4 or webm")
	f.StringVar(&encoder, "encoder", "", "H.264 encoder (default: best available)")
	f.IntVar(&quality, "quality", 0, "quality (0 = auto; x264/VP9: CRF, NVENC: CQ, VideoToolbox: bitrate = Q*100 kbit/s)")
	f.IntVar(&workers, "workers", 0, "parallel media decodes (default: CPU count)")
	f.BoolVar(&strictMedia, "strict-media", false, "fail when a media resource cannot be decoded")
	f.BoolVar(&stats, "stats", false, "print a performance report and append it to benchmark.log")
	return c
}
