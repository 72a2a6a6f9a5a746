package cli

import (
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/media"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/timeline"
)

func frameCmd(opts *rootOptions) *cobra.Command {
	var (
		at     time.Duration
		index  int
		output string
	)

	c := &cobra.Command{
		Use:   "frame <timeline>",
		Short: "Render one frame of a scene to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			tl, err := timeline.Read(args[0])
			if err != nil {
				return err
			}
			s, err := tl.At(index)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}

			cache := media.NewCache(media.NewDecoder(opts.log, float64(cfg.PDFDPI), cfg.FPS), opts.log)
			defer cache.Clear()

			var h media.Handle
			if res := s.Media(); res != nil {
				if h, err = cache.Get(cmd.Context(), res, s.MediaKind()); err != nil {
					printWarn("Rendering without media: %v", err)
				}
			}

			cv := canvas.New(cfg.Width, cfg.Height)
			elapsed := float64(at) / float64(time.Millisecond)
			st, err := renderer.Frame(cv, s, h, elapsed)
			if err != nil {
				printWarn("Rendering without media: %v", err)
			}

			if err := imaging.Save(cv.Image(), output); err != nil {
				return fmt.Errorf("save %s: %w", output, err)
			}
			printSuccess("Scene %d at %v (%s %.2f): %s", index, at, st.Phase, st.Progress, output)
			return nil
		},
	}

	c.Flags().DurationVar(&at, "at", 0, "scene-local time, e.g. 750ms")
	c.Flags().IntVar(&index, "scene", 0, "scene index")
	c.Flags().StringVarP(&output, "output", "o", "frame.png", "output image (png, jpg, ...)")
	return c
}
