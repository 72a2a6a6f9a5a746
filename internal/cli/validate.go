package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/timeline"
)

func validateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <timeline>",
		Short: "Check every scene of a timeline without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tl, err := timeline.Read(args[0])
			if err != nil {
				return err
			}

			fps := opts.cfg.FPS
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tID\tTYPE\tIN\tOUT\tMS\tFRAMES")
			for i, s := range tl.Scenes {
				if s == nil {
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
					i, s.ID, s.Kind, s.AnimationIn, s.AnimationOut, s.TotalMs(), renderer.FrameCount(s.TotalMs(), fps))
			}
			w.Flush()

			if err := tl.ValidateAll(); err != nil {
				errs := multierr.Errors(err)
				for _, e := range errs {
					printWarn("%v", e)
				}
				return fmt.Errorf("%d invalid scene(s)", len(errs))
			}
			printSuccess("OK: %d scenes, %.2fs", tl.Len(), float64(tl.TotalMs())/1000)
			return nil
		},
	}
}
