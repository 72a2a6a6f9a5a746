package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ivlev/scene2video/internal/timeline"
)

func importCmd(_ *rootOptions) *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "import <generated.json>",
		Short: "Convert a scene generator response into a timeline file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tl, err := timeline.ImportGenerated(payload)
			if err != nil {
				return err
			}

			// generated scenes are kept even when invalid so they can be fixed by hand
			for _, e := range multierr.Errors(tl.ValidateAll()) {
				printWarn("%v", e)
			}

			if err := timeline.Write(tl, output); err != nil {
				return err
			}
			printSuccess("Imported %d scenes: %s", tl.Len(), output)
			return nil
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "timeline.yaml", "timeline file to write (.yaml or .json)")
	return c
}
