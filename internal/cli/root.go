package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/logger"
	"github.com/ivlev/scene2video/internal/system"
)

// Version is stamped by the build.
var Version = "dev"

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printErr(err)
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	debug   bool
	envFile string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "scene2video",
		Short:         "Compose animated text and media scenes into a video",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if opts.debug {
				cfg.Debug = true
			}
			cfg.BuildVersion = Version

			log, err := logger.New(cfg.Debug)
			if err != nil {
				return err
			}
			opts.cfg, opts.log = cfg, log

			system.InitResourceLimits(log)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "optional .env file with SCENE2VIDEO_* settings")

	cmd.AddCommand(
		exportCmd(opts),
		validateCmd(opts),
		frameCmd(opts),
		importCmd(opts),
	)
	return cmd
}
