package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := opts.loadApp(ctx, os.Stdout, false)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := a.Shutdown(shutdownCtx); err != nil {
					a.Logger.Error().Err(err).Msg("failed to shutdown telemetry")
				}
			}()

			a.Logger.Info().
				Str("build_time", opts.build.BuildTime).
				Str("env", a.Config.Env).
				Msg("starting GlobeMate API")

			return a.Serve(ctx)
		},
	}
}
