// Package commands implements the globemate command line: the HTTP server and the
// text channels.
package commands

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/globemate/globemate/internal/app"
	"github.com/globemate/globemate/internal/config"
	"github.com/globemate/globemate/internal/trip"
)

// Build identifies the binary.
type Build struct {
	Version   string
	BuildTime string
}

type rootOptions struct {
	build      Build
	configFile string
	envFile    string
}

// NewRootCmd returns the globemate command tree.
func NewRootCmd(build Build) *cobra.Command {
	opts := &rootOptions{build: build}

	cmd := &cobra.Command{
		Use:   "globemate",
		Short: "GlobeMate plans road trips from a plain-language request",
		Long: `GlobeMate turns a message such as "Lahore se Hunza, car, 40 km/l, petrol 295, 5 din"
into a trip plan: route distance, estimated fuel, hotel and food costs, and local
hotel, food and attraction recommendations.`,
		Version:      build.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("globemate {{.Version}} (built " + build.BuildTime + ")\n")

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML, JSON or TOML); environment variables win over it")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded when present")

	cmd.AddCommand(
		newServeCmd(opts),
		newPlanCmd(opts),
		newChatCmd(opts),
	)
	return cmd
}

// loadApp resolves the configuration and builds the application. Text channels log to
// stderr at warn level or above so stdout only carries the report.
func (o *rootOptions) loadApp(ctx context.Context, logOut io.Writer, textChannel bool) (*app.App, error) {
	cfg, err := config.Load(config.Options{
		EnvFile:       o.envFile,
		ConfigFile:    o.configFile,
		RequireAPIKey: true,
	})
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if textChannel && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	log := app.NewLogger(logOut, level, o.build.Version)

	return app.New(ctx, app.Options{
		Config:    cfg,
		Logger:    log,
		Version:   o.build.Version,
		BuildTime: o.build.BuildTime,
	})
}

// userMessage returns the text shown to a person for a failed request.
func userMessage(err error) string {
	var tripErr *trip.Error
	if errors.As(err, &tripErr) && trip.StatusOf(err) != trip.StatusInternal {
		return tripErr.Message
	}
	return "something went wrong while planning your trip, please try again"
}
