// Package main provides the entrypoint for the GlobeMate travel planner.
package main

import (
	"os"

	"github.com/globemate/globemate/cmd/globemate/commands"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	root := commands.NewRootCmd(commands.Build{Version: Version, BuildTime: BuildTime})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
