package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/lifelist/cmd"
	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/buildinfo"
	"github.com/tphakala/lifelist/internal/conf"
)

// buildDate and version are set with ldflags at build time.
var (
	buildDate string
	version   string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(settings, buildinfo.NewContext(version, buildDate))
	rootCmd := cmd.RootCommand(a)

	execErr := rootCmd.ExecuteContext(ctx)
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
	}
	if execErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", execErr)
		return 1
	}
	return 0
}
