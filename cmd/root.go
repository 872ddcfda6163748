// Package cmd assembles the lifelist command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/cmd/backup"
	"github.com/tphakala/lifelist/cmd/classify"
	"github.com/tphakala/lifelist/cmd/collection"
	"github.com/tphakala/lifelist/cmd/entry"
	"github.com/tphakala/lifelist/cmd/field"
	"github.com/tphakala/lifelist/cmd/tag"
	"github.com/tphakala/lifelist/cmd/thumbs"
	"github.com/tphakala/lifelist/cmd/transfer"
	"github.com/tphakala/lifelist/cmd/types"
	"github.com/tphakala/lifelist/cmd/version"
	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
)

// RootCommand creates and returns the root command
func RootCommand(a *app.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lifelist",
		Short:         "Lifelist collections engine CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, a)

	subcommands := []*cobra.Command{
		collection.Command(a),
		field.Command(a),
		entry.Command(a),
		tag.Command(a),
		classify.Command(a),
		transfer.ExportCommand(a),
		transfer.ImportCommand(a),
		types.Command(a),
		thumbs.Command(a),
		backup.Command(a),
		version.Command(a.Build),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[cliutil.SkipOpen] != "" {
			return nil
		}
		return a.Open(cmd.Context())
	}
	// not reached when RunE fails; callers also Close after Execute
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.Close()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, a *app.App) {
	rootCmd.PersistentFlags().BoolVarP(&a.Settings.Debug, "debug", "d", a.Settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&a.MetricsFile, "metrics-file", "", "Write a Prometheus textfile snapshot on exit")
}
