// Package version provides the version command.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/buildinfo"
	"github.com/tphakala/lifelist/internal/cliutil"
)

// Command creates and returns the version command
func Command(build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{cliutil.SkipOpen: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lifelist %s\n", build)
		},
	}
}
