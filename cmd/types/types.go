// Package types provides the command listing collection types.
package types

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
)

// Command creates and returns the types command
func Command(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List collection types and their terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.Repos.Collections.ListTypes(cmd.Context())
			if err != nil {
				return err
			}
			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "NAME", "ENTRY", "OBSERVATION", "TEMPLATE")
			for _, t := range types {
				_, builtin := a.Catalog.Get(t.Name)
				template := "custom"
				if builtin {
					template = "catalog"
				}
				cliutil.Row(tw, t.Name, cliutil.Title(t.EntryTerm), cliutil.Title(t.ObservationTerm), template)
			}
			return tw.Flush()
		},
	}
}
