// Package transfer provides the export and import commands.
package transfer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/transfer"
)

// ExportCommand creates and returns the export command
func ExportCommand(a *app.App) *cobra.Command {
	var jsonOnly bool
	cmd := &cobra.Command{
		Use:   "export COLLECTION DIR",
		Short: "Export a collection to a JSON document with its photos",
		Long: `Export a collection to DIR. The document is written as <collection>.json and
photo files are copied under DIR/photos. With --json-only no photos are copied.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}

			if jsonOnly {
				doc, err := a.Transfer.Export(ctx, coll.ID)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(args[1], 0o755); err != nil {
					return err
				}
				path := filepath.Join(args[1], transfer.BundleFileName(coll.Name))
				if err := transfer.WriteExportFile(path, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d observations to %s\n", len(doc.Observations), path)
				return nil
			}

			path, err := a.Transfer.ExportBundle(ctx, coll.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", coll.Name, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOnly, "json-only", false, "Write only the JSON document")
	return cmd
}

// ImportCommand creates and returns the import command
func ImportCommand(a *app.App) *cobra.Command {
	var jsonOnly bool
	cmd := &cobra.Command{
		Use:   "import FILE.json",
		Short: "Import a collection from an exported document",
		Long: `Import a collection from an exported document. Photo files are read from the
photos directory next to the document unless --json-only is given. The import fails
without changes when a collection of the same name exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res *transfer.ImportResult
				err error
			)
			if jsonOnly {
				doc, rerr := transfer.ReadExportFile(args[0])
				if rerr != nil {
					return rerr
				}
				res, err = a.Transfer.Import(cmd.Context(), doc)
			} else {
				res, err = a.Transfer.ImportBundle(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (id %d): %d entries, %d tags, %d photos (%d files)\n",
				res.Collection.Name, res.Collection.ID, res.Entries, res.Tags, res.Photos, res.PhotosCopied)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOnly, "json-only", false, "Ignore photo files next to the document")
	return cmd
}
