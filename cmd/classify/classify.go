// Package classify provides commands for reference classifications.
package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/transfer"
)

// Command creates and returns the classify command
func Command(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Import and browse reference classifications",
	}
	cmd.AddCommand(
		importCommand(a),
		listCommand(a),
		activateCommand(a),
		deleteCommand(a),
		searchCommand(a),
		treeCommand(a),
	)
	return cmd
}

func importCommand(a *app.App) *cobra.Command {
	var (
		spec      transfer.ClassificationSpec
		mappings  []string
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "import COLLECTION FILE.csv",
		Short: "Import a classification from CSV",
		Long: `Import a classification from a CSV file with a header row.
Map entry fields to columns with --map field=column. Mappable fields: ` + strings.Join(transfer.MappableFields(), ", ") + `.
The parent column holds the code or name of another row. Rows are written in chunks
of one transaction, so a failed or interrupted import leaves nothing behind.`,
		Example: `  lifelist classify import Birds ioc.csv --name IOC --version 14.1 \
    --map name=Scientific --map alternate_name=English --map parent_id=Family`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}
			m, err := cliutil.ParseAssignments(mappings)
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return errors.New(err).
					Component("cli").
					Category(errors.CategoryFileIO).
					FileContext(args[1], 0).
					Build()
			}
			defer f.Close()

			if spec.Name == "" {
				spec.Name = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
			}
			opts := []datastore.ChunkOption{
				datastore.OnProgress(func(n int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r%d rows processed", n)
				}),
			}
			if chunkSize > 0 {
				opts = append(opts, datastore.ChunkSize(chunkSize))
			}

			res, err := a.Transfer.ImportClassification(ctx, coll.ID, spec, f, transfer.Mapping(m), opts...)
			fmt.Fprintln(cmd.ErrOrStderr())
			if res != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Classification %q (id %d): %d imported, %d skipped\n",
					res.Classification.Name, res.Classification.ID, res.Imported, res.Skipped)
				if res.Linked > 0 || res.Unresolved > 0 {
					fmt.Fprintf(out, "Parents: %d linked, %d unresolved\n", res.Linked, res.Unresolved)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&spec.Name, "name", "", "Classification name, defaults to the file name")
	cmd.Flags().StringVar(&spec.Version, "version", "", "Classification version")
	cmd.Flags().StringVar(&spec.Source, "source", "", "Where the list comes from")
	cmd.Flags().StringVar(&spec.Description, "description", "", "Free-text description")
	cmd.Flags().BoolVar(&spec.Activate, "activate", false, "Make it the active classification")
	cmd.Flags().StringArrayVar(&mappings, "map", nil, "Field to column mapping as field=column, repeatable")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per chunk, defaults to the configured chunk size")
	return cmd
}

func listCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list COLLECTION",
		Short: "List the classifications of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}
			list, err := a.Repos.Classifications.ListClassifications(ctx, coll.ID)
			if err != nil {
				return err
			}
			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "ID", "NAME", "VERSION", "ENTRIES", "ACTIVE")
			for _, c := range list {
				n, err := a.Repos.Classifications.CountEntries(ctx, c.ID)
				if err != nil {
					return err
				}
				active := ""
				if c.IsActive {
					active = "*"
				}
				cliutil.Row(tw, c.ID, c.Name, c.Version, n, active)
			}
			return tw.Flush()
		},
	}
}

func activateCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "activate CLASSIFICATION-ID",
		Short: "Make a classification the active one of its collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			return a.Repos.Classifications.SetActive(cmd.Context(), id)
		},
	}
}

func deleteCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CLASSIFICATION-ID",
		Short: "Delete an inactive classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			return a.Repos.Classifications.DeleteClassification(cmd.Context(), id)
		},
	}
}

func searchCommand(a *app.App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search CLASSIFICATION-ID TEXT",
		Short: "Search names, alternate names and categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			hits, err := a.Repos.Classifications.Search(cmd.Context(), id, args[1], limit)
			if err != nil {
				return err
			}
			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "ID", "NAME", "ALTERNATE", "CATEGORY")
			for _, e := range hits {
				cliutil.Row(tw, e.ID, e.Name, dash(e.AlternateName), dash(e.Category))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results, 0 for the default")
	return cmd
}

func treeCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree CLASSIFICATION-ID",
		Short: "Print a classification as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			tree, err := a.Repos.Classifications.Tree(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tree.Walk(func(_ uint, e *entities.ClassificationEntry, depth int) bool {
				line := strings.Repeat("  ", depth) + e.Name
				if e.AlternateName != "" {
					line += " (" + e.AlternateName + ")"
				}
				fmt.Fprintln(out, line)
				return true
			})
			return nil
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
