// Package collection provides the collection command and its subcommands.
package collection

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/photostore"
)

// Command creates and returns the collection command
func Command(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"coll"},
		Short:   "Manage collections",
	}

	cmd.AddCommand(
		createCommand(a),
		listCommand(a),
		showCommand(a),
		renameCommand(a),
		labelCommand(a),
		deleteCommand(a),
		tiersCommand(a),
		setTiersCommand(a),
		addTierCommand(a),
	)
	return cmd
}

func createCommand(a *app.App) *cobra.Command {
	var typeName, label string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection from a catalog type",
		Long:  `Create a collection. Its tiers and custom fields are copied from the type template; a type missing from the catalog is created with the fallback tiers and no fields.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := a.Repos.Collections.EnsureType(cmd.Context(), typeName)
			if err != nil {
				return err
			}
			coll, err := a.Repos.Collections.CreateCollection(cmd.Context(), args[0], ct.Name, label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created collection %q (id %d)\n", coll.Name, coll.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "Wildlife", "Collection type name")
	cmd.Flags().StringVar(&label, "label", "", "Classification label, e.g. \"IOC 14.1\"")
	return cmd
}

func listCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections with their entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			colls, err := a.Repos.Collections.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "ID", "NAME", "TYPE", "ENTRIES")
			for _, c := range colls {
				cliutil.Row(tw, c.ID, c.Name, c.TypeName, c.EntryCount)
			}
			return tw.Flush()
		},
	}
}

func showCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show COLLECTION",
		Short: "Show a collection with its tiers and custom fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}
			tiers, err := a.Repos.Tiers.TiersFor(ctx, coll.ID)
			if err != nil {
				return err
			}
			counts, err := a.Repos.Entries.TierCounts(ctx, coll.ID)
			if err != nil {
				return err
			}
			fields, err := a.Repos.Fields.FieldsFor(ctx, coll.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			typeName := ""
			if coll.Type != nil {
				typeName = coll.Type.Name
			}
			fmt.Fprintf(out, "Collection: %s (id %d)\n", coll.Name, coll.ID)
			fmt.Fprintf(out, "Type:       %s\n", typeName)
			if coll.ClassificationLabel != "" {
				fmt.Fprintf(out, "Label:      %s\n", coll.ClassificationLabel)
			}

			fmt.Fprintln(out, "\nTiers:")
			tw := cliutil.NewTable(out)
			for _, t := range tiers {
				cliutil.Row(tw, "  "+t, counts[t])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(fields) > 0 {
				fmt.Fprintln(out, "\nFields:")
				tw = cliutil.NewTable(out)
				for _, f := range fields {
					req := ""
					if f.Required {
						req = "required"
					}
					cliutil.Row(tw, "  "+f.Name, f.Kind, req)
				}
				return tw.Flush()
			}
			return nil
		},
	}
}

func renameCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename COLLECTION NEWNAME",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			return a.Repos.Collections.RenameCollection(cmd.Context(), coll.ID, args[1])
		},
	}
}

func labelCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "label COLLECTION LABEL",
		Short: "Set the classification label of a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			return a.Repos.Collections.SetClassificationLabel(cmd.Context(), coll.ID, args[1])
		},
	}
}

func deleteCommand(a *app.App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete COLLECTION",
		Short: "Delete a collection, its entries and its photo files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return cliutil.Invalid("deleting %q removes all of its entries, pass --yes to confirm", coll.Name)
			}
			if err := a.Repos.Collections.DeleteCollection(ctx, coll.ID); err != nil {
				return err
			}
			// rows are gone, files follow
			removed, err := photostore.RemovePrefix(ctx, a.Photos, photostore.CollectionPrefix(coll.ID))
			if err != nil {
				return err
			}
			a.Thumbs.Purge()
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %q and %d photo files\n", coll.Name, removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}

func tiersCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers COLLECTION",
		Short: "List the tiers of a collection in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			tiers, err := a.Repos.Tiers.TiersFor(cmd.Context(), coll.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tiers, "\n"))
			return nil
		},
	}
}

func setTiersCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-tiers COLLECTION TIER...",
		Short: "Replace the tiers of a collection",
		Long:  `Replace the tiers of a collection. Entries whose tier is dropped move to the Undetermined tier.`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			return a.Repos.Tiers.SetTiers(cmd.Context(), coll.ID, args[1:])
		},
	}
}

func addTierCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "add-tier COLLECTION TIER",
		Short: "Append a tier to a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			added, err := a.Repos.Tiers.AddTier(cmd.Context(), coll.ID, args[1])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "Tier %q already exists\n", args[1])
			}
			return nil
		},
	}
}
