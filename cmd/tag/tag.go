// Package tag provides commands for the global tag graph.
package tag

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/datastore/entities"
)

// Command creates and returns the tag command
func Command(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags and their parent relations",
	}
	cmd.AddCommand(
		addCommand(a),
		listCommand(a),
		treeCommand(a),
		renameCommand(a),
		deleteCommand(a),
		relateCommand(a),
		unrelateCommand(a),
	)
	return cmd
}

func addCommand(a *app.App) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag, or return the existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.Repos.Tags.CreateTag(cmd.Context(), args[0], category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tag %q (id %d)\n", t.Name, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Tag category")
	return cmd
}

func listCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.Repos.Tags.TagsByCategory(cmd.Context())
			if err != nil {
				return err
			}
			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "ID", "NAME", "CATEGORY")
			for _, category := range sortedKeys(groups) {
				label := category
				if label == "" {
					label = "-"
				}
				for _, t := range groups[category] {
					cliutil.Row(tw, t.ID, t.Name, label)
				}
			}
			return tw.Flush()
		},
	}
}

func treeCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the tag hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, err := a.Repos.Tags.Forest(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			forest.Walk(func(_ uint, t *entities.Tag, depth int) bool {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), t.Name)
				return true
			})
			return nil
		},
	}
}

func renameCommand(a *app.App) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "rename TAG NEWNAME",
		Short: "Rename a tag or change its category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.Repos.Tags.GetTagByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var cat *string
			if cmd.Flags().Changed("category") {
				cat = &category
			}
			return a.Repos.Tags.UpdateTag(cmd.Context(), t.ID, &args[1], cat)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	return cmd
}

func deleteCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TAG",
		Short: "Delete a tag and detach it from entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.Repos.Tags.GetTagByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.Repos.Tags.DeleteTag(cmd.Context(), t.ID)
		},
	}
}

func relateCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "relate CHILD PARENT",
		Short: "Place a tag under a parent tag",
		Long:  `Place a tag under a parent tag. A tag may have several parents; relations that would form a cycle are rejected.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			child, parent, err := pair(cmd, a, args)
			if err != nil {
				return err
			}
			return a.Repos.Tags.AddRelation(cmd.Context(), child.ID, parent.ID)
		},
	}
}

func unrelateCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "unrelate CHILD PARENT",
		Short: "Remove a parent relation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			child, parent, err := pair(cmd, a, args)
			if err != nil {
				return err
			}
			return a.Repos.Tags.RemoveRelation(cmd.Context(), child.ID, parent.ID)
		},
	}
}

func pair(cmd *cobra.Command, a *app.App, args []string) (child, parent *entities.Tag, err error) {
	if child, err = a.Repos.Tags.GetTagByName(cmd.Context(), args[0]); err != nil {
		return nil, nil, err
	}
	if parent, err = a.Repos.Tags.GetTagByName(cmd.Context(), args[1]); err != nil {
		return nil, nil, err
	}
	return child, parent, nil
}

// sortedKeys orders categories by name with the uncategorised group last.
func sortedKeys(m map[string][]*entities.Tag) []string {
	keys := slices.Sorted(maps.Keys(m))
	if len(keys) > 0 && keys[0] == "" {
		keys = append(keys[1:], "")
	}
	return keys
}
