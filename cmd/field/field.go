// Package field provides commands for the custom field schema of a collection.
package field

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/fieldtype"
)

// Command creates and returns the field command
func Command(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Manage custom fields of a collection",
	}
	cmd.AddCommand(
		listCommand(a),
		addCommand(a),
		removeCommand(a),
		dependCommand(a),
	)
	return cmd
}

func listCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list COLLECTION",
		Short: "List custom fields in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			fields, err := a.Repos.Fields.FieldsFor(cmd.Context(), coll.ID)
			if err != nil {
				return err
			}
			byID := make(map[uint]string, len(fields))
			for _, f := range fields {
				byID[f.ID] = f.Name
			}

			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "ID", "NAME", "TYPE", "REQUIRED", "DETAILS")
			for _, f := range fields {
				cliutil.Row(tw, f.ID, f.Name, f.Kind, f.Required, details(f, byID))
			}
			return tw.Flush()
		},
	}
}

func details(f *entities.CustomField, names map[uint]string) string {
	var parts []string
	switch f.Kind {
	case fieldtype.KindChoice:
		opts := make([]string, len(f.Options))
		for i, o := range f.Options {
			opts[i] = o.Value
		}
		parts = append(parts, "options: "+strings.Join(opts, ", "))
	case fieldtype.KindRating:
		m := f.RatingMax
		if m <= 0 {
			m = fieldtype.DefaultRatingMax
		}
		parts = append(parts, fmt.Sprintf("max: %d", m))
	}
	if d := f.Dependency; d != nil {
		rule := fmt.Sprintf("shown when %s %s", names[d.ParentFieldID], d.Condition)
		if d.Condition != entities.ConditionNotEmpty {
			rule += " " + d.Value
		}
		parts = append(parts, rule)
	}
	return strings.Join(parts, "; ")
}

func addCommand(a *app.App) *cobra.Command {
	var (
		kind      string
		required  bool
		options   []string
		ratingMax int
		position  int
	)
	cmd := &cobra.Command{
		Use:   "add COLLECTION NAME",
		Short: "Add a custom field",
		Long: `Add a custom field. Choice options are given as value or value:label.
Supported types: ` + strings.Join(kindNames(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			k, err := fieldtype.ParseKind(kind)
			if err != nil {
				return err
			}
			t, err := fieldtype.New(k, parseOptions(options), ratingMax)
			if err != nil {
				return err
			}
			spec := repository.FieldSpec{Name: args[1], Type: t, Required: required}
			if cmd.Flags().Changed("position") {
				spec.DisplayOrder = &position
			}
			f, err := a.Repos.Fields.CreateField(cmd.Context(), coll.ID, spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added field %q (id %d)\n", f.Name, f.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(fieldtype.KindText), "Field type")
	cmd.Flags().BoolVar(&required, "required", false, "Require a value on every entry")
	cmd.Flags().StringSliceVar(&options, "option", nil, "Choice option, repeatable")
	cmd.Flags().IntVar(&ratingMax, "max", fieldtype.DefaultRatingMax, "Maximum of a rating field")
	cmd.Flags().IntVar(&position, "position", 0, "Display position, defaults to last")
	return cmd
}

func kindNames() []string {
	kinds := fieldtype.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func parseOptions(raw []string) []fieldtype.Option {
	opts := make([]fieldtype.Option, 0, len(raw))
	for _, r := range raw {
		value, label, _ := strings.Cut(r, ":")
		if value = strings.TrimSpace(value); value != "" {
			opts = append(opts, fieldtype.Option{Value: value, Label: strings.TrimSpace(label)})
		}
	}
	return opts
}

func removeCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove FIELD-ID",
		Short: "Remove a custom field and its values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			return a.Repos.Fields.DeleteField(cmd.Context(), id)
		},
	}
}

func dependCommand(a *app.App) *cobra.Command {
	var (
		condition string
		value     string
		remove    bool
	)
	cmd := &cobra.Command{
		Use:   "depend FIELD-ID [PARENT-ID]",
		Short: "Show a field only when another field matches",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			if remove {
				return a.Repos.Fields.ClearDependency(cmd.Context(), id)
			}
			if len(args) < 2 {
				return cliutil.Invalid("a parent field id is required")
			}
			parent, err := cliutil.ParseID(args[1])
			if err != nil {
				return err
			}
			return a.Repos.Fields.SetDependency(cmd.Context(), id, parent, condition, value)
		},
	}
	cmd.Flags().StringVar(&condition, "condition", entities.ConditionEquals, "equals, not_equals or not_empty")
	cmd.Flags().StringVar(&value, "value", "", "Value compared by equals and not_equals")
	cmd.Flags().BoolVar(&remove, "clear", false, "Remove the dependency")
	return cmd
}
