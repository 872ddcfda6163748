// Package entry provides commands for the entries of a collection.
package entry

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/photostore"
)

// Command creates and returns the entry command
func Command(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Record, query and edit entries",
	}
	cmd.AddCommand(
		addCommand(a),
		listCommand(a),
		showCommand(a),
		editCommand(a),
		deleteCommand(a),
		namesCommand(a),
		photoCommand(a),
	)
	return cmd
}

// entryFlags are the editable columns shared by add and edit.
type entryFlags struct {
	date      string
	location  string
	latitude  float64
	longitude float64
	tier      string
	notes     string
	tags      []string
	attrs     []string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Observation date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.location, "location", "", "Where it was observed")
	cmd.Flags().Float64Var(&f.latitude, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&f.longitude, "lon", 0, "Longitude")
	cmd.Flags().StringVar(&f.tier, "tier", "", "Tier name")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-text notes")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag name, repeatable; category:name sets a category")
	cmd.Flags().StringArrayVar(&f.attrs, "attr", nil, "Custom field value as field=value, repeatable")
}

// apply copies the flags the user set onto e.
func (f *entryFlags) apply(cmd *cobra.Command, e *entities.Entry) error {
	changed := cmd.Flags().Changed
	if changed("date") {
		d, err := cliutil.ParseDate(f.date)
		if err != nil {
			return err
		}
		e.ObservedAt = d
	}
	if changed("location") {
		e.Location = f.location
	}
	if changed("lat") {
		e.Latitude = &f.latitude
	}
	if changed("lon") {
		e.Longitude = &f.longitude
	}
	if changed("tier") {
		if f.tier == "" {
			e.Tier = nil
		} else {
			e.Tier = &f.tier
		}
	}
	if changed("notes") {
		e.Notes = f.notes
	}
	return nil
}

// applyRelations stores attributes and tags for entryID when set.
func (f *entryFlags) applyRelations(ctx context.Context, cmd *cobra.Command, repos *repository.Repositories, entryID uint) error {
	if cmd.Flags().Changed("attr") {
		values, err := cliutil.ParseAssignments(f.attrs)
		if err != nil {
			return err
		}
		if err := repos.Fields.SetAttributesByName(ctx, entryID, values); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("tag") {
		ids := make([]uint, 0, len(f.tags))
		for _, raw := range f.tags {
			category, name, ok := strings.Cut(raw, ":")
			if !ok {
				category, name = "", raw
			}
			tag, err := repos.Tags.CreateTag(ctx, strings.TrimSpace(name), strings.TrimSpace(category))
			if err != nil {
				return err
			}
			ids = append(ids, tag.ID)
		}
		if err := repos.Entries.SetTags(ctx, entryID, ids); err != nil {
			return err
		}
	}
	return nil
}

func addCommand(a *app.App) *cobra.Command {
	var (
		flags   entryFlags
		photo   string
		primary bool
	)
	cmd := &cobra.Command{
		Use:   "add COLLECTION NAME",
		Short: "Record an entry",
		Long:  `Record an entry. The entry, its attributes, tags and optional photo are stored together or not at all.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}

			e := &entities.Entry{CollectionID: coll.ID, Name: args[1]}
			if err := flags.apply(cmd, e); err != nil {
				return err
			}

			var stored string
			err = a.Sessions.Batch(ctx, func(ctx context.Context) error {
				if err := a.Repos.Entries.CreateEntry(ctx, e); err != nil {
					return err
				}
				if err := flags.applyRelations(ctx, cmd, a.Repos, e.ID); err != nil {
					return err
				}
				if photo != "" {
					p, err := storePhoto(ctx, a, coll.ID, e.ID, photo, primary)
					if err != nil {
						return err
					}
					stored = p.FilePath
				}
				return nil
			})
			if err != nil {
				if stored != "" {
					_ = a.Photos.Delete(ctx, stored)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %q (id %d)\n", e.Name, e.ID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&photo, "photo", "", "Photo file to attach")
	cmd.Flags().BoolVar(&primary, "primary", true, "Make the attached photo primary for the entry name")
	return cmd
}

func listCommand(a *app.App) *cobra.Command {
	var (
		filter repository.Filter
		tags   []string
		sort   string
		page   repository.Page
	)
	cmd := &cobra.Command{
		Use:   "list COLLECTION",
		Short: "List entries matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order := repository.SortDateDesc
			switch sort {
			case "date":
			case "name":
				order = repository.SortNameAsc
			default:
				return cliutil.Invalid("unknown sort %q, want date or name", sort)
			}

			var (
				rows  []repository.EntryRow
				total int64
			)
			err := a.Sessions.List(cmd.Context(), func(ctx context.Context) error {
				coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
				if err != nil {
					return err
				}
				for _, name := range tags {
					tag, err := a.Repos.Tags.GetTagByName(ctx, name)
					if err != nil {
						return err
					}
					filter.TagIDs = append(filter.TagIDs, tag.ID)
				}
				if rows, err = a.Repos.Entries.Query(ctx, coll.ID, filter, order, page); err != nil {
					return err
				}
				total, err = a.Repos.Entries.CountMatching(ctx, coll.ID, filter)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := cliutil.NewTable(out)
			cliutil.Row(tw, "ID", "NAME", "DATE", "LOCATION", "TIER", "PHOTO")
			for _, r := range rows {
				photo := "-"
				if r.PrimaryPhotoID != nil {
					photo = fmt.Sprint(*r.PrimaryPhotoID)
				}
				loc := r.Location
				if loc == "" {
					loc = "-"
				}
				cliutil.Row(tw, r.ID, r.Name, cliutil.FormatDate(r.ObservedAt), loc, cliutil.OrDash(r.Tier), photo)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d entries\n", len(rows), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Tier, "tier", "", "Only entries with this tier; Undetermined matches untiered entries")
	cmd.Flags().StringVar(&filter.EntryName, "name", "", "Only entries with exactly this name")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Case-insensitive text in name, location or notes")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Only entries carrying every listed tag")
	cmd.Flags().StringVar(&sort, "sort", "date", "Sort by date or name")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Maximum rows, 0 for all")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Rows to skip")
	return cmd
}

// detailKey names the detail scope of one entry.
func detailKey(id uint) string {
	return fmt.Sprintf("entry:%d", id)
}

func showCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ENTRY-ID",
		Short: "Show an entry with attributes, tags and photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			scope, err := a.Details.Acquire(cmd.Context(), detailKey(id))
			if err != nil {
				return err
			}
			defer func() { _ = a.Details.Release(detailKey(id)) }()

			var (
				e     *entities.Entry
				attrs map[string]string
			)
			err = scope.Run(cmd.Context(), func(ctx context.Context) error {
				var err error
				if e, err = a.Repos.Entries.GetDetail(ctx, id); err != nil {
					return err
				}
				attrs, err = a.Repos.Fields.AttributesFor(ctx, id)
				return err
			})
			if err != nil {
				return err
			}
			printDetail(cmd, e, attrs)
			return nil
		},
	}
}

func printDetail(cmd *cobra.Command, e *entities.Entry, attrs map[string]string) {
	out := cmd.OutOrStdout()
	tw := cliutil.NewTable(out)
	cliutil.Row(tw, "Name:", e.Name)
	cliutil.Row(tw, "Date:", cliutil.FormatDate(e.ObservedAt))
	if e.Location != "" {
		cliutil.Row(tw, "Location:", e.Location)
	}
	if e.Latitude != nil && e.Longitude != nil {
		cliutil.Row(tw, "Coordinates:", fmt.Sprintf("%.5f, %.5f", *e.Latitude, *e.Longitude))
	}
	cliutil.Row(tw, "Tier:", cliutil.OrDash(e.Tier))
	if e.Notes != "" {
		cliutil.Row(tw, "Notes:", e.Notes)
	}
	for name, value := range sortedAttrs(attrs) {
		cliutil.Row(tw, name+":", value)
	}
	if len(e.Tags) > 0 {
		names := make([]string, len(e.Tags))
		for i, t := range e.Tags {
			names[i] = t.Name
		}
		cliutil.Row(tw, "Tags:", strings.Join(names, ", "))
	}
	for _, p := range e.Photos {
		mark := ""
		if p.IsPrimary {
			mark = " (primary)"
		}
		cliutil.Row(tw, "Photo:", fmt.Sprintf("%d %s%s", p.ID, p.FilePath, mark))
	}
	_ = tw.Flush()
}

func editCommand(a *app.App) *cobra.Command {
	var flags entryFlags
	cmd := &cobra.Command{
		Use:   "edit ENTRY-ID",
		Short: "Change an entry",
		Long:  `Change an entry. Only flags that are given are applied; --tag replaces the full tag set.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			scope, err := a.Details.Acquire(cmd.Context(), detailKey(id))
			if err != nil {
				return err
			}
			defer func() { _ = a.Details.Release(detailKey(id)) }()

			return scope.Run(cmd.Context(), func(ctx context.Context) error {
				e, err := a.Repos.Entries.GetEntry(ctx, id)
				if err != nil {
					return err
				}
				if err := flags.apply(cmd, e); err != nil {
					return err
				}
				if err := a.Repos.Entries.UpdateEntry(ctx, e); err != nil {
					return err
				}
				return flags.applyRelations(ctx, cmd, a.Repos, id)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func deleteCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENTRY-ID",
		Short: "Delete an entry and its photo files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			e, err := a.Repos.Entries.GetDetail(ctx, id)
			if err != nil {
				return err
			}
			if err := a.Repos.Entries.DeleteEntry(ctx, id); err != nil {
				return err
			}
			for _, p := range e.Photos {
				a.Thumbs.RemovePhoto(p.ID)
			}
			if _, err := photostore.RemovePrefix(ctx, a.Photos, photostore.EntryPrefix(e.CollectionID, e.ID)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %q\n", e.Name)
			return nil
		},
	}
}

func namesCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "names COLLECTION",
		Short: "List the distinct entry names of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := cliutil.ResolveCollection(cmd.Context(), a.Repos, args[0])
			if err != nil {
				return err
			}
			names, err := a.Repos.Entries.UniqueEntryNames(cmd.Context(), coll.ID)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
