package entry

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/photostore"
)

func photoCommand(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Manage entry photos",
	}
	cmd.AddCommand(photoAddCommand(a), photoPrimaryCommand(a), photoRemoveCommand(a))
	return cmd
}

// storePhoto adds a photo row for entryID and copies file to its original
// key. The row is inserted first because the key embeds the photo id.
func storePhoto(ctx context.Context, a *app.App, collectionID, entryID uint, file string, primary bool) (*entities.Photo, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.New(err).
			Component("cli").
			Category(errors.CategoryFileIO).
			FileContext(file, 0).
			Build()
	}
	defer f.Close()

	p := &entities.Photo{EntryID: entryID, FilePath: filepath.Base(file), IsPrimary: primary}
	if err := a.Repos.Photos.AddPhoto(ctx, p); err != nil {
		return nil, err
	}
	ref := photostore.Ref{CollectionID: collectionID, EntryID: entryID, PhotoID: p.ID, FileName: filepath.Base(file)}
	p.FilePath = ref.OriginalKey()
	if err := a.Repos.Photos.UpdatePhoto(ctx, p); err != nil {
		return nil, err
	}
	if err := a.Photos.Put(ctx, p.FilePath, f); err != nil {
		return nil, err
	}
	return p, nil
}

func photoAddCommand(a *app.App) *cobra.Command {
	var primary bool
	cmd := &cobra.Command{
		Use:   "add ENTRY-ID FILE",
		Short: "Attach a photo file to an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			var p *entities.Photo
			err = a.Sessions.Batch(cmd.Context(), func(ctx context.Context) error {
				e, err := a.Repos.Entries.GetEntry(ctx, id)
				if err != nil {
					return err
				}
				p, err = storePhoto(ctx, a, e.CollectionID, e.ID, args[1], primary)
				return err
			})
			if err != nil {
				if p != nil {
					_ = a.Photos.Delete(cmd.Context(), p.FilePath)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added photo %d as %s\n", p.ID, p.FilePath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&primary, "primary", false, "Make it the primary photo for the entry name")
	return cmd
}

func photoPrimaryCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "primary PHOTO-ID",
		Short: "Make a photo primary for its entry name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			return a.Repos.Photos.SetPrimary(cmd.Context(), id)
		},
	}
}

func photoRemoveCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PHOTO-ID",
		Short: "Remove a photo and its stored files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.Repos.Photos.DeletePhoto(ctx, id)
			if err != nil {
				return err
			}
			a.Thumbs.RemovePhoto(p.ID)
			ref, err := photostore.ParseOriginalKey(p.FilePath)
			if err != nil {
				// not in the store layout, only the original can be removed
				return a.Photos.Delete(ctx, p.FilePath)
			}
			return photostore.RemovePhoto(ctx, a.Photos, ref)
		},
	}
}

// sortedAttrs yields attributes in field name order.
func sortedAttrs(m map[string]string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
