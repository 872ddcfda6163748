// Package thumbs provides the thumbnail cache command.
package thumbs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/cliutil"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/photostore"
	"github.com/tphakala/lifelist/internal/thumbnail"
)

// Command creates and returns the thumbs command
func Command(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumbs",
		Short: "Inspect stored thumbnails",
	}
	cmd.AddCommand(warmCommand(a), pathsCommand(a))
	return cmd
}

// collectKeys returns a cache key per photo of every entry in the collection.
func collectKeys(ctx context.Context, a *app.App, collectionID uint, size photostore.Size) ([]thumbnail.Key, error) {
	var keys []thumbnail.Key
	err := a.Sessions.List(ctx, func(ctx context.Context) error {
		rows, err := a.Repos.Entries.Query(ctx, collectionID, repository.Filter{}, repository.SortNameAsc, repository.Page{})
		if err != nil {
			return err
		}
		for _, r := range rows {
			photos, err := a.Repos.Photos.PhotosForEntry(ctx, r.ID)
			if err != nil {
				return err
			}
			for _, p := range photos {
				keys = append(keys, thumbnail.Key{CollectionID: collectionID, EntryID: r.ID, PhotoID: p.ID, Size: size})
			}
		}
		return nil
	})
	return keys, err
}

func warmCommand(a *app.App) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "warm COLLECTION",
		Short: "Load a collection's thumbnails into the cache",
		Long:  `Load a collection's thumbnails into the cache and report how many were found. Missing thumbnails are skipped; they are never generated here.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sz, err := photostore.ParseSize(size)
			if err != nil {
				return err
			}
			coll, err := cliutil.ResolveCollection(ctx, a.Repos, args[0])
			if err != nil {
				return err
			}
			keys, err := collectKeys(ctx, a, coll.ID, sz)
			if err != nil {
				return err
			}
			fetched, err := a.Thumbs.Warm(ctx, keys)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d %s thumbnails loaded, cache holds %d of %d\n",
				fetched, len(keys), sz, a.Thumbs.Len(), a.Thumbs.Capacity())
			return nil
		},
	}
	cmd.Flags().StringVar(&size, "size", string(photostore.SizeSM), "Thumbnail size: xs, sm, md or lg")
	return cmd
}

func pathsCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "paths PHOTO-ID",
		Short: "Print the storage keys of a photo and its thumbnails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cliutil.ParseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.Repos.Photos.GetPhoto(cmd.Context(), id)
			if err != nil {
				return err
			}
			ref, err := photostore.ParseOriginalKey(p.FilePath)
			if err != nil {
				return err
			}
			tw := cliutil.NewTable(cmd.OutOrStdout())
			cliutil.Row(tw, "original", ref.OriginalKey())
			for _, s := range photostore.Sizes() {
				w, h := s.Dimensions()
				cliutil.Row(tw, fmt.Sprintf("%s %dx%d", s, w, h), ref.ThumbnailKey(s))
			}
			return tw.Flush()
		},
	}
}
