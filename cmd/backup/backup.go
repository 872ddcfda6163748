// Package backup provides the backup command for lifelist
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/lifelist/internal/app"
	"github.com/tphakala/lifelist/internal/datastore"
)

// Command creates and returns the backup command
func Command(a *app.App) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "backup DIR",
		Short: "Write a copy of the SQLite database to DIR",
		Long:  `Backup command writes a consistent, integrity-checked copy of the SQLite database to DIR. Photo files are not included; export a collection to bundle its photos.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			path, err := datastore.Backup(ctx, a.Manager, args[0])
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Abort the backup after this long")
	return cmd
}
