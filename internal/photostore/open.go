package photostore

import (
	"context"
	"fmt"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/errors"
)

// Open builds the store selected by settings.
func Open(ctx context.Context, settings *conf.Settings) (Store, error) {
	switch settings.Photos.Driver {
	case "", conf.PhotoDriverFS:
		return NewFSStore(settings.PhotoBaseDir())
	case conf.PhotoDriverS3:
		s3cfg := settings.Photos.S3
		return NewS3Store(ctx, S3Config{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			PathStyle: s3cfg.PathStyle,
		})
	default:
		return nil, errors.New(fmt.Errorf("unsupported photo driver %q", settings.Photos.Driver)).
			Component(component).
			Category(errors.CategoryConfiguration).
			Build()
	}
}
