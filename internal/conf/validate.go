package conf

import (
	"fmt"
	"strings"
)

// ValidationError collects every problem found in one validation pass.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateDatastoreSettings(&settings.Datastore)...)
	ve.Errors = append(ve.Errors, validatePhotoSettings(&settings.Photos)...)

	if settings.Thumbnails.CacheCapacity <= 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("thumbnails.cachecapacity must be positive, got %d", settings.Thumbnails.CacheCapacity))
	}

	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry.dsn is required when telemetry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatastoreSettings(ds *DatastoreSettings) []string {
	var errs []string

	ds.Driver = strings.ToLower(ds.Driver)
	switch ds.Driver {
	case DriverSQLite:
		if ds.SQLite.Path == "" {
			errs = append(errs, "datastore.sqlite.path is required for the sqlite driver")
		}
	case DriverMySQL:
		if ds.MySQL.Host == "" || ds.MySQL.Database == "" {
			errs = append(errs, "datastore.mysql.host and datastore.mysql.database are required for the mysql driver")
		}
		if ds.MySQL.Port < 1 || ds.MySQL.Port > 65535 {
			errs = append(errs, fmt.Sprintf("datastore.mysql.port out of range: %d", ds.MySQL.Port))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown datastore driver %q", ds.Driver))
	}

	if ds.ChunkSize <= 0 {
		errs = append(errs, fmt.Sprintf("datastore.chunksize must be positive, got %d", ds.ChunkSize))
	}
	if ds.SlowQueryThreshold < 0 {
		errs = append(errs, "datastore.slowquerythreshold cannot be negative")
	}

	return errs
}

func validatePhotoSettings(ps *PhotoSettings) []string {
	var errs []string

	ps.Driver = strings.ToLower(ps.Driver)
	switch ps.Driver {
	case PhotoDriverFS:
		if ps.BaseDir == "" {
			errs = append(errs, "photos.basedir is required for the fs driver")
		}
	case PhotoDriverS3:
		if ps.S3.Bucket == "" {
			errs = append(errs, "photos.s3.bucket is required for the s3 driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown photo driver %q", ps.Driver))
	}

	return errs
}
