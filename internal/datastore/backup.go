package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// backupDiskBuffer is the free space required on top of the database size.
const backupDiskBuffer = 64 << 20

var (
	// ErrBackupUnsupported is returned by Backup for non-SQLite backends.
	ErrBackupUnsupported = errors.NewStd("backup is only supported for sqlite")
	// ErrInsufficientSpace is returned when the target cannot hold the copy.
	ErrInsufficientSpace = errors.NewStd("not enough disk space for backup")
)

// Backup writes a consistent copy of an SQLite database into dir and returns
// its path. The copy is taken with VACUUM INTO on the live connection, so it
// is safe while other scopes are open, and is verified before returning.
func Backup(ctx context.Context, m Manager, dir string) (string, error) {
	if m.IsMySQL() {
		return "", errors.New(ErrBackupUnsupported).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", backupError(err, dir)
	}
	if err := checkDiskSpace(m.Path(), dir); err != nil {
		return "", err
	}
	timestamp := time.Now().UTC().Format("20060102150405")
	dest, err := filepath.Abs(filepath.Join(dir, fmt.Sprintf("lifelist-sqlite-%s.db", timestamp)))
	if err != nil {
		return "", backupError(err, dir)
	}
	if _, err := os.Stat(dest); err == nil {
		return "", backupError(fmt.Errorf("backup file already exists"), dest)
	}

	start := time.Now()
	if err := m.DB().WithContext(ctx).Exec("VACUUM INTO ?", dest).Error; err != nil {
		_ = os.Remove(dest)
		return "", backupError(err, dest)
	}
	if err := verifyBackup(dest); err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", backupError(err, dest)
	}
	getLogger().Info("database backup written",
		logger.String("path", dest),
		logger.Int64("bytes", info.Size()),
		logger.Duration("duration", time.Since(start)))
	return dest, nil
}

// checkDiskSpace fails when dir has less free space than the database plus
// backupDiskBuffer.
func checkDiskSpace(dbPath, dir string) error {
	info, err := os.Stat(dbPath)
	if err != nil {
		return backupError(err, dbPath)
	}
	usage, err := disk.Usage(dir)
	if err != nil {
		return backupError(fmt.Errorf("failed to check disk space: %w", err), dir)
	}
	required := uint64(info.Size()) + backupDiskBuffer //nolint:gosec // file sizes are non-negative
	if usage.Free < required {
		return errors.New(fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientSpace, required, usage.Free)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}
	return nil
}

// verifyBackup opens the copy read-only and runs an integrity check.
func verifyBackup(path string) error {
	db, err := gorm.Open(sqlite.Open("file:"+path+"?mode=ro"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return backupError(fmt.Errorf("failed to open backup: %w", err), path)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return backupError(err, path)
	}
	defer func() { _ = sqlDB.Close() }()

	var result string
	if err := db.Raw("PRAGMA integrity_check").Scan(&result).Error; err != nil {
		return backupError(err, path)
	}
	if result != "ok" {
		return backupError(fmt.Errorf("integrity check failed: %s", result), path)
	}
	return nil
}

func backupError(err error, path string) error {
	return errors.New(fmt.Errorf("database backup failed: %w", err)).
		Component("datastore").
		Category(errors.CategoryFileIO).
		FileContext(path, 0).
		Build()
}
