package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupConfig controls the periodic database file backup.
type BackupConfig struct {
	Path      string
	Interval  time.Duration
	Retention time.Duration
}

// BackupLoop copies the database file to cfg.Path every cfg.Interval and
// prunes copies older than cfg.Retention. Runs until ctx is cancelled.
func BackupLoop(ctx context.Context, dbPath string, cfg BackupConfig, logger *zerolog.Logger) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	runBackup(dbPath, cfg, logger)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runBackup(dbPath, cfg, logger)
		}
	}
}

func runBackup(dbPath string, cfg BackupConfig, logger *zerolog.Logger) {
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(cfg.Path, fmt.Sprintf("medbook_%s.db", timestamp))

	logger.Info().Str("path", dest).Msg("starting database backup")
	if err := copyFile(dbPath, dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
		return
	}
	logger.Info().Msg("backup completed")

	if deleted, err := pruneBackups(cfg.Path, cfg.Retention); err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("pruned old backups")
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// pruneBackups deletes backup files older than retention and returns how
// many were removed.
func pruneBackups(dir string, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
