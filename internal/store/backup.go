package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoDatabase is returned when backing up or resetting a missing database.
var ErrNoDatabase = errors.New("database file does not exist")

// sidecarSuffixes are the SQLite WAL files kept next to the database.
var sidecarSuffixes = []string{"-wal", "-shm"}

// BackupResult describes a completed backup.
type BackupResult struct {
	// Path is the backup database file.
	Path string
	// Files lists every file written, including WAL sidecars.
	Files []string
}

// Backup copies the database at dbPath, and its WAL sidecars if present,
// into destDir. The backup name carries the UTC timestamp now. The database
// should be closed so the WAL has been checkpointed.
func Backup(dbPath, destDir string, now time.Time) (*BackupResult, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, ErrNoDatabase
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))
	name := fmt.Sprintf("%s-%s%s", base, now.UTC().Format("20060102T150405Z"), filepath.Ext(dbPath))
	dst := filepath.Join(destDir, name)

	result := &BackupResult{Path: dst}
	if err := copyFile(dbPath, dst); err != nil {
		return nil, fmt.Errorf("copy database: %w", err)
	}
	result.Files = append(result.Files, dst)

	for _, suffix := range sidecarSuffixes {
		src := dbPath + suffix
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, dst+suffix); err != nil {
			return nil, fmt.Errorf("copy %s: %w", suffix, err)
		}
		result.Files = append(result.Files, dst+suffix)
	}
	return result, nil
}

// Reset backs up the database into backupDir and then removes it, so the
// next open starts from an empty store. Used to recover from a database
// that cannot be migrated.
func Reset(dbPath, backupDir string, now time.Time) (*BackupResult, error) {
	result, err := Backup(dbPath, backupDir, now)
	if err != nil {
		return nil, err
	}
	for _, p := range append([]string{dbPath}, sidecarPaths(dbPath)...) {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return result, fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return result, nil
}

func sidecarPaths(dbPath string) []string {
	paths := make([]string, 0, len(sidecarSuffixes))
	for _, suffix := range sidecarSuffixes {
		paths = append(paths, dbPath+suffix)
	}
	return paths
}

// copyFile copies a file from src to dst with durability guarantees.
// On failure, attempts to clean up any partial destination file.
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.Create(dst)
	if err != nil {
		return err
	}

	success := false
	defer func() {
		dest.Close()
		if !success {
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(dest, source); err != nil {
		return err
	}

	// SQLite files must reach disk before the backup is reported.
	if err := dest.Sync(); err != nil {
		return err
	}

	success = true
	return nil
}
