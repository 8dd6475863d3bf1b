package store

import (
	"os"
	"path/filepath"
)

// DBFileName is the database file name inside the data directory.
const DBFileName = "receptradar.db"

// DefaultDataDir returns the directory holding the database, backups and
// generated images. Defaults to ~/.receptradar, falls back to ./.receptradar
// if the home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".receptradar")
	}
	return filepath.Join(home, ".receptradar")
}

// DBPath returns the database path inside dataDir.
// Example: DBPath("/home/a/.receptradar") -> /home/a/.receptradar/receptradar.db
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFileName)
}

// ImageDir returns the directory where generated recipe images are stored.
func ImageDir(dataDir string) string {
	return filepath.Join(dataDir, "images")
}

// BackupDir returns the directory where database backups are written.
func BackupDir(dataDir string) string {
	return filepath.Join(dataDir, "backups")
}
