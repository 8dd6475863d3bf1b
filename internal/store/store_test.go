package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/receptradar/internal/store"
)

func TestDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "receptradar.db"), store.DBPath("/data"))
	assert.Equal(t, filepath.Join("/data", "images"), store.ImageDir("/data"))
	assert.Equal(t, filepath.Join("/data", "backups"), store.BackupDir("/data"))
}

func TestDefaultDataDir_UsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".receptradar"), store.DefaultDataDir())
}

func TestBackup_CopiesDatabaseAndSidecars(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "receptradar.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("main"), 0644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0644))

	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	result, err := store.Backup(dbPath, filepath.Join(dir, "backups"), now)
	require.NoError(t, err)

	assert.Equal(t, "receptradar-20260301T123000Z.db", filepath.Base(result.Path))
	assert.Len(t, result.Files, 2)

	got, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "main", string(got))

	wal, err := os.ReadFile(result.Path + "-wal")
	require.NoError(t, err)
	assert.Equal(t, "wal", string(wal))

	// Source is untouched.
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestBackup_MissingDatabase(t *testing.T) {
	dir := t.TempDir()

	_, err := store.Backup(filepath.Join(dir, "nope.db"), dir, time.Now())
	assert.ErrorIs(t, err, store.ErrNoDatabase)
}

func TestReset_RemovesDatabaseAfterBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "receptradar.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("main"), 0644))
	require.NoError(t, os.WriteFile(dbPath+"-shm", []byte("shm"), 0644))

	result, err := store.Reset(dbPath, filepath.Join(dir, "backups"), time.Now())
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err), "database should be removed")
	_, err = os.Stat(dbPath + "-shm")
	assert.True(t, os.IsNotExist(err), "sidecar should be removed")

	assert.True(t, strings.HasPrefix(filepath.Base(result.Path), "receptradar-"))
	got, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "main", string(got))
}
