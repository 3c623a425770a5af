package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"add listing offsets", "add_listing_offsets"},
		{"Add-Feed-Columns", "add_feed_columns"},
		{"ADD_TOKEN_INDEX", "add_token_index"},
		{"widen__sku__column", "widen_sku_column"},
		{"drop v1 queue", "drop_v1_queue"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.input), "input %q", tt.input)
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add listing offsets", "Per-credential price offsets for listings")
	require.NoError(t, err)

	assert.Equal(t, "000001", mf.Version)
	assert.Equal(t, "add_listing_offsets", mf.Name)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_listing_offsets")
	assert.Contains(t, string(up), "-- Description: Per-credential price offsets for listings")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Migration: add_listing_offsets (Rollback)")
}

func TestCreateMigration_SequentialVersions(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create sync tables", "")
	require.NoError(t, err)
	second, err := CreateMigration(dir, "add feed columns", "")
	require.NoError(t, err)

	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, "000002", second.Version)
}

func TestCreateMigration_ContinuesExistingNumbering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_add_token_index.up.sql"), []byte("-- up"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_add_token_index.down.sql"), []byte("-- down"), 0644))

	mf, err := CreateMigration(dir, "widen sku column", "")
	require.NoError(t, err)

	assert.Equal(t, "000008", mf.Version)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "!!!", "")
	require.Error(t, err)
	assert.Nil(t, mf)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	_, err := CreateMigration(dir, "create sync tables", "")
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_feed_columns.up.sql",
		"000002_add_feed_columns.down.sql",
		"000001_create_sync_tables.up.sql",
		"000001_create_sync_tables.down.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0644))
	}

	names, err := ListMigrations(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_sync_tables",
		"000002_add_feed_columns",
	}, names, "down files and strays are ignored, output is version-sorted")
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
