package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/courtage/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Rate-Grid", "add_rate_grid"},
		{"ADD_DOCUMENTS", "add_documents"},
		{"add__users__table", "add_users_table"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := Create(dir, "add clients", now)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_clients.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_clients.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Add Clients")
	assert.Contains(t, string(up), "2026-03-01T10:00:00Z")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback: Add Clients")

	second, err := Create(dir, "Add-Vehicles", now)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "add_vehicles", second.Name)
}

func TestCreate_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := Create(dir, "init", time.Now())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	_, err := Create(t.TempDir(), "!!!", time.Now())
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	files := fstest.MapFS{
		"000002_add_users.up.sql":     {Data: []byte("--")},
		"000002_add_users.down.sql":   {Data: []byte("--")},
		"000001_init_schema.up.sql":   {Data: []byte("--")},
		"000001_init_schema.down.sql": {Data: []byte("--")},
		"000003_seed.up.sql":          {Data: []byte("--")},
		"README.md":                   {Data: []byte("#")},
		"embed.go":                    {Data: []byte("package x")},
		"notanumber_x.up.sql":         {Data: []byte("--")},
		"subdir.up.sql/file":          {Data: []byte("--")},
	}

	entries, err := List(files)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Version: 1, Name: "init_schema", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 2, Name: "add_users", HasDown: true}, entries[1])
	assert.Equal(t, Entry{Version: 3, Name: "seed", HasDown: false}, entries[2])
}

func TestList_MissingDirectory(t *testing.T) {
	entries, err := List(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	entries, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for i, e := range entries {
		assert.Equal(t, uint(i+1), e.Version, "versions are contiguous")
		assert.True(t, e.HasDown, "%06d_%s has no down migration", e.Version, e.Name)
	}
}
