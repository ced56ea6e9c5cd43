package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceDefaultsToEmbeddedMigrations(t *testing.T) {
	fsys, err := Source("")
	require.NoError(t, err)

	names, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "00001_init.sql")
	assert.Contains(t, names, "00002_colors.sql")

	raw, err := fs.ReadFile(fsys, "00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "-- +goose Down")
}

func TestSourceReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_x.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o600))

	fsys, err := Source(dir)
	require.NoError(t, err)
	_, err = fs.Stat(fsys, "00001_x.sql")
	assert.NoError(t, err)
}

func TestSourceRejectsMissingOrFilePaths(t *testing.T) {
	_, err := Source(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.sql")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = Source(file)
	assert.Error(t, err)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New("", os.DirFS(t.TempDir()), nil)
	assert.Error(t, err)
	_, err = New("postgres://localhost/db", nil, nil)
	assert.Error(t, err)
}
