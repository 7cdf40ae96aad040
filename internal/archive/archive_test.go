package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveCreatesArchiveDir(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0o600))

	archiveDir := filepath.Join(root, "archive")
	dest, err := Move(src, archiveDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archiveDir, "doc.pdf"), dest)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestMoveRenamesOnCollision(t *testing.T) {
	root := t.TempDir()
	archiveDir := filepath.Join(root, "archive")
	require.NoError(t, os.MkdirAll(archiveDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(archiveDir, "doc.pdf"), []byte("old"), 0o600))

	src := filepath.Join(root, "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o600))

	dest, err := Move(src, archiveDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archiveDir, "doc (1).pdf"), dest)

	old, err := os.ReadFile(filepath.Join(archiveDir, "doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestInPlaceDeleteToleratesMissingFile(t *testing.T) {
	assert.NoError(t, InPlaceDelete(filepath.Join(t.TempDir(), "gone.pdf")))
}

func TestInPlaceDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	require.NoError(t, InPlaceDelete(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
