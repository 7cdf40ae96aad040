package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	assert.True(t, FileExists(root+"/go.mod"))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(root+"/go.mod"))
}

func TestDirExists(t *testing.T) {
	assert.False(t, DirExists("/non/existent/dir"))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, DirExists(root+"/internal"))
}

func TestValidateProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NoError(t, ValidateProjectRoot(root))
	assert.Error(t, ValidateProjectRoot(t.TempDir()))
}

func TestGetProjectRootValidated(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
}
