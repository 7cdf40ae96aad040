package serverpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPasswordPrompt(t *testing.T) {
	msg := FormatPasswordPrompt("report.pdf")
	assert.Contains(t, msg, "report.pdf")
	assert.Contains(t, msg, "Please Provide The Password")
}

func TestResolvePasswordGivesUpWithoutFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.pdf")

	_, err := ResolvePassword(context.Background(), path, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrPasswordError))
}

func TestResolvePasswordTriesPasswordFile(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "missing.pdf")
	pwFile := filepath.Join(dir, "password.txt")
	require.NoError(t, os.WriteFile(pwFile, []byte("hunter2\n"), 0o600))

	_, err := ResolvePassword(context.Background(), docPath, pwFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrPasswordError))
}

func TestPageCountMissingFileIsConversionFailed(t *testing.T) {
	_, err := PageCount(context.Background(), "/nonexistent.pdf", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrConversionFailed))
}
