package rasterize

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

func TestIsDirectImageDetectsPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	isImg, err := IsDirectImage(path)
	require.NoError(t, err)
	assert.True(t, isImg)
}

func TestIsDirectImageRejectsPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n..."), 0o600))

	isImg, err := IsDirectImage(path)
	require.NoError(t, err)
	assert.False(t, isImg)
}

func TestIsDirectImageMissingFile(t *testing.T) {
	_, err := IsDirectImage("/nonexistent/path.pdf")
	assert.Error(t, err)
}

func TestRasterizePageConversionFailure(t *testing.T) {
	r := &Rasterizer{PdftocairoPath: "/bin/false", ConvertPath: "convert"}
	err := r.RasterizePage(context.Background(), "missing.pdf", 1, filepath.Join(t.TempDir(), "out"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrConversionFailed))
}

func TestRasterizeDirectImageConversionFailure(t *testing.T) {
	r := &Rasterizer{PdftocairoPath: "pdftocairo", ConvertPath: "/bin/false"}
	err := r.RasterizeDirectImage(context.Background(), "missing.jpg", filepath.Join(t.TempDir(), "out.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrConversionFailed))
}
