package serverpipeline

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/pixelize"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/rasterize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeTool writes a tiny shell script standing in for an external
// image tool so pipeline tests can run deterministically without
// pdftocairo/ImageMagick installed.
func writeFakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// fakeConvertBody returns a script body that writes size zero bytes to its last argument (minus
// any "rgb:"/"png:" prefix ImageMagick's convert would itself strip),
// and, when the destination ends in ".rgb", touches sentinelPath so
// tests can assert whether the raw-RGB conversion step ran.
func fakeConvertBody(size int, sentinelPath string) string {
	return `for dst in "$@"; do :; done
dst=$(echo "$dst" | sed 's/^rgb://;s/^png://')
head -c ` + itoa(size) + ` /dev/zero > "$dst"
case "$dst" in
  *.rgb) touch "` + sentinelPath + `" ;;
esac
`
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestPipelineRunDirectImageSinglePage(t *testing.T) {
	toolDir := t.TempDir()
	scratch := t.TempDir()

	identify := writeFakeTool(t, toolDir, "identify", `echo "4 3"`+"\n")
	sentinel := filepath.Join(scratch, "rgb-ran")
	convert := writeFakeTool(t, toolDir, "convert", fakeConvertBody(4*3*3, sentinel))

	pipe := &Pipeline{
		Rasterizer: &rasterize.Rasterizer{ConvertPath: convert},
		Pixelizer:  &pixelize.Pixelizer{IdentifyPath: identify, ConvertPath: convert},
		QueueDepth: 4,
		ScratchDir: scratch,
	}

	// A PNG-looking header is enough for rasterize.IsDirectImage to treat
	// this as a direct-image input and skip pdftocairo entirely.
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	in := bytes.NewReader(pngHeader)

	var out bytes.Buffer
	err := pipe.Run(context.Background(), in, &out)
	require.NoError(t, err)

	r := bufio.NewReader(&out)
	pagecountLine, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "1\n", pagecountLine)

	dimLine, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "4 3\n", dimLine)

	rest := make([]byte, 4*3*3)
	n, err := r.Read(rest)
	require.NoError(t, err)
	assert.Equal(t, 4*3*3, n)

	_, err = os.Stat(sentinel)
	assert.NoError(t, err, "raw RGB conversion should have run for a valid-size page")
}

func TestPipelineRunRejectsOversizeDimensionWithoutConvertingToRGB(t *testing.T) {
	toolDir := t.TempDir()
	scratch := t.TempDir()

	identify := writeFakeTool(t, toolDir, "identify", `echo "20000 20000"`+"\n")
	sentinel := filepath.Join(scratch, "rgb-ran")
	convert := writeFakeTool(t, toolDir, "convert", fakeConvertBody(1, sentinel))

	pipe := &Pipeline{
		Rasterizer: &rasterize.Rasterizer{ConvertPath: convert},
		Pixelizer:  &pixelize.Pixelizer{IdentifyPath: identify, ConvertPath: convert},
		QueueDepth: 1,
		ScratchDir: scratch,
	}

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	var out bytes.Buffer
	err := pipe.Run(context.Background(), bytes.NewReader(pngHeader), &out)
	require.Error(t, err)

	_, statErr := os.Stat(sentinel)
	assert.True(t, os.IsNotExist(statErr), "rgb conversion must never run for an oversize page")
}

func TestPipelineConvertPageFailurePropagates(t *testing.T) {
	scratch := t.TempDir()
	pipe := &Pipeline{
		Rasterizer: &rasterize.Rasterizer{PdftocairoPath: "/bin/false", ConvertPath: "/bin/false"},
		Pixelizer:  pixelize.New(),
		QueueDepth: 1,
		ScratchDir: scratch,
	}

	_, _, err := pipe.convertPage(context.Background(), filepath.Join(scratch, "doc.pdf"), 1, false, "")
	require.Error(t, err)
}
