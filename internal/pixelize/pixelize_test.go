package pixelize

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionsCommandFailure(t *testing.T) {
	p := &Pixelizer{IdentifyPath: "/bin/false", ConvertPath: "convert"}
	_, err := p.Dimensions(context.Background(), "missing.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrConversionFailed))
}

func TestToRGBCommandFailure(t *testing.T) {
	p := &Pixelizer{IdentifyPath: "identify", ConvertPath: "/bin/false"}
	err := p.ToRGB(context.Background(), "missing.png", filepath.Join(t.TempDir(), "out.rgb"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sanitizeerr.ErrConversionFailed))
}
