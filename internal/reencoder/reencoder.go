// Package reencoder implements C7: converting a page's received raw
// RGB bytes back into a PNG the assembler can hand to pdfcpu. Grounded
// on original_source/qubespdfconverter/client.py's
// Representation.convert ("gm convert -size WxH -depth 8 rgb:... png:..."),
// generalized to ImageMagick's convert per the pack's preferred tool.
package reencoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// Reencoder shells out to ImageMagick's convert.
type Reencoder struct {
	ConvertPath string
}

// New returns a Reencoder using convert's default $PATH name.
func New() *Reencoder {
	return &Reencoder{ConvertPath: "convert"}
}

// Convert renders the raw RGB file at rgbPath (with the given
// already-validated dimensions) to a PNG at pngPath, then removes
// rgbPath — the scratch representation is no longer needed once the
// PNG exists.
func (e *Reencoder) Convert(ctx context.Context, rgbPath string, dim document.Dimensions, pngPath string) error {
	cmd := exec.CommandContext(ctx, e.ConvertPath,
		"-size", fmt.Sprintf("%dx%d", dim.Width, dim.Height),
		"-depth", fmt.Sprintf("%d", dim.Depth),
		"rgb:"+rgbPath,
		"png:"+pngPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return sanitizeerr.New(sanitizeerr.ConversionFailed, rgbPath, 0,
			fmt.Errorf("convert: %w: %s", err, stderr.String()))
	}
	_ = os.Remove(rgbPath)
	return nil
}
