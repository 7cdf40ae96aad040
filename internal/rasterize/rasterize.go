// Package rasterize implements the server side of C3: turning one page
// of an uploaded document into a PNG "initial representation". Grounded
// on original_source/qubespdfconverter/server.py's Representation.convert
// / create_irep, which shells out to pdftocairo and falls back to a
// general-purpose image converter when the input isn't a PDF page at all.
package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

const sniffLen = 512

// Rasterizer shells out to pdftocairo (PDF page -> PNG) and, for the
// direct-image-input variant, to ImageMagick's convert (arbitrary image
// -> PNG). The blank x/image imports above register BMP and TIFF decoders
// with the image package; they do not change what net/http's sniffer in
// IsDirectImage reports, so a TIFF upload is not detected as an image.
type Rasterizer struct {
	PdftocairoPath string
	ConvertPath    string
}

// New returns a Rasterizer using the tools' default $PATH names.
func New() *Rasterizer {
	return &Rasterizer{PdftocairoPath: "pdftocairo", ConvertPath: "convert"}
}

// IsDirectImage sniffs the first bytes of path and reports whether it
// looks like an image file rather than a PDF, per spec's direct-image-
// input variant: the server may skip pdftocairo entirely for such
// inputs and pixelize the file directly as a single page.
func IsDirectImage(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return false, fmt.Errorf("sniff %s: %w", path, err)
	}

	ct := http.DetectContentType(buf[:n])
	return strings.HasPrefix(ct, "image/"), nil
}

// RasterizePage renders page (1-based) of pdfPath to outPrefix+".png"
// using pdftocairo, optionally unlocking the document with password.
// A non-zero pdftocairo exit is reported as sanitizeerr.ConversionFailed.
func (r *Rasterizer) RasterizePage(ctx context.Context, pdfPath string, page int, outPrefix, password string) error {
	args := []string{
		"-opw", password,
		"-upw", password,
		pdfPath,
		"-png",
		"-f", fmt.Sprintf("%d", page),
		"-l", fmt.Sprintf("%d", page),
		"-singlefile",
		outPrefix,
	}

	cmd := exec.CommandContext(ctx, r.PdftocairoPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return sanitizeerr.New(sanitizeerr.ConversionFailed, pdfPath, page,
			fmt.Errorf("pdftocairo: %w: %s", err, stderr.String()))
	}
	return nil
}

// RasterizeDirectImage normalizes an already-image input (detected via
// IsDirectImage) to a PNG file at outPath using ImageMagick's convert,
// so the rest of the pipeline only ever deals with PNG initial
// representations.
func (r *Rasterizer) RasterizeDirectImage(ctx context.Context, imgPath, outPath string) error {
	cmd := exec.CommandContext(ctx, r.ConvertPath, imgPath, "png:"+outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return sanitizeerr.New(sanitizeerr.ConversionFailed, imgPath, 1,
			fmt.Errorf("convert: %w: %s", err, stderr.String()))
	}
	return nil
}
