// Package pixelize implements C4: turning a page's PNG "initial
// representation" into the raw 8-bit RGB "final representation" the
// wire protocol carries. Grounded on
// original_source/qubespdfconverter/server.py's Representation._dim
// (gm identify) and Representation.convert (gm convert ... -depth 8
// rgb:...), generalized to ImageMagick's identify/convert, which the
// rest of the example pack favors over GraphicsMagick.
package pixelize

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// Pixelizer shells out to ImageMagick's identify and convert.
type Pixelizer struct {
	IdentifyPath string
	ConvertPath  string
}

// New returns a Pixelizer using the tools' default $PATH names.
func New() *Pixelizer {
	return &Pixelizer{IdentifyPath: "identify", ConvertPath: "convert"}
}

// Dimensions reports the width and height of the PNG at pngPath. The
// caller (internal/serverpipeline) still runs document.Dimensions.Validate
// on the result before it is ever written to the wire: identify's output
// is a fact about an untrusted scratch file, not a trusted value.
func (p *Pixelizer) Dimensions(ctx context.Context, pngPath string) (document.Dimensions, error) {
	cmd := exec.CommandContext(ctx, p.IdentifyPath, "-format", "%w %h", pngPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return document.Dimensions{}, sanitizeerr.New(sanitizeerr.ConversionFailed, pngPath, 0,
			fmt.Errorf("identify: %w: %s", err, stderr.String()))
	}

	fields := strings.Fields(stdout.String())
	if len(fields) != 2 {
		return document.Dimensions{}, sanitizeerr.New(sanitizeerr.ConversionFailed, pngPath, 0,
			fmt.Errorf("unexpected identify output %q", stdout.String()))
	}

	width, errW := strconv.Atoi(fields[0])
	height, errH := strconv.Atoi(fields[1])
	if errW != nil || errH != nil {
		return document.Dimensions{}, sanitizeerr.New(sanitizeerr.ConversionFailed, pngPath, 0,
			fmt.Errorf("non-integer identify output %q", stdout.String()))
	}

	return document.Dimensions{Width: width, Height: height, Depth: document.Depth}, nil
}

// ToRGB converts the PNG at pngPath into a raw, depth-8, alpha-free RGB
// file at rgbPath. A non-zero convert exit is ConversionFailed.
func (p *Pixelizer) ToRGB(ctx context.Context, pngPath, rgbPath string) error {
	cmd := exec.CommandContext(ctx, p.ConvertPath,
		pngPath,
		"-depth", strconv.Itoa(document.Depth),
		"rgb:"+rgbPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return sanitizeerr.New(sanitizeerr.ConversionFailed, pngPath, 0,
			fmt.Errorf("convert: %w: %s", err, stderr.String()))
	}
	return nil
}
