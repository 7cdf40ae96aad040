// Package receiver implements C6: the client side of receiving one
// page's initial representation (dimensions + raw RGB bytes) from the
// server. Grounded on
// original_source/qubespdfconverter/client.py's Representation.receive/_dim,
// reusing internal/wire's already-validating ReadDim/ReadPixels so an
// untrusted dimension value can never escape to an allocator or an
// external process.
package receiver

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/metrics"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/wire"
)

// ReceivePage reads one page's dimension line and raw RGB payload from
// r, writes the payload to "<scratchDir>/<page>.rgb", and returns the
// resulting PageRepresentation. The dimensions are validated (via
// wire.ReadDim) before any file is created.
func ReceivePage(r *bufio.Reader, page int, scratchDir string) (*document.PageRepresentation, error) {
	dim, err := wire.ReadDim(r)
	if err != nil {
		if isKind(err, sanitizeerr.DimensionError) {
			metrics.DimensionRejections.Inc()
		}
		return nil, withPage(err, page)
	}

	rgb, err := wire.ReadPixels(r, dim.Size())
	if err != nil {
		return nil, withPage(err, page)
	}

	rgbPath := filepath.Join(scratchDir, fmt.Sprintf("%d.rgb", page))
	if err := os.WriteFile(rgbPath, rgb, 0o600); err != nil {
		return nil, sanitizeerr.New(sanitizeerr.ReceiveError, rgbPath, page,
			fmt.Errorf("write initial representation: %w", err))
	}

	return &document.PageRepresentation{
		PageIndex:  page,
		Initial:    rgbPath,
		Dimensions: dim,
	}, nil
}

// withPage attaches the page number to an already-typed sanitizeerr.Error
// so callers upstream don't have to re-derive which page failed.
func withPage(err error, page int) error {
	se, ok := err.(*sanitizeerr.Error)
	if !ok {
		return err
	}
	return sanitizeerr.New(se.Kind, se.File, page, se.Err)
}

func isKind(err error, kind sanitizeerr.Kind) bool {
	se, ok := err.(*sanitizeerr.Error)
	return ok && se.Kind == kind
}
