// Package document holds the shared data model (spec §3) for a file moving
// through the sanitization pipeline: the Document itself and the per-page
// representations exchanged between client and server.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// Protocol-compatibility constants. These values are load-bearing: the
// client and server must agree on them even though they never run in the
// same process.
const (
	MaxPages     = 10000
	MaxImgWidth  = 10000
	MaxImgHeight = 10000
	Depth        = 8 // bits per channel; 3 channels (RGB), no alpha
)

// Status is the lifecycle state of a Document as tracked by the
// per-file orchestrator.
type Status int

const (
	Pending Status = iota
	Running
	Done
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Done:
		return "DONE"
	case Failed:
		return "FAILED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Document represents one input file as it moves through the pipeline.
type Document struct {
	OriginalPath      string
	TrustedOutputPath string
	PageCount         int
	Status            Status
}

// New derives TrustedOutputPath from originalPath ("<stem>.trusted.pdf")
// and returns a Document in the Pending state.
func New(originalPath string) *Document {
	return &Document{
		OriginalPath:      originalPath,
		TrustedOutputPath: TrustedOutputPath(originalPath),
		Status:            Pending,
	}
}

// TrustedOutputPath computes "<stem>.trusted.pdf" next to originalPath,
// replacing whatever extension originalPath has.
func TrustedOutputPath(originalPath string) string {
	ext := filepath.Ext(originalPath)
	stem := strings.TrimSuffix(originalPath, ext)
	return stem + ".trusted.pdf"
}

// Dimensions describes a page's pixel geometry as reported over the wire.
// A zero-value Dimensions is never valid; use Validate before trusting one
// that originated from the untrusted side of the transport.
type Dimensions struct {
	Width  int
	Height int
	Depth  int
}

// Size returns the exact number of raw RGB bytes this page's payload must
// contain: width * height * 3 (no alpha channel).
func (d Dimensions) Size() int {
	return d.Width * d.Height * 3
}

// Validate enforces the dimensions invariant from spec §3. Callers on the
// client MUST call this before allocating any buffer or invoking any
// external process with these values.
func (d Dimensions) Validate() error {
	if d.Width < 1 || d.Width > MaxImgWidth {
		return sanitizeerr.New(sanitizeerr.DimensionError, "", 0,
			fmt.Errorf("width %d out of range [1,%d]", d.Width, MaxImgWidth))
	}
	if d.Height < 1 || d.Height > MaxImgHeight {
		return sanitizeerr.New(sanitizeerr.DimensionError, "", 0,
			fmt.Errorf("height %d out of range [1,%d]", d.Height, MaxImgHeight))
	}
	if d.Depth != Depth {
		return sanitizeerr.New(sanitizeerr.DimensionError, "", 0,
			fmt.Errorf("depth %d must equal %d", d.Depth, Depth))
	}
	return nil
}

// PageRepresentation is a single page moving through the pipeline. Initial
// and Final hold the filesystem paths of a page's raster forms; which one
// is the PNG and which is the raw RGB depends on which side (client or
// server) holds the representation, per spec §3's glossary.
type PageRepresentation struct {
	PageIndex  int // 1-based
	Initial    string
	Final      string
	Dimensions Dimensions
}
