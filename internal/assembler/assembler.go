// Package assembler implements C8: reassembling the client's received,
// re-encoded pages into the final flat "trusted" PDF. Grounded on
// original_source/qubespdfconverter/client.py's BaseFile._save_reps,
// which batches pages and calls Image.save(..., "PDF", resolution=100,
// append=pdf.exists(), append_images=...) once per batch. pdfcpu's
// api.ImportImagesFile plays the same role here: it creates the output
// file on the first call and appends pages to it on subsequent calls.
package assembler

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// Assembler accumulates page PNGs and flushes them to OutputPath in
// batches of BatchSize. The orchestrator passes its QueueDepth (the
// client's -b/--batch) here, so one setting controls both the client's
// re-encode concurrency and its assembly batch size; the server's queue
// depth comes from the server's own configuration.
type Assembler struct {
	OutputPath string
	BatchSize  int

	pending []string
}

// New returns an Assembler that writes to outputPath, flushing every
// batchSize staged pages.
func New(outputPath string, batchSize int) *Assembler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Assembler{OutputPath: outputPath, BatchSize: batchSize}
}

// AddPage stages pngPath — a page's final re-encoded PNG — for
// assembly, flushing immediately once BatchSize pages have
// accumulated so memory usage does not grow with total page count.
func (a *Assembler) AddPage(pngPath string) error {
	a.pending = append(a.pending, pngPath)
	if len(a.pending) >= a.BatchSize {
		return a.Flush()
	}
	return nil
}

// Flush writes any staged pages to OutputPath and unlinks their
// scratch PNGs, whether or not the batch is full. Safe to call when
// nothing is staged.
func (a *Assembler) Flush() error {
	if len(a.pending) == 0 {
		return nil
	}

	imp := pdfcpu.DefaultImportConfig()

	if err := api.ImportImagesFile(a.pending, a.OutputPath, imp, nil); err != nil {
		return sanitizeerr.New(sanitizeerr.AssemblyFailed, a.OutputPath, 0,
			fmt.Errorf("import %d page(s): %w", len(a.pending), err))
	}

	for _, path := range a.pending {
		_ = os.Remove(path)
	}
	a.pending = nil
	return nil
}

// Abort removes OutputPath entirely, per spec's AssemblyFailed handling
// rule: a partially assembled trusted PDF must never be left behind.
func (a *Assembler) Abort() {
	_ = os.Remove(a.OutputPath)
}
