// Package serverpipeline implements C5: the server's bounded
// producer/consumer that rasterizes and pixelizes every page of an
// uploaded document and streams the results back over the wire in
// page order. Grounded on
// original_source/qubespdfconverter/server.py's BaseFile.sanitize /
// _publish / _consume (an asyncio.Queue(pagenums)-bounded pipeline),
// reimplemented with golang.org/x/sync/errgroup for bounded worker
// concurrency instead of an explicit queue object.
package serverpipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/metrics"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/pixelize"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/rasterize"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/wire"
)

// Pipeline holds the external-tool wrappers and concurrency bound used
// to sanitize one uploaded document.
type Pipeline struct {
	Rasterizer   *rasterize.Rasterizer
	Pixelizer    *pixelize.Pixelizer
	QueueDepth   int
	PasswordFile string
	ScratchDir   string
}

// New returns a Pipeline with default external-tool wrappers.
func New(scratchDir string, queueDepth int, passwordFile string) *Pipeline {
	return &Pipeline{
		Rasterizer:   rasterize.New(),
		Pixelizer:    pixelize.New(),
		QueueDepth:   queueDepth,
		PasswordFile: passwordFile,
		ScratchDir:   scratchDir,
	}
}

type pageOutcome struct {
	dim document.Dimensions
	rgb []byte
}

// Run reads the whole document from in, determines its page count and
// (for PDFs) its password, then rasterizes and pixelizes every page,
// writing the wire protocol to out: the page count line, then for each
// page in order its dimension line followed by exactly dim.Size() raw
// RGB bytes. Concurrency of the per-page conversions is bounded by
// QueueDepth; output is always emitted in page order regardless of
// which page's conversion finishes first.
func (p *Pipeline) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	docPath := filepath.Join(p.ScratchDir, "original")
	f, err := os.Create(docPath)
	if err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, docPath, 0, fmt.Errorf("create scratch file: %w", err))
	}
	if err := wire.WriteDocument(f, in); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, docPath, 0, fmt.Errorf("close scratch file: %w", err))
	}

	isImage, err := rasterize.IsDirectImage(docPath)
	if err != nil {
		return sanitizeerr.New(sanitizeerr.ConversionFailed, docPath, 0, err)
	}

	var pagecount int
	var password string
	if isImage {
		pagecount = 1
	} else {
		password, err = ResolvePassword(ctx, docPath, p.PasswordFile)
		if err != nil {
			return err
		}
		pagecount, err = PageCount(ctx, docPath, password)
		if err != nil {
			return err
		}
	}

	if pagecount < 1 || pagecount > document.MaxPages {
		return sanitizeerr.New(sanitizeerr.PageError, docPath, 0,
			fmt.Errorf("page count %d out of range [1,%d]", pagecount, document.MaxPages))
	}

	if err := wire.WritePageCount(out, pagecount); err != nil {
		return err
	}

	results := make([]chan pageOutcome, pagecount)
	errs := make([]chan error, pagecount)
	for i := range results {
		results[i] = make(chan pageOutcome, 1)
		errs[i] = make(chan error, 1)
	}

	group, gctx := errgroup.WithContext(ctx)
	if p.QueueDepth > 0 {
		group.SetLimit(p.QueueDepth)
	}

	for page := 1; page <= pagecount; page++ {
		page := page
		group.Go(func() error {
			dim, rgb, cerr := p.convertPage(gctx, docPath, page, isImage, password)
			if cerr != nil {
				errs[page-1] <- cerr
				return cerr
			}
			results[page-1] <- pageOutcome{dim: dim, rgb: rgb}
			return nil
		})
	}

	consumeErr := make(chan error, 1)
	go func() {
		for i := 0; i < pagecount; i++ {
			select {
			case outcome := <-results[i]:
				if err := wire.WriteDim(out, outcome.dim.Width, outcome.dim.Height); err != nil {
					consumeErr <- err
					return
				}
				if err := wire.WritePixels(out, outcome.rgb); err != nil {
					consumeErr <- err
					return
				}
			case err := <-errs[i]:
				consumeErr <- err
				return
			}
		}
		consumeErr <- nil
	}()

	waitErr := group.Wait()
	cErr := <-consumeErr
	if cErr != nil {
		return cErr
	}
	return waitErr
}

// convertPage runs the rasterize+pixelize chain for one page and
// returns its validated dimensions and raw RGB bytes.
func (p *Pipeline) convertPage(ctx context.Context, docPath string, page int, isImage bool, password string) (document.Dimensions, []byte, error) {
	pngPath := filepath.Join(p.ScratchDir, fmt.Sprintf("%d.png", page))
	rgbPath := filepath.Join(p.ScratchDir, fmt.Sprintf("%d.rgb", page))

	if isImage {
		if err := p.Rasterizer.RasterizeDirectImage(ctx, docPath, pngPath); err != nil {
			return document.Dimensions{}, nil, err
		}
	} else {
		prefix := filepath.Join(p.ScratchDir, fmt.Sprintf("%d", page))
		if err := p.Rasterizer.RasterizePage(ctx, docPath, page, prefix, password); err != nil {
			return document.Dimensions{}, nil, err
		}
	}
	defer os.Remove(pngPath)

	dim, err := p.Pixelizer.Dimensions(ctx, pngPath)
	if err != nil {
		metrics.PagesSanitized.WithLabelValues("error").Inc()
		return document.Dimensions{}, nil, err
	}
	if err := dim.Validate(); err != nil {
		metrics.DimensionRejections.Inc()
		metrics.PagesSanitized.WithLabelValues("error").Inc()
		return document.Dimensions{}, nil, err
	}

	if err := p.Pixelizer.ToRGB(ctx, pngPath, rgbPath); err != nil {
		metrics.PagesSanitized.WithLabelValues("error").Inc()
		return document.Dimensions{}, nil, err
	}
	defer os.Remove(rgbPath)

	rgb, err := os.ReadFile(rgbPath)
	if err != nil {
		metrics.PagesSanitized.WithLabelValues("error").Inc()
		return document.Dimensions{}, nil, sanitizeerr.New(sanitizeerr.ConversionFailed, rgbPath, page,
			fmt.Errorf("read rgb output: %w", err))
	}
	if len(rgb) != dim.Size() {
		metrics.PagesSanitized.WithLabelValues("error").Inc()
		return document.Dimensions{}, nil, sanitizeerr.New(sanitizeerr.ConversionFailed, rgbPath, page,
			fmt.Errorf("rgb output size %d does not match %dx%dx3", len(rgb), dim.Width, dim.Height))
	}

	metrics.PagesSanitized.WithLabelValues("success").Inc()
	return dim, rgb, nil
}
