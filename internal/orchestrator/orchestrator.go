// Package orchestrator implements C9: the per-file state machine that
// drives one document through upload, reception, re-encoding, and
// assembly, then finalizes or cleans up. Grounded on
// original_source/qubespdfconverter/client.py's Job.run/_setup/_start,
// reimplemented with golang.org/x/sync/errgroup for the bounded
// re-encode worker pool in place of the reference's asyncio.Queue.
package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/archive"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/assembler"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/metrics"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/reencoder"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/receiver"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/transport"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/wire"
)

// State is the per-file lifecycle stage tracked while a document moves
// through the orchestrator.
type State int

const (
	StateInit State = iota
	StateSpawn
	StateUpload
	StateReadPagecount
	StatePipeline
	StateFinalize
	StateDone
	StateCleanup
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSpawn:
		return "SPAWN"
	case StateUpload:
		return "UPLOAD"
	case StateReadPagecount:
		return "READ_PAGECOUNT"
	case StatePipeline:
		return "PIPELINE"
	case StateFinalize:
		return "FINALIZE"
	case StateDone:
		return "DONE"
	case StateCleanup:
		return "CLEANUP"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// StatusObserver is notified of state transitions for one file; the
// multi-file supervisor (C10) and the optional dashboard both
// implement it.
type StatusObserver interface {
	OnStateChange(originalPath string, state State)
	OnPageComplete(originalPath string, page, pagecount int)
}

type noopObserver struct{}

func (noopObserver) OnStateChange(string, State)    {}
func (noopObserver) OnPageComplete(string, int, int) {}

// Options configures one file's run through the orchestrator.
type Options struct {
	NewTransport func() transport.Transport
	QueueDepth   int
	ArchiveDir   string
	InPlace      bool
	Observer     StatusObserver
}

// Orchestrator drives a single document through the sanitization
// pipeline end to end.
type Orchestrator struct {
	opts Options
}

// New returns an Orchestrator configured by opts. A nil Observer is
// replaced with a no-op.
func New(opts Options) *Orchestrator {
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	return &Orchestrator{opts: opts}
}

// Run drives originalPath through INIT -> ... -> DONE, or performs
// CLEANUP and returns a *sanitizeerr.Error on any failure or
// cancellation. The original file is left untouched unless and until
// FINALIZE completes.
func (o *Orchestrator) Run(ctx context.Context, originalPath string) (*document.Document, error) {
	doc := document.New(originalPath)
	obs := o.opts.Observer
	start := time.Now()

	setState := func(s State) { obs.OnStateChange(originalPath, s) }
	setState(StateInit)

	scratchDir, err := os.MkdirTemp("", "qvm-sanitize-")
	if err != nil {
		setState(StateFailed)
		return doc, sanitizeerr.New(sanitizeerr.TransportBroken, originalPath, 0,
			fmt.Errorf("create scratch dir: %w", err))
	}
	defer os.RemoveAll(scratchDir)

	setState(StateSpawn)
	tr := o.opts.NewTransport()
	if err := tr.Start(ctx); err != nil {
		setState(StateFailed)
		return doc, err
	}

	// Cancellation must unblock any pending read or write on tr
	// immediately, not only after run() has already returned: a SIGINT
	// during a blocked upload or pagecount read otherwise deadlocks
	// forever waiting for the transport to notice. This watcher races
	// Terminate against run()'s own, idempotent cleanup call below.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = tr.Terminate(context.Background())
		case <-watchDone:
		}
	}()

	runErr := o.run(ctx, doc, tr, scratchDir, obs, setState)
	if runErr != nil {
		setState(StateCleanup)
		_ = tr.Terminate(ctx)

		// A cancelled ctx is what actually broke the transport here, not
		// an independent failure: whatever kind run() surfaced (usually
		// TransportBroken or ReceiveError, from the watcher tearing down
		// the pipe) gets reclassified as Cancelled so callers see CANCELLED
		// rather than FAILED for a cooperative SIGINT shutdown.
		if ctx.Err() != nil {
			runErr = sanitizeerr.New(sanitizeerr.Cancelled, originalPath, 0, runErr)
		}

		if isKind(runErr, sanitizeerr.TransportBroken) {
			metrics.TransportFailures.WithLabelValues("client").Inc()
		}
		if isKind(runErr, sanitizeerr.Cancelled) {
			setState(StateCancelled)
			doc.Status = document.Cancelled
		} else {
			setState(StateFailed)
			doc.Status = document.Failed
		}
		metrics.FileDuration.WithLabelValues(doc.Status.String()).Observe(time.Since(start).Seconds())
		return doc, runErr
	}

	doc.Status = document.Done
	setState(StateDone)
	metrics.FileDuration.WithLabelValues(doc.Status.String()).Observe(time.Since(start).Seconds())
	return doc, nil
}

func (o *Orchestrator) run(ctx context.Context, doc *document.Document, tr transport.Transport,
	scratchDir string, obs StatusObserver, setState func(State)) error {
	setState(StateUpload)
	f, err := os.Open(doc.OriginalPath)
	if err != nil {
		return sanitizeerr.New(sanitizeerr.TransportBroken, doc.OriginalPath, 0,
			fmt.Errorf("open original: %w", err))
	}
	uploadErr := wire.WriteDocument(tr.Stdin(), f)
	_ = f.Close()
	if closeErr := tr.Stdin().Close(); uploadErr == nil {
		uploadErr = closeErr
	}
	if uploadErr != nil {
		return uploadErr
	}

	setState(StateReadPagecount)
	reader := bufio.NewReader(tr.Stdout())
	pagecount, err := wire.ReadPageCount(reader)
	if err != nil {
		return err
	}
	doc.PageCount = pagecount

	setState(StatePipeline)
	trustedTemp := filepath.Join(scratchDir, filepath.Base(doc.TrustedOutputPath))
	asm := assembler.New(trustedTemp, o.opts.QueueDepth)

	if err := runPipeline(ctx, reader, pagecount, scratchDir, o.opts.QueueDepth, asm, doc.OriginalPath, obs); err != nil {
		asm.Abort()
		return err
	}

	if err := tr.Wait(); err != nil {
		asm.Abort()
		return err
	}

	setState(StateFinalize)
	if err := os.Rename(trustedTemp, doc.TrustedOutputPath); err != nil {
		return sanitizeerr.New(sanitizeerr.AssemblyFailed, doc.TrustedOutputPath, 0,
			fmt.Errorf("move trusted output into place: %w", err))
	}

	if o.opts.InPlace {
		if err := archive.InPlaceDelete(doc.OriginalPath); err != nil {
			return err
		}
	} else {
		if _, err := archive.Move(doc.OriginalPath, o.opts.ArchiveDir); err != nil {
			return err
		}
	}

	return nil
}

type reencodeResult struct {
	pngPath string
	err     error
}

// runPipeline receives every page in order, re-encodes them with a
// bounded worker pool, and feeds the assembler strictly in page order
// regardless of which re-encode finishes first.
func runPipeline(ctx context.Context, reader *bufio.Reader, pagecount int, scratchDir string,
	queueDepth int, asm *assembler.Assembler, originalPath string, obs StatusObserver) error {
	slots := make([]chan reencodeResult, pagecount)
	for i := range slots {
		slots[i] = make(chan reencodeResult, 1)
	}

	group, gctx := errgroup.WithContext(ctx)
	if queueDepth > 0 {
		group.SetLimit(queueDepth)
	}
	enc := reencoder.New()

	for page := 1; page <= pagecount; page++ {
		rep, err := receiver.ReceivePage(reader, page, scratchDir)
		if err != nil {
			return err
		}

		page := page
		rep := rep
		group.Go(func() error {
			pngPath := filepath.Join(scratchDir, fmt.Sprintf("%d.png", page))
			if err := enc.Convert(gctx, rep.Initial, rep.Dimensions, pngPath); err != nil {
				slots[page-1] <- reencodeResult{err: err}
				return err
			}
			slots[page-1] <- reencodeResult{pngPath: pngPath}
			return nil
		})
	}

	for page := 1; page <= pagecount; page++ {
		res := <-slots[page-1]
		if res.err != nil {
			_ = group.Wait()
			return res.err
		}
		if err := asm.AddPage(res.pngPath); err != nil {
			_ = group.Wait()
			return err
		}
		if scratcher, ok := obs.(interface{ NotePageScratch(string, string) }); ok {
			scratcher.NotePageScratch(originalPath, res.pngPath)
		}
		obs.OnPageComplete(originalPath, page, pagecount)
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return asm.Flush()
}

// isKind reports whether err is (or wraps) a sanitizeerr.Error of kind.
func isKind(err error, kind sanitizeerr.Kind) bool {
	var se *sanitizeerr.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}
