// Package supervisor implements C10: fanning a multi-file invocation
// out to one orchestrator per file, isolating failures between files,
// handling cooperative SIGINT cancellation, and computing the final
// exit code. Grounded on
// original_source/qubespdfconverter/client.py's run()/sigint_handler,
// reimplemented with golang.org/x/sync/errgroup: every per-file
// goroutine always returns nil so one file's failure never cancels its
// siblings, while cancelling the caller's ctx (on SIGINT) still
// propagates to every in-flight orchestrator through the shared
// derived context.
package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/metrics"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/orchestrator"
)

// Report summarizes the outcome of one file's run.
type Report struct {
	Path string
	Doc  *document.Document
	Err  error
}

// Run sanitizes every path in paths, one Orchestrator per file built
// from newOrchestrator, concurrently. A failure in one file never
// cancels its siblings; cancelling ctx (e.g. on SIGINT) does. It
// returns one Report per input path in input order, and a process
// exit code: 0 if every file reached DONE (or paths is empty), 1
// otherwise.
func Run(ctx context.Context, paths []string, newOrchestrator func() *orchestrator.Orchestrator) ([]Report, int) {
	reports := make([]Report, len(paths))

	group, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			metrics.ActiveFiles.Inc()
			defer metrics.ActiveFiles.Dec()
			o := newOrchestrator()
			doc, err := o.Run(gctx, path)
			reports[i] = Report{Path: path, Doc: doc, Err: err}
			return nil
		})
	}

	_ = group.Wait()

	exitCode := 0
	for _, r := range reports {
		if r.Err != nil || r.Doc == nil || r.Doc.Status != document.Done {
			exitCode = 1
		}
	}

	return reports, exitCode
}
