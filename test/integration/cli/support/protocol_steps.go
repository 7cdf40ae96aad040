package support

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/orchestrator"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/transport"
)

// serveFunc is a hostile-server stand-in, wired to the orchestrator
// through transport.NewPipeTransport exactly as internal/orchestrator's
// own unit tests do -- these two scenarios are about the wire protocol
// defending itself against an untrusted, possibly malicious server, not
// about the real rasterize/pixelize tool chain, so there is no real
// qvm-sanitize-server binary involved here.
type serveFunc func(ctx context.Context, stdin io.Reader, stdout io.WriteCloser) error

// RegisterProtocolDefenseSteps wires up the adversarial, in-process
// scenarios from features/protocol_defense.feature.
func (tc *TestContext) RegisterProtocolDefenseSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an original file "([^"]+)"$`, tc.anOriginalFile)
	sc.Step(`^a server that reports (\d+) pages and then closes the connection$`, tc.serverDiesAfterPageCount)
	sc.Step(`^a server that claims a (\d+)x(\d+) page$`, tc.serverClaimsOversizePage)
	sc.Step(`^I run the orchestrator on "([^"]+)" against that server$`, tc.iRunTheOrchestratorAgainstThatServer)
	sc.Step(`^the run fails$`, tc.theRunFails)
	sc.Step(`^the run fails with a dimension error$`, tc.theRunFailsWithADimensionError)
	sc.Step(`^the original file "([^"]+)" is left untouched$`, tc.theOriginalFileIsLeftUntouched)
}

var lastServe serveFunc

func (tc *TestContext) anOriginalFile(name string) error {
	tc.LastPath = tc.path(name)
	return os.WriteFile(tc.LastPath, []byte("%PDF-1.4 fake original content\n"), 0o600)
}

func (tc *TestContext) serverDiesAfterPageCount(pagecount int) error {
	lastServe = func(_ context.Context, stdin io.Reader, stdout io.WriteCloser) error {
		_, _ = io.Copy(io.Discard, stdin)
		_, _ = fmt.Fprintf(stdout, "%d\n", pagecount)
		return stdout.Close()
	}
	return nil
}

func (tc *TestContext) serverClaimsOversizePage(width, height int) error {
	lastServe = func(_ context.Context, stdin io.Reader, stdout io.WriteCloser) error {
		defer stdout.Close()
		_, _ = io.Copy(io.Discard, stdin)
		_, _ = fmt.Fprintf(stdout, "1\n%d %d\n", width, height)
		return nil
	}
	return nil
}

func (tc *TestContext) iRunTheOrchestratorAgainstThatServer() error {
	archiveDir := tc.path("archive")

	o := orchestrator.New(orchestrator.Options{
		QueueDepth: 2,
		ArchiveDir: archiveDir,
		NewTransport: func() transport.Transport {
			return transport.NewPipeTransport(lastServe)
		},
	})

	tc.LastDoc, tc.LastErr = o.Run(context.Background(), tc.LastPath)
	return nil
}

func (tc *TestContext) theRunFails() error {
	if tc.LastErr == nil {
		return fmt.Errorf("expected the orchestrator run to fail, it succeeded")
	}
	if tc.LastDoc == nil || tc.LastDoc.Status != document.Failed {
		return fmt.Errorf("expected document status FAILED, got %v", tc.LastDoc)
	}
	return nil
}

func (tc *TestContext) theRunFailsWithADimensionError() error {
	if err := tc.theRunFails(); err != nil {
		return err
	}
	se, ok := tc.LastErr.(*sanitizeerr.Error)
	if !ok || se.Kind != sanitizeerr.DimensionError {
		return fmt.Errorf("expected a DimensionError, got %v", tc.LastErr)
	}
	return nil
}

func (tc *TestContext) theOriginalFileIsLeftUntouched(name string) error {
	if _, err := os.Stat(tc.path(name)); err != nil {
		return fmt.Errorf("original file %s missing after failed run: %w", name, err)
	}
	return nil
}
