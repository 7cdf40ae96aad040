package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cucumber/godog"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
)

// RegisterSanitizeSteps wires up the happy-path, real-binary scenarios
// from features/sanitize.feature.
func (tc *TestContext) RegisterSanitizeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a PDF fixture "([^"]+)" with (\d+) pages?$`, tc.aPDFFixtureWithPages)
	sc.Step(`^I run qvm-sanitize on "([^"]+)"$`, tc.iRunQvmSanitizeOn)
	sc.Step(`^I run qvm-sanitize on "([^"]+)" with batch size (\d+)$`, tc.iRunQvmSanitizeOnWithBatchSize)
	sc.Step(`^the command exits successfully$`, tc.theCommandExitsSuccessfully)
	sc.Step(`^a trusted PDF is produced for "([^"]+)" with (\d+) pages?$`, tc.aTrustedPDFIsProducedWithPages)
	sc.Step(`^the original file is archived$`, tc.theOriginalFileIsArchived)
}

func (tc *TestContext) aPDFFixtureWithPages(name string, pages int) error {
	tc.LastPath = tc.path(name)
	return tc.buildPDFFixture(tc.LastPath, pages)
}

func (tc *TestContext) iRunQvmSanitizeOn(name string) error {
	return tc.runClient(tc.path(name))
}

func (tc *TestContext) iRunQvmSanitizeOnWithBatchSize(name string, batch int) error {
	return tc.runClient("--batch", strconv.Itoa(batch), tc.path(name))
}

func (tc *TestContext) theCommandExitsSuccessfully() error {
	if tc.LastExitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d; output:\n%s", tc.LastExitCode, tc.LastStdout)
	}
	return nil
}

func (tc *TestContext) aTrustedPDFIsProducedWithPages(name string, wantPages int) error {
	trustedPath := document.TrustedOutputPath(tc.path(name))
	if _, err := os.Stat(trustedPath); err != nil {
		return fmt.Errorf("trusted output %s not found: %w", trustedPath, err)
	}

	got, err := api.PageCountFile(trustedPath)
	if err != nil {
		return fmt.Errorf("count pages of %s: %w", trustedPath, err)
	}
	if got != wantPages {
		return fmt.Errorf("trusted PDF %s has %d pages, want %d", trustedPath, got, wantPages)
	}
	return nil
}

func (tc *TestContext) theOriginalFileIsArchived() error {
	if _, err := os.Stat(tc.LastPath); err == nil {
		return fmt.Errorf("original file %s still present, expected it to be archived", tc.LastPath)
	}

	archiveDir := tc.path("archive")
	entries, err := os.ReadDir(archiveDir)
	if err != nil {
		return fmt.Errorf("read archive dir %s: %w", archiveDir, err)
	}

	base := filepath.Base(tc.LastPath)
	for _, e := range entries {
		if e.Name() == base {
			return nil
		}
	}
	return fmt.Errorf("archive dir %s does not contain %s", archiveDir, base)
}
