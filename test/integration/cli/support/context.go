// Package support holds the shared godog test context and step
// definitions for the end-to-end sanitize scenarios, grounded on the
// teacher's test/integration/cli/support package shape (a TestContext
// struct plus Register*Steps methods) but built around this module's
// own CLI and orchestrator packages instead of the OCR pipeline.
package support

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/document"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/testutil"
)

// TestContext holds the state shared across a single scenario's steps.
type TestContext struct {
	ProjectRoot   string
	TempDir       string
	ClientBinPath string
	ServerBinPath string

	// CLI scenario state
	LastExitCode int
	LastStdout   string
	LastPath     string

	// Orchestrator (protocol defense) scenario state
	LastDoc *document.Document
	LastErr error
}

// NewTestContext locates the project root, resolves the pre-built CLI
// binaries, and creates a fresh scratch directory for this scenario.
func NewTestContext(clientBinPath, serverBinPath string) (*TestContext, error) {
	root, err := testutil.GetProjectRootValidated()
	if err != nil {
		return nil, fmt.Errorf("locate project root: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "qvm-sanitize-godog-*")
	if err != nil {
		return nil, fmt.Errorf("create scenario temp dir: %w", err)
	}

	return &TestContext{
		ProjectRoot:   root,
		TempDir:       tempDir,
		ClientBinPath: clientBinPath,
		ServerBinPath: serverBinPath,
	}, nil
}

// Cleanup removes the scenario's scratch directory.
func (tc *TestContext) Cleanup() error {
	return os.RemoveAll(tc.TempDir)
}

// path resolves name relative to the scenario's scratch directory.
func (tc *TestContext) path(name string) string {
	return filepath.Join(tc.TempDir, name)
}

// writeConfigFile emits a YAML config pointing server.rpc_command at the
// built qvm-sanitize-server binary -- viper's environment-variable
// binding can't reliably decode a single env var into the []string
// RPCCommand field, so a config file is the robust way to redirect the
// transport at a test binary instead of the real qrexec-client-vm.
func (tc *TestContext) writeConfigFile() (string, error) {
	cfgPath := tc.path("config.yaml")
	contents := fmt.Sprintf("server:\n  rpc_command: [%q]\n", tc.ServerBinPath)
	if err := os.WriteFile(cfgPath, []byte(contents), 0o600); err != nil {
		return "", fmt.Errorf("write scenario config: %w", err)
	}
	return cfgPath, nil
}

// runClient invokes the built qvm-sanitize binary with args, pointed at
// an archive directory inside the scratch dir and at the built server
// binary as its RPC command, and records stdout/stderr/exit code.
func (tc *TestContext) runClient(args ...string) error {
	archiveDir := tc.path("archive")

	cfgPath, err := tc.writeConfigFile()
	if err != nil {
		return err
	}

	fullArgs := append([]string{
		"sanitize",
		"--config", cfgPath,
		"--archive", archiveDir,
	}, args...)

	cmd := exec.Command(tc.ClientBinPath, fullArgs...)
	cmd.Dir = tc.TempDir

	outBytes, err := cmd.CombinedOutput()
	tc.LastStdout = string(outBytes)

	if exitErr, ok := err.(*exec.ExitError); ok {
		tc.LastExitCode = exitErr.ExitCode()
	} else if err != nil {
		tc.LastExitCode = -1
		return err
	} else {
		tc.LastExitCode = 0
	}
	return nil
}
