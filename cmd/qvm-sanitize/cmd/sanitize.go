package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/common"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/config"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/dashboard"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/orchestrator"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/supervisor"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/transport"
)

// defaultArchiveDirName mirrors the reference client's
// Path(Path.home(), "QubesUntrustedPDFs") default.
const defaultArchiveDirName = "QubesUntrustedPDFs"

// sanitizeCmd is the main subcommand: sanitize every file given on the
// command line. The root command does not take files itself; running it
// without a subcommand prints help.
var sanitizeCmd = &cobra.Command{
	Use:          "sanitize [files...]",
	Aliases:      []string{"run"},
	Short:        "Sanitize one or more PDF/image files",
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runSanitize,
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)

	home, _ := os.UserHomeDir()
	defaultArchive := filepath.Join(home, defaultArchiveDirName)

	sanitizeCmd.Flags().IntP("batch", "b", 0, "maximum number of concurrent page conversions (0 = use config default)")
	sanitizeCmd.Flags().StringP("archive", "a", defaultArchive, "directory for storing archived originals")
	sanitizeCmd.Flags().BoolP("in-place", "i", false, "delete original files instead of archiving them")
	sanitizeCmd.Flags().String("dashboard-addr", "", "listen address for the optional status dashboard (e.g. :8090); empty disables it")
	sanitizeCmd.Flags().String("password-file", "", "sets server.password_file in the client's config; the client does not pass it to the server process")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No files to sanitize.")
		return nil
	}

	cfg := loadConfig()
	applySanitizeFlags(cmd, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var observer orchestrator.StatusObserver
	if cfg.Dashboard.Addr != "" {
		dash := dashboard.New()
		observer = dash
		go func() {
			if err := dash.Serve(ctx, cfg.Dashboard.Addr); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dashboard: %v\n", err)
			}
		}()
	}

	grace := time.Duration(cfg.Server.TerminateGraceSec) * time.Second
	newOrchestrator := func() *orchestrator.Orchestrator {
		return orchestrator.New(orchestrator.Options{
			NewTransport: func() transport.Transport {
				return transport.NewExecTransport(cfg.Server.RPCCommand, grace)
			},
			QueueDepth: cfg.QueueDepth,
			ArchiveDir: cfg.Archive.Dir,
			InPlace:    cfg.Archive.InPlace,
			Observer:   observer,
		})
	}

	timer := common.NewNamedTimer("batch")
	reports, exitCode := supervisor.Run(ctx, args, newOrchestrator)
	timer.Stop()

	completed := 0
	for _, r := range reports {
		if r.Err == nil {
			completed++
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", r.Path, r.Err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal Sanitized Files: %d/%d (%s)\n", completed, len(reports), timer)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

// applySanitizeFlags overlays sanitize-specific flags onto the loaded
// config, since --batch/--archive/--in-place are flags on this
// subcommand rather than persistent ones bound through viper.
func applySanitizeFlags(cmd *cobra.Command, cfg *config.Config) {
	if batch, _ := cmd.Flags().GetInt("batch"); batch > 0 {
		cfg.QueueDepth = batch
	}
	if archiveDir, _ := cmd.Flags().GetString("archive"); cmd.Flags().Changed("archive") || cfg.Archive.Dir == "" {
		cfg.Archive.Dir = archiveDir
	}
	if inPlace, _ := cmd.Flags().GetBool("in-place"); inPlace {
		cfg.Archive.InPlace = true
	}
	if addr, _ := cmd.Flags().GetString("dashboard-addr"); addr != "" {
		cfg.Dashboard.Addr = addr
	}
	if pwFile, _ := cmd.Flags().GetString("password-file"); pwFile != "" {
		cfg.Server.PasswordFile = pwFile
	}
}
