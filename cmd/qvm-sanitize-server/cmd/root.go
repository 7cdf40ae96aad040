// Package cmd implements the qvm-sanitize-server entrypoint: the
// untrusted/disposable side of the protocol. It is a single-shot
// process, not a long-running daemon -- one invocation reads one
// document from stdin and writes the wire protocol to stdout, then
// exits, exactly as the reference qubes.PdfConvert RPC service does.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/config"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/serverpipeline"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/version"
)

var (
	configLoader *config.Loader
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "qvm-sanitize-server",
	Short: "Untrusted-side RPC service: reads a document from stdin, writes sanitized pages to stdout",
	Long: `qvm-sanitize-server is the disposable-VM half of qvm-sanitize. It is
invoked once per file (by qrexec-client-vm in production, or directly for
local testing), reads the uploaded document from stdin, rasterizes and
pixelizes every page, and streams raw RGB pixels back over stdout. It never
writes the sanitized output anywhere a caller outside this process can see
except through that stream.`,
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("queue-depth", 0, "bound on concurrent page conversions (0 = use config default)")
	rootCmd.PersistentFlags().String("password-file", "", "path to a file holding a password to try against encrypted PDFs")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	if err := viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func initConfig() {
	configLoader = config.NewLoader()
}

func runServer(cmd *cobra.Command, args []string) error {
	printVersion, _ := cmd.Flags().GetBool("version")
	if printVersion {
		v, commit, date := version.Info()
		fmt.Fprintf(cmd.OutOrStdout(), "qvm-sanitize-server %s (commit %s, built %s)\n", v, commit, date)
		return nil
	}

	loader := GetConfigLoader()
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = loader.LoadWithFile(cfgFile)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if queueDepth, _ := cmd.Flags().GetInt("queue-depth"); queueDepth > 0 {
		cfg.QueueDepth = queueDepth
	}
	if pwFile, _ := cmd.Flags().GetString("password-file"); pwFile != "" {
		cfg.Server.PasswordFile = pwFile
	}

	setupLogging(cfg)

	scratchDir, err := os.MkdirTemp("", "qvm-sanitize-server-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	pipeline := serverpipeline.New(scratchDir, cfg.QueueDepth, cfg.Server.PasswordFile)
	return pipeline.Run(context.Background(), os.Stdin, os.Stdout)
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	// The server's stdout carries the wire protocol; all logging goes to
	// stderr so it can never corrupt the stream a real qrexec RPC
	// service feeds back to the trusted client.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
