// Package cmd implements the qvm-sanitize client CLI: a cobra root
// command plus the sanitize subcommand that drives the multi-file
// supervisor (C10), grounded on pogo's cmd/ocr/cmd/root.go (config
// loader lifecycle, persistent flags bound through viper, structured
// logging setup) but wired to this module's own Config shape.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/config"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/version"
)

var (
	configLoader *config.Loader
	cfgFile      string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qvm-sanitize",
	Short: "Sanitize PDFs and images by rasterizing them through a disposable VM",
	Long: `qvm-sanitize converts each page of a PDF or image into raw pixels in a
disposable (untrusted) VM and reassembles a flat, rasterized PDF on the
trusted side, stripping any executable or active content in the process.

This is a reimplementation of Qubes OS's qubes-app-linux-pdf-converter.

Examples:
  qvm-sanitize sanitize document.pdf
  qvm-sanitize sanitize -a ~/archive *.pdf
  qvm-sanitize sanitize --dashboard-addr :8090 report.pdf scan.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it. It is
// called by main.main() and only needs to happen once for rootCmd.
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

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME/.config/qvm-sanitize, /etc/qvm-sanitize)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("queue-depth", 0, "bound on concurrent page conversions (0 = use config default)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	if err := viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		printVersion, _ := cmd.PersistentFlags().GetBool("version")
		if printVersion {
			v, commit, date := version.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "qvm-sanitize %s (commit %s, built %s)\n", v, commit, date)
			return nil
		}
		return cmd.Help()
	}
}

// initConfig wires up the global configuration loader; it does not load
// or validate anything yet, since "version" and "--help" must never fail
// on a bad config file.
func initConfig() {
	configLoader = config.NewLoader()
}

// loadConfig resolves the final merged configuration (file, env, flags)
// and configures the global logger, exiting the process on a validation
// failure since every subcommand that reaches here needs a usable config.
func loadConfig() *config.Config {
	loader := GetConfigLoader()

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = loader.LoadWithFile(cfgFile)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if queueDepth, _ := rootCmd.PersistentFlags().GetInt("queue-depth"); queueDepth > 0 {
		cfg.QueueDepth = queueDepth
	}

	setupLogging(cfg)
	return cfg
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
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
