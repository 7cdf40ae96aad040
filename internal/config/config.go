package config

import (
	"fmt"
	"slices"
	"strings"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
	warnLevel  = "warn"
	errorLevel = "error"

	// defaultRPCClientVM is the RPC client binary (argv[0] of the default
	// server.rpc_command) used to reach the disposable VM in a real Qubes
	// deployment.
	defaultRPCClientVM = "/usr/bin/qrexec-client-vm"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:   infoLevel,
		Verbose:    false,
		QueueDepth: 50,
		Archive: ArchiveConfig{
			Dir:     "",
			InPlace: false,
		},
		Server: ServerConfig{
			RPCCommand:        []string{defaultRPCClientVM, "@dispvm", "qubes.PdfConvert"},
			TerminateGraceSec: 5,
			PasswordFile:      "",
		},
		Dashboard: DashboardConfig{
			Addr:           "",
			ThumbnailWidth: 160,
		},
	}
}

// validateBasicEnums validates the log level.
func (c *Config) validateBasicEnums() error {
	validLogLevels := []string{debugLevel, infoLevel, warnLevel, errorLevel}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	return nil
}

// validatePositiveIntegers validates all positive integer values.
func (c *Config) validatePositiveIntegers() error {
	if c.QueueDepth <= 0 {
		return fmt.Errorf("invalid queue depth: %d (must be positive)", c.QueueDepth)
	}
	if c.Server.TerminateGraceSec <= 0 {
		return fmt.Errorf("invalid server terminate grace period: %d (must be positive)", c.Server.TerminateGraceSec)
	}
	if c.Dashboard.Addr != "" && c.Dashboard.ThumbnailWidth <= 0 {
		return fmt.Errorf("invalid dashboard thumbnail width: %d (must be positive)", c.Dashboard.ThumbnailWidth)
	}
	return nil
}

// validateServer validates the RPC transport settings.
func (c *Config) validateServer() error {
	if len(c.Server.RPCCommand) == 0 {
		return fmt.Errorf("server.rpc_command must not be empty")
	}
	return nil
}

// Validate validates the configuration and returns any errors.
//
// Archive.InPlace and Archive.Dir are not mutually exclusive inputs: when
// InPlace is set the archive directory is simply never consulted (the
// original file is deleted), matching the reference client's flag
// precedence.
func (c *Config) Validate() error {
	if err := c.validateBasicEnums(); err != nil {
		return err
	}
	if err := c.validatePositiveIntegers(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return nil
}
