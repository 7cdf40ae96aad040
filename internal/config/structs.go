package config

// Config represents the complete configuration for the qvm-sanitize client
// and server. Both binaries share this struct; the server only reads
// LogLevel, QueueDepth and Server.PasswordFile, everything else is
// client-only.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose"   yaml:"verbose"   json:"verbose"`

	// QueueDepth bounds the producer/consumer pipeline on both ends of the
	// transport (spec §5 "Concurrency & Resource Model").
	QueueDepth int `mapstructure:"queue_depth" yaml:"queue_depth" json:"queue_depth"`

	// Archive controls what happens to the original file once sanitization
	// of it has completed successfully.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive" json:"archive"`

	// Server controls how the disposable-VM side is invoked.
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Dashboard controls the optional monitoring listener (§2.3 of
	// SPEC_FULL.md); it never participates in the sanitization protocol.
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard" json:"dashboard"`
}

// ArchiveConfig contains settings for what to do with the original,
// unsanitized file after a successful run.
type ArchiveConfig struct {
	// Dir is the directory originals are moved into after a successful
	// run (-a/--archive). When empty, the sanitize command fills in the
	// -a flag's default, ~/QubesUntrustedPDFs.
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`

	// InPlace, when true, deletes the original file after a successful run
	// instead of moving it into Dir. The "<name>.trusted.pdf" sibling is
	// written either way.
	InPlace bool `mapstructure:"in_place" yaml:"in_place" json:"in_place"`
}

// ServerConfig contains settings for spawning and talking to the
// disposable-VM side of the pipeline.
type ServerConfig struct {
	// RPCCommand is the argv used to spawn the untrusted server process.
	// In production this is the qrexec invocation; tests substitute a
	// PipeTransport and never exec this at all.
	RPCCommand []string `mapstructure:"rpc_command" yaml:"rpc_command" json:"rpc_command"`

	// TerminateGraceSec is how long Transport.Terminate waits after
	// SIGTERM before escalating to SIGKILL.
	TerminateGraceSec int `mapstructure:"terminate_grace_sec" yaml:"terminate_grace_sec" json:"terminate_grace_sec"`

	// PasswordFile optionally points at a file holding a password to try
	// against encrypted PDFs (server-side supplemented feature, §3.1 of
	// SPEC_FULL.md). Empty means only the empty password is tried.
	PasswordFile string `mapstructure:"password_file" yaml:"password_file" json:"password_file"`
}

// DashboardConfig contains settings for the optional status dashboard.
type DashboardConfig struct {
	// Addr is the listen address ("host:port") for the dashboard's HTTP
	// and websocket endpoints. Empty disables the dashboard entirely.
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`

	// ThumbnailWidth is checked by Validate when the dashboard is enabled.
	// internal/dashboard does not read it: its previews use a fixed
	// 160-pixel width.
	ThumbnailWidth int `mapstructure:"thumbnail_width" yaml:"thumbnail_width" json:"thumbnail_width"`
}
