package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 50, cfg.QueueDepth)

	assert.Empty(t, cfg.Archive.Dir)
	assert.False(t, cfg.Archive.InPlace)

	assert.Equal(t, []string{defaultRPCClientVM, "@dispvm", "qubes.PdfConvert"}, cfg.Server.RPCCommand)
	assert.Equal(t, 5, cfg.Server.TerminateGraceSec)
	assert.Empty(t, cfg.Server.PasswordFile)

	assert.Empty(t, cfg.Dashboard.Addr)
	assert.Equal(t, 160, cfg.Dashboard.ThumbnailWidth)
}

func TestValidateBasicEnums(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		wantError bool
	}{
		{"info", infoLevel, false},
		{"debug", debugLevel, false},
		{"warn", warnLevel, false},
		{"error", errorLevel, false},
		{"invalid", "trace", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = tt.logLevel

			err := cfg.validateBasicEnums()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePositiveIntegers(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*Config)
		wantError bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"queue depth zero", func(c *Config) { c.QueueDepth = 0 }, true},
		{"queue depth negative", func(c *Config) { c.QueueDepth = -1 }, true},
		{"terminate grace zero", func(c *Config) { c.Server.TerminateGraceSec = 0 }, true},
		{
			"dashboard thumbnail width zero while enabled",
			func(c *Config) {
				c.Dashboard.Addr = "localhost:9090"
				c.Dashboard.ThumbnailWidth = 0
			},
			true,
		},
		{
			"dashboard thumbnail width zero while disabled is fine",
			func(c *Config) {
				c.Dashboard.Addr = ""
				c.Dashboard.ThumbnailWidth = 0
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setup(&cfg)

			err := cfg.validatePositiveIntegers()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.validateServer())

	cfg.Server.RPCCommand = nil
	assert.Error(t, cfg.validateServer())
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid log level short-circuits before other checks", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LogLevel = "bogus"
		cfg.QueueDepth = -5

		assert.Error(t, cfg.Validate())
	})

	t.Run("in_place and archive dir both set is still valid, in_place wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Archive.InPlace = true
		cfg.Archive.Dir = "/home/user/QubesUntrustedPDFs"

		assert.NoError(t, cfg.Validate())
	})
}
