package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigJSONMarshaling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = debugLevel
	cfg.Verbose = true
	cfg.Archive.Dir = "/home/user/QubesUntrustedPDFs"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, debugLevel, result["log_level"])
	assert.Equal(t, true, result["verbose"])

	archive, ok := result["archive"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/home/user/QubesUntrustedPDFs", archive["dir"])
}

func TestConfigYAMLMarshaling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dashboard.Addr = "127.0.0.1:9191"

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var roundTripped Config
	require.NoError(t, yaml.Unmarshal(data, &roundTripped))

	assert.Equal(t, cfg.Dashboard.Addr, roundTripped.Dashboard.Addr)
	assert.Equal(t, cfg.QueueDepth, roundTripped.QueueDepth)
}

func TestServerConfigRPCCommandRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.RPCCommand = []string{"/usr/bin/qrexec-client-vm", "@dispvm", "qubes.PdfConvert"}

	data, err := json.Marshal(cfg.Server)
	require.NoError(t, err)

	var sc ServerConfig
	require.NoError(t, json.Unmarshal(data, &sc))
	assert.Equal(t, cfg.Server.RPCCommand, sc.RPCCommand)
}

func TestArchiveConfigZeroValue(t *testing.T) {
	var ac ArchiveConfig
	assert.Empty(t, ac.Dir)
	assert.False(t, ac.InPlace)
}

func TestDashboardConfigDisabledByDefault(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Dashboard.Addr, "dashboard must be off unless explicitly configured")
}
