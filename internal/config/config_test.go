package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/curator/pkg/log"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/curator
log:
  level: debug
  format: json
registry:
  authority: "0a0b"
  tokens_to_mint: 40
  default_commit_duration: 90m
  default_reveal_duration: 1500ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/curator", cfg.DataDir)
	assert.Equal(t, uint64(40), cfg.Registry.TokensToMint)
	assert.Equal(t, "0a0b", cfg.Registry.Authority)
	assert.Equal(t, 90*time.Minute, cfg.Registry.DefaultCommitDuration)
	assert.Equal(t, 2*time.Second, cfg.Registry.DefaultRevealDuration)

	opts, err := cfg.LogOptions()
	require.NoError(t, err)
	assert.Equal(t, log.Options{LogLevel: zerolog.DebugLevel, Type: log.JSONLogger}, opts)
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "data_dir: here\n"))
	require.NoError(t, err)
	assert.Equal(t, "here", cfg.DataDir)
	assert.Equal(t, Default().Registry, cfg.Registry)
	assert.Equal(t, Default().Log, cfg.Log)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{"no data dir", func(c *Config) { c.DataDir = "" }, ErrNoDataDir},
		{"zero issuance", func(c *Config) { c.Registry.TokensToMint = 0 }, ErrZeroIssuance},
		{"short commit", func(c *Config) { c.Registry.DefaultCommitDuration = 0 }, ErrInvalidDuration},
		{"short reveal", func(c *Config) { c.Registry.DefaultRevealDuration = time.Millisecond }, ErrInvalidDuration},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, ErrUnknownLogFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.err)
		})
	}

	cfg := Default()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "registry: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "registry:\n  tokens_to_mint: 0\n"))
	assert.ErrorIs(t, err, ErrZeroIssuance)
}
