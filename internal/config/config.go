// Package config loads the node configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eigerco/curator/pkg/log"
)

var (
	ErrNoDataDir        = errors.New("data_dir must be set")
	ErrZeroIssuance     = errors.New("registry.tokens_to_mint must be greater than zero")
	ErrInvalidDuration  = errors.New("phase durations must be at least one second")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Log      Log      `yaml:"log"`
	Registry Registry `yaml:"registry"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Registry holds the parameters used when the registry is first initialized.
// Changing them later has no effect on an existing ledger.
type Registry struct {
	Authority             string        `yaml:"authority"`
	TokensToMint          uint64        `yaml:"tokens_to_mint"`
	DefaultCommitDuration time.Duration `yaml:"default_commit_duration"`
	DefaultRevealDuration time.Duration `yaml:"default_reveal_duration"`
}

func Default() Config {
	return Config{
		DataDir: "curator-data",
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Registry: Registry{
			TokensToMint:          100,
			DefaultCommitDuration: 24 * time.Hour,
			DefaultRevealDuration: 24 * time.Hour,
		},
	}
}

// Load reads path over the defaults. Durations are rounded to whole seconds.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Registry.DefaultCommitDuration = cfg.Registry.DefaultCommitDuration.Round(time.Second)
	cfg.Registry.DefaultRevealDuration = cfg.Registry.DefaultRevealDuration.Round(time.Second)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	if _, err := log.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := log.ParseLoggerType(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.Log.Format)
	}
	if c.Registry.TokensToMint == 0 {
		return ErrZeroIssuance
	}
	if c.Registry.DefaultCommitDuration < time.Second || c.Registry.DefaultRevealDuration < time.Second {
		return ErrInvalidDuration
	}
	return nil
}

// LogOptions converts the log section for log.Init.
func (c Config) LogOptions() (log.Options, error) {
	level, err := log.ParseLogLevel(c.Log.Level)
	if err != nil {
		return log.Options{}, err
	}
	typ, err := log.ParseLoggerType(c.Log.Format)
	if err != nil {
		return log.Options{}, err
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}
