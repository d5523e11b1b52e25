package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/config"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/metrics"
	"github.com/eigerco/curator/internal/protocol"
	"github.com/eigerco/curator/internal/store"
	"github.com/eigerco/curator/pkg/db/pebble"
	"github.com/eigerco/curator/pkg/log"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

// metricsKey holds the run's *metrics.Metrics in the app metadata.
const metricsKey = "metrics"

func run(args []string) error {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	app := cli.App{
		Name:     "curator",
		Usage:    "community data curation ledger",
		Version:  versioninfo.Short(),
		Metadata: map[string]interface{}{metricsKey: m},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to YAML configuration file",
				EnvVars: []string{"CURATOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "ledger database directory, overrides the config file",
				EnvVars: []string{"CURATOR_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (trace, debug, info, warn, error)",
				EnvVars: []string{"CURATOR_LOG_LEVEL", "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "write ledger metrics in text exposition format to this file on exit",
				EnvVars: []string{"CURATOR_METRICS_FILE"},
			},
		},
		After: func(cctx *cli.Context) error {
			path := cctx.String("metrics-file")
			if path == "" {
				return nil
			}
			return prometheus.WriteToTextfile(path, reg)
		},
	}
	app.Commands = []*cli.Command{
		cmdInit,
		cmdKeygen,
		cmdInspect,
	}
	return app.Run(args)
}

// loadConfig reads the config file if given and applies flag overrides.
func loadConfig(cctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := cctx.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if dir := cctx.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if lvl := cctx.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	opts, err := cfg.LogOptions()
	if err != nil {
		return cfg, err
	}
	opts.Output = os.Stderr
	log.Init(opts)
	return cfg, nil
}

// openEngine opens the ledger under cfg.DataDir, creating it unless
// mustExist is set. The caller closes the store.
func openEngine(cctx *cli.Context, cfg config.Config, mustExist bool) (*protocol.Engine, *store.Store, error) {
	open := pebble.Open
	if mustExist {
		open = pebble.OpenExisting
	}
	kv, err := open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger at %s: %w", cfg.DataDir, err)
	}
	m, _ := cctx.App.Metadata[metricsKey].(*metrics.Metrics)
	s := store.New(kv)
	return protocol.New(s, clock.NewSystemClock(), protocol.WithMetrics(m)), s, nil
}

var cmdInit = &cli.Command{
	Name:  "init",
	Usage: "create the registry of a new ledger",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "authority",
			Usage:   "hex ed25519 public key of the registry authority, overrides registry.authority",
			EnvVars: []string{"CURATOR_AUTHORITY"},
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		authorityHex := cfg.Registry.Authority
		if a := cctx.String("authority"); a != "" {
			authorityHex = a
		}
		if authorityHex == "" {
			return errors.New("an authority is required (--authority or registry.authority)")
		}
		authority, err := crypto.ParseIdentity(authorityHex)
		if err != nil {
			return err
		}

		engine, s, err := openEngine(cctx, cfg, false)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		ctx, cancel := context.WithTimeout(cctx.Context, 30*time.Second)
		defer cancel()
		err = engine.Initialize(ctx, protocol.RegistryParams{
			Authority:             authority,
			TokensToMint:          cfg.Registry.TokensToMint,
			DefaultCommitDuration: cfg.Registry.DefaultCommitDuration,
			DefaultRevealDuration: cfg.Registry.DefaultRevealDuration,
		})
		if err != nil {
			return err
		}
		fmt.Printf("registry initialized in %s\n", cfg.DataDir)
		return nil
	},
}

var cmdKeygen = &cli.Command{
	Name:  "keygen",
	Usage: "generate an ed25519 participant identity",
	Action: func(cctx *cli.Context) error {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return err
		}
		id, err := crypto.IdentityFromPublicKey(pub)
		if err != nil {
			return err
		}
		fmt.Printf("identity:    %s\n", id)
		fmt.Printf("private key: %s\n", hex.EncodeToString(priv))
		return nil
	},
}
