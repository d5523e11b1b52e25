package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/protocol"
)

var cmdInspect = &cli.Command{
	Name:  "inspect",
	Usage: "print ledger records as JSON",
	Subcommands: []*cli.Command{
		{
			Name:  "registry",
			Usage: "global configuration and counters",
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				return e.Registry()
			}),
		},
		{
			Name:  "topics",
			Usage: "every topic in index order",
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				return e.Topics()
			}),
		},
		{
			Name:      "profile",
			Usage:     "a participant profile",
			ArgsUsage: "<identity>",
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				id, err := crypto.ParseIdentity(cctx.Args().First())
				if err != nil {
					return nil, err
				}
				return e.Profile(id)
			}),
		},
		{
			Name:  "profiles",
			Usage: "every participant profile",
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				return e.Profiles()
			}),
		},
		{
			Name:      "balance",
			Usage:     "provisional balances of a participant in a topic",
			ArgsUsage: "<identity>",
			Flags:     []cli.Flag{topicFlag},
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				id, err := crypto.ParseIdentity(cctx.Args().First())
				if err != nil {
					return nil, err
				}
				bal, err := e.Balance(id, cctx.Uint64("topic"))
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"balance":          bal,
					"total_reputation": bal.TotalReputation(),
				}, nil
			}),
		},
		{
			Name:      "link",
			Usage:     "a submission's voting context in a topic",
			ArgsUsage: "<submission-address>",
			Flags:     []cli.Flag{topicFlag},
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				ref, err := linkRef(cctx)
				if err != nil {
					return nil, err
				}
				sub, err := e.Submission(ref.Submission)
				if err != nil {
					return nil, err
				}
				link, err := e.Link(ref)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"address":    ref.Key(),
					"submission": sub,
					"link":       link,
				}, nil
			}),
		},
		{
			Name:      "vote",
			Usage:     "a validator's commitment on a link",
			ArgsUsage: "<submission-address> <validator>",
			Flags:     []cli.Flag{topicFlag},
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				ref, err := linkRef(cctx)
				if err != nil {
					return nil, err
				}
				validator, err := crypto.ParseIdentity(cctx.Args().Get(1))
				if err != nil {
					return nil, err
				}
				return e.Vote(ref, validator)
			}),
		},
		{
			Name:  "supply",
			Usage: "outstanding amount of each token class",
			Action: inspect(func(cctx *cli.Context, e *protocol.Engine) (any, error) {
				return e.Supply()
			}),
		},
	},
}

var topicFlag = &cli.Uint64Flag{
	Name:     "topic",
	Usage:    "topic index",
	Required: true,
}

func linkRef(cctx *cli.Context) (protocol.LinkRef, error) {
	sub, err := crypto.ParseHash(cctx.Args().First())
	if err != nil {
		return protocol.LinkRef{}, err
	}
	return protocol.LinkRef{Submission: sub, Topic: cctx.Uint64("topic")}, nil
}

// inspect opens an existing ledger, runs query and prints its result.
func inspect(query func(*cli.Context, *protocol.Engine) (any, error)) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		engine, s, err := openEngine(cctx, cfg, true)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		v, err := query(cctx, engine)
		if err != nil {
			return fmt.Errorf("%s: %w", cctx.Command.Name, err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
