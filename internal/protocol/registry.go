package protocol

import (
	"context"
	"time"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/store"
	"github.com/eigerco/curator/internal/token"
	"github.com/eigerco/curator/pkg/log"
)

// RegistryParams configures a new registry.
type RegistryParams struct {
	Authority             crypto.Identity
	TokensToMint          uint64
	DefaultCommitDuration time.Duration
	DefaultRevealDuration time.Duration
}

// Initialize creates the registry. It can only succeed once per store.
func (e *Engine) Initialize(ctx context.Context, p RegistryParams) error {
	return e.execute(ctx, "initialize", func(tx *store.Tx, _ clock.Timestamp) error {
		if p.Authority.IsZero() {
			return ErrInvalidAuthority
		}
		if p.TokensToMint == 0 {
			return ErrInvalidIssuance
		}
		commit, err := seconds(p.DefaultCommitDuration)
		if err != nil {
			return err
		}
		reveal, err := seconds(p.DefaultRevealDuration)
		if err != nil {
			return err
		}

		reg := state.Registry{
			Authority:                    p.Authority,
			ProvisionalContributionClass: token.ClassID(ClassProvisionalContribution),
			PermanentContributionClass:   token.ClassID(ClassPermanentContribution),
			ProvisionalReputationClass:   token.ClassID(ClassProvisionalReputation),
			PermanentReputationClass:     token.ClassID(ClassPermanentReputation),
			TokensToMint:                 p.TokensToMint,
			DefaultCommitDuration:        commit,
			DefaultRevealDuration:        reveal,
		}
		if err := create(tx, address.Registry, registryKey, reg, ErrRegistryExists); err != nil {
			return err
		}
		e.afterCommit(func() {
			log.Ledger.Info().Stringer("authority", p.Authority).Uint64("tokens_to_mint", p.TokensToMint).Msg("registry initialized")
		})
		return nil
	})
}

// UpdateIssuanceAmount changes the provisional tokens minted per submission.
func (e *Engine) UpdateIssuanceAmount(ctx context.Context, caller crypto.Identity, amount uint64) error {
	return e.updateRegistry(ctx, "update_issuance_amount", caller, func(reg *state.Registry) error {
		if amount == 0 {
			return ErrInvalidIssuance
		}
		reg.TokensToMint = amount
		return nil
	})
}

// UpdateDefaultDurations changes the phase durations used by topics created
// afterwards. Existing topics keep theirs.
func (e *Engine) UpdateDefaultDurations(ctx context.Context, caller crypto.Identity, commit, reveal time.Duration) error {
	return e.updateRegistry(ctx, "update_default_durations", caller, func(reg *state.Registry) error {
		c, err := seconds(commit)
		if err != nil {
			return err
		}
		r, err := seconds(reveal)
		if err != nil {
			return err
		}
		reg.DefaultCommitDuration = c
		reg.DefaultRevealDuration = r
		return nil
	})
}

// updateRegistry applies a change on behalf of the registry authority.
// Authorization is checked before apply sees the registry.
func (e *Engine) updateRegistry(ctx context.Context, op string, caller crypto.Identity, apply func(*state.Registry) error) error {
	return e.execute(ctx, op, func(tx *store.Tx, _ clock.Timestamp) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		if reg.Authority != caller {
			return ErrUnauthorized
		}
		if err := apply(&reg); err != nil {
			return err
		}
		return tx.Put(address.Registry, registryKey, reg)
	})
}

// seconds converts d to whole seconds.
func seconds(d time.Duration) (int64, error) {
	if d <= 0 || d%time.Second != 0 {
		return 0, ErrInvalidDuration
	}
	return int64(d / time.Second), nil
}
