package protocol

import (
	"context"
	"fmt"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/safemath"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/store"
	"github.com/eigerco/curator/internal/token"
	"github.com/eigerco/curator/pkg/log"
)

// CreateProfile registers participant. A profile is required before submitting.
func (e *Engine) CreateProfile(ctx context.Context, participant crypto.Identity) error {
	return e.execute(ctx, "create_profile", func(tx *store.Tx, _ clock.Timestamp) error {
		if _, err := loadRegistry(tx); err != nil {
			return err
		}
		profile := state.Profile{Participant: participant}
		return create(tx, address.Profile, ProfileAddress(participant), profile, ErrProfileExists)
	})
}

// Stake converts amount provisional contribution into provisional reputation
// one to one, inside a single topic.
func (e *Engine) Stake(ctx context.Context, participant crypto.Identity, topic uint64, amount uint64) error {
	return e.execute(ctx, "stake", func(tx *store.Tx, _ clock.Timestamp) error {
		if amount == 0 {
			return ErrZeroAmount
		}
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		if _, err := loadTopic(tx, topic); err != nil {
			return err
		}
		bal, err := loadBalance(tx, participant, topic)
		if err != nil {
			return err
		}
		remaining, err := safemath.CheckedSub64(bal.ProvisionalContributionAmount, amount)
		if err != nil {
			return fmt.Errorf("%w: staking %d with %d available", ErrInsufficientBalance, amount, bal.ProvisionalContributionAmount)
		}

		holder := token.Scoped(participant, TopicAddress(topic))
		if err := e.tokens.Burn(tx, reg.ProvisionalContributionClass, holder, amount); err != nil {
			return err
		}
		if err := e.tokens.Mint(tx, reg.ProvisionalReputationClass, holder, amount); err != nil {
			return err
		}

		bal.ProvisionalContributionAmount = remaining
		if bal.ProvisionalReputationAmount, err = safemath.CheckedAdd64(bal.ProvisionalReputationAmount, amount); err != nil {
			return err
		}
		if err := tx.Put(address.Balance, BalanceAddress(participant, topic), bal); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Ledger.Debug().Stringer("participant", participant).Uint64("topic", topic).Uint64("amount", amount).Msg("staked")
		})
		return nil
	})
}
