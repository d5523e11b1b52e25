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

// CommitVote locks amount reputation behind a hidden vote on a link. With
// usesPermanent set the tokens come from the validator's permanent reputation
// and are held in escrow until the vote is settled; otherwise provisional
// reputation of the link's topic is moved from available to locked.
func (e *Engine) CommitVote(ctx context.Context, validator crypto.Identity, ref LinkRef, hash crypto.Hash, amount uint64, usesPermanent bool) error {
	return e.execute(ctx, "commit_vote", func(tx *store.Tx, now clock.Timestamp) error {
		if amount == 0 {
			return ErrZeroAmount
		}
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		linkKey := ref.Key()
		link, err := loadLink(tx, ref)
		if err != nil {
			return err
		}
		if !link.InCommitPhase(now) {
			return fmt.Errorf("%w: now %s, window [%s, %s)", ErrOutsideCommitPhase, now, link.CommitStart, link.CommitEnd)
		}
		if link.Status != state.StatusPending {
			return ErrLinkFinalized
		}
		sub, err := load[state.Submission](tx, address.Submission, ref.Submission, ErrSubmissionNotFound)
		if err != nil {
			return err
		}
		if sub.Contributor == validator {
			return ErrSelfVote
		}

		voteKey := VoteAddress(linkKey, validator)
		exists, err := store.Exists(tx, address.Vote, voteKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyCommitted
		}

		if usesPermanent {
			err = e.escrowPermanent(tx, reg, validator, voteKey, amount)
		} else {
			err = lockProvisional(tx, validator, ref.Topic, amount)
		}
		if err != nil {
			return err
		}

		vote := state.VoteCommitment{
			CommitHash:              hash,
			Amount:                  amount,
			UsesPermanentReputation: usesPermanent,
			CommitTimestamp:         now,
		}
		if err := create(tx, address.Vote, voteKey, vote, ErrAlreadyCommitted); err != nil {
			return err
		}
		if link.TotalCommitted, err = safemath.CheckedAdd64(link.TotalCommitted, 1); err != nil {
			return err
		}
		if err := tx.Put(address.Link, linkKey, link); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Votes.Debug().
				Stringer("participant", validator).
				Stringer("link", linkKey).
				Uint64("amount", amount).
				Bool("permanent", usesPermanent).
				Msg("vote committed")
		})
		return nil
	})
}

// lockProvisional moves amount from available to locked provisional reputation.
func lockProvisional(tx *store.Tx, validator crypto.Identity, topic uint64, amount uint64) error {
	bal, err := loadBalance(tx, validator, topic)
	if err != nil {
		return err
	}
	available, err := safemath.CheckedSub64(bal.ProvisionalReputationAmount, amount)
	if err != nil {
		return fmt.Errorf("%w: committing %d with %d available reputation", ErrInsufficientBalance, amount, bal.ProvisionalReputationAmount)
	}
	bal.ProvisionalReputationAmount = available
	if bal.LockedProvisionalReputationAmount, err = safemath.CheckedAdd64(bal.LockedProvisionalReputationAmount, amount); err != nil {
		return err
	}
	return tx.Put(address.Balance, BalanceAddress(validator, topic), bal)
}

// escrowPermanent moves amount permanent reputation from the validator into
// the protocol escrow account and records the escrow under the vote address.
func (e *Engine) escrowPermanent(tx *store.Tx, reg state.Registry, validator crypto.Identity, voteKey address.Key, amount uint64) error {
	profileKey := ProfileAddress(validator)
	profile, err := load[state.Profile](tx, address.Profile, profileKey, ErrProfileNotFound)
	if err != nil {
		return err
	}
	available, err := safemath.CheckedSub64(profile.PermanentReputationAmount, amount)
	if err != nil {
		return fmt.Errorf("%w: committing %d with %d permanent reputation", ErrInsufficientBalance, amount, profile.PermanentReputationAmount)
	}
	if err := e.tokens.Transfer(tx, reg.PermanentReputationClass, token.Global(validator), escrowHolder, amount); err != nil {
		return err
	}
	profile.PermanentReputationAmount = available
	if err := tx.Put(address.Profile, profileKey, profile); err != nil {
		return err
	}
	escrow := state.ReputationEscrow{Validator: validator, Amount: amount}
	return create(tx, address.Escrow, voteKey, escrow, ErrAlreadyCommitted)
}

// RevealVote discloses the choice and nonce behind a commitment and adds the
// vote's quadratic power to the link tally.
func (e *Engine) RevealVote(ctx context.Context, validator crypto.Identity, ref LinkRef, choice state.Choice, nonce []byte) error {
	return e.execute(ctx, "reveal_vote", func(tx *store.Tx, now clock.Timestamp) error {
		if !choice.Valid() {
			return ErrInvalidChoice
		}
		linkKey := ref.Key()
		link, err := loadLink(tx, ref)
		if err != nil {
			return err
		}
		if !link.InRevealPhase(now) {
			return fmt.Errorf("%w: now %s, window [%s, %s)", ErrOutsideRevealPhase, now, link.RevealStart, link.RevealEnd)
		}

		voteKey := VoteAddress(linkKey, validator)
		vote, err := load[state.VoteCommitment](tx, address.Vote, voteKey, ErrVoteNotFound)
		if err != nil {
			return err
		}
		if vote.Revealed {
			return ErrAlreadyRevealed
		}
		if vote.Finalized {
			return ErrVoteFinalized
		}
		if CommitHash(validator, linkKey, choice, nonce) != vote.CommitHash {
			return ErrHashMismatch
		}

		power := VotingPower(vote.Amount)
		switch choice {
		case state.ChoiceYes:
			link.YesPower, err = safemath.CheckedAdd64(link.YesPower, power)
		case state.ChoiceNo:
			link.NoPower, err = safemath.CheckedAdd64(link.NoPower, power)
		}
		if err != nil {
			return err
		}
		if link.TotalRevealed, err = safemath.CheckedAdd64(link.TotalRevealed, 1); err != nil {
			return err
		}

		vote.Revealed = true
		vote.Choice = &choice
		if err := tx.Put(address.Vote, voteKey, vote); err != nil {
			return err
		}
		if err := tx.Put(address.Link, linkKey, link); err != nil {
			return err
		}

		e.afterCommit(func() {
			e.metrics.VotePower(choice.String(), power)
			log.Votes.Debug().
				Stringer("participant", validator).
				Stringer("link", linkKey).
				Stringer("choice", choice).
				Uint64("power", power).
				Msg("vote revealed")
		})
		return nil
	})
}
