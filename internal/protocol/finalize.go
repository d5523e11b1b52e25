package protocol

import (
	"context"
	"errors"
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

// FinalizeSubmission settles a link once its reveal phase has ended. The
// contributor's remaining provisional contribution in the topic is burned and,
// when the link is accepted, reissued as permanent contribution. Any caller
// may finalize.
func (e *Engine) FinalizeSubmission(ctx context.Context, caller crypto.Identity, ref LinkRef) (state.Status, error) {
	var outcome state.Status
	err := e.execute(ctx, "finalize_submission", func(tx *store.Tx, now clock.Timestamp) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		linkKey := ref.Key()
		link, err := loadLink(tx, ref)
		if err != nil {
			return err
		}
		if link.Status != state.StatusPending {
			return ErrLinkFinalized
		}
		if !link.RevealClosed(now) {
			return fmt.Errorf("%w: now %s, reveal ends %s", ErrRevealNotEnded, now, link.RevealEnd)
		}
		sub, err := load[state.Submission](tx, address.Submission, ref.Submission, ErrSubmissionNotFound)
		if err != nil {
			return err
		}

		outcome = link.Outcome()
		contributor := sub.Contributor

		bal, err := loadBalance(tx, contributor, ref.Topic)
		if err != nil {
			return err
		}
		converted := bal.ProvisionalContributionAmount
		if converted > 0 {
			if err := e.tokens.Burn(tx, reg.ProvisionalContributionClass, token.Scoped(contributor, TopicAddress(ref.Topic)), converted); err != nil {
				return err
			}
			if outcome == state.StatusAccepted {
				if err := e.tokens.Mint(tx, reg.PermanentContributionClass, token.Global(contributor), converted); err != nil {
					return err
				}
			}
			bal.ProvisionalContributionAmount = 0
			if err := tx.Put(address.Balance, BalanceAddress(contributor, ref.Topic), bal); err != nil {
				return err
			}
		}

		link.Status = outcome
		if err := tx.Put(address.Link, linkKey, link); err != nil {
			return err
		}

		e.afterCommit(func() {
			e.metrics.LinkFinalized(outcome.String())
			log.Ledger.Debug().
				Stringer("caller", caller).
				Stringer("link", linkKey).
				Stringer("status", outcome).
				Uint64("yes", link.YesPower).
				Uint64("no", link.NoPower).
				Uint64("converted", converted).
				Msg("submission finalized")
		})
		return nil
	})
	return outcome, err
}

// FinalizeVote settles a revealed vote on a finalized link. A correct
// provisional vote burns the locked reputation and mints the same amount of
// permanent reputation; an incorrect one only burns. A correct permanent vote
// gets its escrow back; an incorrect one has the escrow burned. Any caller may
// finalize. It reports whether the vote was correct.
func (e *Engine) FinalizeVote(ctx context.Context, caller crypto.Identity, ref LinkRef, validator crypto.Identity) (bool, error) {
	var correct bool
	err := e.execute(ctx, "finalize_vote", func(tx *store.Tx, _ clock.Timestamp) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		linkKey := ref.Key()
		link, err := loadLink(tx, ref)
		if err != nil {
			return err
		}
		if link.Status == state.StatusPending {
			return ErrLinkPending
		}
		voteKey := VoteAddress(linkKey, validator)
		vote, err := load[state.VoteCommitment](tx, address.Vote, voteKey, ErrVoteNotFound)
		if err != nil {
			return err
		}
		if vote.Finalized {
			return ErrVoteFinalized
		}
		if !vote.Revealed || vote.Choice == nil {
			return ErrNotRevealed
		}

		correct = vote.Choice.Matches(link.Status)
		if err := e.settleVote(tx, reg, ref.Topic, validator, voteKey, vote, correct); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Votes.Debug().
				Stringer("caller", caller).
				Stringer("participant", validator).
				Stringer("link", linkKey).
				Bool("correct", correct).
				Uint64("amount", vote.Amount).
				Msg("vote finalized")
		})
		return nil
	})
	return correct, err
}

// ForfeitUnrevealed settles a commitment that was never revealed. Once the
// reveal phase has ended the committed reputation is burned and the vote is
// marked finalized. Any caller may do this, whether or not the link itself
// has been finalized.
func (e *Engine) ForfeitUnrevealed(ctx context.Context, caller crypto.Identity, ref LinkRef, validator crypto.Identity) error {
	return e.execute(ctx, "forfeit_unrevealed", func(tx *store.Tx, now clock.Timestamp) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		linkKey := ref.Key()
		link, err := loadLink(tx, ref)
		if err != nil {
			return err
		}
		if !link.RevealClosed(now) {
			return fmt.Errorf("%w: now %s, reveal ends %s", ErrRevealNotEnded, now, link.RevealEnd)
		}
		voteKey := VoteAddress(linkKey, validator)
		vote, err := load[state.VoteCommitment](tx, address.Vote, voteKey, ErrVoteNotFound)
		if err != nil {
			return err
		}
		if vote.Finalized {
			return ErrVoteFinalized
		}
		if vote.Revealed {
			return ErrAlreadyRevealed
		}

		if err := e.settleVote(tx, reg, ref.Topic, validator, voteKey, vote, false); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Votes.Debug().
				Stringer("caller", caller).
				Stringer("participant", validator).
				Stringer("link", linkKey).
				Uint64("amount", vote.Amount).
				Msg("unrevealed vote forfeited")
		})
		return nil
	})
}

// settleVote releases the reputation behind a vote, rewarding it when correct,
// and marks the vote finalized.
func (e *Engine) settleVote(tx *store.Tx, reg state.Registry, topic uint64, validator crypto.Identity, voteKey address.Key, vote state.VoteCommitment, correct bool) error {
	var err error
	if vote.UsesPermanentReputation {
		err = e.settleEscrow(tx, reg, validator, voteKey, correct)
	} else {
		err = e.settleProvisional(tx, reg, topic, validator, vote.Amount, correct)
	}
	if err != nil {
		return err
	}
	vote.Finalized = true
	return tx.Put(address.Vote, voteKey, vote)
}

func (e *Engine) settleProvisional(tx *store.Tx, reg state.Registry, topic uint64, validator crypto.Identity, amount uint64, correct bool) error {
	bal, err := load[state.Balance](tx, address.Balance, BalanceAddress(validator, topic), ErrBalanceNotFound)
	if err != nil {
		return err
	}
	locked, err := safemath.CheckedSub64(bal.LockedProvisionalReputationAmount, amount)
	if err != nil {
		return fmt.Errorf("%w: locked %d, vote %d", ErrLockedUnderflow, bal.LockedProvisionalReputationAmount, amount)
	}
	bal.LockedProvisionalReputationAmount = locked
	if err := tx.Put(address.Balance, BalanceAddress(validator, topic), bal); err != nil {
		return err
	}
	if err := e.tokens.Burn(tx, reg.ProvisionalReputationClass, token.Scoped(validator, TopicAddress(topic)), amount); err != nil {
		return err
	}
	if !correct {
		return nil
	}

	if err := e.tokens.Mint(tx, reg.PermanentReputationClass, token.Global(validator), amount); err != nil {
		return err
	}
	return creditPermanentReputation(tx, validator, amount)
}

func (e *Engine) settleEscrow(tx *store.Tx, reg state.Registry, validator crypto.Identity, voteKey address.Key, correct bool) error {
	escrow, err := load[state.ReputationEscrow](tx, address.Escrow, voteKey, ErrEscrowNotFound)
	if err != nil {
		return err
	}
	if escrow.Settled {
		return ErrEscrowSettled
	}
	if correct {
		if err := e.tokens.Transfer(tx, reg.PermanentReputationClass, escrowHolder, token.Global(validator), escrow.Amount); err != nil {
			return err
		}
		if err := creditPermanentReputation(tx, validator, escrow.Amount); err != nil {
			return err
		}
	} else if err := e.tokens.Burn(tx, reg.PermanentReputationClass, escrowHolder, escrow.Amount); err != nil {
		return err
	}
	escrow.Settled = true
	return tx.Put(address.Escrow, voteKey, escrow)
}

// creditPermanentReputation raises the profile counter, creating the profile
// for validators that never submitted.
func creditPermanentReputation(tx *store.Tx, validator crypto.Identity, amount uint64) error {
	profileKey := ProfileAddress(validator)
	profile, err := load[state.Profile](tx, address.Profile, profileKey, ErrProfileNotFound)
	if errors.Is(err, ErrProfileNotFound) {
		profile, err = state.Profile{Participant: validator}, nil
	}
	if err != nil {
		return err
	}
	if profile.PermanentReputationAmount, err = safemath.CheckedAdd64(profile.PermanentReputationAmount, amount); err != nil {
		return err
	}
	return tx.Put(address.Profile, profileKey, profile)
}
