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

const MaxDataReferenceLength = 256

// Submit records a contribution under topic, opens its first link and mints
// the registry's issuance amount of provisional contribution to the
// contributor. index must equal the contributor's current submission count.
func (e *Engine) Submit(ctx context.Context, contributor crypto.Identity, topic uint64, dataReference string, index uint64) (LinkRef, error) {
	ref := LinkRef{Submission: SubmissionAddress(contributor, index), Topic: topic}
	err := e.execute(ctx, "submit", func(tx *store.Tx, now clock.Timestamp) error {
		if len(dataReference) == 0 || len(dataReference) > MaxDataReferenceLength {
			return ErrInvalidDataReference
		}
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		t, err := loadActiveTopic(tx, topic)
		if err != nil {
			return err
		}
		profileKey := ProfileAddress(contributor)
		profile, err := load[state.Profile](tx, address.Profile, profileKey, ErrProfileNotFound)
		if err != nil {
			return err
		}
		if index != profile.SubmissionCount {
			return fmt.Errorf("%w: got %d, expected %d", ErrSubmissionIndex, index, profile.SubmissionCount)
		}

		sub := state.Submission{
			Contributor:   contributor,
			Timestamp:     now,
			DataReference: dataReference,
		}
		if err := create(tx, address.Submission, ref.Submission, sub, ErrSubmissionExists); err != nil {
			return err
		}
		if err := openLink(tx, ref, t, now); err != nil {
			return err
		}

		if err := e.tokens.Mint(tx, reg.ProvisionalContributionClass, token.Scoped(contributor, TopicAddress(topic)), reg.TokensToMint); err != nil {
			return err
		}
		bal, err := loadBalance(tx, contributor, topic)
		if err != nil {
			return err
		}
		if bal.ProvisionalContributionAmount, err = safemath.CheckedAdd64(bal.ProvisionalContributionAmount, reg.TokensToMint); err != nil {
			return err
		}
		if err := tx.Put(address.Balance, BalanceAddress(contributor, topic), bal); err != nil {
			return err
		}

		if t.SubmissionCount, err = safemath.CheckedAdd64(t.SubmissionCount, 1); err != nil {
			return err
		}
		if err := tx.Put(address.Topic, TopicAddress(topic), t); err != nil {
			return err
		}
		profile.SubmissionCount++
		if err := tx.Put(address.Profile, profileKey, profile); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Ledger.Debug().
				Stringer("participant", contributor).
				Uint64("topic", topic).
				Stringer("link", ref.Key()).
				Uint64("minted", reg.TokensToMint).
				Msg("submission created")
		})
		return nil
	})
	return ref, err
}

// LinkExisting opens a voting context for an existing submission in another
// topic. Nothing is minted and the submission itself is not modified, so any
// caller may do this.
func (e *Engine) LinkExisting(ctx context.Context, caller crypto.Identity, submission address.Key, topic uint64) (LinkRef, error) {
	ref := LinkRef{Submission: submission, Topic: topic}
	err := e.execute(ctx, "link_existing", func(tx *store.Tx, now clock.Timestamp) error {
		if _, err := loadRegistry(tx); err != nil {
			return err
		}
		if _, err := load[state.Submission](tx, address.Submission, submission, ErrSubmissionNotFound); err != nil {
			return err
		}
		t, err := loadActiveTopic(tx, topic)
		if err != nil {
			return err
		}
		if err := openLink(tx, ref, t, now); err != nil {
			return err
		}
		if t.SubmissionCount, err = safemath.CheckedAdd64(t.SubmissionCount, 1); err != nil {
			return err
		}
		if err := tx.Put(address.Topic, TopicAddress(topic), t); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Ledger.Debug().Stringer("caller", caller).Uint64("topic", topic).Stringer("link", ref.Key()).Msg("submission linked")
		})
		return nil
	})
	return ref, err
}

// SetPhaseWindow overrides the phase timestamps of a pending link.
func (e *Engine) SetPhaseWindow(ctx context.Context, caller crypto.Identity, ref LinkRef, w state.PhaseWindow) error {
	return e.execute(ctx, "set_phase_window", func(tx *store.Tx, _ clock.Timestamp) error {
		if !w.Ordered() {
			return ErrInvalidPhaseWindow
		}
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		if caller != reg.Authority {
			return ErrUnauthorized
		}
		link, err := loadLink(tx, ref)
		if err != nil {
			return err
		}
		if link.Status != state.StatusPending {
			return ErrLinkFinalized
		}
		link.PhaseWindow = w
		return tx.Put(address.Link, ref.Key(), link)
	})
}

func loadActiveTopic(r store.Reader, index uint64) (state.Topic, error) {
	t, err := loadTopic(r, index)
	if err != nil {
		return t, err
	}
	if !t.IsActive {
		return t, fmt.Errorf("topic %d: %w", index, ErrTopicInactive)
	}
	return t, nil
}

// openLink creates a pending link whose commit phase starts now.
func openLink(tx *store.Tx, ref LinkRef, t state.Topic, now clock.Timestamp) error {
	link := state.TopicLink{
		Status:      state.StatusPending,
		PhaseWindow: state.NewPhaseWindow(now, t.CommitPhaseDuration, t.RevealPhaseDuration),
	}
	return create(tx, address.Link, ref.Key(), link, ErrLinkExists)
}
