package protocol

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/token"
)

// The full lifecycle of one accepted submission with one correct validator.
func TestAcceptedSubmissionLifecycle(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	scope := TopicAddress(topic)

	ref := f.submit(alice, topic)
	assert.Equal(t, uint64(100), f.balance(alice, topic).ProvisionalContributionAmount)

	require.NoError(t, f.engine.Stake(f.ctx, alice, topic, 50))
	bal := f.balance(alice, topic)
	assert.Equal(t, uint64(50), bal.ProvisionalContributionAmount)
	assert.Equal(t, uint64(50), bal.ProvisionalReputationAmount)

	f.fund(bob, topic, 50)
	f.commit(bob, ref, state.ChoiceYes, 25, false)

	f.clock.Advance(day)
	f.reveal(bob, ref, state.ChoiceYes)

	link, err := f.engine.Link(ref)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), link.YesPower)
	assert.Zero(t, link.NoPower)

	f.clock.Advance(day)
	status, err := f.engine.FinalizeSubmission(f.ctx, dave, ref)
	require.NoError(t, err)
	assert.Equal(t, state.StatusAccepted, status)

	assert.Zero(t, f.balance(alice, topic).ProvisionalContributionAmount)
	assert.Zero(t, f.tokens(ClassProvisionalContribution, token.Scoped(alice, scope)))
	assert.Equal(t, uint64(50), f.tokens(ClassPermanentContribution, token.Global(alice)))
	assert.Equal(t, uint64(50), f.balance(alice, topic).ProvisionalReputationAmount)

	bobBefore := f.balance(bob, topic)
	correct, err := f.engine.FinalizeVote(f.ctx, dave, ref, bob)
	require.NoError(t, err)
	assert.True(t, correct)

	bobAfter := f.balance(bob, topic)
	assert.Zero(t, bobAfter.LockedProvisionalReputationAmount)
	assert.Equal(t, bobBefore.ProvisionalReputationAmount, bobAfter.ProvisionalReputationAmount)
	assert.Equal(t, uint64(25), f.tokens(ClassPermanentReputation, token.Global(bob)))
	assert.Equal(t, uint64(25), f.tokens(ClassProvisionalReputation, token.Scoped(bob, scope)))

	p, err := f.engine.Profile(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), p.PermanentReputationAmount)

	vote, err := f.engine.Vote(ref, bob)
	require.NoError(t, err)
	assert.True(t, vote.Finalized)

	// bob's own submission is untouched
	assert.Equal(t, uint64(50), bobAfter.ProvisionalContributionAmount)
	assert.Equal(t, uint64(50), f.supply(ClassProvisionalContribution))
	assert.Equal(t, uint64(50), f.supply(ClassPermanentContribution))
	assert.Equal(t, uint64(75), f.supply(ClassProvisionalReputation))

	supply, err := f.engine.Supply()
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{
		ClassProvisionalContribution: 50,
		ClassPermanentContribution:   50,
		ClassProvisionalReputation:   75,
		ClassPermanentReputation:     25,
	}, supply)

	expected := `
# HELP curator_links_finalized_total Topic links settled per outcome.
# TYPE curator_links_finalized_total counter
curator_links_finalized_total{status="accepted"} 1
# HELP curator_tokens_minted_total Tokens minted per token class.
# TYPE curator_tokens_minted_total counter
curator_tokens_minted_total{class="permanent-contribution"} 50
curator_tokens_minted_total{class="permanent-reputation"} 25
curator_tokens_minted_total{class="provisional-contribution"} 200
curator_tokens_minted_total{class="provisional-reputation"} 100
# HELP curator_vote_power_total Quadratic voting power revealed per choice.
# TYPE curator_vote_power_total counter
curator_vote_power_total{choice="yes"} 5
`
	require.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected),
		"curator_links_finalized_total", "curator_tokens_minted_total", "curator_vote_power_total"))
}

func TestFinalizeSubmissionTwice(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	ref := f.submit(alice, topic)

	_, err := f.engine.FinalizeSubmission(f.ctx, bob, ref)
	require.ErrorIs(t, err, ErrRevealNotEnded)
	assert.Equal(t, KindPhase, Kind(err))

	f.clock.Advance(2 * day)
	status, err := f.engine.FinalizeSubmission(f.ctx, bob, ref)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRejected, status)

	link, err := f.engine.Link(ref)
	require.NoError(t, err)
	bal := f.balance(alice, topic)
	supply := f.supply(ClassPermanentContribution)

	_, err = f.engine.FinalizeSubmission(f.ctx, carol, ref)
	require.ErrorIs(t, err, ErrLinkFinalized)
	assert.Equal(t, KindState, Kind(err))

	again, err := f.engine.Link(ref)
	require.NoError(t, err)
	assert.Equal(t, link, again)
	assert.Equal(t, bal, f.balance(alice, topic))
	assert.Equal(t, supply, f.supply(ClassPermanentContribution))
}

func TestRejectedSubmissionBurns(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	ref := f.submit(alice, topic)
	require.NoError(t, f.engine.Stake(f.ctx, alice, topic, 30))
	f.fund(bob, topic, 50)
	f.commit(bob, ref, state.ChoiceNo, 9, false)

	f.clock.Advance(day)
	f.reveal(bob, ref, state.ChoiceNo)
	f.clock.Advance(day)

	status, err := f.engine.FinalizeSubmission(f.ctx, carol, ref)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRejected, status)

	assert.Zero(t, f.balance(alice, topic).ProvisionalContributionAmount)
	assert.Equal(t, uint64(30), f.balance(alice, topic).ProvisionalReputationAmount)
	assert.Zero(t, f.supply(ClassPermanentContribution))

	correct, err := f.engine.FinalizeVote(f.ctx, carol, ref, bob)
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, uint64(9), f.tokens(ClassPermanentReputation, token.Global(bob)))
}

// Finalization converts whatever provisional contribution the contributor
// holds in the link's topic, whichever submission minted it.
func TestFinalizeLinkedSubmission(t *testing.T) {
	f := newFixture(t)
	birds := f.topic("birds")
	wetlands := f.topic("wetlands")
	first := f.submit(alice, birds)
	second := f.submit(alice, birds)
	relinked, err := f.engine.LinkExisting(f.ctx, carol, first.Submission, wetlands)
	require.NoError(t, err)

	f.fund(bob, birds, 50)
	f.commit(bob, first, state.ChoiceYes, 4, false)
	f.clock.Advance(day)
	f.reveal(bob, first, state.ChoiceYes)
	f.clock.Advance(day)

	status, err := f.engine.FinalizeSubmission(f.ctx, dave, relinked)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRejected, status)
	_, err = f.engine.Balance(alice, wetlands)
	require.ErrorIs(t, err, ErrBalanceNotFound)
	assert.Equal(t, uint64(2*minting), f.balance(alice, birds).ProvisionalContributionAmount)
	assert.Zero(t, f.supply(ClassPermanentContribution))

	status, err = f.engine.FinalizeSubmission(f.ctx, dave, first)
	require.NoError(t, err)
	assert.Equal(t, state.StatusAccepted, status)
	assert.Zero(t, f.balance(alice, birds).ProvisionalContributionAmount)
	assert.Zero(t, f.tokens(ClassProvisionalContribution, token.Scoped(alice, TopicAddress(birds))))
	assert.Equal(t, uint64(2*minting), f.tokens(ClassPermanentContribution, token.Global(alice)))

	status, err = f.engine.FinalizeSubmission(f.ctx, dave, second)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRejected, status)
	assert.Equal(t, uint64(2*minting), f.supply(ClassPermanentContribution))
	assert.Equal(t, uint64(minting-50), f.supply(ClassProvisionalContribution))

	link, err := f.engine.Link(relinked)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRejected, link.Status)
}

func TestTieIsRejected(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	scope := TopicAddress(topic)
	ref := f.submit(alice, topic)
	f.fund(bob, topic, 50)
	f.fund(carol, topic, 50)

	f.commit(bob, ref, state.ChoiceYes, 16, false)
	// 20 and 16 carry the same power
	f.commit(carol, ref, state.ChoiceNo, 20, false)

	f.clock.Advance(day)
	f.reveal(bob, ref, state.ChoiceYes)
	f.reveal(carol, ref, state.ChoiceNo)
	f.clock.Advance(day)

	link, err := f.engine.Link(ref)
	require.NoError(t, err)
	require.Equal(t, link.YesPower, link.NoPower)

	status, err := f.engine.FinalizeSubmission(f.ctx, dave, ref)
	require.NoError(t, err)
	assert.Equal(t, state.StatusRejected, status)

	tests := []struct {
		validator      crypto.Identity
		amount         uint64
		correct        bool
		permanentAfter uint64
	}{
		{bob, 16, false, 0},
		{carol, 20, true, 20},
	}
	for _, tc := range tests {
		before := f.balance(tc.validator, topic)
		correct, err := f.engine.FinalizeVote(f.ctx, dave, ref, tc.validator)
		require.NoError(t, err)
		assert.Equal(t, tc.correct, correct)

		after := f.balance(tc.validator, topic)
		// lock symmetry holds for both outcomes
		assert.Equal(t, before.LockedProvisionalReputationAmount-tc.amount, after.LockedProvisionalReputationAmount)
		assert.Equal(t, before.ProvisionalReputationAmount, after.ProvisionalReputationAmount)
		assert.Equal(t, after.TotalReputation(), f.tokens(ClassProvisionalReputation, token.Scoped(tc.validator, scope)))
		assert.Equal(t, tc.permanentAfter, f.tokens(ClassPermanentReputation, token.Global(tc.validator)))
	}
	assert.Equal(t, uint64(20), f.supply(ClassPermanentReputation))
}

func TestFinalizeVoteErrors(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	ref := f.submit(alice, topic)
	f.fund(bob, topic, 50)
	f.fund(carol, topic, 50)
	f.commit(bob, ref, state.ChoiceYes, 4, false)
	f.commit(carol, ref, state.ChoiceYes, 4, false)

	f.clock.Advance(day)
	f.reveal(bob, ref, state.ChoiceYes)

	_, err := f.engine.FinalizeVote(f.ctx, dave, ref, bob)
	require.ErrorIs(t, err, ErrLinkPending)
	assert.Equal(t, KindState, Kind(err))

	f.clock.Advance(day)
	_, err = f.engine.FinalizeSubmission(f.ctx, dave, ref)
	require.NoError(t, err)

	_, err = f.engine.FinalizeVote(f.ctx, dave, ref, carol)
	require.ErrorIs(t, err, ErrNotRevealed)
	_, err = f.engine.FinalizeVote(f.ctx, dave, ref, dave)
	require.ErrorIs(t, err, ErrVoteNotFound)
	_, err = f.engine.FinalizeVote(f.ctx, dave, LinkRef{Submission: ref.Submission, Topic: 9}, bob)
	require.ErrorIs(t, err, ErrLinkNotFound)

	_, err = f.engine.FinalizeVote(f.ctx, dave, ref, bob)
	require.NoError(t, err)
	bal := f.balance(bob, topic)

	_, err = f.engine.FinalizeVote(f.ctx, alice, ref, bob)
	require.ErrorIs(t, err, ErrVoteFinalized)
	assert.Equal(t, bal, f.balance(bob, topic))
}

func TestForfeitUnrevealed(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	scope := TopicAddress(topic)
	ref := f.submit(alice, topic)
	f.fund(bob, topic, 50)
	f.fund(carol, topic, 50)
	f.commit(bob, ref, state.ChoiceYes, 25, false)
	f.commit(carol, ref, state.ChoiceYes, 9, false)

	f.clock.Advance(day)
	f.reveal(carol, ref, state.ChoiceYes)

	err := f.engine.ForfeitUnrevealed(f.ctx, dave, ref, bob)
	require.ErrorIs(t, err, ErrRevealNotEnded)

	f.clock.Advance(day)
	before := f.balance(bob, topic)
	require.NoError(t, f.engine.ForfeitUnrevealed(f.ctx, dave, ref, bob))

	after := f.balance(bob, topic)
	assert.Equal(t, before.LockedProvisionalReputationAmount-25, after.LockedProvisionalReputationAmount)
	assert.Equal(t, before.ProvisionalReputationAmount, after.ProvisionalReputationAmount)
	assert.Equal(t, uint64(25), f.tokens(ClassProvisionalReputation, token.Scoped(bob, scope)))
	assert.Zero(t, f.supply(ClassPermanentReputation))

	require.ErrorIs(t, f.engine.ForfeitUnrevealed(f.ctx, dave, ref, bob), ErrVoteFinalized)
	require.ErrorIs(t, f.engine.ForfeitUnrevealed(f.ctx, dave, ref, carol), ErrAlreadyRevealed)

	// the link settles normally afterwards
	status, err := f.engine.FinalizeSubmission(f.ctx, dave, ref)
	require.NoError(t, err)
	assert.Equal(t, state.StatusAccepted, status)

	_, err = f.engine.FinalizeVote(f.ctx, dave, ref, bob)
	require.ErrorIs(t, err, ErrVoteFinalized)
	correct, err := f.engine.FinalizeVote(f.ctx, dave, ref, carol)
	require.NoError(t, err)
	assert.True(t, correct)
}

func TestForfeitCannotBeRevealedLater(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	ref := f.submit(alice, topic)
	f.fund(bob, topic, 50)
	f.commit(bob, ref, state.ChoiceNo, 4, false)

	f.clock.Advance(2 * day)
	require.NoError(t, f.engine.ForfeitUnrevealed(f.ctx, dave, ref, bob))

	// reopening the window does not revive the vote
	now := f.clock.Now()
	w := state.PhaseWindow{CommitStart: now, CommitEnd: now, RevealStart: now, RevealEnd: now + 100}
	require.NoError(t, f.engine.SetPhaseWindow(f.ctx, authority, ref, w))

	err := f.engine.RevealVote(f.ctx, bob, ref, state.ChoiceNo, nonceFor(bob))
	require.ErrorIs(t, err, ErrVoteFinalized)
}

// bob earns permanent reputation on one link and then votes with it on others.
func permanentFixture(t *testing.T) (*fixture, uint64) {
	f := newFixture(t)
	topic := f.topic("birds")
	first := f.submit(alice, topic)
	f.fund(bob, topic, 50)
	f.commit(bob, first, state.ChoiceYes, 25, false)
	f.clock.Advance(day)
	f.reveal(bob, first, state.ChoiceYes)
	f.clock.Advance(day)
	_, err := f.engine.FinalizeSubmission(f.ctx, dave, first)
	require.NoError(t, err)
	_, err = f.engine.FinalizeVote(f.ctx, dave, first, bob)
	require.NoError(t, err)
	return f, topic
}

func TestPermanentReputationVoting(t *testing.T) {
	tests := []struct {
		name            string
		vote            state.Choice
		correct         bool
		profileAfter    uint64
		escrowedSupply  uint64
		permanentSupply uint64
	}{
		{"correct vote returns escrow", state.ChoiceYes, true, 25, 0, 25},
		{"incorrect vote burns escrow", state.ChoiceNo, false, 9, 0, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, topic := permanentFixture(t)
			ref := f.submit(alice, topic)
			f.fund(carol, topic, 50)

			err := f.engine.CommitVote(f.ctx, bob, ref, CommitHash(bob, ref.Key(), tc.vote, nonceFor(bob)), 26, true)
			require.ErrorIs(t, err, ErrInsufficientBalance)

			lockedBefore := f.balance(bob, topic).LockedProvisionalReputationAmount
			f.commit(bob, ref, tc.vote, 16, true)
			f.commit(carol, ref, state.ChoiceYes, 25, false)

			p, err := f.engine.Profile(bob)
			require.NoError(t, err)
			assert.Equal(t, uint64(9), p.PermanentReputationAmount)
			assert.Equal(t, uint64(9), f.tokens(ClassPermanentReputation, token.Global(bob)))
			assert.Equal(t, uint64(16), f.tokens(ClassPermanentReputation, escrowHolder))
			assert.Equal(t, lockedBefore, f.balance(bob, topic).LockedProvisionalReputationAmount)

			escrow, err := f.engine.Escrow(ref, bob)
			require.NoError(t, err)
			assert.Equal(t, state.ReputationEscrow{Validator: bob, Amount: 16}, escrow)

			f.clock.Advance(day)
			f.reveal(bob, ref, tc.vote)
			f.reveal(carol, ref, state.ChoiceYes)
			f.clock.Advance(day)

			status, err := f.engine.FinalizeSubmission(f.ctx, dave, ref)
			require.NoError(t, err)
			assert.Equal(t, state.StatusAccepted, status)

			correct, err := f.engine.FinalizeVote(f.ctx, dave, ref, bob)
			require.NoError(t, err)
			assert.Equal(t, tc.correct, correct)

			p, err = f.engine.Profile(bob)
			require.NoError(t, err)
			assert.Equal(t, tc.profileAfter, p.PermanentReputationAmount)
			assert.Equal(t, tc.profileAfter, f.tokens(ClassPermanentReputation, token.Global(bob)))
			assert.Equal(t, tc.escrowedSupply, f.tokens(ClassPermanentReputation, escrowHolder))

			// carol's correct provisional vote mints 25 on top
			_, err = f.engine.FinalizeVote(f.ctx, dave, ref, carol)
			require.NoError(t, err)
			assert.Equal(t, tc.permanentSupply+25, f.supply(ClassPermanentReputation))

			escrow, err = f.engine.Escrow(ref, bob)
			require.NoError(t, err)
			assert.True(t, escrow.Settled)
		})
	}
}

func TestForfeitPermanentEscrow(t *testing.T) {
	f, topic := permanentFixture(t)
	ref := f.submit(alice, topic)
	f.commit(bob, ref, state.ChoiceYes, 10, true)

	f.clock.Advance(2 * day)
	require.NoError(t, f.engine.ForfeitUnrevealed(f.ctx, dave, ref, bob))

	p, err := f.engine.Profile(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), p.PermanentReputationAmount)
	assert.Zero(t, f.tokens(ClassPermanentReputation, escrowHolder))
	assert.Equal(t, uint64(15), f.supply(ClassPermanentReputation))

	escrow, err := f.engine.Escrow(ref, bob)
	require.NoError(t, err)
	assert.True(t, escrow.Settled)
}

func TestSetPhaseWindow(t *testing.T) {
	f := newFixture(t)
	topic := f.topic("birds")
	ref := f.submit(alice, topic)

	w := state.PhaseWindow{CommitStart: start - 20, CommitEnd: start - 10, RevealStart: start - 10, RevealEnd: start}

	err := f.engine.SetPhaseWindow(f.ctx, alice, ref, w)
	require.ErrorIs(t, err, ErrUnauthorized)

	unordered := w
	unordered.RevealStart = start - 15
	require.ErrorIs(t, f.engine.SetPhaseWindow(f.ctx, authority, ref, unordered), ErrInvalidPhaseWindow)
	require.ErrorIs(t, f.engine.SetPhaseWindow(f.ctx, authority, LinkRef{Topic: topic}, w), ErrLinkNotFound)

	require.NoError(t, f.engine.SetPhaseWindow(f.ctx, authority, ref, w))
	link, err := f.engine.Link(ref)
	require.NoError(t, err)
	assert.Equal(t, w, link.PhaseWindow)

	// the window is already over, so the link can settle now
	_, err = f.engine.FinalizeSubmission(f.ctx, dave, ref)
	require.NoError(t, err)
	require.ErrorIs(t, f.engine.SetPhaseWindow(f.ctx, authority, ref, w), ErrLinkFinalized)
}
