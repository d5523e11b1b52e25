package state

import "github.com/eigerco/curator/internal/crypto"

// Profile is created once per participant.
type Profile struct {
	Participant               crypto.Identity
	SubmissionCount           uint64
	PermanentReputationAmount uint64
}

// Balance tracks one participant's provisional tokens inside one topic.
//
// Available plus locked reputation only shrinks through settlement, and
// locked only moves on commit (+) and vote settlement (-). Both fields are
// always written in the same transaction.
type Balance struct {
	ProvisionalContributionAmount     uint64
	ProvisionalReputationAmount       uint64 // available
	LockedProvisionalReputationAmount uint64 // committed to open votes
}

// TotalReputation is available plus locked provisional reputation.
func (b Balance) TotalReputation() uint64 {
	return b.ProvisionalReputationAmount + b.LockedProvisionalReputationAmount
}
