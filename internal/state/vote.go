package state

import (
	"fmt"

	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/crypto"
)

// Choice is encoded as a single byte in the commit hash.
type Choice uint8

const (
	ChoiceYes Choice = 0
	ChoiceNo  Choice = 1
)

func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

func (c Choice) String() string {
	switch c {
	case ChoiceYes:
		return "yes"
	case ChoiceNo:
		return "no"
	default:
		return fmt.Sprintf("choice(%d)", uint8(c))
	}
}

// Matches reports whether a vote for c agrees with the settled status.
func (c Choice) Matches(s Status) bool {
	return (c == ChoiceYes && s == StatusAccepted) || (c == ChoiceNo && s == StatusRejected)
}

// VoteCommitment moves Committed → Revealed → Finalized and never back.
type VoteCommitment struct {
	CommitHash              crypto.Hash
	Revealed                bool
	Finalized               bool
	Choice                  *Choice // set on reveal
	Amount                  uint64
	UsesPermanentReputation bool
	CommitTimestamp         clock.Timestamp
}

// ReputationEscrow holds permanent reputation committed to a vote until the
// vote is settled. It is keyed by the vote commitment's address.
type ReputationEscrow struct {
	Validator crypto.Identity
	Amount    uint64
	Settled   bool
}
