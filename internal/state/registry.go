// Package state holds the persisted ledger records. Field order is the
// on-disk layout; indexers decode these records directly, so no field may be
// added without a migration.
package state

import (
	"github.com/eigerco/curator/internal/crypto"
)

// TokenClass identifies one fungible token kind.
type TokenClass = crypto.Hash

// Registry is the single global configuration record.
type Registry struct {
	Authority                    crypto.Identity // administrator allowed to change issuance, defaults and phase windows
	ProvisionalContributionClass TokenClass      // issued per submission, topic scoped
	PermanentContributionClass   TokenClass      // minted when a link is accepted
	ProvisionalReputationClass   TokenClass      // obtained by staking provisional contribution, topic scoped
	PermanentReputationClass     TokenClass      // minted for correct votes
	TopicCount                   uint64          // next topic index
	TokensToMint                 uint64          // provisional contribution issued per submission
	DefaultCommitDuration        int64           // seconds, used when a topic is created without one
	DefaultRevealDuration        int64           // seconds, used when a topic is created without one
}

// Classes lists the four token classes in a fixed order.
func (r Registry) Classes() []TokenClass {
	return []TokenClass{
		r.ProvisionalContributionClass,
		r.PermanentContributionClass,
		r.ProvisionalReputationClass,
		r.PermanentReputationClass,
	}
}

// Topic is a named category with its own phase durations.
type Topic struct {
	Name                string
	Description         string
	Creator             crypto.Identity
	SubmissionCount     uint64 // only increases
	CommitPhaseDuration int64  // seconds
	RevealPhaseDuration int64  // seconds
	IsActive            bool
}
