package protocol

import (
	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/safemath"
	"github.com/eigerco/curator/internal/state"
)

var registryKey = address.Derive(address.Registry)

func TopicAddress(index uint64) address.Key {
	return address.Derive(address.Topic, address.Uint64(index))
}

func ProfileAddress(participant crypto.Identity) address.Key {
	return address.Derive(address.Profile, participant[:])
}

func BalanceAddress(participant crypto.Identity, topic uint64) address.Key {
	topicKey := TopicAddress(topic)
	return address.Derive(address.Balance, participant[:], topicKey[:])
}

// SubmissionAddress is keyed by the contributor and their running submission index.
func SubmissionAddress(contributor crypto.Identity, index uint64) address.Key {
	return address.Derive(address.Submission, contributor[:], address.Uint64(index))
}

func LinkAddress(submission address.Key, topic uint64) address.Key {
	topicKey := TopicAddress(topic)
	return address.Derive(address.Link, submission[:], topicKey[:])
}

func VoteAddress(link address.Key, validator crypto.Identity) address.Key {
	return address.Derive(address.Vote, link[:], validator[:])
}

// LinkRef names a topic link by the submission and topic it binds.
type LinkRef struct {
	Submission address.Key
	Topic      uint64
}

func (r LinkRef) Key() address.Key {
	return LinkAddress(r.Submission, r.Topic)
}

// CommitHash is H(validator ‖ link ‖ choice ‖ nonce). Validators compute it
// off-ledger and submit it with CommitVote; RevealVote recomputes it.
func CommitHash(validator crypto.Identity, link address.Key, choice state.Choice, nonce []byte) crypto.Hash {
	return crypto.HashConcat(validator[:], link[:], []byte{byte(choice)}, nonce)
}

// VotingPower is the quadratic weight of a committed amount: ⌊√amount⌋.
func VotingPower(amount uint64) uint64 {
	return safemath.Sqrt64(amount)
}
