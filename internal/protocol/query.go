package protocol

import (
	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/token"
	"github.com/eigerco/curator/pkg/codec"
)

// Reads see committed state only and are open to everyone.

func (e *Engine) Registry() (state.Registry, error) {
	return loadRegistry(e.store)
}

func (e *Engine) Topic(index uint64) (state.Topic, error) {
	return loadTopic(e.store, index)
}

// Topics returns every topic in index order.
func (e *Engine) Topics() ([]state.Topic, error) {
	reg, err := loadRegistry(e.store)
	if err != nil {
		return nil, err
	}
	topics := make([]state.Topic, 0, reg.TopicCount)
	for i := uint64(0); i < reg.TopicCount; i++ {
		t, err := loadTopic(e.store, i)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

func (e *Engine) Profile(participant crypto.Identity) (state.Profile, error) {
	return load[state.Profile](e.store, address.Profile, ProfileAddress(participant), ErrProfileNotFound)
}

// Profiles returns every participant profile in address order.
func (e *Engine) Profiles() ([]state.Profile, error) {
	var profiles []state.Profile
	err := e.store.ForEach(address.Profile, func(_ address.Key, raw []byte) error {
		var p state.Profile
		if err := codec.Unmarshal(raw, &p); err != nil {
			return err
		}
		profiles = append(profiles, p)
		return nil
	})
	return profiles, err
}

func (e *Engine) Balance(participant crypto.Identity, topic uint64) (state.Balance, error) {
	return load[state.Balance](e.store, address.Balance, BalanceAddress(participant, topic), ErrBalanceNotFound)
}

func (e *Engine) Submission(key address.Key) (state.Submission, error) {
	return load[state.Submission](e.store, address.Submission, key, ErrSubmissionNotFound)
}

func (e *Engine) Link(ref LinkRef) (state.TopicLink, error) {
	return loadLink(e.store, ref)
}

func (e *Engine) Vote(ref LinkRef, validator crypto.Identity) (state.VoteCommitment, error) {
	return load[state.VoteCommitment](e.store, address.Vote, VoteAddress(ref.Key(), validator), ErrVoteNotFound)
}

// Escrow returns the permanent reputation escrow behind a vote.
func (e *Engine) Escrow(ref LinkRef, validator crypto.Identity) (state.ReputationEscrow, error) {
	return load[state.ReputationEscrow](e.store, address.Escrow, VoteAddress(ref.Key(), validator), ErrEscrowNotFound)
}

func (e *Engine) TokenBalance(class state.TokenClass, holder token.Holder) (uint64, error) {
	return token.BalanceOf(e.store, class, holder)
}

func (e *Engine) TokenSupply(class state.TokenClass) (uint64, error) {
	return token.TotalSupply(e.store, class)
}

// Supply returns the outstanding amount of every registry token class keyed
// by class name.
func (e *Engine) Supply() (map[string]uint64, error) {
	reg, err := loadRegistry(e.store)
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint64, len(reg.Classes()))
	for _, class := range reg.Classes() {
		n, err := token.TotalSupply(e.store, class)
		if err != nil {
			return nil, err
		}
		out[ClassName(class)] = n
	}
	return out, nil
}
