package protocol

import (
	"context"
	"time"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/safemath"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/store"
	"github.com/eigerco/curator/pkg/log"
)

const (
	MaxTopicNameLength        = 64
	MaxTopicDescriptionLength = 256
)

// TopicParams describes a new topic. A zero duration takes the registry default.
type TopicParams struct {
	Name           string
	Description    string
	CommitDuration time.Duration
	RevealDuration time.Duration
}

// CreateTopic allocates the next topic index and returns it. Any participant
// may create a topic.
func (e *Engine) CreateTopic(ctx context.Context, creator crypto.Identity, p TopicParams) (uint64, error) {
	var index uint64
	err := e.execute(ctx, "create_topic", func(tx *store.Tx, _ clock.Timestamp) error {
		if len(p.Name) == 0 || len(p.Name) > MaxTopicNameLength {
			return ErrInvalidName
		}
		if len(p.Description) > MaxTopicDescriptionLength {
			return ErrInvalidDescription
		}
		commit, err := optionalSeconds(p.CommitDuration)
		if err != nil {
			return err
		}
		reveal, err := optionalSeconds(p.RevealDuration)
		if err != nil {
			return err
		}

		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		if commit == 0 {
			commit = reg.DefaultCommitDuration
		}
		if reveal == 0 {
			reveal = reg.DefaultRevealDuration
		}

		index = reg.TopicCount
		topic := state.Topic{
			Name:                p.Name,
			Description:         p.Description,
			Creator:             creator,
			CommitPhaseDuration: commit,
			RevealPhaseDuration: reveal,
			IsActive:            true,
		}
		if err := tx.Create(address.Topic, TopicAddress(index), topic); err != nil {
			return err
		}
		if reg.TopicCount, err = safemath.CheckedAdd64(reg.TopicCount, 1); err != nil {
			return err
		}
		if err := tx.Put(address.Registry, registryKey, reg); err != nil {
			return err
		}

		e.afterCommit(func() {
			log.Ledger.Debug().Uint64("topic", index).Str("name", p.Name).Stringer("creator", creator).Msg("topic created")
		})
		return nil
	})
	return index, err
}

// SetTopicActive opens or closes a topic to new submissions and links. Only the
// topic creator or the registry authority may call it.
func (e *Engine) SetTopicActive(ctx context.Context, caller crypto.Identity, index uint64, active bool) error {
	return e.execute(ctx, "set_topic_active", func(tx *store.Tx, _ clock.Timestamp) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		topic, err := loadTopic(tx, index)
		if err != nil {
			return err
		}
		if caller != topic.Creator && caller != reg.Authority {
			return ErrUnauthorized
		}
		topic.IsActive = active
		return tx.Put(address.Topic, TopicAddress(index), topic)
	})
}

// optionalSeconds is seconds, except that zero means unset.
func optionalSeconds(d time.Duration) (int64, error) {
	if d == 0 {
		return 0, nil
	}
	return seconds(d)
}
