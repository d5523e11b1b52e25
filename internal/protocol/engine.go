// Package protocol implements the curation ledger: topics, submissions, the
// commit-reveal vote engine with quadratic weighting, and two-step settlement.
//
// Every mutating operation is one atomic transition. It either applies all of
// its record writes and token movements or none of them.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eigerco/curator/internal/address"
	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/crypto"
	"github.com/eigerco/curator/internal/metrics"
	"github.com/eigerco/curator/internal/state"
	"github.com/eigerco/curator/internal/store"
	"github.com/eigerco/curator/internal/token"
	"github.com/eigerco/curator/pkg/log"
)

// Token class names. Class identifiers are derived from them at initialization.
const (
	ClassProvisionalContribution = "provisional-contribution"
	ClassPermanentContribution   = "permanent-contribution"
	ClassProvisionalReputation   = "provisional-reputation"
	ClassPermanentReputation     = "permanent-reputation"
)

var classNames = map[state.TokenClass]string{
	token.ClassID(ClassProvisionalContribution): ClassProvisionalContribution,
	token.ClassID(ClassPermanentContribution):   ClassPermanentContribution,
	token.ClassID(ClassProvisionalReputation):   ClassProvisionalReputation,
	token.ClassID(ClassPermanentReputation):     ClassPermanentReputation,
}

// ClassName returns the name a registry token class was derived from, or its
// hex form for a class the registry does not issue.
func ClassName(class state.TokenClass) string {
	if name, ok := classNames[class]; ok {
		return name
	}
	return class.String()
}

// escrowHolder owns permanent reputation committed to open votes.
var escrowHolder = token.Global(token.CustodyIdentity("reputation-escrow"))

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

type Engine struct {
	store   *store.Store
	clock   clock.Clock
	tokens  *token.Authority
	metrics *metrics.Metrics

	mu       sync.Mutex
	onCommit []func()
}

func New(s *store.Store, c clock.Clock, opts ...Option) *Engine {
	e := &Engine{store: s, clock: c}
	for _, opt := range opts {
		opt(e)
	}
	e.tokens = token.NewAuthority(supplyObserver{e})
	return e
}

// execute runs fn as a single transition. Hooks registered through
// afterCommit run only when the transition commits.
func (e *Engine) execute(ctx context.Context, op string, fn func(tx *store.Tx, now clock.Timestamp) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCommit = e.onCommit[:0]

	now := e.clock.Now()
	err := e.store.Update(func(tx *store.Tx) error {
		return fn(tx, now)
	})
	e.metrics.Operation(op, err)
	if err != nil {
		log.Ledger.Debug().Str("op", op).Str("kind", Kind(err).String()).Err(err).Msg("transition rejected")
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, hook := range e.onCommit {
		hook()
	}
	e.onCommit = e.onCommit[:0]
	return nil
}

func (e *Engine) afterCommit(hook func()) {
	e.onCommit = append(e.onCommit, hook)
}

// supplyObserver defers token metrics until the transition commits.
type supplyObserver struct {
	e *Engine
}

func (o supplyObserver) Minted(class state.TokenClass, _ token.Holder, amount uint64) {
	o.e.afterCommit(func() { o.e.metrics.Minted(ClassName(class), amount) })
}

func (o supplyObserver) Burned(class state.TokenClass, _ token.Holder, amount uint64) {
	o.e.afterCommit(func() { o.e.metrics.Burned(ClassName(class), amount) })
}

// load reads a record, turning store.ErrNotFound into missing.
func load[T any](r store.Reader, ns address.Namespace, key address.Key, missing error) (T, error) {
	v, err := store.Load[T](r, ns, key)
	if errors.Is(err, store.ErrNotFound) {
		return v, missing
	}
	return v, err
}

// create writes a new record, turning store.ErrExists into exists.
func create(tx *store.Tx, ns address.Namespace, key address.Key, v any, exists error) error {
	err := tx.Create(ns, key, v)
	if errors.Is(err, store.ErrExists) {
		return exists
	}
	return err
}

func loadRegistry(r store.Reader) (state.Registry, error) {
	return load[state.Registry](r, address.Registry, registryKey, ErrRegistryNotFound)
}

func loadTopic(r store.Reader, index uint64) (state.Topic, error) {
	t, err := load[state.Topic](r, address.Topic, TopicAddress(index), ErrTopicNotFound)
	if err != nil {
		return t, fmt.Errorf("topic %d: %w", index, err)
	}
	return t, nil
}

func loadLink(r store.Reader, ref LinkRef) (state.TopicLink, error) {
	return load[state.TopicLink](r, address.Link, ref.Key(), ErrLinkNotFound)
}

// loadBalance returns a zero balance when the participant holds nothing in topic.
func loadBalance(r store.Reader, participant crypto.Identity, topic uint64) (state.Balance, error) {
	b, err := store.Load[state.Balance](r, address.Balance, BalanceAddress(participant, topic))
	if errors.Is(err, store.ErrNotFound) {
		return state.Balance{}, nil
	}
	return b, err
}
