package protocol

import (
	"context"
	"errors"
)

// Phase violations
var (
	ErrOutsideCommitPhase = errors.New("not within the commit phase")
	ErrOutsideRevealPhase = errors.New("not within the reveal phase")
	ErrRevealNotEnded     = errors.New("reveal phase has not ended")
)

// State violations
var (
	ErrRegistryExists   = errors.New("registry already initialized")
	ErrProfileExists    = errors.New("profile already exists")
	ErrSubmissionExists = errors.New("submission already exists")
	ErrLinkExists       = errors.New("submission already linked to topic")
	ErrAlreadyCommitted = errors.New("vote already committed")
	ErrAlreadyRevealed  = errors.New("vote already revealed")
	ErrNotRevealed      = errors.New("vote not revealed")
	ErrVoteFinalized    = errors.New("vote already finalized")
	ErrLinkFinalized    = errors.New("link already finalized")
	ErrLinkPending      = errors.New("link not finalized")
	ErrTopicInactive    = errors.New("topic is inactive")
	ErrSubmissionIndex  = errors.New("submission index does not match profile submission count")
)

// Authorization violations
var (
	ErrUnauthorized = errors.New("caller is not authorized")
	ErrSelfVote     = errors.New("contributor cannot vote on own submission")
)

// Integrity violations
var (
	ErrHashMismatch = errors.New("revealed vote does not match commitment")
)

// Balance violations
var (
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Missing records
var (
	ErrRegistryNotFound   = errors.New("registry not initialized")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrBalanceNotFound    = errors.New("balance not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrLinkNotFound       = errors.New("link not found")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrEscrowNotFound     = errors.New("escrow not found")
)

// Invalid arguments
var (
	ErrInvalidAuthority     = errors.New("authority must be set")
	ErrInvalidName          = errors.New("topic name must be 1 to 64 bytes")
	ErrInvalidDescription   = errors.New("topic description must be at most 256 bytes")
	ErrInvalidDataReference = errors.New("data reference must be 1 to 256 bytes")
	ErrInvalidDuration      = errors.New("duration must be a positive whole number of seconds")
	ErrInvalidIssuance      = errors.New("issuance amount must be greater than zero")
	ErrInvalidChoice        = errors.New("invalid vote choice")
	ErrInvalidPhaseWindow   = errors.New("phase window timestamps are out of order")
)

// Broken ledger invariants. Seeing one of these means stored state is corrupt.
var (
	ErrLockedUnderflow = errors.New("locked reputation below committed amount")
	ErrEscrowSettled   = errors.New("escrow already settled")
)

type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindPhase
	KindState
	KindAuthorization
	KindIntegrity
	KindBalance
	KindNotFound
	KindInvalidArgument
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindPhase:
		return "phase"
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindIntegrity:
		return "integrity"
	case KindBalance:
		return "balance"
	case KindNotFound:
		return "not-found"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

var kinds = []struct {
	kind ErrorKind
	errs []error
}{
	{KindPhase, []error{ErrOutsideCommitPhase, ErrOutsideRevealPhase, ErrRevealNotEnded}},
	{KindState, []error{
		ErrRegistryExists, ErrProfileExists, ErrSubmissionExists, ErrLinkExists,
		ErrAlreadyCommitted, ErrAlreadyRevealed, ErrNotRevealed, ErrVoteFinalized,
		ErrLinkFinalized, ErrLinkPending, ErrTopicInactive, ErrSubmissionIndex,
	}},
	{KindAuthorization, []error{ErrUnauthorized, ErrSelfVote}},
	{KindIntegrity, []error{ErrHashMismatch}},
	{KindBalance, []error{ErrZeroAmount, ErrInsufficientBalance}},
	{KindNotFound, []error{
		ErrRegistryNotFound, ErrTopicNotFound, ErrProfileNotFound, ErrBalanceNotFound,
		ErrSubmissionNotFound, ErrLinkNotFound, ErrVoteNotFound, ErrEscrowNotFound,
	}},
	{KindInvalidArgument, []error{
		ErrInvalidAuthority, ErrInvalidName, ErrInvalidDescription, ErrInvalidDataReference,
		ErrInvalidDuration, ErrInvalidIssuance, ErrInvalidChoice, ErrInvalidPhaseWindow,
	}},
	{KindCanceled, []error{context.Canceled, context.DeadlineExceeded}},
}

// Kind classifies an error returned by the Engine. Errors that match no
// protocol sentinel are KindInternal.
func Kind(err error) ErrorKind {
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindInternal
}
