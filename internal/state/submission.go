package state

import (
	"fmt"

	"github.com/eigerco/curator/internal/clock"
	"github.com/eigerco/curator/internal/crypto"
)

// Submission is immutable once created. Only the locator of the data is kept.
type Submission struct {
	Contributor   crypto.Identity
	Timestamp     clock.Timestamp
	DataReference string
}

type Status uint8

const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// PhaseWindow is the four timestamps bounding a link's vote.
type PhaseWindow struct {
	CommitStart clock.Timestamp
	CommitEnd   clock.Timestamp
	RevealStart clock.Timestamp
	RevealEnd   clock.Timestamp
}

// NewPhaseWindow starts the commit phase at now and chains the reveal phase
// directly after it.
func NewPhaseWindow(now clock.Timestamp, commitDuration, revealDuration int64) PhaseWindow {
	commitEnd := now + clock.Timestamp(commitDuration)
	return PhaseWindow{
		CommitStart: now,
		CommitEnd:   commitEnd,
		RevealStart: commitEnd,
		RevealEnd:   commitEnd + clock.Timestamp(revealDuration),
	}
}

// Ordered reports whether start ≤ end for each phase and commit ends no later
// than reveal starts.
func (w PhaseWindow) Ordered() bool {
	return w.CommitStart <= w.CommitEnd && w.CommitEnd <= w.RevealStart && w.RevealStart <= w.RevealEnd
}

// TopicLink is the voting context for one submission inside one topic.
type TopicLink struct {
	Status Status
	PhaseWindow
	YesPower       uint64
	NoPower        uint64
	TotalCommitted uint64
	TotalRevealed  uint64
}

// InCommitPhase reports now ∈ [CommitStart, CommitEnd).
func (l TopicLink) InCommitPhase(now clock.Timestamp) bool {
	return now >= l.CommitStart && now < l.CommitEnd
}

// InRevealPhase reports now ∈ [RevealStart, RevealEnd).
func (l TopicLink) InRevealPhase(now clock.Timestamp) bool {
	return now >= l.RevealStart && now < l.RevealEnd
}

// RevealClosed reports now ≥ RevealEnd.
func (l TopicLink) RevealClosed(now clock.Timestamp) bool {
	return now >= l.RevealEnd
}

// Outcome applies the decision rule: accepted only on a strict yes majority,
// so a tie is rejected.
func (l TopicLink) Outcome() Status {
	if l.YesPower > l.NoPower {
		return StatusAccepted
	}
	return StatusRejected
}
