package domain

import (
	"slices"
	"time"
)

// State is the lifecycle position of a proposal.
type State int

const (
	StateNew State = iota
	StateVotingAnnounced
	StateAwaitingQuorum
	StateModified
	StateMerged
	StateClosedFailed
	StateClosedUnmergeable
	// StateClosed marks a proposal closed by someone other than the bot.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateVotingAnnounced:
		return "voting_announced"
	case StateAwaitingQuorum:
		return "awaiting_quorum"
	case StateModified:
		return "modified"
	case StateMerged:
		return "merged"
	case StateClosedFailed:
		return "closed_failed"
	case StateClosedUnmergeable:
		return "closed_unmergeable"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s >= StateModified
}

func (s State) rank() int {
	switch {
	case s.Terminal():
		return 3
	default:
		return int(s)
	}
}

// CanAdvance reports whether moving from s to next keeps transitions
// monotonic. Re-entering the current state is allowed and is a no-op.
func (s State) CanAdvance(next State) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Comment is one issue comment on a proposal, in posting order.
type Comment struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Proposal is a pull request under vote.
type Proposal struct {
	Number    int           `json:"number"`
	Author    string        `json:"author"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	HeadSHA   string        `json:"head_sha"`
	URL       string        `json:"url"`
	CreatedAt time.Time     `json:"created_at"`
	Open      bool          `json:"open"`
	State     State         `json:"state"`
	Window    time.Duration `json:"window"`
	Comments  []Comment     `json:"-"`
}

// Clone returns a copy whose comment slice does not alias p's.
func (p Proposal) Clone() Proposal {
	p.Comments = slices.Clone(p.Comments)
	return p
}

// Deadline is the earliest time a verdict may be rendered.
func (p Proposal) Deadline() time.Time {
	return p.CreatedAt.Add(p.Window)
}

// Active reports whether the bot may still act on p.
func (p Proposal) Active() bool {
	return p.Open && !p.State.Terminal()
}

// Mergeability is GitHub's tri-state mergeable flag.
type Mergeability int

const (
	MergeabilityUnknown Mergeability = iota
	MergeabilityClean
	MergeabilityConflict
)

func (m Mergeability) String() string {
	switch m {
	case MergeabilityClean:
		return "mergeable"
	case MergeabilityConflict:
		return "conflict"
	default:
		return "unknown"
	}
}
