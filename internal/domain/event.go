package domain

// EventKind identifies a push notification relevant to the cache.
type EventKind int

const (
	EventProposalOpened EventKind = iota + 1
	EventProposalClosed
	EventProposalSynchronized
	EventCommentCreated
)

func (k EventKind) String() string {
	switch k {
	case EventProposalOpened:
		return "proposal_opened"
	case EventProposalClosed:
		return "proposal_closed"
	case EventProposalSynchronized:
		return "proposal_synchronized"
	case EventCommentCreated:
		return "comment_created"
	default:
		return "unknown"
	}
}

// Event is a translated push delivery. Proposal is set for the proposal
// kinds (only Number and HeadSHA matter for closed/synchronized), Comment
// for EventCommentCreated.
type Event struct {
	Kind     EventKind
	Number   int
	Proposal *Proposal
	Comment  *Comment
}
