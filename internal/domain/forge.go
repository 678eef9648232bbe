package domain

import "context"

// Forge is the change-management backend. List calls are page based
// (1-indexed); callers keep fetching until a page shorter than perPage.
type Forge interface {
	ListOpenProposals(ctx context.Context, page, perPage int) ([]Proposal, error)
	ListComments(ctx context.Context, number, page, perPage int) ([]Comment, error)
	ListEndorsers(ctx context.Context, page, perPage int) ([]string, error)
	GetProposal(ctx context.Context, number int) (Proposal, error)

	CreateComment(ctx context.Context, number int, body string) (Comment, error)
	CloseProposal(ctx context.Context, number int) error
	Mergeability(ctx context.Context, number int) (Mergeability, error)
	MergeProposal(ctx context.Context, number int) error
}
