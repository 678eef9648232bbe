package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v68/github"
	"github.com/pscheid92/ballotbot/internal/domain"
)

var _ domain.Forge = (*Client)(nil)

// ListOpenProposals returns one page of open pull requests, oldest first.
func (c *Client) ListOpenProposals(ctx context.Context, page, perPage int) ([]domain.Proposal, error) {
	opts := &gh.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: listOptions(page, perPage),
	}
	pulls, err := call(ctx, c, "list_pulls", func(ctx context.Context) ([]*gh.PullRequest, *gh.Response, error) {
		return c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
	})
	if err != nil {
		return nil, err
	}

	proposals := make([]domain.Proposal, 0, len(pulls))
	for _, pr := range pulls {
		proposals = append(proposals, proposalFrom(pr))
	}
	return proposals, nil
}

// ListComments returns one page of a pull request's conversation comments,
// in posting order.
func (c *Client) ListComments(ctx context.Context, number, page, perPage int) ([]domain.Comment, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: listOptions(page, perPage)}
	raw, err := call(ctx, c, "list_comments", func(ctx context.Context) ([]*gh.IssueComment, *gh.Response, error) {
		return c.gh.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
	})
	if err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(raw))
	for _, ic := range raw {
		comments = append(comments, commentFrom(ic))
	}
	return comments, nil
}

// ListEndorsers returns one page of the repository's stargazers.
func (c *Client) ListEndorsers(ctx context.Context, page, perPage int) ([]string, error) {
	opts := listOptions(page, perPage)
	stargazers, err := call(ctx, c, "list_stargazers", func(ctx context.Context) ([]*gh.Stargazer, *gh.Response, error) {
		return c.gh.Activity.ListStargazers(ctx, c.owner, c.repo, &opts)
	})
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(stargazers))
	for _, s := range stargazers {
		if login := s.GetUser().GetLogin(); login != "" {
			logins = append(logins, login)
		}
	}
	return logins, nil
}

func (c *Client) getPull(ctx context.Context, number int) (*gh.PullRequest, error) {
	pr, err := call(ctx, c, "get_pull", func(ctx context.Context) (*gh.PullRequest, *gh.Response, error) {
		return c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	})
	if statusCode(err) == http.StatusNotFound {
		return nil, fmt.Errorf("#%d: %w", number, domain.ErrUnknownProposal)
	}
	return pr, err
}

func (c *Client) GetProposal(ctx context.Context, number int) (domain.Proposal, error) {
	pr, err := c.getPull(ctx, number)
	if err != nil {
		return domain.Proposal{}, err
	}
	return proposalFrom(pr), nil
}

func (c *Client) CreateComment(ctx context.Context, number int, body string) (domain.Comment, error) {
	created, err := call(ctx, c, "create_comment", func(ctx context.Context) (*gh.IssueComment, *gh.Response, error) {
		return c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &gh.IssueComment{Body: gh.Ptr(body)})
	})
	if err != nil {
		return domain.Comment{}, err
	}
	return commentFrom(created), nil
}

func (c *Client) CloseProposal(ctx context.Context, number int) error {
	_, err := call(ctx, c, "close_pull", func(ctx context.Context) (*gh.PullRequest, *gh.Response, error) {
		return c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, &gh.PullRequest{State: gh.Ptr("closed")})
	})
	return err
}

// Mergeability fetches the pull request and reads its nullable mergeable flag.
func (c *Client) Mergeability(ctx context.Context, number int) (domain.Mergeability, error) {
	pr, err := c.getPull(ctx, number)
	if err != nil {
		return domain.MergeabilityUnknown, err
	}
	m := mergeabilityOf(pr)
	if m == domain.MergeabilityConflict {
		slog.DebugContext(ctx, "Pull request not mergeable", "proposal", number, "mergeable_state", pr.GetMergeableState())
	}
	return m, nil
}

func (c *Client) MergeProposal(ctx context.Context, number int) error {
	result, err := call(ctx, c, "merge_pull", func(ctx context.Context) (*gh.PullRequestMergeResult, *gh.Response, error) {
		return c.gh.PullRequests.Merge(ctx, c.owner, c.repo, number, "", &gh.PullRequestOptions{MergeMethod: "merge"})
	})
	if err != nil {
		return err
	}
	if !result.GetMerged() {
		return fmt.Errorf("github: merge of #%d not performed: %s", number, result.GetMessage())
	}
	return nil
}

func proposalFrom(pr *gh.PullRequest) domain.Proposal {
	return domain.Proposal{
		Number:    pr.GetNumber(),
		Author:    pr.GetUser().GetLogin(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		HeadSHA:   pr.GetHead().GetSHA(),
		URL:       pr.GetHTMLURL(),
		CreatedAt: pr.GetCreatedAt().Time,
		Open:      pr.GetState() == "open",
	}
}

func commentFrom(ic *gh.IssueComment) domain.Comment {
	return domain.Comment{ID: ic.GetID(), Author: ic.GetUser().GetLogin(), Body: ic.GetBody()}
}

func mergeabilityOf(pr *gh.PullRequest) domain.Mergeability {
	switch {
	case pr.Mergeable == nil:
		return domain.MergeabilityUnknown
	case *pr.Mergeable:
		return domain.MergeabilityClean
	default:
		return domain.MergeabilityConflict
	}
}
