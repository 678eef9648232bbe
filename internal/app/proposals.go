package app

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/voting"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const commentFetchConcurrency = 8

// ProposalCache is the bot's view of open pull requests and their comments.
// Lifecycle state and the voting window live only here and survive refreshes.
type ProposalCache struct {
	forge    domain.Forge
	settings voting.Settings
	metrics  *metrics.VotingMetrics
	random   func() float64

	refreshGroup singleflight.Group

	mu        sync.RWMutex
	proposals map[int]*domain.Proposal
}

func NewProposalCache(forge domain.Forge, settings voting.Settings, m *metrics.VotingMetrics) *ProposalCache {
	return &ProposalCache{
		forge:     forge,
		settings:  settings,
		metrics:   m,
		random:    rand.Float64,
		proposals: make(map[int]*domain.Proposal),
	}
}

// FullRefresh reloads every open proposal with its comments. Concurrent calls
// share one fetch.
func (c *ProposalCache) FullRefresh(ctx context.Context) ([]domain.Proposal, error) {
	_, err, _ := c.refreshGroup.Do("full", func() (any, error) {
		return nil, c.fullRefresh(ctx)
	})
	if err != nil {
		c.countRefresh("error")
		return nil, err
	}
	c.countRefresh("ok")
	return c.List(), nil
}

func (c *ProposalCache) fullRefresh(ctx context.Context) error {
	open, err := collectPages(ctx, pageSize, c.forge.ListOpenProposals)
	if err != nil {
		return fmt.Errorf("listing open proposals: %w", err)
	}

	comments := make([][]domain.Comment, len(open))
	fetched := make([]bool, len(open))

	var g errgroup.Group
	g.SetLimit(commentFetchConcurrency)
	for i, p := range open {
		g.Go(func() error {
			list, err := collectPages(ctx, pageSize, func(ctx context.Context, page, perPage int) ([]domain.Comment, error) {
				return c.forge.ListComments(ctx, p.Number, page, perPage)
			})
			if err != nil {
				slog.WarnContext(ctx, "Comment fetch failed, keeping cached proposal", "proposal", p.Number, "error", err)
				return nil
			}
			comments[i] = list
			fetched[i] = true
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int]struct{}, len(open))
	for i, p := range open {
		seen[p.Number] = struct{}{}
		existing := c.proposals[p.Number]

		if !fetched[i] {
			if existing != nil {
				existing.Open = true
			}
			continue
		}

		p.Open = true
		p.Comments = comments[i]
		if existing != nil {
			p.State = existing.State
			p.Window = existing.Window
			p.Comments = append(p.Comments, newerComments(existing.Comments, p.Comments)...)
		} else {
			p.State = domain.StateNew
			p.Window = c.settings.Window(c.random())
		}
		c.proposals[p.Number] = &p
	}

	for number, p := range c.proposals {
		if _, ok := seen[number]; !ok {
			p.Open = false
		}
	}

	c.updateGauge()
	slog.DebugContext(ctx, "Proposals refreshed", "open", len(open))
	return nil
}

// newerComments returns the cached comments posted after the newest fetched
// one. They were appended locally while the fetch was in flight.
func newerComments(cached, fetched []domain.Comment) []domain.Comment {
	var newest int64
	for _, c := range fetched {
		newest = max(newest, c.ID)
	}
	var extra []domain.Comment
	for _, c := range cached {
		if c.ID > newest {
			extra = append(extra, c)
		}
	}
	return extra
}

// ApplyEvent folds one push event into the cache and returns the proposal it
// concerns. Events for proposals the cache has not seen return
// domain.ErrUnknownProposal; the next full refresh picks them up.
func (c *ProposalCache) ApplyEvent(ev domain.Event) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.proposals[ev.Number]

	switch ev.Kind {
	case domain.EventProposalOpened:
		if ev.Proposal == nil {
			return ev.Number, fmt.Errorf("opened event for #%d carries no proposal", ev.Number)
		}
		if existing == nil {
			p := ev.Proposal.Clone()
			p.Number = ev.Number
			p.Open = true
			p.State = domain.StateNew
			p.Window = c.settings.Window(c.random())
			p.Comments = nil
			c.proposals[p.Number] = &p
		} else {
			existing.Author = ev.Proposal.Author
			existing.Title = ev.Proposal.Title
			existing.Body = ev.Proposal.Body
			existing.HeadSHA = ev.Proposal.HeadSHA
			existing.URL = ev.Proposal.URL
			existing.Open = true
		}
		c.updateGauge()

	case domain.EventProposalClosed:
		if existing == nil {
			return ev.Number, fmt.Errorf("closing #%d: %w", ev.Number, domain.ErrUnknownProposal)
		}
		existing.Open = false
		c.updateGauge()

	case domain.EventProposalSynchronized:
		if existing == nil {
			return ev.Number, fmt.Errorf("synchronizing #%d: %w", ev.Number, domain.ErrUnknownProposal)
		}
		if ev.Proposal != nil && ev.Proposal.HeadSHA != "" {
			existing.HeadSHA = ev.Proposal.HeadSHA
		}

	case domain.EventCommentCreated:
		if existing == nil {
			return ev.Number, fmt.Errorf("comment on #%d: %w", ev.Number, domain.ErrUnknownProposal)
		}
		if ev.Comment == nil {
			return ev.Number, fmt.Errorf("comment event for #%d carries no comment", ev.Number)
		}
		appendUnique(existing, *ev.Comment)

	default:
		return ev.Number, fmt.Errorf("unsupported event kind %s", ev.Kind)
	}

	return ev.Number, nil
}

func (c *ProposalCache) Get(number int) (domain.Proposal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.proposals[number]
	if !ok {
		return domain.Proposal{}, false
	}
	return p.Clone(), true
}

// List returns every cached proposal, open or not, ordered by number.
func (c *ProposalCache) List() []domain.Proposal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Proposal, 0, len(c.proposals))
	for _, p := range c.proposals {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b domain.Proposal) int { return a.Number - b.Number })
	return out
}

// AppendComment records a comment the bot just posted.
func (c *ProposalCache) AppendComment(number int, comment domain.Comment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals[number]
	if !ok {
		return fmt.Errorf("appending comment to #%d: %w", number, domain.ErrUnknownProposal)
	}
	appendUnique(p, comment)
	return nil
}

// MergeComments folds comments fetched from the forge into a cached proposal,
// skipping ones already known, and keeps the list in posting order.
func (c *ProposalCache) MergeComments(number int, comments []domain.Comment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals[number]
	if !ok {
		return fmt.Errorf("merging comments into #%d: %w", number, domain.ErrUnknownProposal)
	}
	for _, comment := range comments {
		appendUnique(p, comment)
	}
	slices.SortStableFunc(p.Comments, func(a, b domain.Comment) int { return cmp.Compare(a.ID, b.ID) })
	return nil
}

// Advance moves a proposal forward in its lifecycle.
func (c *ProposalCache) Advance(number int, state domain.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals[number]
	if !ok {
		return fmt.Errorf("advancing #%d: %w", number, domain.ErrUnknownProposal)
	}
	if !p.State.CanAdvance(state) {
		return fmt.Errorf("#%d %s -> %s: %w", number, p.State, state, domain.ErrInvalidTransition)
	}
	p.State = state
	return nil
}

// MarkClosed records that the pull request is no longer open.
func (c *ProposalCache) MarkClosed(number int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.proposals[number]
	if !ok {
		return fmt.Errorf("closing #%d: %w", number, domain.ErrUnknownProposal)
	}
	p.Open = false
	c.updateGauge()
	return nil
}

func appendUnique(p *domain.Proposal, comment domain.Comment) {
	if comment.ID != 0 && slices.ContainsFunc(p.Comments, func(c domain.Comment) bool { return c.ID == comment.ID }) {
		return
	}
	p.Comments = append(p.Comments, comment)
}

// updateGauge must be called with c.mu held.
func (c *ProposalCache) updateGauge() {
	if c.metrics == nil {
		return
	}
	open := 0
	for _, p := range c.proposals {
		if p.Open {
			open++
		}
	}
	c.metrics.Proposals.Set(float64(open))
}

func (c *ProposalCache) countRefresh(result string) {
	if c.metrics != nil {
		c.metrics.Refreshes.WithLabelValues("proposals", result).Inc()
	}
}
