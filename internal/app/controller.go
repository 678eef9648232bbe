package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/platform/correlation"
	"github.com/pscheid92/ballotbot/internal/voting"
)

const (
	defaultMergeRetryDelay = 5 * time.Second
	mergeRetryTimeout      = 2 * time.Minute
)

// Evaluation outcomes, used as the metric label.
const (
	outcomeSkipped      = "skipped"
	outcomeCancelled    = "cancelled"
	outcomeAnnounced    = "announced"
	outcomeWaiting      = "waiting"
	outcomeUndecided    = "undecided"
	outcomeRetryPending = "retry_pending"
	outcomeClosed       = "closed"
	outcomeMerged       = "merged"
	outcomeError        = "error"
)

type ControllerConfig struct {
	Forge           domain.Forge
	Cache           *ProposalCache
	Endorsers       voting.EndorserChecker
	Engine          *voting.Engine
	Settings        voting.Settings
	Tallies         domain.TallyStore // optional
	Notifier        *Notifier         // optional
	Clock           clockwork.Clock
	Metrics         *metrics.VotingMetrics // optional
	MergeRetryDelay time.Duration
}

// Controller moves proposals through their lifecycle. Evaluations of one
// proposal are serialized; different proposals proceed concurrently. Every
// step first inspects the cached comments so nothing is posted twice.
type Controller struct {
	forge      domain.Forge
	cache      *ProposalCache
	endorsers  voting.EndorserChecker
	engine     *voting.Engine
	settings   voting.Settings
	tallies    domain.TallyStore
	notifier   *Notifier
	clock      clockwork.Clock
	metrics    *metrics.VotingMetrics
	retryDelay time.Duration

	locksMu sync.Mutex
	locks   map[int]*sync.Mutex

	pendingMu sync.Mutex
	pending   map[int]clockwork.Timer
	stopped   bool
	retries   sync.WaitGroup
}

func NewController(cfg ControllerConfig) *Controller {
	delay := cfg.MergeRetryDelay
	if delay <= 0 {
		delay = defaultMergeRetryDelay
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		forge:      cfg.Forge,
		cache:      cfg.Cache,
		endorsers:  cfg.Endorsers,
		engine:     cfg.Engine,
		settings:   cfg.Settings,
		tallies:    cfg.Tallies,
		notifier:   cfg.Notifier,
		clock:      clock,
		metrics:    cfg.Metrics,
		retryDelay: delay,
		locks:      make(map[int]*sync.Mutex),
		pending:    make(map[int]clockwork.Timer),
	}
}

// Evaluate runs one lifecycle step for a proposal. A proposal that is unknown,
// closed or already decided is left alone.
func (c *Controller) Evaluate(ctx context.Context, number int) error {
	unlock := c.lock(number)
	defer unlock()

	start := c.clock.Now()
	outcome, err := c.evaluate(ctx, number)
	if err != nil && !errors.Is(err, domain.ErrUnmergeable) {
		outcome = outcomeError
	}
	if c.metrics != nil {
		c.metrics.Evaluations.WithLabelValues(outcome).Inc()
		c.metrics.EvaluationDuration.Observe(c.clock.Since(start).Seconds())
	}
	return err
}

func (c *Controller) evaluate(ctx context.Context, number int) (string, error) {
	p, ok := c.cache.Get(number)
	if !ok || p.State.Terminal() {
		return outcomeSkipped, nil
	}
	if !p.Open {
		_ = c.advance(ctx, p, domain.StateClosed)
		return outcomeCancelled, nil
	}

	if p.State < domain.StateVotingAnnounced {
		announced, err := c.announce(ctx, p)
		if err != nil {
			return outcomeError, err
		}
		if p, ok = c.cache.Get(number); !ok {
			return outcomeSkipped, nil
		}
		if announced && c.clock.Since(p.CreatedAt) < p.Window {
			return outcomeAnnounced, nil
		}
	}

	if modified, err := c.checkModified(ctx, p); modified || err != nil {
		return outcomeClosed, err
	}

	if c.clock.Since(p.CreatedAt) < p.Window {
		return outcomeWaiting, nil
	}
	if c.retryPending(number) {
		return outcomeRetryPending, nil
	}

	if p.State < domain.StateAwaitingQuorum {
		if err := c.advance(ctx, p, domain.StateAwaitingQuorum); err != nil {
			return outcomeError, err
		}
	}

	return c.decide(ctx, p)
}

// announce posts the voting-started marker unless the bot already did so
// before a restart. It reports whether a new marker was posted.
func (c *Controller) announce(ctx context.Context, p domain.Proposal) (bool, error) {
	if _, found := voting.FindMarker(p.Comments, c.engine.IsBot); !found {
		synced, err := c.syncComments(ctx, p.Number)
		if err != nil {
			return false, err
		}
		p = synced
	}
	if _, found := voting.FindMarker(p.Comments, c.engine.IsBot); found {
		slog.InfoContext(ctx, "Recovered voting marker", "proposal", p.Number)
		return false, c.advance(ctx, p, domain.StateVotingAnnounced)
	}

	marker, err := c.forge.CreateComment(ctx, p.Number, voting.StartedComment(c.settings, p.HeadSHA))
	if err != nil {
		return false, fmt.Errorf("posting voting marker on #%d: %w", p.Number, err)
	}
	c.record(ctx, p.Number, marker)
	if err := c.advance(ctx, p, domain.StateVotingAnnounced); err != nil {
		return true, err
	}
	slog.InfoContext(ctx, "Voting started", "proposal", p.Number, "head", p.HeadSHA, "deadline", p.Deadline())

	if positive, ok := c.engine.SystemVote(p); ok {
		vote, err := c.forge.CreateComment(ctx, p.Number, voting.SentimentVote(positive))
		if err != nil {
			slog.WarnContext(ctx, "Failed to post sentiment vote", "proposal", p.Number, "error", err)
		} else {
			c.record(ctx, p.Number, vote)
		}
	}

	c.notifier.Notify(ctx, domain.AnnouncementVoteStarted, p)
	return true, nil
}

// syncComments reloads a proposal's comments from the forge. The cache can
// miss an earlier marker when the proposal entered it through a webhook.
func (c *Controller) syncComments(ctx context.Context, number int) (domain.Proposal, error) {
	comments, err := collectPages(ctx, pageSize, func(ctx context.Context, page, perPage int) ([]domain.Comment, error) {
		return c.forge.ListComments(ctx, number, page, perPage)
	})
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("listing comments of #%d: %w", number, err)
	}
	if err := c.cache.MergeComments(number, comments); err != nil {
		return domain.Proposal{}, err
	}
	p, ok := c.cache.Get(number)
	if !ok {
		return domain.Proposal{}, fmt.Errorf("#%d: %w", number, domain.ErrUnknownProposal)
	}
	return p, nil
}

// checkModified closes a proposal whose head moved after the marker was posted.
func (c *Controller) checkModified(ctx context.Context, p domain.Proposal) (bool, error) {
	markerSHA, found := voting.FindMarker(p.Comments, c.engine.IsBot)
	if !found || markerSHA == p.HeadSHA {
		return false, nil
	}

	slog.InfoContext(ctx, "Proposal modified after voting started", "proposal", p.Number, "marker", markerSHA, "head", p.HeadSHA)
	if !voting.HasComment(p.Comments, c.engine.IsBot, voting.KindModified) {
		warning, err := c.forge.CreateComment(ctx, p.Number, voting.ModifiedWarning())
		if err != nil {
			return true, fmt.Errorf("posting modification warning on #%d: %w", p.Number, err)
		}
		c.record(ctx, p.Number, warning)
	}
	return true, c.close(ctx, p, domain.StateModified)
}

func (c *Controller) decide(ctx context.Context, p domain.Proposal) (string, error) {
	tally := c.engine.Tally(p, c.endorsers)
	decided, pass := c.settings.Decide(tally)
	c.saveTally(ctx, p.Number, tally, decided, pass)

	recorded, found := voting.FindVerdict(p.Comments, c.engine.IsBot)
	switch {
	case found:
		pass = recorded
		slog.InfoContext(ctx, "Resuming recorded verdict", "proposal", p.Number, "pass", pass)
	case !decided:
		slog.DebugContext(ctx, "Quorum not reached", "proposal", p.Number, "votes", tally.Total, "required", c.settings.MinVotes)
		return outcomeUndecided, nil
	default:
		verdict, err := c.forge.CreateComment(ctx, p.Number, voting.VerdictComment(pass, tally))
		if err != nil {
			return outcomeError, fmt.Errorf("posting verdict on #%d: %w", p.Number, err)
		}
		c.record(ctx, p.Number, verdict)
		if c.metrics != nil {
			c.metrics.Decisions.WithLabelValues(verdictLabel(pass)).Inc()
		}
		slog.InfoContext(ctx, "Vote decided", "proposal", p.Number, "pass", pass,
			"positive", tally.Positive, "negative", tally.Negative, "non_endorsed", len(tally.NonEndorsed))
	}

	if !pass {
		if err := c.close(ctx, p, domain.StateClosedFailed); err != nil {
			return outcomeError, err
		}
		return outcomeClosed, nil
	}
	return c.merge(ctx, p)
}

// merge attempts to merge a passed proposal. While GitHub is still computing
// mergeability the attempt is rescheduled and the call returns immediately.
func (c *Controller) merge(ctx context.Context, p domain.Proposal) (string, error) {
	mergeability, err := c.forge.Mergeability(ctx, p.Number)
	if err != nil {
		return outcomeError, fmt.Errorf("checking mergeability of #%d: %w", p.Number, err)
	}

	switch mergeability {
	case domain.MergeabilityUnknown:
		c.scheduleMergeRetry(ctx, p.Number)
		return outcomeRetryPending, nil

	case domain.MergeabilityConflict:
		if !voting.HasComment(p.Comments, c.engine.IsBot, voting.KindUnmergeable) {
			warning, err := c.forge.CreateComment(ctx, p.Number, voting.UnmergeableWarning())
			if err != nil {
				return outcomeError, fmt.Errorf("posting unmergeable warning on #%d: %w", p.Number, err)
			}
			c.record(ctx, p.Number, warning)
		}
		if err := c.close(ctx, p, domain.StateClosedUnmergeable); err != nil {
			return outcomeError, err
		}
		return outcomeClosed, fmt.Errorf("#%d: %w", p.Number, domain.ErrUnmergeable)

	default:
		if err := c.forge.MergeProposal(ctx, p.Number); err != nil {
			return outcomeError, fmt.Errorf("merging #%d: %w", p.Number, err)
		}
		_ = c.cache.MarkClosed(p.Number)
		if err := c.advance(ctx, p, domain.StateMerged); err != nil {
			return outcomeError, err
		}
		c.notifier.Notify(ctx, domain.AnnouncementMerged, p)
		return outcomeMerged, nil
	}
}

func (c *Controller) close(ctx context.Context, p domain.Proposal, state domain.State) error {
	if err := c.forge.CloseProposal(ctx, p.Number); err != nil {
		return fmt.Errorf("closing #%d: %w", p.Number, err)
	}
	_ = c.cache.MarkClosed(p.Number)
	if err := c.advance(ctx, p, state); err != nil {
		return err
	}
	c.notifier.Notify(ctx, domain.AnnouncementClosed, p)
	return nil
}

func (c *Controller) scheduleMergeRetry(ctx context.Context, number int) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if c.stopped {
		return
	}
	if _, ok := c.pending[number]; ok {
		return
	}

	id, _ := correlation.ID(ctx)
	c.pending[number] = c.clock.AfterFunc(c.retryDelay, func() { c.retryMerge(id, number) })
	if c.metrics != nil {
		c.metrics.MergeRetries.Inc()
	}
	slog.InfoContext(ctx, "Mergeability unknown, retrying later", "proposal", number, "delay", c.retryDelay)
}

func (c *Controller) retryMerge(correlationID string, number int) {
	c.pendingMu.Lock()
	if c.stopped {
		c.pendingMu.Unlock()
		return
	}
	delete(c.pending, number)
	c.retries.Add(1)
	c.pendingMu.Unlock()
	defer c.retries.Done()

	ctx, cancel := context.WithTimeout(context.Background(), mergeRetryTimeout)
	defer cancel()
	if correlationID == "" {
		correlationID = correlation.NewID()
	}
	ctx = correlation.WithID(ctx, correlationID)

	unlock := c.lock(number)
	defer unlock()

	p, ok := c.cache.Get(number)
	if !ok || p.State != domain.StateAwaitingQuorum {
		return
	}
	if !p.Open {
		_ = c.advance(ctx, p, domain.StateClosed)
		return
	}
	if modified, err := c.checkModified(ctx, p); modified || err != nil {
		if err != nil {
			slog.ErrorContext(ctx, "Merge retry failed", "proposal", number, "error", err)
		}
		return
	}

	outcome, err := c.merge(ctx, p)
	switch {
	case errors.Is(err, domain.ErrUnmergeable):
		slog.WarnContext(ctx, "Proposal could not be merged", "proposal", number)
	case err != nil:
		slog.ErrorContext(ctx, "Merge retry failed", "proposal", number, "error", err)
	default:
		slog.DebugContext(ctx, "Merge retry finished", "proposal", number, "outcome", outcome)
	}
}

func (c *Controller) retryPending(number int) bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	_, ok := c.pending[number]
	return ok
}

// Stop cancels pending merge retries and waits for running ones.
func (c *Controller) Stop() {
	c.pendingMu.Lock()
	c.stopped = true
	for number, timer := range c.pending {
		timer.Stop()
		delete(c.pending, number)
	}
	c.pendingMu.Unlock()
	c.retries.Wait()
}

func (c *Controller) advance(ctx context.Context, p domain.Proposal, state domain.State) error {
	if err := c.cache.Advance(p.Number, state); err != nil {
		slog.ErrorContext(ctx, "State transition rejected", "proposal", p.Number, "to", state.String(), "error", err)
		return err
	}
	if c.metrics != nil {
		c.metrics.Transitions.WithLabelValues(state.String()).Inc()
	}
	slog.InfoContext(ctx, "Proposal state changed", "proposal", p.Number, "state", state.String())
	return nil
}

// record adds a bot comment to the cache so later steps see it without a
// refresh.
func (c *Controller) record(ctx context.Context, number int, comment domain.Comment) {
	if err := c.cache.AppendComment(number, comment); err != nil {
		slog.WarnContext(ctx, "Failed to cache posted comment", "proposal", number, "error", err)
	}
}

func (c *Controller) saveTally(ctx context.Context, number int, tally domain.Tally, decided, pass bool) {
	if c.tallies == nil {
		return
	}
	snap := domain.TallySnapshot{
		Number:     number,
		Tally:      tally,
		Decided:    decided,
		Pass:       pass,
		ComputedAt: c.clock.Now(),
	}
	if err := c.tallies.SaveTally(ctx, snap); err != nil {
		slog.WarnContext(ctx, "Failed to store tally", "proposal", number, "error", err)
	}
}

func (c *Controller) lock(number int) func() {
	c.locksMu.Lock()
	m, ok := c.locks[number]
	if !ok {
		m = &sync.Mutex{}
		c.locks[number] = m
	}
	c.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

func verdictLabel(pass bool) string {
	if pass {
		return "pass"
	}
	return "fail"
}
