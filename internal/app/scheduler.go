package app

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/platform/correlation"
)

const (
	evaluationTimeout   = 2 * time.Minute
	leaseRenewInterval  = 10 * time.Second
	leaseReleaseTimeout = 5 * time.Second
)

// Leader is a lease shared by several instances; only the holder acts on
// proposals. Without one the scheduler always acts.
type Leader interface {
	TryAcquire(ctx context.Context) (bool, error)
	Renew(ctx context.Context) error
	Release(ctx context.Context) error
}

type SchedulerConfig struct {
	RefreshInterval    time.Duration
	EvaluationInterval time.Duration
	Leader             Leader // optional
}

// Scheduler turns timer ticks and push events into evaluations. Each
// evaluation runs in its own goroutine.
type Scheduler struct {
	endorsers  *EndorserIndex
	cache      *ProposalCache
	controller *Controller
	clock      clockwork.Clock
	cfg        SchedulerConfig

	leading atomic.Bool

	mu       sync.Mutex
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(endorsers *EndorserIndex, cache *ProposalCache, controller *Controller, clock clockwork.Clock, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		endorsers:  endorsers,
		cache:      cache,
		controller: controller,
		clock:      clock,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
	}
	s.leading.Store(cfg.Leader == nil)
	return s
}

// Run loads endorsers and proposals, then serves ticks until ctx is cancelled
// or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	initCtx := correlation.WithID(ctx, correlation.NewID())
	if s.cfg.Leader != nil {
		s.updateLease(initCtx)
	}
	if err := s.endorsers.Refresh(initCtx); err != nil {
		slog.WarnContext(initCtx, "Initial endorser refresh failed", "error", err)
	}
	s.refresh(initCtx)

	s.spawn(func() { s.endorsers.Run(ctx) })

	refreshTicker := s.clock.NewTicker(s.cfg.RefreshInterval)
	defer refreshTicker.Stop()
	sweepTicker := s.clock.NewTicker(s.cfg.EvaluationInterval)
	defer sweepTicker.Stop()

	var leaseC <-chan time.Time
	if s.cfg.Leader != nil {
		leaseTicker := s.clock.NewTicker(leaseRenewInterval)
		defer leaseTicker.Stop()
		leaseC = leaseTicker.Chan()
	}

	slog.InfoContext(ctx, "Scheduler started", "refresh_interval", s.cfg.RefreshInterval, "evaluation_interval", s.cfg.EvaluationInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshTicker.Chan():
			s.refresh(correlation.WithID(ctx, correlation.NewID()))
		case <-sweepTicker.Chan():
			s.sweep(correlation.WithID(ctx, correlation.NewID()))
		case <-leaseC:
			s.updateLease(ctx)
		}
	}
}

// HandleEvent applies a push event and evaluates the affected proposal in the
// background.
func (s *Scheduler) HandleEvent(ctx context.Context, ev domain.Event) {
	number, err := s.cache.ApplyEvent(ev)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProposal) {
			slog.WarnContext(ctx, "Event for uncached proposal, waiting for next refresh", "event", ev.Kind.String(), "proposal", ev.Number)
			return
		}
		slog.ErrorContext(ctx, "Failed to apply event", "event", ev.Kind.String(), "proposal", ev.Number, "error", err)
		return
	}
	s.dispatch(ctx, number)
}

func (s *Scheduler) refresh(ctx context.Context) {
	proposals, err := s.cache.FullRefresh(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Proposal refresh failed", "error", err)
		return
	}
	for _, p := range proposals {
		if p.Active() {
			s.dispatch(ctx, p.Number)
		}
	}
}

// sweep re-evaluates every active proposal so expired windows are noticed
// without new activity.
func (s *Scheduler) sweep(ctx context.Context) {
	for _, p := range s.cache.List() {
		if p.Active() {
			s.dispatch(ctx, p.Number)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, number int) {
	if !s.leading.Load() {
		return
	}

	evalCtx := correlation.Ensure(context.WithoutCancel(ctx))
	s.spawn(func() {
		ctx, cancel := context.WithTimeout(evalCtx, evaluationTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "Evaluation panicked", "proposal", number, "panic", r, "stack", string(debug.Stack()))
			}
		}()

		err := s.controller.Evaluate(ctx, number)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnmergeable):
			slog.WarnContext(ctx, "Proposal could not be merged", "proposal", number)
		default:
			slog.ErrorContext(ctx, "Evaluation failed", "proposal", number, "error", err)
		}
	})
}

// spawn starts fn unless the scheduler is stopping.
func (s *Scheduler) spawn(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.wg.Go(fn)
	}
}

func (s *Scheduler) updateLease(ctx context.Context) {
	if s.leading.Load() {
		if err := s.cfg.Leader.Renew(ctx); err != nil {
			s.leading.Store(false)
			slog.WarnContext(ctx, "Lost leadership", "error", err)
		}
		return
	}

	acquired, err := s.cfg.Leader.TryAcquire(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Leader election failed", "error", err)
		return
	}
	if acquired {
		s.leading.Store(true)
		slog.InfoContext(ctx, "Acquired leadership")
	}
}

// Leading reports whether this instance acts on proposals.
func (s *Scheduler) Leading() bool {
	return s.leading.Load()
}

// Stop ends Run, waits for in-flight evaluations and cancels pending merge
// retries.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
	})
	s.wg.Wait()
	s.controller.Stop()

	if s.cfg.Leader != nil && s.leading.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), leaseReleaseTimeout)
		defer cancel()
		if err := s.cfg.Leader.Release(ctx); err != nil {
			slog.Warn("Failed to release leadership", "error", err)
		}
		s.leading.Store(false)
	}
}
