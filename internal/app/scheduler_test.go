package app

import (
	"context"
	"testing"
	"time"

	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/platform/correlation"
	"github.com/pscheid92/ballotbot/internal/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(h *harness, leader Leader) *Scheduler {
	return NewScheduler(h.endorsers, h.cache, h.ctrl, h.clock, SchedulerConfig{
		RefreshInterval:    30 * time.Minute,
		EvaluationInterval: time.Minute,
		Leader:             leader,
	})
}

func openedEvent(number int, createdAt time.Time) domain.Event {
	return domain.Event{
		Kind:   domain.EventProposalOpened,
		Number: number,
		Proposal: &domain.Proposal{
			Number:    number,
			Author:    "alice",
			Title:     "Add badge",
			HeadSHA:   "sha1",
			CreatedAt: createdAt,
			Open:      true,
		},
	}
}

func TestScheduler_HandleEventEvaluatesProposal(t *testing.T) {
	h := newHarness(t, nil)
	s := newTestScheduler(h, nil)
	t.Cleanup(s.Stop)

	s.HandleEvent(correlation.WithID(context.Background(), "delivery-1"), openedEvent(3, h.clock.Now()))

	assert.Eventually(t, func() bool { return h.countKind(3, voting.KindStarted) == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_CommentEventsDriveDecision(t *testing.T) {
	h := newHarness(t, nil)
	s := newTestScheduler(h, nil)
	t.Cleanup(s.Stop)
	ctx := context.Background()

	s.HandleEvent(ctx, openedEvent(3, h.clock.Now().Add(-10*time.Minute)))
	assert.Eventually(t, func() bool {
		p, ok := h.cache.Get(3)
		return ok && p.State == domain.StateAwaitingQuorum
	}, time.Second, 5*time.Millisecond)

	s.HandleEvent(ctx, domain.Event{Kind: domain.EventCommentCreated, Number: 3, Comment: &domain.Comment{ID: 1, Author: "bob", Body: ":+1:"}})
	s.HandleEvent(ctx, domain.Event{Kind: domain.EventCommentCreated, Number: 3, Comment: &domain.Comment{ID: 2, Author: "carol", Body: ":+1:"}})

	assert.Eventually(t, func() bool { return len(h.forge.getMerged()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.countKind(3, voting.KindPassed))
}

func TestScheduler_UnknownProposalEventIsDropped(t *testing.T) {
	h := newHarness(t, nil)
	s := newTestScheduler(h, nil)
	t.Cleanup(s.Stop)

	s.HandleEvent(context.Background(), domain.Event{Kind: domain.EventCommentCreated, Number: 9, Comment: &domain.Comment{ID: 1}})

	assert.Never(t, func() bool { return len(h.forge.botComments(9)) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_RunRefreshesAndSweeps(t *testing.T) {
	h := newHarness(t, nil)
	h.forge.addProposal(domain.Proposal{
		Number:    1,
		Author:    "alice",
		HeadSHA:   "sha1",
		CreatedAt: h.clock.Now(),
	}, vote(1, "bob", ":+1:"), vote(2, "carol", ":+1:"))
	s := newTestScheduler(h, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return h.countKind(1, voting.KindStarted) == 1 }, time.Second, 5*time.Millisecond)

	// refresh, sweep and endorser tickers
	require.NoError(t, h.clock.BlockUntilContext(ctx, 3))
	h.clock.Advance(5 * time.Minute)

	assert.Eventually(t, func() bool { return len(h.forge.getMerged()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	s.Stop()
}

func TestScheduler_FollowerDoesNotAct(t *testing.T) {
	h := newHarness(t, nil)
	leader := &fakeLeader{acquire: false}
	s := newTestScheduler(h, leader)
	t.Cleanup(s.Stop)

	assert.False(t, s.Leading())
	s.HandleEvent(context.Background(), openedEvent(3, h.clock.Now()))

	assert.Never(t, func() bool { return len(h.forge.botComments(3)) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
	_, cached := h.cache.Get(3)
	assert.True(t, cached)
}

func TestScheduler_LeaderLeaseLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	leader := &fakeLeader{acquire: true}
	s := newTestScheduler(h, leader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, s.Leading, time.Second, 5*time.Millisecond)

	leader.mu.Lock()
	leader.renewErr = errForge
	leader.mu.Unlock()

	// refresh, sweep, lease and endorser tickers
	require.NoError(t, h.clock.BlockUntilContext(ctx, 4))
	h.clock.Advance(leaseRenewInterval)
	assert.Eventually(t, func() bool { return !s.Leading() }, time.Second, 5*time.Millisecond)

	leader.mu.Lock()
	leader.renewErr = nil
	leader.mu.Unlock()
	h.clock.Advance(leaseRenewInterval)
	assert.Eventually(t, s.Leading, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	s.Stop()
	assert.True(t, leader.wasReleased())
	assert.False(t, s.Leading())
}
