package app

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_SendsAnnouncement(t *testing.T) {
	announcer := &recordingAnnouncer{}
	clock := clockwork.NewFakeClockAt(testStart)
	m := metrics.NewVotingMetrics(prometheus.NewRegistry())
	n := NewNotifier(announcer, clock, m)

	n.Notify(context.Background(), domain.AnnouncementMerged, domain.Proposal{
		Number: 4,
		Title:  "Add logo",
		URL:    "https://github.com/octo/democracy/pull/4",
	})
	n.Wait()

	announcer.mu.Lock()
	defer announcer.mu.Unlock()
	require.Len(t, announcer.items, 1)
	a := announcer.items[0]
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.AnnouncementMerged, a.Kind)
	assert.Equal(t, 4, a.Number)
	assert.Equal(t, testStart, a.At)
	assert.Equal(t, "Pull request #4 merged: Add logo https://github.com/octo/democracy/pull/4", a.Text)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Announcements.WithLabelValues("merged", "ok")), 0)
}

func TestNotifier_FailuresAreCountedNotReturned(t *testing.T) {
	announcer := &recordingAnnouncer{err: errForge}
	m := metrics.NewVotingMetrics(prometheus.NewRegistry())
	n := NewNotifier(announcer, clockwork.NewFakeClock(), m)

	n.Notify(context.Background(), domain.AnnouncementClosed, domain.Proposal{Number: 1})
	n.Wait()

	assert.InDelta(t, 1, testutil.ToFloat64(m.Announcements.WithLabelValues("closed", "error")), 0)
}

func TestNotifier_SurvivesCancelledCaller(t *testing.T) {
	announcer := &recordingAnnouncer{}
	n := NewNotifier(announcer, clockwork.NewFakeClock(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, domain.AnnouncementVoteStarted, domain.Proposal{Number: 1})
	cancel()
	n.Wait()

	assert.Equal(t, []domain.AnnouncementKind{domain.AnnouncementVoteStarted}, announcer.kinds())
}

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	n.Notify(context.Background(), domain.AnnouncementClosed, domain.Proposal{})
	n.Wait()

	NewNotifier(nil, clockwork.NewFakeClock(), nil).Notify(context.Background(), domain.AnnouncementClosed, domain.Proposal{})
}

func TestAnnouncementText(t *testing.T) {
	p := domain.Proposal{Number: 2, Title: "Fix typo", URL: "u"}
	assert.Equal(t, "Voting started on #2: Fix typo u", announcementText(domain.AnnouncementVoteStarted, p))
	assert.Equal(t, "Pull request #2 closed: Fix typo u", announcementText(domain.AnnouncementClosed, p))
}
