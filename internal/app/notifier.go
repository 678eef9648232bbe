package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
)

const defaultAnnounceTimeout = 10 * time.Second

// Notifier sends announcements in the background. Delivery is best effort:
// failures are logged and counted, never returned.
type Notifier struct {
	announcer domain.Announcer
	clock     clockwork.Clock
	timeout   time.Duration
	metrics   *metrics.VotingMetrics
	wg        sync.WaitGroup
}

// NewNotifier returns a Notifier; a nil announcer makes Notify a no-op.
func NewNotifier(announcer domain.Announcer, clock clockwork.Clock, m *metrics.VotingMetrics) *Notifier {
	return &Notifier{
		announcer: announcer,
		clock:     clock,
		timeout:   defaultAnnounceTimeout,
		metrics:   m,
	}
}

func (n *Notifier) Notify(ctx context.Context, kind domain.AnnouncementKind, p domain.Proposal) {
	if n == nil || n.announcer == nil {
		return
	}

	a := domain.Announcement{
		ID:     uuid.NewString(),
		Kind:   kind,
		Number: p.Number,
		Title:  p.Title,
		URL:    p.URL,
		Text:   announcementText(kind, p),
		At:     n.clock.Now(),
	}

	n.wg.Go(func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.announcer.Announce(sendCtx, a); err != nil {
			n.count(kind, "error")
			slog.WarnContext(sendCtx, "Announcement failed", "kind", string(kind), "proposal", p.Number, "error", err)
			return
		}
		n.count(kind, "ok")
		slog.DebugContext(sendCtx, "Announcement sent", "kind", string(kind), "proposal", p.Number, "announcement_id", a.ID)
	})
}

// Wait blocks until in-flight announcements finish.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

func (n *Notifier) count(kind domain.AnnouncementKind, result string) {
	if n.metrics != nil {
		n.metrics.Announcements.WithLabelValues(string(kind), result).Inc()
	}
}

func announcementText(kind domain.AnnouncementKind, p domain.Proposal) string {
	switch kind {
	case domain.AnnouncementVoteStarted:
		return fmt.Sprintf("Voting started on #%d: %s %s", p.Number, p.Title, p.URL)
	case domain.AnnouncementMerged:
		return fmt.Sprintf("Pull request #%d merged: %s %s", p.Number, p.Title, p.URL)
	default:
		return fmt.Sprintf("Pull request #%d closed: %s %s", p.Number, p.Title, p.URL)
	}
}
