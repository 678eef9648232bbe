package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/platform/correlation"
)

// EndorserIndex is the set of logins allowed to vote (the repository's
// stargazers). A failed refresh keeps the previous set.
type EndorserIndex struct {
	forge    domain.Forge
	clock    clockwork.Clock
	interval time.Duration
	metrics  *metrics.VotingMetrics

	mu    sync.RWMutex
	set   map[string]struct{}
	ready bool
}

func NewEndorserIndex(forge domain.Forge, clock clockwork.Clock, interval time.Duration, m *metrics.VotingMetrics) *EndorserIndex {
	return &EndorserIndex{
		forge:    forge,
		clock:    clock,
		interval: interval,
		metrics:  m,
		set:      make(map[string]struct{}),
	}
}

// Refresh replaces the set with the current stargazers.
func (e *EndorserIndex) Refresh(ctx context.Context) error {
	logins, err := collectPages(ctx, pageSize, e.forge.ListEndorsers)
	if err != nil {
		e.countRefresh("error")
		slog.WarnContext(ctx, "Endorser refresh failed, keeping previous set", "endorsers", e.Len(), "error", err)
		return fmt.Errorf("refreshing endorsers: %w", err)
	}

	set := make(map[string]struct{}, len(logins))
	for _, login := range logins {
		set[strings.ToLower(login)] = struct{}{}
	}

	e.mu.Lock()
	e.set = set
	e.ready = true
	e.mu.Unlock()

	e.countRefresh("ok")
	if e.metrics != nil {
		e.metrics.Endorsers.Set(float64(len(set)))
	}
	slog.DebugContext(ctx, "Endorsers refreshed", "endorsers", len(set))
	return nil
}

// IsEndorser reports membership. Logins compare case-insensitively.
func (e *EndorserIndex) IsEndorser(login string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.set[strings.ToLower(login)]
	return ok
}

func (e *EndorserIndex) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.set)
}

// Ready reports whether at least one refresh has succeeded.
func (e *EndorserIndex) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Run refreshes on every tick until ctx is cancelled.
func (e *EndorserIndex) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			_ = e.Refresh(correlation.WithID(ctx, correlation.NewID()))
		}
	}
}

func (e *EndorserIndex) countRefresh(result string) {
	if e.metrics != nil {
		e.metrics.Refreshes.WithLabelValues("endorsers", result).Inc()
	}
}
