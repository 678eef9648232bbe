package app

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/pscheid92/ballotbot/internal/domain"
)

// MemoryTallyStore keeps the last tally of each proposal in process. Used
// when no Redis is configured.
type MemoryTallyStore struct {
	mu    sync.RWMutex
	snaps map[int]domain.TallySnapshot
}

var _ domain.TallyStore = (*MemoryTallyStore)(nil)

func NewMemoryTallyStore() *MemoryTallyStore {
	return &MemoryTallyStore{snaps: make(map[int]domain.TallySnapshot)}
}

func (s *MemoryTallyStore) SaveTally(_ context.Context, snap domain.TallySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Number] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryTallyStore) GetTally(_ context.Context, number int) (domain.TallySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[number]
	if !ok {
		return domain.TallySnapshot{}, domain.ErrTallyNotFound
	}
	return cloneSnapshot(snap), nil
}

func cloneSnapshot(snap domain.TallySnapshot) domain.TallySnapshot {
	snap.Tally.Votes = maps.Clone(snap.Tally.Votes)
	snap.Tally.NonEndorsed = slices.Clone(snap.Tally.NonEndorsed)
	return snap
}
