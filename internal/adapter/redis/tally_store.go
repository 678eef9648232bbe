package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/ballotbot/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const tallyTTL = 7 * 24 * time.Hour

// TallyStore keeps the last computed tally of each proposal as a JSON string
// so several instances and votectl see the same snapshot.
type TallyStore struct {
	rdb goredis.Cmdable
}

var _ domain.TallyStore = (*TallyStore)(nil)

func NewTallyStore(rdb goredis.Cmdable) *TallyStore {
	return &TallyStore{rdb: rdb}
}

func tallyKey(number int) string {
	return fmt.Sprintf("ballotbot:tally:%d", number)
}

func (s *TallyStore) SaveTally(ctx context.Context, snap domain.TallySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode tally: %w", err)
	}
	if err := s.rdb.Set(ctx, tallyKey(snap.Number), data, tallyTTL).Err(); err != nil {
		return fmt.Errorf("failed to save tally for #%d: %w", snap.Number, err)
	}
	return nil
}

func (s *TallyStore) GetTally(ctx context.Context, number int) (domain.TallySnapshot, error) {
	data, err := s.rdb.Get(ctx, tallyKey(number)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.TallySnapshot{}, domain.ErrTallyNotFound
	}
	if err != nil {
		return domain.TallySnapshot{}, fmt.Errorf("failed to load tally for #%d: %w", number, err)
	}

	var snap domain.TallySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.TallySnapshot{}, fmt.Errorf("failed to decode tally for #%d: %w", number, err)
	}
	return snap, nil
}
