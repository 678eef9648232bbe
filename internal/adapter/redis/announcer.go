package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pscheid92/ballotbot/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Announcer publishes announcements as JSON on a pub/sub channel.
type Announcer struct {
	rdb     goredis.Cmdable
	channel string
}

var _ domain.Announcer = (*Announcer)(nil)

func NewAnnouncer(rdb goredis.Cmdable, channel string) *Announcer {
	return &Announcer{rdb: rdb, channel: channel}
}

func (a *Announcer) Announce(ctx context.Context, ann domain.Announcement) error {
	payload, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("failed to encode announcement: %w", err)
	}
	if err := a.rdb.Publish(ctx, a.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", a.channel, err)
	}
	return nil
}
