package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	leaderKey = "ballotbot:leader"
	leaderTTL = 30 * time.Second
)

var errLeaseLost = errors.New("leader lease lost")

// releaseScript deletes the lease only while it is still ours.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LeaderElector is a SETNX lease that lets only one bot instance act on
// proposals. instanceID must be unique per process (e.g. hostname-PID).
type LeaderElector struct {
	rdb        goredis.Cmdable
	instanceID string
	ttl        time.Duration
}

func NewLeaderElector(rdb goredis.Cmdable, instanceID string) *LeaderElector {
	return &LeaderElector{rdb: rdb, instanceID: instanceID, ttl: leaderTTL}
}

// TryAcquire takes the lease if nobody holds it.
func (l *LeaderElector) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, leaderKey, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lease: %w", err)
	}
	return ok, nil
}

// Renew extends the lease. It fails when another instance took over or the
// lease expired.
func (l *LeaderElector) Renew(ctx context.Context) error {
	holder, err := l.rdb.Get(ctx, leaderKey).Result()
	if errors.Is(err, goredis.Nil) {
		return errLeaseLost
	}
	if err != nil {
		return fmt.Errorf("failed to read leader lease: %w", err)
	}
	if holder != l.instanceID {
		return fmt.Errorf("%w: held by %s", errLeaseLost, holder)
	}

	ok, err := l.rdb.Expire(ctx, leaderKey, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to renew leader lease: %w", err)
	}
	if !ok {
		return errLeaseLost
	}
	return nil
}

func (l *LeaderElector) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{leaderKey}, l.instanceID).Err()
}
