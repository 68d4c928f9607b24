// Package slotlock serializes the conflict-check-then-insert sequence for one
// reservation slot. Two concurrent requests for the same (table, date, time)
// could otherwise both pass the conflict read before either writes; the lock
// closes that window, with the database's partial unique index as backstop.
package slotlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker acquires a mutex for a single reservation slot.
type Locker interface {
	// Acquire returns a release func, or ok=false when another request holds
	// the slot right now.
	Acquire(ctx context.Context, tableID int64, date, bookingTime string) (release func(), ok bool, err error)
}

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// releaseScript deletes the lock only if this holder still owns it, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func slotKey(tableID int64, date, bookingTime string) string {
	return fmt.Sprintf("slotlock:%d:%s:%s", tableID, date, bookingTime)
}

func (l *RedisLocker) Acquire(ctx context.Context, tableID int64, date, bookingTime string) (func(), bool, error) {
	key := slotKey(tableID, date, bookingTime)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("slot lock acquire: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// Release must not inherit a cancelled request context.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}
	return release, true, nil
}
