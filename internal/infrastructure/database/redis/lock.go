package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

// ErrLockNotHeld is returned by Unlock when the lock expired or was taken
// over by another owner.
var ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held by this owner")

// Unlock and Extend only act when the stored token still matches, so a
// lock that expired and was re-acquired elsewhere cannot be released or
// prolonged by its previous owner.
var (
	unlockScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)
	extendScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// Lock is a single-owner distributed lock. The worker takes one per
// comparison run so a redelivered event does not execute the same run
// twice.
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock prepares a lock named name. The lock is not taken until
// TryLock succeeds; ttl bounds how long a crashed owner can block others.
func NewLock(client *Client, name string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lock{
		client: client,
		key:    "clauselens:lock:" + name,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// TryLock attempts to take the lock without blocking. Returns false when
// another owner holds it.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire lock")
	}
	return ok, nil
}

// Unlock releases the lock if this owner still holds it.
func (l *Lock) Unlock(ctx context.Context) error {
	res, err := unlockScript.Run(ctx, l.client.rdb, []string{l.key}, l.token).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res.(int64) == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the expiry out by the lock's ttl. Returns false when the
// lock is no longer held by this owner.
func (l *Lock) Extend(ctx context.Context) (bool, error) {
	res, err := extendScript.Run(ctx, l.client.rdb, []string{l.key}, l.token, l.ttl.Milliseconds()).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return res.(int64) == 1, nil
}
