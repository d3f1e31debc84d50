package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNameLocked is returned when a name lock could not be acquired in time.
var ErrNameLocked = errors.New("name is locked")

// UnlockFunc releases a lock obtained from a NameLocker.
type UnlockFunc func(ctx context.Context) error

// NameLocker provides mutual exclusion keyed by a normalized name.
type NameLocker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// MemoryNameLocker serializes callers within one process. A key's slot is
// dropped once no caller holds or waits on it.
type MemoryNameLocker struct {
	mu    sync.Mutex
	slots map[string]*memorySlot
}

type memorySlot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryNameLocker builds an in-process locker.
func NewMemoryNameLocker() *MemoryNameLocker {
	return &MemoryNameLocker{slots: make(map[string]*memorySlot)}
}

func (l *MemoryNameLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &memorySlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot)
		return nil, errors.Join(ErrNameLocked, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
		return nil
	}, nil
}

func (l *MemoryNameLocker) release(key string, slot *memorySlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// compare-and-delete so an expired holder never releases someone else's lock
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisNameLocker serializes callers across processes sharing one Redis.
type RedisNameLocker struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
}

// NewRedisNameLocker builds a locker. ttl bounds how long a crashed holder blocks others.
func NewRedisNameLocker(client *redis.Client, ttl time.Duration) *RedisNameLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisNameLocker{
		client:  client,
		prefix:  "lock:department-name:",
		ttl:     ttl,
		wait:    ttl,
		backoff: 50 * time.Millisecond,
	}
}

func (l *RedisNameLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrNameLocked
		}

		timer := time.NewTimer(l.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrNameLocked, ctx.Err())
		case <-timer.C:
		}
	}

	return func(ctx context.Context) error {
		return unlockScript.Run(ctx, l.client, []string{redisKey}, token).Err()
	}, nil
}
