package service

import (
	"context"
	"sync"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunLocker hands out named, mutually exclusive locks. Acquire blocks until
// the lock is free or ctx is done.
type RunLocker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

// LocalRunLocker serialises holders within one process.
type LocalRunLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalRunLocker() *LocalRunLocker {
	return &LocalRunLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalRunLocker) Acquire(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[name] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, apperror.Wrap(apperror.KindInternal, "timed out waiting for "+name+" lock", ctx.Err())
	}
}

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const extendLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// RedisRunLocker serialises holders across every instance sharing the Redis
// server. The key expires after ttl in case a holder dies; while the holder
// is alive a watchdog pushes the expiry forward every renew interval.
type RedisRunLocker struct {
	client  *redis.Client
	ttl     time.Duration
	renew   time.Duration
	poll    time.Duration
	prefix  string
	release *redis.Script
	extend  *redis.Script
	log     *zap.Logger
}

func NewRedisRunLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisRunLocker {
	return &RedisRunLocker{
		client:  client,
		ttl:     ttl,
		renew:   ttl / 3,
		poll:    100 * time.Millisecond,
		prefix:  "lock",
		release: redis.NewScript(releaseLockScript),
		extend:  redis.NewScript(extendLockScript),
		log:     log,
	}
}

func (l *RedisRunLocker) Acquire(ctx context.Context, name string) (func(), error) {
	key := l.prefix + ":" + name
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "failed to acquire "+name+" lock", err)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.watch(key, token, stop, done)
			var once sync.Once
			return func() {
				once.Do(func() {
					close(stop)
					<-done
					l.unlock(key, token)
				})
			}, nil
		}
		select {
		case <-time.After(l.poll):
		case <-ctx.Done():
			return nil, apperror.Wrap(apperror.KindInternal, "timed out waiting for "+name+" lock", ctx.Err())
		}
	}
}

// watch extends the key until stop is closed or the token is no longer ours.
func (l *RedisRunLocker) watch(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if l.renew <= 0 {
		return
	}
	ticker := time.NewTicker(l.renew)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.renew)
		n, err := l.extend.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			l.log.Warn("failed to extend run lock", zap.String("key", key), zap.Error(err))
			continue
		}
		if n == 0 {
			l.log.Error("run lock lost before release", zap.String("key", key))
			return
		}
	}
}

func (l *RedisRunLocker) unlock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.release.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.log.Warn("failed to release run lock", zap.String("key", key), zap.Error(err))
	}
}
