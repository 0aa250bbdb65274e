package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func assertExclusive(t *testing.T, locker RunLocker) {
	t.Helper()
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "allocation-run")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestLocalRunLockerIsExclusive(t *testing.T) {
	assertExclusive(t, NewLocalRunLocker())
}

func TestLocalRunLockerHonoursContext(t *testing.T) {
	locker := NewLocalRunLocker()
	release, err := locker.Acquire(context.Background(), "allocation-run")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "allocation-run")
	assert.Error(t, err)

	other, err := locker.Acquire(context.Background(), "another")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := locker.Acquire(context.Background(), "allocation-run")
	require.NoError(t, err)
	again()
}

func newRedisLocker(t *testing.T) (*RedisRunLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisRunLocker(client, time.Minute, zap.NewNop())
	locker.poll = 2 * time.Millisecond
	return locker, mr
}

func TestRedisRunLockerIsExclusive(t *testing.T) {
	locker, _ := newRedisLocker(t)
	assertExclusive(t, locker)
}

func TestRedisRunLockerReleaseKeepsForeignToken(t *testing.T) {
	locker, mr := newRedisLocker(t)

	release, err := locker.Acquire(context.Background(), "allocation-run")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:allocation-run"))

	// Simulate expiry followed by another holder taking the key.
	mr.Set("lock:allocation-run", "someone-else")
	release()
	got, err := mr.Get("lock:allocation-run")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisRunLockerTimesOut(t *testing.T) {
	locker, _ := newRedisLocker(t)
	release, err := locker.Acquire(context.Background(), "allocation-run")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "allocation-run")
	assert.Error(t, err)
}

func TestRedisRunLockerRenewsWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisRunLocker(client, 300*time.Millisecond, zap.NewNop())
	locker.renew = 10 * time.Millisecond

	release, err := locker.Acquire(context.Background(), "allocation-run")
	require.NoError(t, err)

	// Most of the TTL passes; the watchdog must push it back up.
	mr.FastForward(250 * time.Millisecond)
	require.True(t, mr.Exists("lock:allocation-run"))
	assert.Eventually(t, func() bool {
		return mr.TTL("lock:allocation-run") > 200*time.Millisecond
	}, time.Second, 5*time.Millisecond)

	mr.FastForward(250 * time.Millisecond)
	assert.True(t, mr.Exists("lock:allocation-run"))

	release()
	assert.False(t, mr.Exists("lock:allocation-run"))
}

func TestRedisRunLockerStopsRenewingForeignToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewRedisRunLocker(client, 300*time.Millisecond, zap.NewNop())
	locker.renew = 10 * time.Millisecond

	release, err := locker.Acquire(context.Background(), "allocation-run")
	require.NoError(t, err)
	defer release()

	mr.Set("lock:allocation-run", "someone-else")
	mr.SetTTL("lock:allocation-run", 50*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, mr.TTL("lock:allocation-run"))
}
