package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

var (
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = ParseRedisConfig(
			os.Getenv("REDIS_ADDR"),
			os.Getenv("REDIS_PASSWORD"),
			os.Getenv("REDIS_DB"),
			os.Getenv("ALLOCATION_LOCK_TTL"),
			LoadOptimizerConfig().Timeout,
		)
	})
	return redisConfig
}

// ParseRedisConfig keeps the lock TTL above the optimizer timeout so a
// healthy run never loses its lock mid-merge.
func ParseRedisConfig(addr, password, db, lockTTL string, optimizerTimeout time.Duration) *RedisConfig {
	cfg := &RedisConfig{Addr: addr, Password: password}
	if db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			log.Printf("Warning: invalid REDIS_DB %q, using 0", db)
		} else {
			cfg.DB = n
		}
	}
	minTTL := optimizerTimeout + 30*time.Second
	cfg.LockTTL = minTTL
	if lockTTL != "" {
		d, err := time.ParseDuration(lockTTL)
		if err != nil {
			log.Printf("Warning: invalid ALLOCATION_LOCK_TTL %q, using %s", lockTTL, minTTL)
		} else if d > minTTL {
			cfg.LockTTL = d
		}
	}
	return cfg
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}
