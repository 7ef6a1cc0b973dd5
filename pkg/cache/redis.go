package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/pkg/config"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Options maps cfg onto go-redis client options with short I/O timeouts so a
// slow Redis degrades to cache misses instead of stalling requests.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// NewRedis connects and pings Redis, retrying while it starts up.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(Options(cfg))

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		logger.Warn("redis not ready", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("ping redis after %d attempts: %w", connectAttempts, err)
}
