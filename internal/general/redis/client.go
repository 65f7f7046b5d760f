package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"shuttle-track/internal/general/config"
	"shuttle-track/internal/general/logger"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to Redis and verifies connectivity with a ping.
func NewClient(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*goredis.Client, error) {
	addr := net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port))

	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info(ctx, "redis_connected", "Connected to Redis", map[string]any{"addr": addr})

	return client, nil
}
