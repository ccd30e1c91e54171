package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/config"
)

// Client wraps the redis connection shared by the rate limiter and the archive hook.
type Client struct {
	Native *redis.Client
}

// Options maps configuration onto go-redis options.
func Options(cfg config.RedisConfig) *redis.Options {
	options := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return options
}

// Connect instantiates the client and verifies it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	client := redis.NewClient(Options(cfg))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	if logger != nil {
		logger.Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Client{Native: client}, nil
}

// Close redis connection.
func (c *Client) Close() error {
	if c == nil || c.Native == nil {
		return nil
	}
	return c.Native.Close()
}
