package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sm-nvws/limit-order-book/pkg/errors"
	"github.com/sm-nvws/limit-order-book/pkg/logger"
)

type client struct {
	logger *logger.Logger
	config *Config
	rdb    *redis.Client
}

// NewClient creates a new Redis client with the provided logger and configuration.
func NewClient(logger *logger.Logger, config *Config) Client {
	return &client{
		logger: logger,
		config: config,
	}
}

func (c *client) Connect(ctx context.Context) error {
	if c.config == nil {
		return errors.NewErrorDetails("Redis config is nil", string(errors.RedisConfigError), "connect")
	}
	if c.config.Addr == "" {
		return errors.NewErrorDetails("Redis address is empty", string(errors.RedisConfigError), "connect")
	}
	if c.config.ConnectTimeout <= 0 {
		return errors.NewErrorDetails("Invalid Redis connect timeout", string(errors.RedisConfigError), "connect")
	}
	if c.config.PoolSize <= 0 {
		return errors.NewErrorDetails("Invalid Redis pool size", string(errors.RedisConfigError), "connect")
	}

	c.rdb = redis.NewClient(&redis.Options{
		Addr:            c.config.Addr,
		Username:        c.config.Username,
		Password:        c.config.Password,
		DB:              c.config.DB,
		MaxRetries:      c.config.MaxRetries,
		MinRetryBackoff: c.config.MinRetryBackoff,
		MaxRetryBackoff: c.config.MaxRetryBackoff,
		DialTimeout:     c.config.ConnectTimeout,
		ReadTimeout:     c.config.ConnectTimeout,
		WriteTimeout:    c.config.ConnectTimeout,
		PoolSize:        c.config.PoolSize,
		MinIdleConns:    c.config.MinIdleConns,
		MaxIdleConns:    c.config.MaxIdleConns,
		ConnMaxLifetime: c.config.ConnMaxLifetime,
		ConnMaxIdleTime: c.config.ConnMaxIdleTime,
		PoolTimeout:     c.config.PoolTimeout,
	})

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.NewTracer(string(errors.RedisConnectionError)).Wrap(err)
	}
	return nil
}

func (c *client) Disconnect(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		return errors.NewTracer(string(errors.RedisDisconnectionError)).Wrap(err)
	}
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.NewTracer(string(errors.RedisPingError)).Wrap(err)
	}
	return nil
}

func (c *client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.NewTracer(string(errors.RedisGetError)).Wrap(err)
	}
	return val, nil
}

func (c *client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		return errors.NewTracer(string(errors.RedisSetError)).Wrap(err)
	}
	return nil
}

func (c *client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.NewTracer(string(errors.RedisDelError)).Wrap(err)
	}
	return n, nil
}

func (c *client) Publish(ctx context.Context, channel string, message any) (int64, error) {
	n, err := c.rdb.Publish(ctx, channel, message).Result()
	if err != nil {
		return 0, errors.NewTracer(string(errors.RedisPublishError)).Wrap(err)
	}
	return n, nil
}
