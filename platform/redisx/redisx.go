// Package redisx turns REDIS_URL settings into queue and client options.
// This is part of the platform layer and contains no business logic.
package redisx

import (
	"context"
	"crypto/tls"
	"fmt"

	"fieldservice_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// AsynqOpt builds asynq connection options from the scheduler config.
func AsynqOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}

	opt, err := parse(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// Pinger checks Redis reachability for health endpoints.
type Pinger struct {
	client *redis.Client
}

// NewPinger opens a lightweight go-redis client for health checks.
func NewPinger(cfg config.SchedulerConfig) (*Pinger, error) {
	opt, err := parse(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	opt.PoolSize = 2
	return &Pinger{client: redis.NewClient(opt)}, nil
}

// Ping returns nil when Redis answers PONG.
func (p *Pinger) Ping(ctx context.Context) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("redis not configured")
	}
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (p *Pinger) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func parse(redisURL string, tlsInsecure bool) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return opt, nil
}
