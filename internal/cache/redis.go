// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodshare/internal/middleware"
	"foodshare/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const connectTimeout = 3 * time.Second

// instrumentation feeds command latency and failures into prometheus.
// redis.Nil is a miss, not a failure.
type instrumentation struct{}

func (instrumentation) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (instrumentation) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		observability.RedisCommandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (instrumentation) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		observability.RedisCommandDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// ParseAddr turns REDIS_URL into client options. Both "host:port" and
// redis:// or rediss:// URLs are accepted; an empty value means no redis.
func ParseAddr(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("REDIS_URL is empty")
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	opts.DialTimeout = connectTimeout
	// servers without the CLIENT MAINT_NOTIFICATIONS subcommand reject the handshake
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}
	return opts, nil
}

// Connect returns a pinged client for addr, or nil when redis is not
// configured or unreachable. Every caller accepts a nil client.
func Connect(addr string) *redis.Client {
	opts, err := ParseAddr(addr)
	if err != nil {
		middleware.Logger.Warn("redis disabled", "addr", addr, "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	client.AddHook(instrumentation{})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, continuing without it", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	middleware.Logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return client
}
