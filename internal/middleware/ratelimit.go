package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"foodshare/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when redis cannot count it.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Rule throttles one named action to Limit hits per Window for each caller.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Write paths that are cheap to abuse.
var (
	RegisterRule = Rule{Name: "register", Limit: 10, Window: time.Minute, Policy: FailClosed}
	LoginRule    = Rule{Name: "login", Limit: 20, Window: time.Minute}
	MessageRule  = Rule{Name: "messages", Limit: 30, Window: time.Minute}
	UploadRule   = Rule{Name: "uploads", Limit: 20, Window: time.Minute}
)

var errNoRedis = errors.New("rate limit store unavailable")

// Decision is the outcome of counting one hit.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitEnabled reports whether env enforces limits. Local, test and load
// test environments do not.
func RateLimitEnabled(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

// RateLimiter counts hits in fixed redis windows keyed "rl:<rule>:<subject>".
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter builds a limiter. A disabled limiter allows everything and
// never touches redis.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Allow counts one hit by subject against rule.
func (l *RateLimiter) Allow(ctx context.Context, rule Rule, subject string) (Decision, error) {
	if l == nil || !l.enabled {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", rule.Name, subject)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return Decision{}, err
	}

	count := incr.Val()
	retryAfter := ttl.Val()
	if retryAfter <= 0 {
		// new window, or a key that lost its expiry
		if err := l.rdb.PExpire(ctx, key, rule.Window).Err(); err != nil {
			observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		}
		retryAfter = rule.Window
	}

	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(rule.Limit),
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Middleware enforces rule per authenticated user, or per IP for anonymous
// callers.
func (l *RateLimiter) Middleware(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			subject = fmt.Sprintf("user:%d", uid)
		}

		decision, err := l.Allow(c.UserContext(), rule, subject)
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"rule", rule.Name, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Service temporarily unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please slow down",
			})
		}
		return c.Next()
	}
}
