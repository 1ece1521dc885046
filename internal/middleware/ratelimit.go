package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"townsquare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the counter store is down.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

const rateLimitKeyPrefix = "townsquare:ratelimit:"

var errNoRateStore = errors.New("rate limit store not configured")

// Environments where write throttles are off so local runs and load tests
// are not rejected.
var rateLimitExemptEnvs = map[string]bool{"test": true, "development": true, "stress": true}

// RateDecision is the outcome of one counter increment.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func rateLimitExempt() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return rateLimitExemptEnvs[env]
}

// CheckRateLimit counts one action by subject against resource in a fixed
// window that starts at the subject's first action.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, subject string, limit int, window time.Duration) (RateDecision, error) {
	if rateLimitExempt() {
		return RateDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if rdb == nil {
		return RateDecision{}, errNoRateStore
	}

	key := rateLimitKeyPrefix + resource + ":" + subject
	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit %s: %w", resource, err)
	}

	n := int(count.Val())
	d := RateDecision{
		Allowed:   n <= limit,
		Limit:     limit,
		Remaining: max(limit-n, 0),
	}
	if !d.Allowed {
		d.RetryAfter = ttl.Val()
		if d.RetryAfter <= 0 {
			d.RetryAfter = window
		}
	}
	return d, nil
}

// RateLimit throttles a write endpoint to limit actions per window. Callers
// are keyed by user when authenticated and by IP otherwise. A store outage
// lets requests through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit outage policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}
		resource := c.Route().Path
		if len(name) > 0 {
			resource = name[0]
		}

		d, err := CheckRateLimit(c.UserContext(), rdb, resource, subject, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
					"resource", resource, "err", err)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: models.CodeServiceUnavailable, Message: "rate limit unavailable"})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: models.CodeRateLimitExceeded, Message: "Too many " + resource + " requests, slow down"})
		}
		return c.Next()
	}
}
