package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"github.com/kursadbilgin/igdm-dispatch/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLimitPerSec int64 = 10
	backoffStep              = 25 * time.Millisecond
	backoffMax               = 200 * time.Millisecond
	windowSeconds            = 1
	windowKeyPrefix          = "igdm:ratelimit:window"
	cooldownKeyPrefix        = "igdm:ratelimit:cooldown"
)

// reserveScript takes one slot from the account's one-second window.
// Returns 1 when granted, 0 when the window is spent, and the negated
// remaining cooldown in milliseconds while the account is cooling down.
var reserveScript = goredis.NewScript(`
local cooldown = redis.call("PTTL", KEYS[2])
if cooldown > 0 then
  return -cooldown
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

// cooldownScript only ever extends a cooldown.
var cooldownScript = goredis.NewScript(`
local remaining = redis.call("PTTL", KEYS[1])
if remaining < tonumber(ARGV[1]) then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[1])
end
return 1
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter is a per-account send limiter shared by every API
// instance pointed at the same Redis. Besides the per-second window it
// honours cooldowns set after the Graph API reports throttling.
type RedisRateLimiter struct {
	client      *goredis.Client
	limitPerSec int64
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewRedisRateLimiter(client *goredis.Client, limitPerSec int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(client, int64(limitPerSec), time.Now, sleepWithContext)
}

func newRedisRateLimiter(
	client *goredis.Client,
	limitPerSec int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limitPerSec <= 0 {
		limitPerSec = defaultLimitPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisRateLimiter{
		client:      client,
		limitPerSec: limitPerSec,
		now:         nowFn,
		sleep:       sleepFn,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, creds domain.Credentials) (bool, error) {
	granted, _, err := r.reserve(ctx, creds)
	return granted, err
}

// Wait blocks until the account has budget in the current window or ctx
// ends. A cooling-down account sleeps out the remaining cooldown.
func (r *RedisRateLimiter) Wait(ctx context.Context, creds domain.Credentials) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := backoffStep
	for {
		granted, cooldown, err := r.reserve(ctx, creds)
		if err != nil {
			return err
		}
		if granted {
			return nil
		}

		wait := backoff
		if cooldown > 0 {
			wait = cooldown
		} else {
			backoff = min(backoff*2, backoffMax)
		}

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *RedisRateLimiter) Cooldown(ctx context.Context, creds domain.Credentials, d time.Duration) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("rate limiter is not initialized")
	}
	account, err := limitedAccount(creds)
	if err != nil {
		return err
	}
	if d.Milliseconds() <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	until := r.now().UTC().Add(d).Format(time.RFC3339)
	if err := cooldownScript.Run(ctx, r.client, []string{cooldownKey(account)}, d.Milliseconds(), until).Err(); err != nil {
		return fmt.Errorf("failed to set send cooldown: %w", err)
	}
	return nil
}

// reserve returns whether a slot was granted and, when the account is
// cooling down, how much of the cooldown is left.
func (r *RedisRateLimiter) reserve(ctx context.Context, creds domain.Credentials) (bool, time.Duration, error) {
	if r == nil || r.client == nil {
		return false, 0, fmt.Errorf("rate limiter is not initialized")
	}
	account, err := limitedAccount(creds)
	if err != nil {
		return false, 0, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	windowKey := fmt.Sprintf("%s:%s:%d", windowKeyPrefix, account, r.now().UTC().Unix())
	result, err := reserveScript.Run(ctx, r.client, []string{windowKey, cooldownKey(account)}, r.limitPerSec, windowSeconds).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	if result < 0 {
		return false, time.Duration(-result) * time.Millisecond, nil
	}
	return result == 1, 0, nil
}

func limitedAccount(creds domain.Credentials) (string, error) {
	account := strings.TrimSpace(creds.BusinessAccountID)
	if account == "" {
		return "", fmt.Errorf("%w: business account id is required for rate limiting", domain.ErrConfiguration)
	}
	return account, nil
}

func cooldownKey(account string) string {
	return cooldownKeyPrefix + ":" + account
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
