package ratelimit

import (
	"context"
	"time"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

// RateLimiter paces sends per Instagram business account. Only the
// BusinessAccountID of the credentials is used.
type RateLimiter interface {
	Allow(ctx context.Context, creds domain.Credentials) (bool, error)
	Wait(ctx context.Context, creds domain.Credentials) error
	// Cooldown holds every send from the account for d. An existing longer
	// cooldown is kept.
	Cooldown(ctx context.Context, creds domain.Credentials, d time.Duration) error
}
