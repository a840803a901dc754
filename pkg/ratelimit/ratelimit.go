package ratelimit

import (
	"context"
	"fmt"
	"time"

	"rentalhub/pkg/xerrors"
)

const namespace = "otp_rate"

// Store is the slice of pkg/cache the limiter needs.
type Store interface {
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
}

type Throttle interface {
	Allow(ctx context.Context, identityID, purpose string) error
}

type Limiter struct {
	store       Store
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewLimiter(store Store, window time.Duration, max int, cooldown time.Duration) *Limiter {
	return &Limiter{store: store, window: window, maxInWindow: max, cooldown: cooldown}
}

// Allow admits one OTP request for identityID and purpose. Rejections wrap
// xerrors.ErrTooManyRequests.
func (l *Limiter) Allow(ctx context.Context, identityID, purpose string) error {
	blockKey := fmt.Sprintf("block:%s:%s", identityID, purpose)
	lastKey := fmt.Sprintf("last:%s:%s", identityID, purpose)
	countKey := fmt.Sprintf("count:%s:%s", identityID, purpose)

	if ttl, _ := l.store.GetTTL(ctx, namespace, blockKey); ttl > 0 {
		return fmt.Errorf("%w: try again in %d seconds", xerrors.ErrTooManyRequests, int(ttl.Seconds()))
	}
	if ttl, _ := l.store.GetTTL(ctx, namespace, lastKey); ttl > 0 {
		return fmt.Errorf("%w: wait %d seconds before requesting another code", xerrors.ErrTooManyRequests, int(ttl.Seconds()))
	}

	cnt, err := l.store.IncrWithExpire(ctx, namespace, countKey, l.window)
	if err != nil {
		return fmt.Errorf("%w: rate counter: %v", xerrors.ErrInternal, err)
	}
	if int(cnt) > l.maxInWindow {
		block := l.window * 3
		_ = l.store.Set(ctx, namespace, blockKey, "1", block)
		return fmt.Errorf("%w: try again in %d seconds", xerrors.ErrTooManyRequests, int(block.Seconds()))
	}

	if l.cooldown > 0 {
		_ = l.store.Set(ctx, namespace, lastKey, "1", l.cooldown)
	}
	return nil
}

// Nop admits everything; used when Redis is not configured.
type Nop struct{}

func (Nop) Allow(context.Context, string, string) error { return nil }
