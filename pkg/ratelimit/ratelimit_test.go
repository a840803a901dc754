package ratelimit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/pkg/xerrors"
)

type fakeStore struct {
	ttls    map[string]time.Duration
	counts  map[string]int64
	incrErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{ttls: map[string]time.Duration{}, counts: map[string]int64{}}
}

func (f *fakeStore) GetTTL(_ context.Context, ns, key string) (time.Duration, error) {
	ttl, ok := f.ttls[ns+":"+key]
	if !ok {
		return -2 * time.Second, nil
	}
	return ttl, nil
}

func (f *fakeStore) Set(_ context.Context, ns, key string, _ interface{}, ttl time.Duration) error {
	f.ttls[ns+":"+key] = ttl
	return nil
}

func (f *fakeStore) IncrWithExpire(_ context.Context, ns, key string, window time.Duration) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	k := ns + ":" + key
	f.counts[k]++
	if f.counts[k] == 1 {
		f.ttls[k] = window
	}
	return f.counts[k], nil
}

// expire drops every cooldown key, simulating the cooldown elapsing.
func (f *fakeStore) expire(prefix string) {
	for k := range f.ttls {
		if strings.HasPrefix(k, prefix) {
			delete(f.ttls, k)
		}
	}
}

func TestLimiter_Cooldown(t *testing.T) {
	store := newFakeStore()
	l := NewLimiter(store, 10*time.Minute, 5, 45*time.Second)

	require.NoError(t, l.Allow(context.Background(), "id-1", "password_reset"))

	err := l.Allow(context.Background(), "id-1", "password_reset")
	assert.ErrorIs(t, err, xerrors.ErrTooManyRequests)

	assert.NoError(t, l.Allow(context.Background(), "id-1", "email_verification"))
	assert.NoError(t, l.Allow(context.Background(), "id-2", "password_reset"))
}

func TestLimiter_WindowCapBlocks(t *testing.T) {
	store := newFakeStore()
	l := NewLimiter(store, time.Minute, 2, time.Second)

	for i := 0; i < 2; i++ {
		require.NoError(t, l.Allow(context.Background(), "id-1", "email_verification"))
		store.expire("otp_rate:last:")
	}

	err := l.Allow(context.Background(), "id-1", "email_verification")
	require.ErrorIs(t, err, xerrors.ErrTooManyRequests)
	assert.Equal(t, 3*time.Minute, store.ttls["otp_rate:block:id-1:email_verification"])

	err = l.Allow(context.Background(), "id-1", "email_verification")
	assert.ErrorIs(t, err, xerrors.ErrTooManyRequests)
}

func TestLimiter_CounterFailure(t *testing.T) {
	store := newFakeStore()
	store.incrErr = errors.New("redis down")
	l := NewLimiter(store, time.Minute, 2, time.Second)

	err := l.Allow(context.Background(), "id-1", "email_verification")
	assert.ErrorIs(t, err, xerrors.ErrInternal)
}

func TestNop(t *testing.T) {
	var th Throttle = Nop{}
	assert.NoError(t, th.Allow(context.Background(), "id", "any"))
}
