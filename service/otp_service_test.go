package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

func seedIdentity(t *testing.T, env *testEnv, id string) {
	t.Helper()
	_, err := env.store.Identity().Create(context.Background(), &models.Identity{
		ID:    id,
		Email: id + "@example.com",
		Role:  models.RoleRenter,
	})
	require.NoError(t, err)
}

func assertOTPReason(t *testing.T, err error, want xerrors.OTPReason) {
	t.Helper()
	require.ErrorIs(t, err, xerrors.ErrOTP)
	reason, ok := xerrors.OTPReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, want, reason)
}

func TestOTP_IssueFormat(t *testing.T) {
	env := newTestEnv(t)
	seedIdentity(t, env, "a")
	sixDigits := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 50; i++ {
		code, err := env.svc.OTP().Issue(context.Background(), "a")
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}

	identity := env.identity(t, "a")
	require.NotNil(t, identity.PendingOTP)
	assert.Equal(t, env.now.Add(10*time.Minute), identity.PendingOTP.ExpiresAt)
}

func TestOTP_ReissueInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedIdentity(t, env, "a")

	first, err := env.svc.OTP().Issue(ctx, "a")
	require.NoError(t, err)
	second := first
	for second == first {
		second, err = env.svc.OTP().Issue(ctx, "a")
		require.NoError(t, err)
	}

	assertOTPReason(t, env.svc.OTP().Consume(ctx, "a", first), xerrors.OTPMismatch)
	assert.NoError(t, env.svc.OTP().Consume(ctx, "a", second))
}

func TestOTP_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedIdentity(t, env, "a")

	code, err := env.svc.OTP().Issue(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, env.svc.OTP().Consume(ctx, "a", code))
	assert.Nil(t, env.identity(t, "a").PendingOTP)

	assertOTPReason(t, env.svc.OTP().Consume(ctx, "a", code), xerrors.OTPNoPendingCode)
}

func TestOTP_Expired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedIdentity(t, env, "a")

	code, err := env.svc.OTP().Issue(ctx, "a")
	require.NoError(t, err)

	env.advance(10 * time.Minute)
	require.NoError(t, env.svc.OTP().Peek(ctx, "a", code), "expiry is exclusive of the boundary instant")

	env.advance(time.Second)
	assertOTPReason(t, env.svc.OTP().Peek(ctx, "a", code), xerrors.OTPExpired)
	assertOTPReason(t, env.svc.OTP().Consume(ctx, "a", code), xerrors.OTPExpired)
	assert.NotNil(t, env.identity(t, "a").PendingOTP, "expiry is lazy")
}

func TestOTP_PeekDoesNotClear(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedIdentity(t, env, "a")

	code, err := env.svc.OTP().Issue(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, env.svc.OTP().Peek(ctx, "a", code))
	require.NoError(t, env.svc.OTP().Peek(ctx, "a", code))
	assert.NoError(t, env.svc.OTP().Consume(ctx, "a", code))
}

func TestOTP_Failures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedIdentity(t, env, "a")

	assertOTPReason(t, env.svc.OTP().Consume(ctx, "ghost", "123456"), xerrors.OTPNotFound)
	assertOTPReason(t, env.svc.OTP().Peek(ctx, "a", "123456"), xerrors.OTPNoPendingCode)

	_, err := env.svc.OTP().Issue(ctx, "ghost")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

// racingIdentities replaces the pending code right before the conditional clear.
type racingIdentities struct {
	storage.IIdentityStorage
}

func (r racingIdentities) ClearPendingOTP(ctx context.Context, id, code string) (bool, error) {
	if err := r.SetPendingOTP(ctx, id, models.OTPState{Code: "000000-new", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		return false, err
	}
	return r.IIdentityStorage.ClearPendingOTP(ctx, id, code)
}

func TestOTP_ConsumeLosingRaceReportsMismatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedIdentity(t, env, "a")
	otp := env.svc.OTP().(*otpService)

	code, err := otp.Issue(ctx, "a")
	require.NoError(t, err)

	err = otp.consumeWith(ctx, racingIdentities{env.store.Identity()}, "a", code)
	assertOTPReason(t, err, xerrors.OTPMismatch)
	assert.Equal(t, "000000-new", env.identity(t, "a").PendingOTP.Code)
}
