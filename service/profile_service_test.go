package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

func submitProfile(t *testing.T, env *testEnv, renter models.Caller) {
	t.Helper()
	_, err := env.svc.Profile().Create(context.Background(), renter, renter.IdentityID, models.ProfileInput{
		Phone:           "+998900000000",
		Address:         "Chilonzor 1",
		LicenseNumber:   "AA0000001",
		LicenseImageURL: "https://img.test/l.png",
	})
	require.NoError(t, err)
}

func assertPair(t *testing.T, env *testEnv, identityID string, want bool) {
	t.Helper()
	identity := env.identity(t, identityID)
	profile, err := env.store.Profile().GetByIdentityID(context.Background(), identityID)
	require.NoError(t, err)
	assert.Equal(t, want, identity.ProfileVerified, "identity.profile_verified")
	assert.Equal(t, want, profile.LicenseVerified, "profile.license_verified")
}

func TestProfile_StateLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t, "admin@example.com")
	renter := env.register(t, "r@example.com", models.RoleRenter)

	view, err := env.svc.Profile().Get(ctx, renter, renter.IdentityID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileNotSubmitted, view.State)

	submitProfile(t, env, renter)
	view, err = env.svc.Profile().Get(ctx, renter, renter.IdentityID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfilePendingReview, view.State)

	view, err = env.svc.Profile().Review(ctx, admin, renter.IdentityID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileVerified, view.State)

	phone := "+998911111111"
	view, err = env.svc.Profile().Update(ctx, renter, renter.IdentityID, models.ProfilePatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, models.ProfilePendingReview, view.State)

	view, err = env.svc.Profile().Review(ctx, admin, renter.IdentityID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileRejected, view.State)
	require.NotNil(t, view.Profile.ReviewedAt)
	assert.Equal(t, env.now, *view.Profile.ReviewedAt)

	assert.Empty(t, env.notifications(t, renter.IdentityID), "profile review creates no notification rows")
}

func TestProfile_ReviewSetsBothFlagsFromAnyState(t *testing.T) {
	sequences := [][]bool{
		{true},
		{false},
		{true, true},
		{true, false},
		{false, true},
		{false, false},
		{true, false, true},
	}

	for _, seq := range sequences {
		env := newTestEnv(t)
		admin := env.admin(t, "admin@example.com")
		renter := env.register(t, "r@example.com", models.RoleRenter)
		submitProfile(t, env, renter)

		for _, approve := range seq {
			_, err := env.svc.Profile().Review(context.Background(), admin, renter.IdentityID, approve)
			require.NoError(t, err)
			assertPair(t, env, renter.IdentityID, approve)
		}
	}
}

func TestProfile_AnyEditResetsVerification(t *testing.T) {
	phone, address, number, image := "+1", "Elsewhere", "ZZ9", "https://img.test/new.png"
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	patches := map[string]models.ProfilePatch{
		"phone":             {Phone: &phone},
		"address":           {Address: &address},
		"license number":    {LicenseNumber: &number},
		"license expiry":    {LicenseExpiry: &expiry},
		"license image url": {LicenseImageURL: &image},
	}

	for name, patch := range patches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			admin := env.admin(t, "admin@example.com")
			renter := env.verifiedRenter(t, "r@example.com", admin)
			require.True(t, env.identity(t, renter.IdentityID).ProfileVerified)

			_, err := env.svc.Profile().Update(ctx, renter, renter.IdentityID, patch)
			require.NoError(t, err)

			assert.False(t, env.identity(t, renter.IdentityID).ProfileVerified)
			profile, err := env.store.Profile().GetByIdentityID(ctx, renter.IdentityID)
			require.NoError(t, err)
			assert.True(t, profile.LicenseVerified, "license flag waits for the next review")
		})
	}
}

func TestProfile_ReviewIsAtomicUnderInjectedFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t, "admin@example.com")
	renter := env.register(t, "r@example.com", models.RoleRenter)
	submitProfile(t, env, renter)

	boom := errors.New("disk full")
	env.store.FailNext("Profile.SetLicenseVerified", boom)
	_, err := env.svc.Profile().Review(ctx, admin, renter.IdentityID, true)
	require.ErrorIs(t, err, boom)
	assertPair(t, env, renter.IdentityID, false)

	_, err = env.svc.Profile().Review(ctx, admin, renter.IdentityID, true)
	require.NoError(t, err)
	assertPair(t, env, renter.IdentityID, true)

	env.store.FailNext("Profile.SetLicenseVerified", boom)
	_, err = env.svc.Profile().Review(ctx, admin, renter.IdentityID, false)
	require.ErrorIs(t, err, boom)
	assertPair(t, env, renter.IdentityID, true)
}

func TestProfile_EditIsAtomicUnderInjectedFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t, "admin@example.com")
	renter := env.verifiedRenter(t, "r@example.com", admin)

	env.store.FailNext("Identity.SetProfileVerified", errors.New("boom"))
	phone := "+7"
	_, err := env.svc.Profile().Update(ctx, renter, renter.IdentityID, models.ProfilePatch{Phone: &phone})
	require.Error(t, err)

	profile, err := env.store.Profile().GetByIdentityID(ctx, renter.IdentityID)
	require.NoError(t, err)
	assert.NotEqual(t, "+7", profile.Phone)
	assert.True(t, env.identity(t, renter.IdentityID).ProfileVerified)
}

func TestProfile_Authorization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t, "admin@example.com")
	renter := env.register(t, "r@example.com", models.RoleRenter)
	other := env.register(t, "other@example.com", models.RoleRenter)
	owner := env.register(t, "o@example.com", models.RoleOwner)
	submitProfile(t, env, renter)

	_, err := env.svc.Profile().Review(ctx, renter, renter.IdentityID, true)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = env.svc.Profile().Review(ctx, owner, renter.IdentityID, true)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	phone := "+1"
	_, err = env.svc.Profile().Update(ctx, other, renter.IdentityID, models.ProfilePatch{Phone: &phone})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = env.svc.Profile().Get(ctx, other, renter.IdentityID)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = env.svc.Profile().Create(ctx, owner, owner.IdentityID, models.ProfileInput{})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = env.svc.Profile().Create(ctx, admin, owner.IdentityID, models.ProfileInput{})
	assert.ErrorIs(t, err, xerrors.ErrValidation, "only renters own a profile")

	_, err = env.svc.Profile().ListPending(ctx, renter)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	_, err = env.svc.Profile().Update(ctx, admin, renter.IdentityID, models.ProfilePatch{Phone: &phone})
	assert.NoError(t, err)
}

func TestProfile_CreateTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	renter := env.register(t, "r@example.com", models.RoleRenter)
	submitProfile(t, env, renter)

	_, err := env.svc.Profile().Create(context.Background(), renter, renter.IdentityID, models.ProfileInput{})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestProfile_UpdateMissingOrEmpty(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	renter := env.register(t, "r@example.com", models.RoleRenter)

	_, err := env.svc.Profile().Update(ctx, renter, renter.IdentityID, models.ProfilePatch{})
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	phone := "+1"
	_, err = env.svc.Profile().Update(ctx, renter, renter.IdentityID, models.ProfilePatch{Phone: &phone})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	admin := env.admin(t, "admin@example.com")
	_, err = env.svc.Profile().Review(ctx, admin, renter.IdentityID, true)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestProfile_ListPendingNeedsLicenseImage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.admin(t, "admin@example.com")

	withImage := env.register(t, "a@example.com", models.RoleRenter)
	submitProfile(t, env, withImage)

	noImage := env.register(t, "b@example.com", models.RoleRenter)
	_, err := env.svc.Profile().Create(ctx, noImage, noImage.IdentityID, models.ProfileInput{Phone: "+1"})
	require.NoError(t, err)

	env.verifiedRenter(t, "c@example.com", admin)

	pending, err := env.svc.Profile().ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, withImage.IdentityID, pending[0].IdentityID)
}
