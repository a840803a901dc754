package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/pkg/logger/loggertest"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewFromPool(mock, loggertest.New(t)), mock
}

func TestWithTx_ProfileReviewCommitsBothWrites(t *testing.T) {
	store, mock := newMockStore(t)
	reviewedAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE identities SET profile_verified").
		WithArgs("renter-1", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE renter_profiles SET license_verified").
		WithArgs("renter-1", true, reviewedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx storage.IStorage) error {
		if err := tx.Identity().SetProfileVerified(context.Background(), "renter-1", true); err != nil {
			return err
		}
		return tx.Profile().SetLicenseVerified(context.Background(), "renter-1", true, reviewedAt)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackWhenSecondWriteFails(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE identities SET profile_verified").
		WithArgs("renter-1", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE renter_profiles SET license_verified").
		WithArgs("renter-1", true, pgxmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx storage.IStorage) error {
		if err := tx.Identity().SetProfileVerified(context.Background(), "renter-1", true); err != nil {
			return err
		}
		return tx.Profile().SetLicenseVerified(context.Background(), "renter-1", true, time.Now())
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackAndRepanics(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), func(tx storage.IStorage) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_NestedCallJoinsTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE identities SET email_verified").
		WithArgs("id-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx storage.IStorage) error {
		return tx.WithTx(context.Background(), func(inner storage.IStorage) error {
			return inner.Identity().MarkEmailVerified(context.Background(), "id-1")
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepo_ClearPendingOTP(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE identities SET otp_code = NULL").
		WithArgs("id-1", "123456").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE identities SET otp_code = NULL").
		WithArgs("id-1", "123456").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	cleared, err := store.Identity().ClearPendingOTP(context.Background(), "id-1", "123456")
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = store.Identity().ClearPendingOTP(context.Background(), "id-1", "123456")
	require.NoError(t, err)
	assert.False(t, cleared)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepo_MarkEmailVerifiedMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE identities SET email_verified").
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Identity().MarkEmailVerified(context.Background(), "ghost")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepo_GetByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM identities WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Identity().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepo_CreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO identities").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := store.Identity().Create(context.Background(), &models.Identity{
		ID:    "id-1",
		Email: "a@example.com",
		Role:  models.RoleRenter,
	})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_SetVerified(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := mock.NewRows([]string{
		"id", "owner_id", "make", "model", "year", "plate_number", "daily_rate", "location",
		"description", "status", "verified", "created_at", "updated_at",
	}).AddRow("lst-1", "owner-1", "Toyota", "Corolla", 2020, "01A123BC", int64(45), "Tashkent",
		"clean", "available", true, now, now)

	mock.ExpectQuery("UPDATE listings SET verified").
		WithArgs("lst-1", true).
		WillReturnRows(rows)

	l, err := store.Listing().SetVerified(context.Background(), "lst-1", true)
	require.NoError(t, err)
	assert.True(t, l.Verified)
	assert.Equal(t, models.ListingAvailable, l.Status)
	assert.True(t, l.Favoritable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepo_AddIsIdempotent(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec("INSERT INTO favorites").
		WithArgs("renter-1", "lst-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT identity_id, listing_id, created_at FROM favorites").
		WithArgs("renter-1", "lst-1").
		WillReturnRows(mock.NewRows([]string{"identity_id", "listing_id", "created_at"}).
			AddRow("renter-1", "lst-1", created))

	fav, err := store.Favorite().Add(context.Background(), "renter-1", "lst-1")
	require.NoError(t, err)
	assert.Equal(t, created, fav.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_MarkAllRead(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE WHERE recipient_id").
		WithArgs("owner-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := store.Notification().MarkAllRead(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDIsNotFound(t *testing.T) {
	badUUID := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}
	ctx := context.Background()

	t.Run("listing lookup", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("FROM listings WHERE id").WithArgs("not-a-uuid").WillReturnError(badUUID)

		_, err := store.Listing().GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("single row write", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE identities SET profile_verified").WithArgs("not-a-uuid", true).WillReturnError(badUUID)

		err := store.Identity().SetProfileVerified(ctx, "not-a-uuid", true)
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark read", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE notifications SET is_read").WithArgs("not-a-uuid", "renter-1").WillReturnError(badUUID)

		found, err := store.Notification().MarkRead(ctx, "not-a-uuid", "renter-1")
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("remove favorite", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("DELETE FROM favorites").WithArgs("renter-1", "not-a-uuid").WillReturnError(badUUID)

		removed, err := store.Favorite().Remove(ctx, "renter-1", "not-a-uuid")
		require.NoError(t, err)
		assert.False(t, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFavoriteRepo_AddForDeletedListing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO favorites").
		WithArgs("renter-1", "listing-1").
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	_, err := store.Favorite().Add(context.Background(), "renter-1", "listing-1")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnexpectedErrorsPassThrough(t *testing.T) {
	store, mock := newMockStore(t)
	boom := &pgconn.PgError{Code: "57P01", Message: "terminating connection"}

	mock.ExpectQuery("FROM listings WHERE id").WithArgs("listing-1").WillReturnError(boom)

	_, err := store.Listing().GetByID(context.Background(), "listing-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, xerrors.ErrNotFound)
}

func TestTruncate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("TRUNCATE TABLE favorites, notifications, listings, renter_profiles, identities").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))

	require.NoError(t, store.Truncate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
