package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestOTPError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("verify email: %w", NewOTPError(OTPExpired))

	assert.True(t, errors.Is(err, ErrOTP))
	assert.False(t, errors.Is(err, ErrNotFound))

	reason, ok := OTPReasonOf(err)
	assert.True(t, ok)
	assert.Equal(t, OTPExpired, reason)
	assert.Equal(t, "otp rejected: expired", NewOTPError(OTPExpired).Error())
}

func TestOTPReasonOf_Other(t *testing.T) {
	_, ok := OTPReasonOf(ErrConflict)
	assert.False(t, ok)
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})

	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.Equal(t, "unknown", ParsePGErrorCode(errors.New("boom")))
}

func TestReferenceErrors(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsInvalidTextRepresentation(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, IsInvalidTextRepresentation(errors.New("boom")))
}
