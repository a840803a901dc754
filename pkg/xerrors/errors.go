package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// Generic
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Verification gates
var (
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrProfileNotVerified = errors.New("profile not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrOTP                = errors.New("otp rejected")
)

type OTPReason string

const (
	OTPNotFound      OTPReason = "not_found"
	OTPNoPendingCode OTPReason = "no_pending_code"
	OTPExpired       OTPReason = "expired"
	OTPMismatch      OTPReason = "mismatch"
)

type OTPError struct {
	Reason OTPReason
}

func NewOTPError(reason OTPReason) *OTPError {
	return &OTPError{Reason: reason}
}

func (e *OTPError) Error() string {
	return "otp rejected: " + string(e.Reason)
}

func (e *OTPError) Is(target error) bool {
	return target == ErrOTP
}

// OTPReasonOf returns the reason of an OTP failure anywhere in the chain.
func OTPReasonOf(err error) (OTPReason, bool) {
	var otpErr *OTPError
	if errors.As(err, &otpErr) {
		return otpErr.Reason, true
	}
	return "", false
}

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == pgUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return ParsePGErrorCode(err) == pgForeignKeyViolation
}

// IsInvalidTextRepresentation reports a value Postgres could not parse for its
// column type, such as a malformed UUID.
func IsInvalidTextRepresentation(err error) bool {
	return ParsePGErrorCode(err) == pgInvalidTextRepr
}
