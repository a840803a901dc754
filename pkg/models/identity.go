package models

import (
	"crypto/subtle"
	"time"
)

type Identity struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Role            Role      `json:"role"`
	PasswordHash    string    `json:"-"`
	EmailVerified   bool      `json:"email_verified"`
	ProfileVerified bool      `json:"profile_verified"`
	PendingOTP      *OTPState `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OTPState is the single pending one-time code of an identity. Code and
// ExpiresAt are always stored and cleared together.
type OTPState struct {
	Code      string
	ExpiresAt time.Time
}

func (o OTPState) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

func (o OTPState) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) == 1
}
