package models

import "time"

type RenterProfile struct {
	IdentityID      string     `json:"identity_id"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	LicenseNumber   string     `json:"license_number"`
	LicenseExpiry   *time.Time `json:"license_expiry,omitempty"`
	LicenseImageURL string     `json:"license_image_url"`
	LicenseVerified bool       `json:"license_verified"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasLicenseImage reports whether the profile is eligible for the admin review queue.
func (p *RenterProfile) HasLicenseImage() bool {
	return p.LicenseImageURL != ""
}

type ProfileInput struct {
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	LicenseNumber   string     `json:"license_number"`
	LicenseExpiry   *time.Time `json:"license_expiry"`
	LicenseImageURL string     `json:"license_image_url"`
}

// ProfilePatch carries only the fields the renter changed.
type ProfilePatch struct {
	Phone           *string    `json:"phone"`
	Address         *string    `json:"address"`
	LicenseNumber   *string    `json:"license_number"`
	LicenseExpiry   *time.Time `json:"license_expiry"`
	LicenseImageURL *string    `json:"license_image_url"`
}

func (p ProfilePatch) Empty() bool {
	return p.Phone == nil && p.Address == nil && p.LicenseNumber == nil &&
		p.LicenseExpiry == nil && p.LicenseImageURL == nil
}

func (p ProfilePatch) ApplyTo(profile *RenterProfile) {
	if p.Phone != nil {
		profile.Phone = *p.Phone
	}
	if p.Address != nil {
		profile.Address = *p.Address
	}
	if p.LicenseNumber != nil {
		profile.LicenseNumber = *p.LicenseNumber
	}
	if p.LicenseExpiry != nil {
		expiry := *p.LicenseExpiry
		profile.LicenseExpiry = &expiry
	}
	if p.LicenseImageURL != nil {
		profile.LicenseImageURL = *p.LicenseImageURL
	}
}

// ProfileReview is the outcome an admin writes for a renter. Verified lands on
// both identities.profile_verified and renter_profiles.license_verified.
type ProfileReview struct {
	Verified   bool
	ReviewedAt time.Time
}

type ProfileState string

const (
	ProfileNotSubmitted  ProfileState = "not_submitted"
	ProfilePendingReview ProfileState = "pending_review"
	ProfileVerified      ProfileState = "verified"
	ProfileRejected      ProfileState = "rejected"
)

func DeriveProfileState(identity *Identity, profile *RenterProfile) ProfileState {
	switch {
	case profile == nil:
		return ProfileNotSubmitted
	case identity.ProfileVerified:
		return ProfileVerified
	case profile.ReviewedAt != nil:
		return ProfileRejected
	default:
		return ProfilePendingReview
	}
}

type ProfileView struct {
	Profile         *RenterProfile `json:"profile"`
	ProfileVerified bool           `json:"profile_verified"`
	State           ProfileState   `json:"state"`
}
