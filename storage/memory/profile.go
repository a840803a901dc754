package memory

import (
	"context"
	"time"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

type profileRepo struct{ s *Store }

func (r profileRepo) Create(_ context.Context, profile *models.RenterProfile) (*models.RenterProfile, error) {
	if err := r.s.enter("Profile.Create"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	st := r.s.state()
	if _, ok := st.identities[profile.IdentityID]; !ok {
		return nil, xerrors.ErrNotFound
	}
	if _, ok := st.profiles[profile.IdentityID]; ok {
		return nil, xerrors.ErrConflict
	}

	stored := copyProfile(profile)
	stored.LicenseVerified = false
	stored.ReviewedAt = nil
	stored.CreatedAt = r.s.tick()
	stored.UpdatedAt = stored.CreatedAt
	st.profiles[stored.IdentityID] = stored
	return copyProfile(stored), nil
}

func (r profileRepo) GetByIdentityID(_ context.Context, identityID string) (*models.RenterProfile, error) {
	if err := r.s.enter("Profile.GetByIdentityID"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	profile, ok := r.s.state().profiles[identityID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return copyProfile(profile), nil
}

func (r profileRepo) Update(_ context.Context, profile *models.RenterProfile) (*models.RenterProfile, error) {
	if err := r.s.enter("Profile.Update"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	stored, ok := r.s.state().profiles[profile.IdentityID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	stored.Phone = profile.Phone
	stored.Address = profile.Address
	stored.LicenseNumber = profile.LicenseNumber
	stored.LicenseExpiry = copyProfile(profile).LicenseExpiry
	stored.LicenseImageURL = profile.LicenseImageURL
	stored.ReviewedAt = nil
	stored.UpdatedAt = r.s.tick()
	return copyProfile(stored), nil
}

func (r profileRepo) SetLicenseVerified(_ context.Context, identityID string, verified bool, reviewedAt time.Time) error {
	if err := r.s.enter("Profile.SetLicenseVerified"); err != nil {
		return err
	}
	defer r.s.leave()

	stored, ok := r.s.state().profiles[identityID]
	if !ok {
		return xerrors.ErrNotFound
	}
	stored.LicenseVerified = verified
	stored.ReviewedAt = &reviewedAt
	stored.UpdatedAt = r.s.tick()
	return nil
}

func (r profileRepo) ListPendingReview(_ context.Context) ([]*models.RenterProfile, error) {
	if err := r.s.enter("Profile.ListPendingReview"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	st := r.s.state()
	var out []*models.RenterProfile
	for id, profile := range st.profiles {
		identity, ok := st.identities[id]
		if !ok || identity.ProfileVerified || !profile.HasLicenseImage() {
			continue
		}
		out = append(out, copyProfile(profile))
	}
	sortByCreated(out, func(p *models.RenterProfile) time.Time { return p.UpdatedAt }, false)
	return out, nil
}
