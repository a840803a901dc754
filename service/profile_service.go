package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

type ProfileService interface {
	Create(ctx context.Context, caller models.Caller, identityID string, in models.ProfileInput) (*models.ProfileView, error)
	Update(ctx context.Context, caller models.Caller, identityID string, patch models.ProfilePatch) (*models.ProfileView, error)
	Get(ctx context.Context, caller models.Caller, identityID string) (*models.ProfileView, error)
	Review(ctx context.Context, caller models.Caller, identityID string, approve bool) (*models.ProfileView, error)
	ListPending(ctx context.Context, caller models.Caller) ([]*models.RenterProfile, error)
}

type profileService struct {
	stg storage.IStorage
	now func() time.Time
	log logger.ILogger
}

func NewProfileService(stg storage.IStorage, deps Deps, log logger.ILogger) ProfileService {
	return &profileService{stg: stg, now: deps.withDefaults().Clock, log: log}
}

func (s *profileService) Create(ctx context.Context, caller models.Caller, identityID string, in models.ProfileInput) (*models.ProfileView, error) {
	if err := authorize(caller, OpCreateProfile); err != nil {
		return nil, err
	}
	if err := authorizeOwner(caller, identityID); err != nil {
		return nil, err
	}

	var view *models.ProfileView
	err := s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		identity, err := tx.Identity().GetByID(ctx, identityID)
		if err != nil {
			return wrapLookup(err, "identity")
		}
		if identity.Role != models.RoleRenter {
			return fmt.Errorf("%w: only renters have a profile", xerrors.ErrValidation)
		}

		profile, err := tx.Profile().Create(ctx, &models.RenterProfile{
			IdentityID:      identityID,
			Phone:           in.Phone,
			Address:         in.Address,
			LicenseNumber:   in.LicenseNumber,
			LicenseExpiry:   in.LicenseExpiry,
			LicenseImageURL: in.LicenseImageURL,
		})
		if err != nil {
			if errors.Is(err, xerrors.ErrConflict) {
				return fmt.Errorf("%w: profile already exists", xerrors.ErrConflict)
			}
			return err
		}

		if err := tx.Identity().SetProfileVerified(ctx, identityID, false); err != nil {
			return err
		}
		identity.ProfileVerified = false
		view = viewOf(identity, profile)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("renter profile submitted", logger.String("identity_id", identityID))
	return view, nil
}

// Update applies patch and drops the identity back to pending review in the
// same transaction, whichever field changed.
func (s *profileService) Update(ctx context.Context, caller models.Caller, identityID string, patch models.ProfilePatch) (*models.ProfileView, error) {
	if err := authorize(caller, OpUpdateProfile); err != nil {
		return nil, err
	}
	if err := authorizeOwner(caller, identityID); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", xerrors.ErrValidation)
	}

	var view *models.ProfileView
	err := s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		identity, err := tx.Identity().GetByID(ctx, identityID)
		if err != nil {
			return wrapLookup(err, "identity")
		}
		profile, err := tx.Profile().GetByIdentityID(ctx, identityID)
		if err != nil {
			return wrapLookup(err, "profile")
		}

		patch.ApplyTo(profile)
		updated, err := tx.Profile().Update(ctx, profile)
		if err != nil {
			return err
		}
		if err := tx.Identity().SetProfileVerified(ctx, identityID, false); err != nil {
			return err
		}
		identity.ProfileVerified = false
		view = viewOf(identity, updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("renter profile edited, review reset", logger.String("identity_id", identityID))
	return view, nil
}

func (s *profileService) Get(ctx context.Context, caller models.Caller, identityID string) (*models.ProfileView, error) {
	if err := authorize(caller, OpGetProfile); err != nil {
		return nil, err
	}
	if err := authorizeOwner(caller, identityID); err != nil {
		return nil, err
	}

	identity, err := s.stg.Identity().GetByID(ctx, identityID)
	if err != nil {
		return nil, wrapLookup(err, "identity")
	}
	profile, err := s.stg.Profile().GetByIdentityID(ctx, identityID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, wrapLookup(err, "profile")
	}
	return viewOf(identity, profile), nil
}

// Review writes the verdict to both identity.profile_verified and
// profile.license_verified as one unit. No notification is produced.
func (s *profileService) Review(ctx context.Context, caller models.Caller, identityID string, approve bool) (*models.ProfileView, error) {
	if err := authorize(caller, OpReviewProfile); err != nil {
		return nil, err
	}

	review := models.ProfileReview{Verified: approve, ReviewedAt: s.now().UTC()}

	var view *models.ProfileView
	err := s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		identity, err := tx.Identity().GetByID(ctx, identityID)
		if err != nil {
			return wrapLookup(err, "identity")
		}
		profile, err := tx.Profile().GetByIdentityID(ctx, identityID)
		if err != nil {
			return wrapLookup(err, "profile")
		}

		if err := tx.Identity().SetProfileVerified(ctx, identityID, review.Verified); err != nil {
			return err
		}
		if err := tx.Profile().SetLicenseVerified(ctx, identityID, review.Verified, review.ReviewedAt); err != nil {
			return err
		}

		identity.ProfileVerified = review.Verified
		profile.LicenseVerified = review.Verified
		profile.ReviewedAt = &review.ReviewedAt
		view = viewOf(identity, profile)
		return nil
	})
	if err != nil {
		s.log.Error("profile review failed", logger.String("identity_id", identityID), logger.Error(err))
		return nil, err
	}

	s.log.Info("renter profile reviewed",
		logger.String("identity_id", identityID),
		logger.String("admin_id", caller.IdentityID),
		logger.Bool("approved", approve),
	)
	return view, nil
}

func (s *profileService) ListPending(ctx context.Context, caller models.Caller) ([]*models.RenterProfile, error) {
	if err := authorize(caller, OpListPendingProfiles); err != nil {
		return nil, err
	}
	profiles, err := s.stg.Profile().ListPendingReview(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending profiles: %v", xerrors.ErrInternal, err)
	}
	return profiles, nil
}

func viewOf(identity *models.Identity, profile *models.RenterProfile) *models.ProfileView {
	return &models.ProfileView{
		Profile:         profile,
		ProfileVerified: identity.ProfileVerified,
		State:           models.DeriveProfileState(identity, profile),
	}
}
