package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

const profileColumns = `identity_id, phone, address, license_number, license_expiry, license_image_url,
	license_verified, reviewed_at, created_at, updated_at`

type profileRepo struct {
	db  DB
	log logger.ILogger
}

func NewProfileRepo(db DB, log logger.ILogger) storage.IProfileStorage {
	return &profileRepo{db: db, log: log}
}

func scanProfile(row pgx.Row) (*models.RenterProfile, error) {
	var p models.RenterProfile
	err := row.Scan(
		&p.IdentityID, &p.Phone, &p.Address, &p.LicenseNumber, &p.LicenseExpiry, &p.LicenseImageURL,
		&p.LicenseVerified, &p.ReviewedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Create(ctx context.Context, profile *models.RenterProfile) (*models.RenterProfile, error) {
	query := `
		INSERT INTO renter_profiles (identity_id, phone, address, license_number, license_expiry, license_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + profileColumns
	created, err := scanProfile(r.db.QueryRow(ctx, query,
		profile.IdentityID, profile.Phone, profile.Address, profile.LicenseNumber,
		profile.LicenseExpiry, profile.LicenseImageURL,
	))
	if err != nil {
		if !xerrors.IsUniqueViolation(err) {
			r.log.Error("failed to create renter profile", logger.Error(err))
		}
		return nil, mapError(err)
	}
	return created, nil
}

func (r *profileRepo) GetByIdentityID(ctx context.Context, identityID string) (*models.RenterProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM renter_profiles WHERE identity_id = $1`
	profile, err := scanProfile(r.db.QueryRow(ctx, query, identityID))
	if err != nil {
		return nil, readError(r.log, "failed to get renter profile", err)
	}
	return profile, nil
}

func (r *profileRepo) Update(ctx context.Context, profile *models.RenterProfile) (*models.RenterProfile, error) {
	query := `
		UPDATE renter_profiles
		SET phone = $2, address = $3, license_number = $4, license_expiry = $5, license_image_url = $6,
			reviewed_at = NULL, updated_at = NOW()
		WHERE identity_id = $1
		RETURNING ` + profileColumns
	updated, err := scanProfile(r.db.QueryRow(ctx, query,
		profile.IdentityID, profile.Phone, profile.Address, profile.LicenseNumber,
		profile.LicenseExpiry, profile.LicenseImageURL,
	))
	if err != nil {
		return nil, readError(r.log, "failed to update renter profile", err)
	}
	return updated, nil
}

func (r *profileRepo) SetLicenseVerified(ctx context.Context, identityID string, verified bool, reviewedAt time.Time) error {
	query := `
		UPDATE renter_profiles SET license_verified = $2, reviewed_at = $3, updated_at = NOW()
		WHERE identity_id = $1`
	return execOne(ctx, r.db, r.log, "failed to set license verified", query, identityID, verified, reviewedAt)
}

func (r *profileRepo) ListPendingReview(ctx context.Context) ([]*models.RenterProfile, error) {
	query := `
		SELECT p.identity_id, p.phone, p.address, p.license_number, p.license_expiry, p.license_image_url,
			p.license_verified, p.reviewed_at, p.created_at, p.updated_at
		FROM renter_profiles p
		JOIN identities i ON i.id = p.identity_id
		WHERE i.profile_verified = FALSE AND p.license_image_url <> ''
		ORDER BY p.updated_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list pending profiles", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.RenterProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
