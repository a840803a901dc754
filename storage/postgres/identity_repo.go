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

const identityColumns = `id, email, full_name, role, password_hash, email_verified, profile_verified,
	otp_code, otp_expires_at, created_at, updated_at`

type identityRepo struct {
	db  DB
	log logger.ILogger
}

func NewIdentityRepo(db DB, log logger.ILogger) storage.IIdentityStorage {
	return &identityRepo{db: db, log: log}
}

func scanIdentity(row pgx.Row) (*models.Identity, error) {
	var (
		identity  models.Identity
		role      string
		otpCode   *string
		otpExpiry *time.Time
	)
	err := row.Scan(
		&identity.ID, &identity.Email, &identity.FullName, &role, &identity.PasswordHash,
		&identity.EmailVerified, &identity.ProfileVerified, &otpCode, &otpExpiry,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	identity.Role = models.Role(role)
	if otpCode != nil && otpExpiry != nil {
		identity.PendingOTP = &models.OTPState{Code: *otpCode, ExpiresAt: *otpExpiry}
	}
	return &identity, nil
}

func (r *identityRepo) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	var otpCode *string
	var otpExpiry *time.Time
	if identity.PendingOTP != nil {
		otpCode = &identity.PendingOTP.Code
		otpExpiry = &identity.PendingOTP.ExpiresAt
	}

	query := `
		INSERT INTO identities (id, email, full_name, role, password_hash, email_verified, profile_verified, otp_code, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + identityColumns
	created, err := scanIdentity(r.db.QueryRow(ctx, query,
		identity.ID, identity.Email, identity.FullName, string(identity.Role), identity.PasswordHash,
		identity.EmailVerified, identity.ProfileVerified, otpCode, otpExpiry,
	))
	if err != nil {
		if !xerrors.IsUniqueViolation(err) {
			r.log.Error("failed to create identity", logger.Error(err))
		}
		return nil, mapError(err)
	}
	return created, nil
}

func (r *identityRepo) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	identity, err := scanIdentity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, readError(r.log, "failed to get identity by id", err)
	}
	return identity, nil
}

func (r *identityRepo) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`
	identity, err := scanIdentity(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, readError(r.log, "failed to get identity by email", err)
	}
	return identity, nil
}

func (r *identityRepo) ListByRole(ctx context.Context, role models.Role) ([]*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE role = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, string(role))
	if err != nil {
		r.log.Error("failed to list identities by role", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var identities []*models.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (r *identityRepo) SetPendingOTP(ctx context.Context, id string, otp models.OTPState) error {
	query := `UPDATE identities SET otp_code = $2, otp_expires_at = $3, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, r.log, "failed to set pending otp", query, id, otp.Code, otp.ExpiresAt)
}

func (r *identityRepo) ClearPendingOTP(ctx context.Context, id, code string) (bool, error) {
	query := `
		UPDATE identities SET otp_code = NULL, otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND otp_code = $2`
	tag, err := r.db.Exec(ctx, query, id, code)
	if err != nil {
		r.log.Error("failed to clear pending otp", logger.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *identityRepo) MarkEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE identities SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, r.log, "failed to mark email verified", query, id)
}

func (r *identityRepo) SetProfileVerified(ctx context.Context, id string, verified bool) error {
	query := `UPDATE identities SET profile_verified = $2, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, r.log, "failed to set profile verified", query, id, verified)
}

func (r *identityRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE identities SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, r.log, "failed to update password hash", query, id, hash)
}
