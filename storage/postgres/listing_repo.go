package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/storage"
)

const listingColumns = `id, owner_id, make, model, year, plate_number, daily_rate, location, description,
	status, verified, created_at, updated_at`

type listingRepo struct {
	db  DB
	log logger.ILogger
}

func NewListingRepo(db DB, log logger.ILogger) storage.IListingStorage {
	return &listingRepo{db: db, log: log}
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var (
		l      models.Listing
		status string
	)
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Make, &l.Model, &l.Year, &l.PlateNumber, &l.DailyRate, &l.Location,
		&l.Description, &status, &l.Verified, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Status = models.ListingStatus(status)
	return &l, nil
}

func (r *listingRepo) Create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	query := `
		INSERT INTO listings (id, owner_id, make, model, year, plate_number, daily_rate, location, description, status, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
		RETURNING ` + listingColumns
	created, err := scanListing(r.db.QueryRow(ctx, query,
		l.ID, l.OwnerID, l.Make, l.Model, l.Year, l.PlateNumber, l.DailyRate, l.Location,
		l.Description, string(l.Status),
	))
	if err != nil {
		r.log.Error("failed to create listing", logger.Error(err))
		return nil, mapError(err)
	}
	return created, nil
}

func (r *listingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	l, err := scanListing(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, readError(r.log, "failed to get listing", err)
	}
	return l, nil
}

func (r *listingRepo) Update(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	query := `
		UPDATE listings
		SET make = $2, model = $3, year = $4, plate_number = $5, daily_rate = $6, location = $7,
			description = $8, status = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + listingColumns
	updated, err := scanListing(r.db.QueryRow(ctx, query,
		l.ID, l.Make, l.Model, l.Year, l.PlateNumber, l.DailyRate, l.Location, l.Description, string(l.Status),
	))
	if err != nil {
		return nil, readError(r.log, "failed to update listing", err)
	}
	return updated, nil
}

func (r *listingRepo) SetVerified(ctx context.Context, id string, verified bool) (*models.Listing, error) {
	query := `UPDATE listings SET verified = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + listingColumns
	l, err := scanListing(r.db.QueryRow(ctx, query, id, verified))
	if err != nil {
		return nil, readError(r.log, "failed to set listing verified", err)
	}
	return l, nil
}

func (r *listingRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "failed to list owner listings", query, ownerID)
}

func (r *listingRepo) ListPending(ctx context.Context) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE verified = FALSE ORDER BY created_at`
	return r.list(ctx, "failed to list pending listings", query)
}

func (r *listingRepo) ListPublic(ctx context.Context) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE verified = TRUE AND status = 'available' ORDER BY created_at DESC`
	return r.list(ctx, "failed to list public listings", query)
}

func (r *listingRepo) list(ctx context.Context, msg, query string, args ...any) ([]*models.Listing, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error(msg, logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
