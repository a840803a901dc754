package postgres

import (
	"context"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/storage"
)

type favoriteRepo struct {
	db  DB
	log logger.ILogger
}

func NewFavoriteRepo(db DB, log logger.ILogger) storage.IFavoriteStorage {
	return &favoriteRepo{db: db, log: log}
}

func (r *favoriteRepo) Add(ctx context.Context, identityID, listingID string) (*models.Favorite, error) {
	insert := `
		INSERT INTO favorites (identity_id, listing_id) VALUES ($1, $2)
		ON CONFLICT (identity_id, listing_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, insert, identityID, listingID); err != nil {
		return nil, readError(r.log, "failed to add favorite", err)
	}

	var fav models.Favorite
	query := `SELECT identity_id, listing_id, created_at FROM favorites WHERE identity_id = $1 AND listing_id = $2`
	err := r.db.QueryRow(ctx, query, identityID, listingID).Scan(&fav.IdentityID, &fav.ListingID, &fav.CreatedAt)
	if err != nil {
		return nil, readError(r.log, "failed to read favorite", err)
	}
	return &fav, nil
}

func (r *favoriteRepo) Remove(ctx context.Context, identityID, listingID string) (bool, error) {
	query := `DELETE FROM favorites WHERE identity_id = $1 AND listing_id = $2`
	tag, err := r.db.Exec(ctx, query, identityID, listingID)
	if err != nil {
		return false, absentOrError(r.log, "failed to remove favorite", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *favoriteRepo) ListByIdentity(ctx context.Context, identityID string) ([]*models.Favorite, error) {
	query := `SELECT identity_id, listing_id, created_at FROM favorites WHERE identity_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, identityID)
	if err != nil {
		r.log.Error("failed to list favorites", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var favorites []*models.Favorite
	for rows.Next() {
		var fav models.Favorite
		if err := rows.Scan(&fav.IdentityID, &fav.ListingID, &fav.CreatedAt); err != nil {
			return nil, err
		}
		favorites = append(favorites, &fav)
	}
	return favorites, rows.Err()
}
