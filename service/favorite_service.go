package service

import (
	"context"
	"errors"
	"fmt"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

type FavoriteService interface {
	Add(ctx context.Context, caller models.Caller, listingID string) (*models.Favorite, error)
	Remove(ctx context.Context, caller models.Caller, listingID string) (bool, error)
	List(ctx context.Context, caller models.Caller) ([]*models.Favorite, error)
}

type favoriteService struct {
	stg storage.IStorage
	log logger.ILogger
}

func NewFavoriteService(stg storage.IStorage, log logger.ILogger) FavoriteService {
	return &favoriteService{stg: stg, log: log}
}

// Add requires a verified profile for renters. A listing that is missing,
// unapproved or not available is reported as not found.
func (s *favoriteService) Add(ctx context.Context, caller models.Caller, listingID string) (*models.Favorite, error) {
	if err := authorize(caller, OpAddFavorite); err != nil {
		return nil, err
	}

	if caller.Role == models.RoleRenter {
		identity, err := s.stg.Identity().GetByID(ctx, caller.IdentityID)
		if err != nil {
			return nil, wrapLookup(err, "identity")
		}
		if !identity.ProfileVerified {
			return nil, xerrors.ErrProfileNotVerified
		}
	}

	listing, err := s.stg.Listing().GetByID(ctx, listingID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, wrapLookup(err, "listing")
	}
	if listing == nil || !listing.Favoritable() {
		return nil, fmt.Errorf("%w: listing", xerrors.ErrNotFound)
	}

	fav, err := s.stg.Favorite().Add(ctx, caller.IdentityID, listingID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: listing", xerrors.ErrNotFound)
	}
	if err != nil {
		s.log.Error("failed to add favorite", logger.String("listing_id", listingID), logger.Error(err))
		return nil, fmt.Errorf("%w: add favorite: %v", xerrors.ErrInternal, err)
	}
	return fav, nil
}

func (s *favoriteService) Remove(ctx context.Context, caller models.Caller, listingID string) (bool, error) {
	if err := authorize(caller, OpRemoveFavorite); err != nil {
		return false, err
	}
	removed, err := s.stg.Favorite().Remove(ctx, caller.IdentityID, listingID)
	if err != nil {
		return false, fmt.Errorf("%w: remove favorite: %v", xerrors.ErrInternal, err)
	}
	return removed, nil
}

func (s *favoriteService) List(ctx context.Context, caller models.Caller) ([]*models.Favorite, error) {
	if err := authorize(caller, OpListFavorites); err != nil {
		return nil, err
	}
	favorites, err := s.stg.Favorite().ListByIdentity(ctx, caller.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("%w: list favorites: %v", xerrors.ErrInternal, err)
	}
	return favorites, nil
}
