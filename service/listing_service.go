package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

type ListingService interface {
	Create(ctx context.Context, caller models.Caller, in models.ListingInput) (*models.Listing, error)
	// Update never changes the verified flag.
	Update(ctx context.Context, caller models.Caller, listingID string, patch models.ListingPatch) (*models.Listing, error)
	Review(ctx context.Context, caller models.Caller, listingID string, approve bool) (*models.Listing, error)
	Get(ctx context.Context, caller models.Caller, listingID string) (*models.Listing, error)
	ListPending(ctx context.Context, caller models.Caller) ([]*models.Listing, error)
	ListMine(ctx context.Context, caller models.Caller) ([]*models.Listing, error)
	ListPublic(ctx context.Context) ([]*models.Listing, error)
}

type listingService struct {
	stg      storage.IStorage
	notifier NotificationService
	log      logger.ILogger
}

func NewListingService(stg storage.IStorage, notifier NotificationService, log logger.ILogger) ListingService {
	return &listingService{stg: stg, notifier: notifier, log: log}
}

func validateListing(l *models.Listing) error {
	switch {
	case strings.TrimSpace(l.Make) == "" || strings.TrimSpace(l.Model) == "":
		return fmt.Errorf("%w: make and model are required", xerrors.ErrValidation)
	case l.Year != 0 && (l.Year < 1900 || l.Year > 2100):
		return fmt.Errorf("%w: year %d out of range", xerrors.ErrValidation, l.Year)
	case l.DailyRate < 0:
		return fmt.Errorf("%w: daily rate must not be negative", xerrors.ErrValidation)
	case !l.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", xerrors.ErrValidation, l.Status)
	}
	return nil
}

func (s *listingService) Create(ctx context.Context, caller models.Caller, in models.ListingInput) (*models.Listing, error) {
	if err := authorize(caller, OpCreateListing); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		ID:          uuid.NewString(),
		OwnerID:     caller.IdentityID,
		Make:        strings.TrimSpace(in.Make),
		Model:       strings.TrimSpace(in.Model),
		Year:        in.Year,
		PlateNumber: strings.TrimSpace(in.PlateNumber),
		DailyRate:   in.DailyRate,
		Location:    in.Location,
		Description: in.Description,
		Status:      in.Status,
	}
	if listing.Status == "" {
		listing.Status = models.ListingAvailable
	}
	if err := validateListing(listing); err != nil {
		return nil, err
	}

	created, err := s.stg.Listing().Create(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("%w: create listing: %v", xerrors.ErrInternal, err)
	}
	s.log.Info("listing submitted", logger.String("listing_id", created.ID), logger.String("owner_id", created.OwnerID))

	s.notifier.ListingSubmitted(ctx, created, caller.IdentityID)
	return created, nil
}

func (s *listingService) Update(ctx context.Context, caller models.Caller, listingID string, patch models.ListingPatch) (*models.Listing, error) {
	if err := authorize(caller, OpUpdateListing); err != nil {
		return nil, err
	}

	listing, err := s.stg.Listing().GetByID(ctx, listingID)
	if err != nil {
		return nil, wrapLookup(err, "listing")
	}
	if err := authorizeOwner(caller, listing.OwnerID); err != nil {
		return nil, err
	}

	patch.ApplyTo(listing)
	if err := validateListing(listing); err != nil {
		return nil, err
	}

	updated, err := s.stg.Listing().Update(ctx, listing)
	if err != nil {
		return nil, wrapLookup(err, "listing")
	}
	return updated, nil
}

func (s *listingService) Review(ctx context.Context, caller models.Caller, listingID string, approve bool) (*models.Listing, error) {
	if err := authorize(caller, OpReviewListing); err != nil {
		return nil, err
	}

	listing, err := s.stg.Listing().SetVerified(ctx, listingID, approve)
	if err != nil {
		return nil, wrapLookup(err, "listing")
	}
	s.log.Info("listing reviewed",
		logger.String("listing_id", listing.ID),
		logger.String("admin_id", caller.IdentityID),
		logger.Bool("approved", approve),
	)

	s.notifier.ListingReviewed(ctx, listing, approve, caller.IdentityID)
	return listing, nil
}

// Get hides listings that are not public from everyone but their owner and
// admins.
func (s *listingService) Get(ctx context.Context, caller models.Caller, listingID string) (*models.Listing, error) {
	listing, err := s.stg.Listing().GetByID(ctx, listingID)
	if err != nil {
		return nil, wrapLookup(err, "listing")
	}
	if listing.Favoritable() || authorizeOwner(caller, listing.OwnerID) == nil {
		return listing, nil
	}
	return nil, fmt.Errorf("%w: listing", xerrors.ErrNotFound)
}

func (s *listingService) ListPending(ctx context.Context, caller models.Caller) ([]*models.Listing, error) {
	if err := authorize(caller, OpListPendingListings); err != nil {
		return nil, err
	}
	return s.list(s.stg.Listing().ListPending(ctx))
}

func (s *listingService) ListMine(ctx context.Context, caller models.Caller) ([]*models.Listing, error) {
	if err := authorize(caller, OpListOwnListings); err != nil {
		return nil, err
	}
	return s.list(s.stg.Listing().ListByOwner(ctx, caller.IdentityID))
}

func (s *listingService) ListPublic(ctx context.Context) ([]*models.Listing, error) {
	return s.list(s.stg.Listing().ListPublic(ctx))
}

func (s *listingService) list(listings []*models.Listing, err error) ([]*models.Listing, error) {
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: list listings: %v", xerrors.ErrInternal, err)
	}
	return listings, nil
}
