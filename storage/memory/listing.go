package memory

import (
	"context"
	"time"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

type listingRepo struct{ s *Store }

func (r listingRepo) Create(_ context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.s.enter("Listing.Create"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	st := r.s.state()
	if _, ok := st.listings[listing.ID]; ok {
		return nil, xerrors.ErrConflict
	}
	stored := *listing
	stored.Verified = false
	stored.CreatedAt = r.s.tick()
	stored.UpdatedAt = stored.CreatedAt
	st.listings[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r listingRepo) GetByID(_ context.Context, id string) (*models.Listing, error) {
	if err := r.s.enter("Listing.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	listing, ok := r.s.state().listings[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	out := *listing
	return &out, nil
}

func (r listingRepo) Update(_ context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.s.enter("Listing.Update"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	stored, ok := r.s.state().listings[listing.ID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	verified, ownerID, created := stored.Verified, stored.OwnerID, stored.CreatedAt
	*stored = *listing
	stored.Verified = verified
	stored.OwnerID = ownerID
	stored.CreatedAt = created
	stored.UpdatedAt = r.s.tick()
	out := *stored
	return &out, nil
}

func (r listingRepo) SetVerified(_ context.Context, id string, verified bool) (*models.Listing, error) {
	if err := r.s.enter("Listing.SetVerified"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	stored, ok := r.s.state().listings[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	stored.Verified = verified
	stored.UpdatedAt = r.s.tick()
	out := *stored
	return &out, nil
}

func (r listingRepo) ListByOwner(_ context.Context, ownerID string) ([]*models.Listing, error) {
	return r.filter("Listing.ListByOwner", true, func(l *models.Listing) bool { return l.OwnerID == ownerID })
}

func (r listingRepo) ListPending(_ context.Context) ([]*models.Listing, error) {
	return r.filter("Listing.ListPending", false, func(l *models.Listing) bool { return !l.Verified })
}

func (r listingRepo) ListPublic(_ context.Context) ([]*models.Listing, error) {
	return r.filter("Listing.ListPublic", true, (*models.Listing).Favoritable)
}

func (r listingRepo) filter(op string, newestFirst bool, keep func(*models.Listing) bool) ([]*models.Listing, error) {
	if err := r.s.enter(op); err != nil {
		return nil, err
	}
	defer r.s.leave()

	var out []*models.Listing
	for _, listing := range r.s.state().listings {
		if keep(listing) {
			l := *listing
			out = append(out, &l)
		}
	}
	sortByCreated(out, func(l *models.Listing) time.Time { return l.CreatedAt }, newestFirst)
	return out, nil
}
