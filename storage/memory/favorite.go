package memory

import (
	"context"
	"time"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

type favoriteRepo struct{ s *Store }

func (r favoriteRepo) Add(_ context.Context, identityID, listingID string) (*models.Favorite, error) {
	if err := r.s.enter("Favorite.Add"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	st := r.s.state()
	if _, ok := st.listings[listingID]; !ok {
		return nil, xerrors.ErrNotFound
	}
	key := favoriteKey{identityID: identityID, listingID: listingID}
	if existing, ok := st.favorites[key]; ok {
		out := *existing
		return &out, nil
	}
	fav := &models.Favorite{IdentityID: identityID, ListingID: listingID, CreatedAt: r.s.tick()}
	st.favorites[key] = fav
	out := *fav
	return &out, nil
}

func (r favoriteRepo) Remove(_ context.Context, identityID, listingID string) (bool, error) {
	if err := r.s.enter("Favorite.Remove"); err != nil {
		return false, err
	}
	defer r.s.leave()

	key := favoriteKey{identityID: identityID, listingID: listingID}
	if _, ok := r.s.state().favorites[key]; !ok {
		return false, nil
	}
	delete(r.s.state().favorites, key)
	return true, nil
}

func (r favoriteRepo) ListByIdentity(_ context.Context, identityID string) ([]*models.Favorite, error) {
	if err := r.s.enter("Favorite.ListByIdentity"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	var out []*models.Favorite
	for key, fav := range r.s.state().favorites {
		if key.identityID == identityID {
			f := *fav
			out = append(out, &f)
		}
	}
	sortByCreated(out, func(f *models.Favorite) time.Time { return f.CreatedAt }, true)
	return out, nil
}
