package memory

import (
	"context"
	"time"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

type identityRepo struct{ s *Store }

func (r identityRepo) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	if err := r.s.enter("Identity.Create"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	st := r.s.state()
	if _, ok := st.identities[identity.ID]; ok {
		return nil, xerrors.ErrConflict
	}
	for _, existing := range st.identities {
		if existing.Email == identity.Email {
			return nil, xerrors.ErrConflict
		}
	}

	stored := copyIdentity(identity)
	stored.CreatedAt = r.s.tick()
	stored.UpdatedAt = stored.CreatedAt
	st.identities[stored.ID] = stored
	return copyIdentity(stored), nil
}

func (r identityRepo) GetByID(_ context.Context, id string) (*models.Identity, error) {
	if err := r.s.enter("Identity.GetByID"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	identity, ok := r.s.state().identities[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return copyIdentity(identity), nil
}

func (r identityRepo) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	if err := r.s.enter("Identity.GetByEmail"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	for _, identity := range r.s.state().identities {
		if identity.Email == email {
			return copyIdentity(identity), nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r identityRepo) ListByRole(_ context.Context, role models.Role) ([]*models.Identity, error) {
	if err := r.s.enter("Identity.ListByRole"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	var out []*models.Identity
	for _, identity := range r.s.state().identities {
		if identity.Role == role {
			out = append(out, copyIdentity(identity))
		}
	}
	sortByCreated(out, func(i *models.Identity) time.Time { return i.CreatedAt }, false)
	return out, nil
}

func (r identityRepo) SetPendingOTP(_ context.Context, id string, otp models.OTPState) error {
	return r.update("Identity.SetPendingOTP", id, func(identity *models.Identity) {
		identity.PendingOTP = &otp
	})
}

func (r identityRepo) ClearPendingOTP(_ context.Context, id, code string) (bool, error) {
	if err := r.s.enter("Identity.ClearPendingOTP"); err != nil {
		return false, err
	}
	defer r.s.leave()

	identity, ok := r.s.state().identities[id]
	if !ok || identity.PendingOTP == nil || identity.PendingOTP.Code != code {
		return false, nil
	}
	identity.PendingOTP = nil
	identity.UpdatedAt = r.s.tick()
	return true, nil
}

func (r identityRepo) MarkEmailVerified(_ context.Context, id string) error {
	return r.update("Identity.MarkEmailVerified", id, func(identity *models.Identity) {
		identity.EmailVerified = true
	})
}

func (r identityRepo) SetProfileVerified(_ context.Context, id string, verified bool) error {
	return r.update("Identity.SetProfileVerified", id, func(identity *models.Identity) {
		identity.ProfileVerified = verified
	})
}

func (r identityRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return r.update("Identity.UpdatePasswordHash", id, func(identity *models.Identity) {
		identity.PasswordHash = hash
	})
}

func (r identityRepo) update(op, id string, apply func(*models.Identity)) error {
	if err := r.s.enter(op); err != nil {
		return err
	}
	defer r.s.leave()

	identity, ok := r.s.state().identities[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	apply(identity)
	identity.UpdatedAt = r.s.tick()
	return nil
}
