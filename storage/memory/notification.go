package memory

import (
	"context"
	"time"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *models.Notification) (*models.Notification, error) {
	if err := r.s.enter("Notification.Create"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	st := r.s.state()
	if _, ok := st.identities[n.RecipientID]; !ok {
		return nil, xerrors.ErrNotFound
	}
	if _, ok := st.notifications[n.ID]; ok {
		return nil, xerrors.ErrConflict
	}
	stored := *n
	stored.IsRead = false
	stored.CreatedAt = r.s.tick()
	st.notifications[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, recipientID string) (bool, error) {
	if err := r.s.enter("Notification.MarkRead"); err != nil {
		return false, err
	}
	defer r.s.leave()

	n, ok := r.s.state().notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (r notificationRepo) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	if err := r.s.enter("Notification.MarkAllRead"); err != nil {
		return 0, err
	}
	defer r.s.leave()

	var count int64
	for _, n := range r.s.state().notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) CountUnread(_ context.Context, recipientID string) (int64, error) {
	if err := r.s.enter("Notification.CountUnread"); err != nil {
		return 0, err
	}
	defer r.s.leave()

	var count int64
	for _, n := range r.s.state().notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if err := r.s.enter("Notification.ListByRecipient"); err != nil {
		return nil, err
	}
	defer r.s.leave()

	var out []*models.Notification
	for _, n := range r.s.state().notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sortByCreated(out, func(n *models.Notification) time.Time { return n.CreatedAt }, true)

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
