package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/storage"
)

const notificationColumns = `id, recipient_id, type, title, message, related_listing_id, actor_id, is_read, created_at`

type notificationRepo struct {
	db  DB
	log logger.ILogger
}

func NewNotificationRepo(db DB, log logger.ILogger) storage.INotificationStorage {
	return &notificationRepo{db: db, log: log}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var (
		n   models.Notification
		typ string
	)
	err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &n.RelatedListingID, &n.ActorID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	return &n, nil
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (id, recipient_id, type, title, message, related_listing_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + notificationColumns
	created, err := scanNotification(r.db.QueryRow(ctx, query,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, n.RelatedListingID, n.ActorID,
	))
	if err != nil {
		r.log.Error("failed to create notification", logger.Error(err))
		return nil, mapError(err)
	}
	return created, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`
	tag, err := r.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return false, absentOrError(r.log, "failed to mark notification read", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`
	tag, err := r.db.Exec(ctx, query, recipientID)
	if err != nil {
		r.log.Error("failed to mark all notifications read", logger.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		r.log.Error("failed to count unread notifications", logger.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND ($2::boolean = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, recipientID, unreadOnly, limit, offset)
	if err != nil {
		r.log.Error("failed to list notifications", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
