package storage

import (
	"context"
	"fmt"

	"mindsy/internal/models"
)

type NotificationRepo struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO notifications (notification_id, user_id, title, message, kind, read, link_job_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.NotificationID, n.UserID, n.Title, n.Message, n.Kind, n.Read, n.LinkJobID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := `
SELECT notification_id, user_id, title, message, kind, read, link_job_id, created_at
FROM notifications
WHERE user_id=$1`
	if unreadOnly {
		q += ` AND NOT read`
	}
	q += ` ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Read, &n.LinkJobID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE notifications SET read=TRUE WHERE user_id=$1 AND notification_id=$2`, userID, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE notifications SET read=TRUE WHERE user_id=$1 AND NOT read`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Delete(ctx context.Context, userID, notificationID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM notifications WHERE user_id=$1 AND notification_id=$2`, userID, notificationID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
