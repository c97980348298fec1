package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campus/attendance/internal/model"
)

const notificationColumns = `id, user_id, title, message, notification_type, is_read, read_at,
	related_entity_type, related_entity_id, created_at`

func scanNotification(row interface{ Scan(dest ...any) error }) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.IsRead,
		&n.ReadAt,
		&n.RelatedEntityType,
		&n.RelatedEntityID,
		&n.CreatedAt,
	)
	return n, err
}

// InsertNotification appends one notification row. Callers on the workflow
// path pass their transaction so the notification commits with the transition
// it documents.
func InsertNotification(ctx context.Context, q Querier, n model.Notification) error {
	_, err := q.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, notification_type,
			is_read, related_entity_type, related_entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7, now())
	`, n.ID, n.UserID, n.Title, n.Message, n.Type, n.RelatedEntityType, n.RelatedEntityID)
	return err
}

func ListNotifications(ctx context.Context, q Querier, userID uuid.UUID, notificationType *string, limit, offset int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID}

	if notificationType != nil {
		args = append(args, *notificationType)
		query += fmt.Sprintf(` AND notification_type = $%d`, len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips the read flag; the user_id guard keeps users
// from touching each other's notifications.
func MarkNotificationRead(ctx context.Context, q Querier, notificationID, userID uuid.UUID) (model.Notification, error) {
	row := q.QueryRow(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns,
		notificationID, userID)
	return scanNotification(row)
}

func CountUnreadNotifications(ctx context.Context, q Querier, userID uuid.UUID) (int, error) {
	var count int
	row := q.QueryRow(ctx, `
		SELECT COUNT(*)::int FROM notifications WHERE user_id = $1 AND is_read = false
	`, userID)
	err := row.Scan(&count)
	return count, err
}
