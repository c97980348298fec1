package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campus/attendance/internal/model"
	"campus/attendance/internal/repository"
)

const (
	categoryAbsence = "absence"

	titleAbsenceReported = "Absence Reported"
	titleRequestApproved = "Absence Request Approved"
	titleRequestRejected = "Absence Request Rejected"

	relatedAbsence        = "absence"
	relatedAbsenceRequest = "absence_request"
)

func absenceReportedMessage(subject string, date time.Time) string {
	return fmt.Sprintf("You have been marked absent for %s on %s", subject, date.Format("2006-01-02"))
}

func requestReviewedMessage(decision model.RequestStatus, subject string, date time.Time) string {
	return fmt.Sprintf("Your absence request for %s on %s has been %s", subject, date.Format("2006-01-02"), decision)
}

func reviewTitle(decision model.RequestStatus) string {
	if decision == model.RequestApproved {
		return titleRequestApproved
	}
	return titleRequestRejected
}

type emitParams struct {
	UserID      uuid.UUID
	Title       string
	Message     string
	Category    string
	RelatedType string
	RelatedID   uuid.UUID
}

// emit appends a notification inside the caller's transaction. It is never
// called outside one on the workflow path, so a notification exists iff the
// transition it documents committed.
func (s *Service) emit(ctx context.Context, q repository.Querier, p emitParams) error {
	relatedType := p.RelatedType
	relatedID := p.RelatedID
	return repository.InsertNotification(ctx, q, model.Notification{
		ID:                uuid.New(),
		UserID:            p.UserID,
		Title:             p.Title,
		Message:           p.Message,
		Type:              p.Category,
		RelatedEntityType: &relatedType,
		RelatedEntityID:   &relatedID,
	})
}

// Notifications is the pull side: delivery is the student polling, not push.
func (s *Service) Notifications(ctx context.Context, userID uuid.UUID, notificationType *string, limit, offset int) ([]model.Notification, error) {
	return repository.ListNotifications(ctx, s.store.Pool, userID, notificationType, limit, offset)
}

// MarkNotificationRead flips the read flag on the caller's own notification.
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID, userID uuid.UUID) (model.Notification, error) {
	notification, err := repository.MarkNotificationRead(ctx, s.store.Pool, notificationID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Notification{}, ErrNotificationNotFound
	}
	return notification, err
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return repository.CountUnreadNotifications(ctx, s.store.Pool, userID)
}
