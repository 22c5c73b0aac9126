package notification

import (
	"context"
)

type NotificationService interface {
	Notify(ctx context.Context, memberID, title, message string, ntype NotificationType) error
	ListForMember(ctx context.Context, memberID string, limit int64) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type NotificationServiceImpl struct {
	Repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) NotificationService {
	return &NotificationServiceImpl{Repo: repo}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, memberID, title, message string, ntype NotificationType) error {
	if ntype == "" {
		ntype = NotificationTypeInfo
	}
	return s.Repo.Create(ctx, &Notification{
		MemberID: memberID,
		Title:    title,
		Message:  message,
		Type:     ntype,
	})
}

func (s *NotificationServiceImpl) ListForMember(ctx context.Context, memberID string, limit int64) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Repo.ListForMember(ctx, memberID, limit)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	return s.Repo.MarkRead(ctx, id)
}
