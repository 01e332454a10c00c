package port

import (
	"context"

	"todolists/internal/core/domain"
)

// NotificationPresenter posts and cancels notifications on the device.
type NotificationPresenter interface {
	Post(ctx context.Context, notificationID int, notification domain.Notification) error
	Cancel(ctx context.Context, notificationID int) error
	AreNotificationsEnabled(ctx context.Context) bool
	ActiveIDs(ctx context.Context) (map[int]struct{}, error)
}

type NotificationService interface {
	SendReminderNotifications(ctx context.Context, listID int64) error
	CompleteAndReconcile(ctx context.Context, itemID int64) error
	ClearNotificationForItem(ctx context.Context, itemID int64) error
	ClearAllNotifications(ctx context.Context) error
	ClearNotification(ctx context.Context, notificationID int) error
}
