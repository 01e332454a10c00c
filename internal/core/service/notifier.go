package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/internal/core/telemetry"
)

// NotificationService turns due reminders into posted notifications and keeps
// the per-list summary consistent with the item notifications still shown.
type NotificationService struct {
	store     port.TodoStore
	presenter port.NotificationPresenter
	probe     port.Telemetry
	logger    *zap.Logger
}

func NewNotificationService(store port.TodoStore, presenter port.NotificationPresenter, probe port.Telemetry, logger *zap.Logger) *NotificationService {
	if probe == nil {
		probe = telemetry.NewNoOpProbe()
	}

	return &NotificationService{
		store:     store,
		presenter: presenter,
		probe:     probe,
		logger:    logger,
	}
}

var _ port.NotificationService = (*NotificationService)(nil)

func (ns *NotificationService) SendReminderNotifications(ctx context.Context, listID int64) (err error) {
	ctx, span := ns.probe.StartServiceSpan(ctx, "notification_service", "SendReminderNotifications", map[string]interface{}{
		"todo_list.id": listID,
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, ns.probe, span, "notification_service", "SendReminderNotifications", startTime, err)
	}()

	list, err := ns.store.GetList(ctx, listID)
	if err != nil {
		return err
	}

	// a time reminder is one-shot, it is consumed even when nothing gets posted
	if list.ReminderKind() == domain.ReminderKindTime {
		if err := ns.store.SetReminder(ctx, listID, nil); err != nil {
			return fmt.Errorf("clear time reminder: %w", err)
		}
	}

	if !ns.presenter.AreNotificationsEnabled(ctx) {
		return domain.ErrNotificationsDisabled
	}

	items, err := ns.store.GetIncompleteItems(ctx, listID)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		ns.logger.Debug("No pending items to notify", zap.Int64("list_id", listID))
		return nil
	}

	for _, item := range items {
		// Owners already on screen keep their id, so a second firing replaces
		// their notification instead of stacking a new record.
		notificationID, err := ns.store.AllocateNotificationID(ctx, domain.ItemOwner(item.ID))
		if err != nil {
			return fmt.Errorf("allocate notification for item %d: %w", item.ID, err)
		}

		if err := ns.presenter.Post(ctx, notificationID, itemNotification(list, item)); err != nil {
			return fmt.Errorf("post notification for item %d: %w", item.ID, err)
		}
	}

	summaryID, err := ns.store.AllocateNotificationID(ctx, domain.ListOwner(listID))
	if err != nil {
		return fmt.Errorf("allocate summary notification for list %d: %w", listID, err)
	}

	if err := ns.presenter.Post(ctx, summaryID, summaryNotification(list, items)); err != nil {
		return fmt.Errorf("post summary notification for list %d: %w", listID, err)
	}

	span.SetAttributes(map[string]interface{}{"notifications.items": len(items)})
	ns.probe.RecordBusinessEvent(ctx, "reminder_notifications_sent", "todo_list", listID, map[string]interface{}{
		"items": len(items),
	})

	ns.logger.Info("Reminder notifications posted", zap.Int64("list_id", listID), zap.Int("items", len(items)))

	return nil
}

func (ns *NotificationService) CompleteAndReconcile(ctx context.Context, itemID int64) error {
	if err := ns.store.SetItemCompleted(ctx, itemID, true); err != nil {
		return err
	}

	return ns.ClearNotificationForItem(ctx, itemID)
}

// ClearNotificationForItem cancels the item's notification and then either
// drops the list summary, when no item notification is left, or rebuilds it
// from the items still shown. A summary the user already swiped away is not
// brought back.
func (ns *NotificationService) ClearNotificationForItem(ctx context.Context, itemID int64) (err error) {
	ctx, span := ns.probe.StartServiceSpan(ctx, "notification_service", "ClearNotificationForItem", map[string]interface{}{
		"todo_item.id": itemID,
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, ns.probe, span, "notification_service", "ClearNotificationForItem", startTime, err)
	}()

	item, err := ns.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	if item.NotificationID != nil {
		if err := ns.cancel(ctx, *item.NotificationID); err != nil {
			return err
		}
	}

	items, err := ns.store.GetItems(ctx, item.ListID)
	if err != nil {
		return err
	}

	remaining := make([]domain.TodoItem, 0, len(items))

	for _, it := range items {
		if it.NotificationID != nil {
			remaining = append(remaining, it)
		}
	}

	list, err := ns.store.GetList(ctx, item.ListID)
	if err != nil {
		return err
	}

	if list.NotificationID == nil {
		return nil
	}

	if len(remaining) == 0 {
		return ns.cancel(ctx, *list.NotificationID)
	}

	active, err := ns.presenter.ActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("read active notifications: %w", err)
	}

	if _, ok := active[*list.NotificationID]; !ok {
		ns.logger.Debug("Summary no longer shown", zap.Int64("list_id", list.ID))
		return nil
	}

	if err := ns.presenter.Post(ctx, *list.NotificationID, summaryNotification(list, remaining)); err != nil {
		return fmt.Errorf("repost summary notification for list %d: %w", list.ID, err)
	}

	return nil
}

func (ns *NotificationService) ClearAllNotifications(ctx context.Context) error {
	active, err := ns.presenter.ActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("read active notifications: %w", err)
	}

	for id := range active {
		if err := ns.presenter.Cancel(ctx, id); err != nil {
			ns.logger.Warn("Failed to cancel notification", zap.Int("notification_id", id), zap.Error(err))
		}
	}

	if err := ns.store.ClearAllNotifications(ctx); err != nil {
		return err
	}

	ns.logger.Info("Notification records cleared", zap.Int("cancelled", len(active)))

	return nil
}

// ClearNotification takes a notification down and frees its id.
func (ns *NotificationService) ClearNotification(ctx context.Context, notificationID int) error {
	return ns.cancel(ctx, notificationID)
}

func (ns *NotificationService) cancel(ctx context.Context, notificationID int) error {
	if err := ns.presenter.Cancel(ctx, notificationID); err != nil {
		return fmt.Errorf("cancel notification %d: %w", notificationID, err)
	}

	return ns.store.ClearNotification(ctx, notificationID)
}

func itemNotification(list domain.TodoList, item domain.TodoItem) domain.Notification {
	return domain.Notification{
		ListID:   list.ID,
		ItemID:   item.ID,
		Title:    item.Summary,
		Text:     list.Name,
		GroupKey: domain.ReminderGroupKey(list.ID),
		SortKey:  domain.ReminderSortKey(item.Position),
		DeepLink: list.DeepLink(),
		Actions:  []domain.NotificationActionKind{domain.ActionDone, domain.ActionDismissed},
	}
}

func summaryNotification(list domain.TodoList, items []domain.TodoItem) domain.Notification {
	lines := make([]string, 0, len(items))

	for _, item := range items {
		lines = append(lines, item.Summary)
	}

	return domain.Notification{
		ListID:       list.ID,
		Title:        list.Name,
		Text:         fmt.Sprintf("%d pending", len(items)),
		Lines:        lines,
		GroupKey:     domain.ReminderGroupKey(list.ID),
		GroupSummary: true,
		AlertOnce:    true,
		DeepLink:     list.DeepLink(),
	}
}
