package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
)

// JobHandlers binds every job kind to the service operation that runs it.
type JobHandlers struct {
	store     port.TodoStore
	scheduler port.ReminderScheduler
	notifier  port.NotificationService
	logger    *zap.Logger
}

func NewJobHandlers(store port.TodoStore, scheduler port.ReminderScheduler, notifier port.NotificationService, logger *zap.Logger) *JobHandlers {
	return &JobHandlers{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    logger,
	}
}

func (h *JobHandlers) Handlers() map[domain.JobKind]port.JobHandler {
	return map[domain.JobKind]port.JobHandler{
		domain.JobSendReminderNotifications: h.SendReminderNotifications,
		domain.JobCompleteItem:              h.CompleteItem,
		domain.JobClearItemNotification:     h.ClearItemNotification,
		domain.JobClearAllNotifications:     h.ClearAllNotifications,
		domain.JobRearmReminders:            h.RearmReminders,
		domain.JobSyncReminder:              h.SyncReminder,
	}
}

func (h *JobHandlers) SendReminderNotifications(ctx context.Context, input domain.JobInput) error {
	if input.ListID == 0 {
		return invalidInput(domain.JobSendReminderNotifications, "list_id")
	}

	return h.notifier.SendReminderNotifications(ctx, input.ListID)
}

func (h *JobHandlers) CompleteItem(ctx context.Context, input domain.JobInput) error {
	if input.ItemID == 0 {
		return invalidInput(domain.JobCompleteItem, "item_id")
	}

	return h.notifier.CompleteAndReconcile(ctx, input.ItemID)
}

func (h *JobHandlers) ClearItemNotification(ctx context.Context, input domain.JobInput) error {
	if input.ItemID == 0 {
		return invalidInput(domain.JobClearItemNotification, "item_id")
	}

	return h.notifier.ClearNotificationForItem(ctx, input.ItemID)
}

func (h *JobHandlers) ClearAllNotifications(ctx context.Context, _ domain.JobInput) error {
	return h.notifier.ClearAllNotifications(ctx)
}

func (h *JobHandlers) RearmReminders(ctx context.Context, input domain.JobInput) error {
	switch input.ReminderKind {
	case domain.ReminderKindTime, domain.ReminderKindLocation:
		return h.scheduler.RearmAll(ctx, input.ReminderKind)
	default:
		return invalidInput(domain.JobRearmReminders, "reminder_kind")
	}
}

// SyncReminder makes the list's trigger match its stored reminder. When there
// is nothing left to arm the triggers are cancelled.
func (h *JobHandlers) SyncReminder(ctx context.Context, input domain.JobInput) error {
	if input.ListID == 0 {
		return invalidInput(domain.JobSyncReminder, "list_id")
	}

	list, err := h.store.GetList(ctx, input.ListID)

	switch {
	case errors.Is(err, domain.ErrListNotFound):
		return h.scheduler.Cancel(ctx, input.ListID)
	case err != nil:
		return err
	case !list.HasReminder():
		return h.scheduler.Cancel(ctx, input.ListID)
	}

	err = h.scheduler.Arm(ctx, list.ID, list.Reminder)
	if errors.Is(err, domain.ErrPermissionMissing) {
		h.logger.Warn("Reminder left unarmed", zap.Int64("list_id", list.ID), zap.Error(err))
		return h.scheduler.Cancel(ctx, list.ID)
	}

	return err
}

func invalidInput(kind domain.JobKind, field string) error {
	return fmt.Errorf("%s requires %s: %w", kind, field, domain.ErrInvalidJobInput)
}
