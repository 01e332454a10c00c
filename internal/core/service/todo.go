package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/internal/core/telemetry"
)

// TodoService is the entry point for list and item edits. Data is written
// first; reminder triggers and notifications are brought in line afterwards.
type TodoService struct {
	store     port.TodoStore
	scheduler port.ReminderScheduler
	notifier  port.NotificationService
	jobs      port.JobRunner
	probe     port.Telemetry
	logger    *zap.Logger
}

func NewTodoService(
	store port.TodoStore,
	scheduler port.ReminderScheduler,
	notifier port.NotificationService,
	jobs port.JobRunner,
	probe port.Telemetry,
	logger *zap.Logger,
) *TodoService {
	if probe == nil {
		probe = telemetry.NewNoOpProbe()
	}

	return &TodoService{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		jobs:      jobs,
		probe:     probe,
		logger:    logger,
	}
}

var _ port.TodoService = (*TodoService)(nil)

func (ts *TodoService) AddList(ctx context.Context, name string) (domain.TodoList, error) {
	id, err := ts.store.InsertListAtEnd(ctx, domain.TodoList{Name: name})
	if err != nil {
		return domain.TodoList{}, err
	}

	return ts.store.GetList(ctx, id)
}

func (ts *TodoService) GetList(ctx context.Context, id int64) (domain.ListSnapshot, error) {
	list, err := ts.store.GetList(ctx, id)
	if err != nil {
		return domain.ListSnapshot{}, err
	}

	items, err := ts.store.GetItems(ctx, id)
	if err != nil {
		return domain.ListSnapshot{}, err
	}

	return domain.ListSnapshot{List: list, Items: items}, nil
}

func (ts *TodoService) GetLists(ctx context.Context) ([]domain.TodoList, error) {
	return ts.store.GetLists(ctx)
}

func (ts *TodoService) RenameList(ctx context.Context, id int64, name string) error {
	return ts.store.RenameList(ctx, id, name)
}

// MoveList places the list right after the sibling at afterPosition, -1 moves
// it to the top.
func (ts *TodoService) MoveList(ctx context.Context, id int64, afterPosition int) error {
	return ts.store.MoveList(ctx, id, afterPosition+1)
}

func (ts *TodoService) DeleteList(ctx context.Context, id int64) (err error) {
	ctx, span := ts.probe.StartServiceSpan(ctx, "todo_service", "DeleteList", map[string]interface{}{
		"todo_list.id": id,
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, ts.probe, span, "todo_service", "DeleteList", startTime, err)
	}()

	items, err := ts.store.GetItems(ctx, id)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ts.notifier.ClearNotificationForItem(ctx, item.ID); err != nil {
			return err
		}
	}

	list, err := ts.store.GetList(ctx, id)
	if err != nil {
		return err
	}

	if list.NotificationID != nil {
		if err := ts.notifier.ClearNotification(ctx, *list.NotificationID); err != nil {
			return err
		}
	}

	if err := ts.store.DeleteList(ctx, id); err != nil {
		return err
	}

	ts.cancelReminder(ctx, id)

	return nil
}

// SetListReminder stores the reminder, nil removes it, and then arms or
// cancels the list's trigger. Trigger failures never undo the stored value.
func (ts *TodoService) SetListReminder(ctx context.Context, id int64, reminder domain.Reminder) (err error) {
	ctx, span := ts.probe.StartServiceSpan(ctx, "todo_service", "SetListReminder", map[string]interface{}{
		"todo_list.id":  id,
		"reminder.kind": string(reminderKind(reminder)),
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, ts.probe, span, "todo_service", "SetListReminder", startTime, err)
	}()

	if err := ts.store.SetReminder(ctx, id, reminder); err != nil {
		return err
	}

	if reminder == nil {
		ts.cancelReminder(ctx, id)
		return nil
	}

	if err := ts.scheduler.Arm(ctx, id, reminder); err != nil {
		var permissionErr *domain.PermissionError

		if errors.As(err, &permissionErr) {
			ts.logger.Warn("Reminder saved without trigger",
				zap.Int64("list_id", id),
				zap.Error(permissionErr))
		} else {
			ts.logger.Error("Failed to arm reminder", zap.Int64("list_id", id), zap.Error(err))
		}
	}

	return nil
}

func (ts *TodoService) AddItem(ctx context.Context, listID int64, summary string, afterPosition *int) (domain.TodoItem, error) {
	item := domain.TodoItem{ListID: listID, Summary: summary}

	var (
		id  int64
		err error
	)

	if afterPosition == nil {
		id, err = ts.store.InsertItemAtEnd(ctx, listID, item)
	} else {
		id, err = ts.store.InsertItemAfter(ctx, listID, item, *afterPosition)
	}

	if err != nil {
		return domain.TodoItem{}, err
	}

	return ts.store.GetItem(ctx, id)
}

func (ts *TodoService) GetItem(ctx context.Context, id int64) (domain.TodoItem, error) {
	return ts.store.GetItem(ctx, id)
}

func (ts *TodoService) EditItemSummary(ctx context.Context, id int64, summary string) error {
	return ts.store.UpdateItemSummary(ctx, id, summary)
}

func (ts *TodoService) CompleteItem(ctx context.Context, id int64, completed bool) error {
	if err := ts.store.SetItemCompleted(ctx, id, completed); err != nil {
		return err
	}

	if !completed {
		return nil
	}

	return ts.notifier.ClearNotificationForItem(ctx, id)
}

func (ts *TodoService) MoveItem(ctx context.Context, id int64, afterPosition int) error {
	return ts.store.MoveItem(ctx, id, afterPosition+1)
}

func (ts *TodoService) DeleteItem(ctx context.Context, id int64) error {
	if err := ts.notifier.ClearNotificationForItem(ctx, id); err != nil {
		return err
	}

	return ts.store.DeleteItem(ctx, id)
}

func (ts *TodoService) DeleteCompleted(ctx context.Context, listID int64) (int64, error) {
	return ts.store.DeleteCompleted(ctx, listID)
}

func (ts *TodoService) ObserveLists(ctx context.Context) <-chan []domain.TodoList {
	return ts.store.ObserveLists(ctx)
}

func (ts *TodoService) ObserveList(ctx context.Context, listID int64) <-chan domain.ListSnapshot {
	return ts.store.ObserveList(ctx, listID)
}

// cancelReminder disarms the list's trigger. When that fails a sync-reminder
// job retries until the trigger matches the stored reminder.
func (ts *TodoService) cancelReminder(ctx context.Context, listID int64) {
	err := ts.scheduler.Cancel(ctx, listID)
	if err == nil {
		return
	}

	ts.logger.Error("Failed to cancel reminder", zap.Int64("list_id", listID), zap.Error(err))

	if _, err := ts.jobs.Enqueue(ctx, domain.SyncReminderJob(listID)); err != nil {
		ts.logger.Error("Failed to enqueue reminder sync", zap.Int64("list_id", listID), zap.Error(err))
	}
}

func reminderKind(reminder domain.Reminder) domain.ReminderKind {
	if reminder == nil {
		return domain.ReminderKindNone
	}

	return reminder.Kind()
}
