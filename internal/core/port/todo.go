package port

import (
	"context"

	"todolists/internal/core/domain"
)

// TodoStore is the durable table set of lists, items and notification records.
// Every method runs in its own transaction.
type TodoStore interface {
	InsertListAtEnd(ctx context.Context, list domain.TodoList) (int64, error)
	GetList(ctx context.Context, id int64) (domain.TodoList, error)
	GetLists(ctx context.Context) ([]domain.TodoList, error)
	GetListsWithReminder(ctx context.Context, kind domain.ReminderKind) ([]domain.TodoList, error)
	RenameList(ctx context.Context, id int64, name string) error
	MoveList(ctx context.Context, id int64, newPosition int) error
	DeleteList(ctx context.Context, id int64) error
	SetReminder(ctx context.Context, listID int64, reminder domain.Reminder) error

	InsertItemAtEnd(ctx context.Context, listID int64, item domain.TodoItem) (int64, error)
	InsertItemAfter(ctx context.Context, listID int64, item domain.TodoItem, afterPosition int) (int64, error)
	GetItem(ctx context.Context, id int64) (domain.TodoItem, error)
	GetItems(ctx context.Context, listID int64) ([]domain.TodoItem, error)
	GetIncompleteItems(ctx context.Context, listID int64) ([]domain.TodoItem, error)
	UpdateItemSummary(ctx context.Context, id int64, summary string) error
	SetItemCompleted(ctx context.Context, id int64, completed bool) error
	MoveItem(ctx context.Context, id int64, newPosition int) error
	DeleteItem(ctx context.Context, id int64) error
	DeleteCompleted(ctx context.Context, listID int64) (int64, error)

	AllocateNotificationID(ctx context.Context, owner domain.NotificationOwner) (int, error)
	ClearNotification(ctx context.Context, notificationID int) error
	ClearAllNotifications(ctx context.Context) error

	ObserveLists(ctx context.Context) <-chan []domain.TodoList
	ObserveList(ctx context.Context, listID int64) <-chan domain.ListSnapshot
}

type TodoService interface {
	AddList(ctx context.Context, name string) (domain.TodoList, error)
	GetList(ctx context.Context, id int64) (domain.ListSnapshot, error)
	GetLists(ctx context.Context) ([]domain.TodoList, error)
	RenameList(ctx context.Context, id int64, name string) error
	MoveList(ctx context.Context, id int64, afterPosition int) error
	DeleteList(ctx context.Context, id int64) error
	SetListReminder(ctx context.Context, id int64, reminder domain.Reminder) error

	AddItem(ctx context.Context, listID int64, summary string, afterPosition *int) (domain.TodoItem, error)
	GetItem(ctx context.Context, id int64) (domain.TodoItem, error)
	EditItemSummary(ctx context.Context, id int64, summary string) error
	CompleteItem(ctx context.Context, id int64, completed bool) error
	MoveItem(ctx context.Context, id int64, afterPosition int) error
	DeleteItem(ctx context.Context, id int64) error
	DeleteCompleted(ctx context.Context, listID int64) (int64, error)

	ObserveLists(ctx context.Context) <-chan []domain.TodoList
	ObserveList(ctx context.Context, listID int64) <-chan domain.ListSnapshot
}
