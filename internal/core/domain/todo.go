package domain

import (
	"fmt"
)

type TodoList struct {
	ID             int64
	Name           string `validate:"max=255"`
	Position       int
	Reminder       Reminder
	NotificationID *int
}

type TodoItem struct {
	ID             int64
	ListID         int64
	Summary        string `validate:"max=1000"`
	Completed      bool
	Position       int
	NotificationID *int `faker:"-"`
}

// ListSnapshot is a list together with its items ordered by position.
type ListSnapshot struct {
	List  TodoList
	Items []TodoItem
}

func (l *TodoList) HasReminder() bool {
	return l.Reminder != nil
}

func (l *TodoList) ReminderKind() ReminderKind {
	if l.Reminder == nil {
		return ReminderKindNone
	}

	return l.Reminder.Kind()
}

func (l *TodoList) HasNotification() bool {
	return l.NotificationID != nil
}

func (l *TodoList) DeepLink() string {
	return fmt.Sprintf("todolists://lists/%d", l.ID)
}

func (i *TodoItem) HasNotification() bool {
	return i.NotificationID != nil
}

func (i *TodoItem) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"list_id":   i.ListID,
		"summary":   i.Summary,
		"completed": i.Completed,
		"position":  i.Position,
	}
}
