package domain

import (
	"fmt"
)

type NotificationOwnerKind string

const (
	NotificationOwnerList NotificationOwnerKind = "list"
	NotificationOwnerItem NotificationOwnerKind = "item"
)

// NotificationOwner is the list or item a notification id is allocated for.
type NotificationOwner struct {
	Kind NotificationOwnerKind
	ID   int64
}

func ListOwner(listID int64) NotificationOwner {
	return NotificationOwner{Kind: NotificationOwnerList, ID: listID}
}

func ItemOwner(itemID int64) NotificationOwner {
	return NotificationOwner{Kind: NotificationOwnerItem, ID: itemID}
}

type NotificationActionKind string

const (
	ActionDone      NotificationActionKind = "done"
	ActionDismissed NotificationActionKind = "dismissed"
)

func ParseNotificationAction(action string) (NotificationActionKind, error) {
	switch NotificationActionKind(action) {
	case ActionDone:
		return ActionDone, nil
	case ActionDismissed:
		return ActionDismissed, nil
	default:
		return "", fmt.Errorf("invalid notification action: %s", action)
	}
}

// Notification is the content handed to the presenter. Summary notifications
// carry one line per pending item and have no ItemID.
type Notification struct {
	ListID       int64
	ItemID       int64
	Title        string
	Text         string
	Lines        []string
	GroupKey     string
	SortKey      string
	GroupSummary bool
	AlertOnce    bool
	DeepLink     string
	Actions      []NotificationActionKind
}

func ReminderGroupKey(listID int64) string {
	return fmt.Sprintf("REMINDER.%d", listID)
}

func ReminderSortKey(position int) string {
	return fmt.Sprintf("%010d", position)
}
