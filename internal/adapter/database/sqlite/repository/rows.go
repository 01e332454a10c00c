package repository

import (
	"fmt"

	"todolists/internal/core/domain"
)

var listColumns = []string{
	"id", "name", "position", "reminder_kind", "reminder_date_time", "reminder_latitude",
	"reminder_longitude", "reminder_radius", "reminder_description", "notification_id",
}

var itemColumns = []string{"id", "list_id", "summary", "completed", "position", "notification_id"}

type listRow struct {
	ID                  int64    `db:"id"`
	Name                string   `db:"name"`
	Position            int      `db:"position"`
	ReminderKind        string   `db:"reminder_kind"`
	ReminderDateTime    *string  `db:"reminder_date_time"`
	ReminderLatitude    *float64 `db:"reminder_latitude"`
	ReminderLongitude   *float64 `db:"reminder_longitude"`
	ReminderRadius      *float64 `db:"reminder_radius"`
	ReminderDescription *string  `db:"reminder_description"`
	NotificationID      *int     `db:"notification_id"`
}

func (r listRow) toDomain() (domain.TodoList, error) {
	list := domain.TodoList{
		ID:             r.ID,
		Name:           r.Name,
		Position:       r.Position,
		NotificationID: r.NotificationID,
	}

	kind, err := domain.ParseReminderKind(r.ReminderKind)
	if err != nil {
		return domain.TodoList{}, err
	}

	switch kind {
	case domain.ReminderKindTime:
		if r.ReminderDateTime == nil {
			return domain.TodoList{}, fmt.Errorf("list %d: time reminder without date time", r.ID)
		}

		reminder, err := domain.ParseTimeReminder(*r.ReminderDateTime)
		if err != nil {
			return domain.TodoList{}, err
		}

		list.Reminder = reminder
	case domain.ReminderKindLocation:
		if r.ReminderLatitude == nil || r.ReminderLongitude == nil || r.ReminderRadius == nil {
			return domain.TodoList{}, fmt.Errorf("list %d: location reminder without coordinates", r.ID)
		}

		location := domain.Location{
			Latitude:  *r.ReminderLatitude,
			Longitude: *r.ReminderLongitude,
			Radius:    *r.ReminderRadius,
		}

		if r.ReminderDescription != nil {
			location.Description = *r.ReminderDescription
		}

		list.Reminder = domain.LocationReminder{Location: location}
	}

	return list, nil
}

type itemRow struct {
	ID             int64  `db:"id"`
	ListID         int64  `db:"list_id"`
	Summary        string `db:"summary"`
	Completed      bool   `db:"completed"`
	Position       int    `db:"position"`
	NotificationID *int   `db:"notification_id"`
}

func (r itemRow) toDomain() domain.TodoItem {
	return domain.TodoItem{
		ID:             r.ID,
		ListID:         r.ListID,
		Summary:        r.Summary,
		Completed:      r.Completed,
		Position:       r.Position,
		NotificationID: r.NotificationID,
	}
}

// reminderColumns writes every reminder column so the variant not chosen is nulled.
func reminderColumns(reminder domain.Reminder) map[string]interface{} {
	columns := map[string]interface{}{
		"reminder_kind":        string(domain.ReminderKindNone),
		"reminder_date_time":   nil,
		"reminder_latitude":    nil,
		"reminder_longitude":   nil,
		"reminder_radius":      nil,
		"reminder_description": nil,
	}

	switch r := reminder.(type) {
	case domain.TimeReminder:
		columns["reminder_kind"] = string(domain.ReminderKindTime)
		columns["reminder_date_time"] = r.String()
	case domain.LocationReminder:
		columns["reminder_kind"] = string(domain.ReminderKindLocation)
		columns["reminder_latitude"] = r.Location.Latitude
		columns["reminder_longitude"] = r.Location.Longitude
		columns["reminder_radius"] = r.Location.Radius
		columns["reminder_description"] = r.Location.Description
	}

	return columns
}
