package domain

import (
	"fmt"
	"time"
)

type ReminderKind string

const (
	ReminderKindNone     ReminderKind = "none"
	ReminderKindTime     ReminderKind = "time"
	ReminderKindLocation ReminderKind = "location"
)

// LocalDateTimeLayout is the wire and storage format of a reminder's wall-clock time.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// Reminder is either a TimeReminder or a LocationReminder. A list without a
// reminder holds a nil Reminder.
type Reminder interface {
	Kind() ReminderKind
	isReminder()
}

// TimeReminder fires once at a wall-clock time. Only the date and clock fields
// of DateTime are meaningful, the zone is applied when the reminder is armed.
type TimeReminder struct {
	DateTime time.Time
}

type Location struct {
	Latitude    float64 `validate:"latitude"`
	Longitude   float64 `validate:"longitude"`
	Radius      float64 `validate:"gt=0"`
	Description string  `validate:"max=255"`
}

// LocationReminder fires whenever the device enters the circular region.
type LocationReminder struct {
	Location Location
}

func NewTimeReminder(dateTime time.Time) TimeReminder {
	return TimeReminder{
		DateTime: time.Date(dateTime.Year(), dateTime.Month(), dateTime.Day(),
			dateTime.Hour(), dateTime.Minute(), dateTime.Second(), 0, time.UTC),
	}
}

func ParseTimeReminder(value string) (TimeReminder, error) {
	dateTime, err := time.Parse(LocalDateTimeLayout, value)

	if err != nil {
		return TimeReminder{}, fmt.Errorf("invalid reminder date time %q: %w", value, err)
	}

	return TimeReminder{DateTime: dateTime}, nil
}

func (TimeReminder) Kind() ReminderKind { return ReminderKindTime }
func (TimeReminder) isReminder()        {}

// In returns the instant the reminder is due in the given zone.
func (r TimeReminder) In(loc *time.Location) time.Time {
	d := r.DateTime

	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, loc)
}

func (r TimeReminder) String() string {
	return r.DateTime.Format(LocalDateTimeLayout)
}

func (LocationReminder) Kind() ReminderKind { return ReminderKindLocation }
func (LocationReminder) isReminder()        {}

func ParseReminderKind(kind string) (ReminderKind, error) {
	switch ReminderKind(kind) {
	case ReminderKindNone, "":
		return ReminderKindNone, nil
	case ReminderKindTime:
		return ReminderKindTime, nil
	case ReminderKindLocation:
		return ReminderKindLocation, nil
	default:
		return "", fmt.Errorf("invalid reminder kind: %s", kind)
	}
}
