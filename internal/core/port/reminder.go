package port

import (
	"context"
	"time"

	"todolists/internal/core/domain"
)

// AlarmService schedules exact wake-up alarms. Scheduling an existing key
// replaces the previous alarm.
type AlarmService interface {
	ScheduleExactAlarm(ctx context.Context, key int64, when time.Time) error
	Cancel(ctx context.Context, key int64) error
}

// GeofenceService registers circular enter-only regions that never expire.
type GeofenceService interface {
	AddGeofence(ctx context.Context, key int64, location domain.Location) error
	RemoveGeofence(ctx context.Context, key int64) error
}

type PermissionChecker interface {
	IsGranted(ctx context.Context, permission domain.Permission) bool
}

type ReminderScheduler interface {
	Arm(ctx context.Context, listID int64, reminder domain.Reminder) error
	Cancel(ctx context.Context, listID int64) error
	RearmAll(ctx context.Context, kind domain.ReminderKind) error
}
