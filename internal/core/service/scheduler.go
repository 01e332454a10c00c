package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/internal/core/telemetry"
)

// ReminderScheduler keeps exactly one armed trigger per list: an exact alarm
// for time reminders or a geofence for location reminders.
type ReminderScheduler struct {
	store       port.TodoStore
	alarms      port.AlarmService
	geofences   port.GeofenceService
	permissions port.PermissionChecker
	probe       port.Telemetry
	metrics     *telemetry.AppMetrics
	logger      *zap.Logger

	// zone a TimeReminder's wall clock is read in
	location *time.Location
}

func NewReminderScheduler(
	store port.TodoStore,
	alarms port.AlarmService,
	geofences port.GeofenceService,
	permissions port.PermissionChecker,
	probe port.Telemetry,
	metrics *telemetry.AppMetrics,
	logger *zap.Logger,
) *ReminderScheduler {
	if probe == nil {
		probe = telemetry.NewNoOpProbe()
	}

	return &ReminderScheduler{
		store:       store,
		alarms:      alarms,
		geofences:   geofences,
		permissions: permissions,
		probe:       probe,
		metrics:     metrics,
		logger:      logger,
		location:    time.Local,
	}
}

var _ port.ReminderScheduler = (*ReminderScheduler)(nil)

func (s *ReminderScheduler) WithLocation(location *time.Location) *ReminderScheduler {
	s.location = location
	return s
}

// Arm registers the trigger for the reminder and clears the trigger of the
// other kind. Missing permissions yield a *domain.PermissionError.
func (s *ReminderScheduler) Arm(ctx context.Context, listID int64, reminder domain.Reminder) (err error) {
	if reminder == nil {
		return s.Cancel(ctx, listID)
	}

	kind := reminder.Kind()

	ctx, span := s.probe.StartServiceSpan(ctx, "reminder_scheduler", "Arm", map[string]interface{}{
		"todo_list.id":  listID,
		"reminder.kind": string(kind),
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, s.probe, span, "reminder_scheduler", "Arm", startTime, err)

		if s.metrics != nil {
			s.metrics.RecordReminderArm(ctx, string(kind), armResult(err))
		}
	}()

	switch r := reminder.(type) {
	case domain.TimeReminder:
		return s.armTime(ctx, listID, r)
	case domain.LocationReminder:
		return s.armLocation(ctx, listID, r)
	default:
		return fmt.Errorf("unsupported reminder %T", reminder)
	}
}

func (s *ReminderScheduler) armTime(ctx context.Context, listID int64, reminder domain.TimeReminder) error {
	if !s.permissions.IsGranted(ctx, domain.PermissionExactAlarm) {
		s.logger.Warn("Exact alarm permission missing", zap.Int64("list_id", listID))
		return domain.NewPermissionError(domain.PermissionExactAlarm)
	}

	when := reminder.In(s.location)

	if err := s.alarms.ScheduleExactAlarm(ctx, listID, when); err != nil {
		return fmt.Errorf("schedule alarm for list %d: %w", listID, err)
	}

	if err := s.geofences.RemoveGeofence(ctx, listID); err != nil {
		if cancelErr := s.alarms.Cancel(ctx, listID); cancelErr != nil {
			s.logger.Error("Failed to roll back alarm", zap.Int64("list_id", listID), zap.Error(cancelErr))
		}

		return fmt.Errorf("remove geofence for list %d: %w", listID, err)
	}

	s.logger.Info("Alarm armed", zap.Int64("list_id", listID), zap.Time("when", when))

	return nil
}

func (s *ReminderScheduler) armLocation(ctx context.Context, listID int64, reminder domain.LocationReminder) error {
	var missing []domain.Permission

	for _, permission := range []domain.Permission{domain.PermissionFineLocation, domain.PermissionBackgroundLocation} {
		if !s.permissions.IsGranted(ctx, permission) {
			missing = append(missing, permission)
		}
	}

	if len(missing) > 0 {
		s.logger.Warn("Location permission missing", zap.Int64("list_id", listID))
		return domain.NewPermissionError(missing...)
	}

	addErr := s.geofences.AddGeofence(ctx, listID, reminder.Location)

	// A location reminder never keeps an alarm, even when the region failed
	// to register or its enter signal could not be submitted.
	if err := s.alarms.Cancel(ctx, listID); err != nil {
		s.logger.Warn("Failed to cancel alarm", zap.Int64("list_id", listID), zap.Error(err))
	}

	if addErr != nil {
		return fmt.Errorf("add geofence for list %d: %w", listID, addErr)
	}

	s.logger.Info("Geofence armed",
		zap.Int64("list_id", listID),
		zap.Float64("radius", reminder.Location.Radius))

	return nil
}

// Cancel removes whichever trigger is armed for the list. Cancelling a list
// with no trigger succeeds.
func (s *ReminderScheduler) Cancel(ctx context.Context, listID int64) (err error) {
	ctx, span := s.probe.StartServiceSpan(ctx, "reminder_scheduler", "Cancel", map[string]interface{}{
		"todo_list.id": listID,
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, s.probe, span, "reminder_scheduler", "Cancel", startTime, err)
	}()

	var errs []error

	if err := s.alarms.Cancel(ctx, listID); err != nil {
		errs = append(errs, fmt.Errorf("cancel alarm for list %d: %w", listID, err))
	}

	if err := s.geofences.RemoveGeofence(ctx, listID); err != nil {
		errs = append(errs, fmt.Errorf("remove geofence for list %d: %w", listID, err))
	}

	return errors.Join(errs...)
}

// RearmAll arms every persisted reminder of the kind. A list that fails to
// arm is logged and skipped; only a failing store read is returned.
func (s *ReminderScheduler) RearmAll(ctx context.Context, kind domain.ReminderKind) (err error) {
	ctx, span := s.probe.StartServiceSpan(ctx, "reminder_scheduler", "RearmAll", map[string]interface{}{
		"reminder.kind": string(kind),
	})
	startTime := time.Now()

	defer func() {
		endSpan(ctx, s.probe, span, "reminder_scheduler", "RearmAll", startTime, err)
	}()

	lists, err := s.store.GetListsWithReminder(ctx, kind)
	if err != nil {
		return fmt.Errorf("load %s reminders: %w", kind, err)
	}

	failed := 0

	for _, list := range lists {
		if err := s.Arm(ctx, list.ID, list.Reminder); err != nil {
			failed++
			s.logger.Warn("Failed to re-arm reminder",
				zap.Int64("list_id", list.ID),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}

	span.SetAttributes(map[string]interface{}{
		"reminders.total":  len(lists),
		"reminders.failed": failed,
	})

	s.logger.Info("Reminders re-armed",
		zap.String("kind", string(kind)),
		zap.Int("total", len(lists)),
		zap.Int("failed", failed))

	return nil
}

func armResult(err error) string {
	switch {
	case err == nil:
		return "armed"
	case errors.Is(err, domain.ErrPermissionMissing):
		return "permission_missing"
	default:
		return "error"
	}
}
