package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/internal/core/telemetry"
)

const defaultSignalBuffer = 64

// Dispatcher turns system signals into durable jobs. Signals are queued on a
// buffered channel and handled one at a time by Run.
type Dispatcher struct {
	signals chan domain.Signal
	jobs    port.JobRunner
	metrics *telemetry.AppMetrics
	logger  *zap.Logger
}

func NewDispatcher(jobs port.JobRunner, metrics *telemetry.AppMetrics, logger *zap.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultSignalBuffer
	}

	return &Dispatcher{
		signals: make(chan domain.Signal, buffer),
		jobs:    jobs,
		metrics: metrics,
		logger:  logger,
	}
}

var _ port.Dispatcher = (*Dispatcher)(nil)

// Submit blocks until the signal is queued or ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, signal domain.Signal) error {
	select {
	case d.signals <- signal:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %s: %w", signal.SignalName(), ctx.Err())
	}
}

// Run handles queued signals until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopped", zap.Int("pending", len(d.signals)))
			return nil
		case signal := <-d.signals:
			if err := d.Handle(ctx, signal); err != nil {
				d.logger.Error("Failed to handle signal",
					zap.String("signal", signal.SignalName()),
					zap.Error(err))
			}
		}
	}
}

// Handle enqueues the jobs a signal calls for.
func (d *Dispatcher) Handle(ctx context.Context, signal domain.Signal) error {
	if d.metrics != nil {
		d.metrics.RecordSignal(ctx, signal.SignalName())
	}

	d.logger.Debug("Signal received", zap.String("signal", signal.SignalName()))

	switch s := signal.(type) {
	case domain.BootCompleted:
		_, err := d.jobs.EnqueueChain(ctx,
			domain.ClearAllNotificationsJob(),
			domain.RearmRemindersJob(domain.ReminderKindTime),
			domain.RearmRemindersJob(domain.ReminderKindLocation),
		)
		return err

	case domain.PermissionChanged:
		if !s.Granted {
			return nil
		}

		kind := domain.ReminderKindTime
		if s.Permission.IsLocation() {
			kind = domain.ReminderKindLocation
		}

		_, err := d.jobs.Enqueue(ctx, domain.RearmRemindersJob(kind))
		return err

	case domain.AlarmFired:
		_, err := d.jobs.Enqueue(ctx, domain.SendReminderNotificationsJob(s.ListID))
		return err

	case domain.GeofenceTransition:
		if s.Transition != domain.GeofenceEnter {
			return nil
		}

		for _, listID := range s.ListIDs {
			if _, err := d.jobs.Enqueue(ctx, domain.SendReminderNotificationsJob(listID)); err != nil {
				return err
			}
		}

		return nil

	case domain.NotificationActionReceived:
		var spec domain.JobSpec

		switch s.Action {
		case domain.ActionDone:
			spec = domain.CompleteItemJob(s.ItemID)
		case domain.ActionDismissed:
			spec = domain.ClearItemNotificationJob(s.ItemID)
		default:
			return fmt.Errorf("unknown notification action %q", s.Action)
		}

		_, err := d.jobs.EnqueueUnique(ctx, domain.ClearNotificationScope, domain.UniqueAppend, spec)
		return err

	default:
		return fmt.Errorf("unknown signal %T", signal)
	}
}
