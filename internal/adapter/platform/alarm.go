package platform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
)

const alarmKeyPrefix = "alarm:"

// signalTimeout bounds how long a firing trigger waits for the dispatcher queue.
const signalTimeout = 5 * time.Second

// AlarmClock runs one exact alarm per key. The cache holds the registry so
// armed alarms can be restored after a restart.
type AlarmClock struct {
	cache      port.CacheRepository
	dispatcher port.Dispatcher
	logger     *zap.Logger

	mu     sync.Mutex
	timers map[int64]*armedAlarm
	now    func() time.Time
}

type armedAlarm struct {
	timer *time.Timer
}

func NewAlarmClock(cache port.CacheRepository, dispatcher port.Dispatcher, logger *zap.Logger) *AlarmClock {
	return &AlarmClock{
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
		timers:     make(map[int64]*armedAlarm),
		now:        time.Now,
	}
}

var _ port.AlarmService = (*AlarmClock)(nil)

// ScheduleExactAlarm arms the alarm for key, replacing any alarm already armed
// under the same key. A time in the past fires right away.
func (a *AlarmClock) ScheduleExactAlarm(ctx context.Context, key int64, when time.Time) error {
	if err := a.cache.Set(ctx, alarmKey(key), []byte(when.UTC().Format(time.RFC3339Nano)), 0); err != nil {
		return fmt.Errorf("register alarm %d: %w", key, err)
	}

	a.arm(key, when)

	a.logger.Debug("Alarm scheduled", zap.Int64("key", key), zap.Time("when", when))

	return nil
}

func (a *AlarmClock) Cancel(ctx context.Context, key int64) error {
	a.mu.Lock()
	if armed, ok := a.timers[key]; ok {
		armed.timer.Stop()
		delete(a.timers, key)
	}
	a.mu.Unlock()

	if err := a.cache.Delete(ctx, alarmKey(key)); err != nil {
		return fmt.Errorf("unregister alarm %d: %w", key, err)
	}

	return nil
}

// Restore re-creates the timers of every alarm left in the registry.
func (a *AlarmClock) Restore(ctx context.Context) (int, error) {
	entries, err := a.cache.Scan(ctx, alarmKeyPrefix)
	if err != nil {
		return 0, err
	}

	restored := 0

	for cacheKey, value := range entries {
		key, err := strconv.ParseInt(strings.TrimPrefix(cacheKey, alarmKeyPrefix), 10, 64)
		if err != nil {
			a.logger.Warn("Skipping malformed alarm entry", zap.String("key", cacheKey))
			continue
		}

		when, err := time.Parse(time.RFC3339Nano, string(value))
		if err != nil {
			a.logger.Warn("Skipping malformed alarm time", zap.String("key", cacheKey), zap.Error(err))
			continue
		}

		a.arm(key, when)
		restored++
	}

	return restored, nil
}

// Scheduled returns the time the alarm for key is armed for.
func (a *AlarmClock) Scheduled(ctx context.Context, key int64) (time.Time, bool) {
	value, err := a.cache.Get(ctx, alarmKey(key))
	if err != nil {
		return time.Time{}, false
	}

	when, err := time.Parse(time.RFC3339Nano, string(value))
	if err != nil {
		return time.Time{}, false
	}

	return when, true
}

func (a *AlarmClock) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, armed := range a.timers {
		armed.timer.Stop()
		delete(a.timers, key)
	}
}

func (a *AlarmClock) arm(key int64, when time.Time) {
	delay := when.Sub(a.now())
	if delay < 0 {
		delay = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if previous, ok := a.timers[key]; ok {
		previous.timer.Stop()
	}

	armed := &armedAlarm{}
	armed.timer = time.AfterFunc(delay, func() {
		a.fire(key, armed)
	})

	a.timers[key] = armed
}

func (a *AlarmClock) fire(key int64, armed *armedAlarm) {
	a.mu.Lock()
	current, ok := a.timers[key]
	if !ok || current != armed {
		a.mu.Unlock()
		return
	}
	delete(a.timers, key)
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), signalTimeout)
	defer cancel()

	if err := a.cache.Delete(ctx, alarmKey(key)); err != nil && !errors.Is(err, port.ErrCacheMiss) {
		a.logger.Warn("Failed to unregister fired alarm", zap.Int64("key", key), zap.Error(err))
	}

	a.logger.Info("Alarm fired", zap.Int64("list_id", key))

	if err := a.dispatcher.Submit(ctx, domain.AlarmFired{ListID: key}); err != nil {
		a.logger.Error("Failed to deliver alarm", zap.Int64("list_id", key), zap.Error(err))
	}
}

func alarmKey(key int64) string {
	return alarmKeyPrefix + strconv.FormatInt(key, 10)
}
