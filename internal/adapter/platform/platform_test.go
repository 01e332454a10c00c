package platform_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"todolists/internal/adapter/database/memory"
	"todolists/internal/adapter/platform"
	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/pkg/auth"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	signals []domain.Signal
}

func (d *recordingDispatcher) Submit(ctx context.Context, signal domain.Signal) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.signals = append(d.signals, signal)
	return nil
}

func (d *recordingDispatcher) Signals() []domain.Signal {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]domain.Signal(nil), d.signals...)
}

type PlatformTestSuite struct {
	suite.Suite
	cache      port.CacheRepository
	dispatcher *recordingDispatcher
	ctx        context.Context
}

func (s *PlatformTestSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.cache = memory.NewMemoryRepository()
	s.dispatcher = &recordingDispatcher{}
	s.ctx = context.Background()
}

func TestPlatformTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(PlatformTestSuite))
}

func (s *PlatformTestSuite) TestAlarmClock_FiresOnceAndUnregisters() {
	clock := platform.NewAlarmClock(s.cache, s.dispatcher, zap.NewNop())
	defer clock.Stop()

	Expect(clock.ScheduleExactAlarm(s.ctx, 7, time.Now().Add(20*time.Millisecond))).To(Succeed())

	_, armed := clock.Scheduled(s.ctx, 7)
	Expect(armed).To(BeTrue())

	Eventually(s.dispatcher.Signals).Should(ConsistOf(domain.AlarmFired{ListID: 7}))
	Consistently(s.dispatcher.Signals, 50*time.Millisecond).Should(HaveLen(1))

	_, armed = clock.Scheduled(s.ctx, 7)
	Expect(armed).To(BeFalse())
}

func (s *PlatformTestSuite) TestAlarmClock_PastTimeFiresImmediately() {
	clock := platform.NewAlarmClock(s.cache, s.dispatcher, zap.NewNop())
	defer clock.Stop()

	Expect(clock.ScheduleExactAlarm(s.ctx, 3, time.Now().Add(-time.Hour))).To(Succeed())

	Eventually(s.dispatcher.Signals).Should(ConsistOf(domain.AlarmFired{ListID: 3}))
}

func (s *PlatformTestSuite) TestAlarmClock_RescheduleReplacesAndCancelIsIdempotent() {
	clock := platform.NewAlarmClock(s.cache, s.dispatcher, zap.NewNop())
	defer clock.Stop()

	Expect(clock.ScheduleExactAlarm(s.ctx, 1, time.Now().Add(30*time.Millisecond))).To(Succeed())
	Expect(clock.ScheduleExactAlarm(s.ctx, 1, time.Now().Add(time.Hour))).To(Succeed())

	Consistently(s.dispatcher.Signals, 80*time.Millisecond).Should(BeEmpty())

	Expect(clock.Cancel(s.ctx, 1)).To(Succeed())
	Expect(clock.Cancel(s.ctx, 1)).To(Succeed())
	Expect(clock.Cancel(s.ctx, 99)).To(Succeed())

	_, armed := clock.Scheduled(s.ctx, 1)
	Expect(armed).To(BeFalse())
}

func (s *PlatformTestSuite) TestAlarmClock_RestoresRegistry() {
	first := platform.NewAlarmClock(s.cache, s.dispatcher, zap.NewNop())
	Expect(first.ScheduleExactAlarm(s.ctx, 5, time.Now().Add(time.Hour))).To(Succeed())
	first.Stop()

	second := platform.NewAlarmClock(s.cache, s.dispatcher, zap.NewNop())
	defer second.Stop()

	restored, err := second.Restore(s.ctx)

	Expect(err).To(BeNil())
	Expect(restored).To(Equal(1))
}

func (s *PlatformTestSuite) TestGeofenceMonitor_EnterAndExit() {
	monitor := platform.NewGeofenceMonitor(s.cache, s.dispatcher, zap.NewNop())
	home := domain.Location{Latitude: 0, Longitude: 0, Radius: 200, Description: "Home"}

	Expect(monitor.AddGeofence(s.ctx, 1, home)).To(Succeed())
	Expect(s.dispatcher.Signals()).To(BeEmpty())

	// About 111 meters north of the center.
	Expect(monitor.ReportLocation(s.ctx, platform.Coordinates{Latitude: 0.001, Longitude: 0})).To(Succeed())
	Expect(s.dispatcher.Signals()).To(ConsistOf(domain.GeofenceTransition{
		Transition: domain.GeofenceEnter,
		ListIDs:    []int64{1},
	}))

	// Staying inside emits nothing new.
	Expect(monitor.ReportLocation(s.ctx, platform.Coordinates{Latitude: 0.0005, Longitude: 0})).To(Succeed())
	Expect(s.dispatcher.Signals()).To(HaveLen(1))

	Expect(monitor.ReportLocation(s.ctx, platform.Coordinates{Latitude: 1, Longitude: 1})).To(Succeed())
	Expect(s.dispatcher.Signals()).To(HaveLen(2))
	Expect(s.dispatcher.Signals()[1]).To(Equal(domain.GeofenceTransition{
		Transition: domain.GeofenceExit,
		ListIDs:    []int64{1},
	}))
}

func (s *PlatformTestSuite) TestGeofenceMonitor_AddInsideFiresEnter() {
	monitor := platform.NewGeofenceMonitor(s.cache, s.dispatcher, zap.NewNop())

	Expect(monitor.ReportLocation(s.ctx, platform.Coordinates{Latitude: 10, Longitude: 10})).To(Succeed())
	Expect(monitor.AddGeofence(s.ctx, 4, domain.Location{Latitude: 10, Longitude: 10, Radius: 50})).To(Succeed())

	Expect(s.dispatcher.Signals()).To(ConsistOf(domain.GeofenceTransition{
		Transition: domain.GeofenceEnter,
		ListIDs:    []int64{4},
	}))
}

func (s *PlatformTestSuite) TestGeofenceMonitor_Remove() {
	monitor := platform.NewGeofenceMonitor(s.cache, s.dispatcher, zap.NewNop())

	Expect(monitor.AddGeofence(s.ctx, 1, domain.Location{Radius: 10})).To(Succeed())
	Expect(monitor.RemoveGeofence(s.ctx, 1)).To(Succeed())
	Expect(monitor.RemoveGeofence(s.ctx, 1)).To(Succeed())

	regions, err := monitor.Geofences(s.ctx)
	Expect(err).To(BeNil())
	Expect(regions).To(BeEmpty())
}

func (s *PlatformTestSuite) TestDistance() {
	// One degree of latitude.
	assert.InDelta(s.T(), 111195, platform.Distance(0, 0, 1, 0), 1)
	assert.Equal(s.T(), 0.0, platform.Distance(48.85, 2.35, 48.85, 2.35))
}

func (s *PlatformTestSuite) TestPermissionStore_SignalsOnlyChanges() {
	permissions := platform.NewPermissionStore(s.cache, s.dispatcher, zap.NewNop())

	Expect(permissions.IsGranted(s.ctx, domain.PermissionExactAlarm)).To(BeFalse())

	Expect(permissions.Set(s.ctx, domain.PermissionExactAlarm, true)).To(Succeed())
	Expect(permissions.Set(s.ctx, domain.PermissionExactAlarm, true)).To(Succeed())
	Expect(permissions.Set(s.ctx, domain.PermissionExactAlarm, false)).To(Succeed())

	Expect(s.dispatcher.Signals()).To(Equal([]domain.Signal{
		domain.PermissionChanged{Permission: domain.PermissionExactAlarm, Granted: true},
		domain.PermissionChanged{Permission: domain.PermissionExactAlarm, Granted: false},
	}))

	Expect(permissions.All(s.ctx)).To(HaveKeyWithValue(domain.PermissionExactAlarm, false))
}

func (s *PlatformTestSuite) TestNotificationCenter_PostReplaceCancel() {
	tokens := auth.NewJWT("secret", time.Hour)
	center := platform.NewNotificationCenter(tokens, nil, zap.NewNop())

	item := domain.Notification{
		ListID:   1,
		ItemID:   2,
		Title:    "Groceries",
		Text:     "Milk",
		GroupKey: domain.ReminderGroupKey(1),
		SortKey:  domain.ReminderSortKey(0),
		Actions:  []domain.NotificationActionKind{domain.ActionDone, domain.ActionDismissed},
	}

	Expect(center.Post(s.ctx, 10, item)).To(Succeed())

	item.Text = "Oat milk"
	Expect(center.Post(s.ctx, 10, item)).To(Succeed())
	Expect(center.Post(s.ctx, 11, domain.Notification{ListID: 1, GroupKey: domain.ReminderGroupKey(1), GroupSummary: true})).To(Succeed())

	list := center.List(s.ctx)
	Expect(list).To(HaveLen(2))
	Expect(list[0].ID).To(Equal(11))
	Expect(list[1].Notification.Text).To(Equal("Oat milk"))

	claims, err := tokens.VerifyActionToken(list[1].ActionTokens[domain.ActionDone])
	Expect(err).To(BeNil())
	Expect(claims.ItemID).To(Equal(int64(2)))
	Expect(claims.Action).To(Equal("done"))

	Expect(center.Cancel(s.ctx, 10)).To(Succeed())
	Expect(center.Cancel(s.ctx, 10)).To(Succeed())

	active, err := center.ActiveIDs(s.ctx)
	Expect(err).To(BeNil())
	Expect(active).To(Equal(map[int]struct{}{11: {}}))
}

func (s *PlatformTestSuite) TestNotificationCenter_Toggle() {
	center := platform.NewNotificationCenter(auth.NewJWT("secret", time.Hour), nil, zap.NewNop())

	Expect(center.AreNotificationsEnabled(s.ctx)).To(BeTrue())

	center.SetEnabled(s.ctx, false)

	Expect(center.AreNotificationsEnabled(s.ctx)).To(BeFalse())
}
