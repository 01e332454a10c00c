package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"todolists/internal/adapter/database/memory"
	"todolists/internal/adapter/database/sqlite"
	"todolists/internal/adapter/database/sqlite/repository"
	"todolists/internal/adapter/platform"
	"todolists/internal/core/domain"
	"todolists/internal/core/service"
	"todolists/pkg/test"
)

type JobHandlersTestSuite struct {
	suite.Suite
	DB          *sqlite.DB
	store       *repository.TodoRepository
	alarms      *fakeAlarms
	geofences   *fakeGeofences
	permissions *fakePermissions
	presenter   *countingPresenter
	handlers    *service.JobHandlers
	ctx         context.Context
}

func (s *JobHandlersTestSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.DB = test.InitTestDB()
	s.store = repository.NewTodoRepository(s.DB, nil)
	s.alarms = newFakeAlarms()
	s.geofences = newFakeGeofences()
	s.permissions = newFakePermissions(
		domain.PermissionExactAlarm,
		domain.PermissionFineLocation,
		domain.PermissionBackgroundLocation,
	)
	s.presenter = newCountingPresenter()

	scheduler := service.NewReminderScheduler(s.store, s.alarms, s.geofences, s.permissions, nil, nil, zap.NewNop())
	notifier := service.NewNotificationService(s.store, s.presenter, nil, zap.NewNop())
	s.handlers = service.NewJobHandlers(s.store, scheduler, notifier, zap.NewNop())
	s.ctx = context.Background()
}

func (s *JobHandlersTestSuite) TearDownTest() {
	test.TeardownDB(s.T(), s.DB)
}

func TestJobHandlersTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(JobHandlersTestSuite))
}

func (s *JobHandlersTestSuite) TestHandlers_CoverEveryKind() {
	handlers := s.handlers.Handlers()

	Expect(handlers).To(HaveKey(domain.JobSendReminderNotifications))
	Expect(handlers).To(HaveKey(domain.JobCompleteItem))
	Expect(handlers).To(HaveKey(domain.JobClearItemNotification))
	Expect(handlers).To(HaveKey(domain.JobClearAllNotifications))
	Expect(handlers).To(HaveKey(domain.JobRearmReminders))
	Expect(handlers).To(HaveKey(domain.JobSyncReminder))
}

func (s *JobHandlersTestSuite) TestHandlers_RejectMissingIDs() {
	handlers := s.handlers.Handlers()

	for _, kind := range []domain.JobKind{
		domain.JobSendReminderNotifications,
		domain.JobCompleteItem,
		domain.JobClearItemNotification,
		domain.JobRearmReminders,
		domain.JobSyncReminder,
	} {
		err := handlers[kind](s.ctx, domain.JobInput{})

		Expect(err).To(MatchError(domain.ErrInvalidJobInput), string(kind))
		Expect(domain.IsPermanent(err)).To(BeTrue())
	}
}

func (s *JobHandlersTestSuite) TestCompleteItem_MarksAndReconciles() {
	listID, err := s.store.InsertListAtEnd(s.ctx, domain.TodoList{Name: "Groceries"})
	Expect(err).To(BeNil())
	milk, err := s.store.InsertItemAtEnd(s.ctx, listID, domain.TodoItem{Summary: "Milk"})
	Expect(err).To(BeNil())
	Expect(s.handlers.SendReminderNotifications(s.ctx, domain.JobInput{ListID: listID})).To(Succeed())

	Expect(s.handlers.CompleteItem(s.ctx, domain.JobInput{ItemID: milk})).To(Succeed())

	item, err := s.store.GetItem(s.ctx, milk)
	Expect(err).To(BeNil())
	Expect(item.Completed).To(BeTrue())
	Expect(s.presenter.List(s.ctx)).To(BeEmpty())
}

func (s *JobHandlersTestSuite) TestSyncReminder_ArmsStoredReminder() {
	listID, err := s.store.InsertListAtEnd(s.ctx, domain.TodoList{Name: "Hardware"})
	Expect(err).To(BeNil())
	Expect(s.store.SetReminder(s.ctx, listID, domain.LocationReminder{Location: home})).To(Succeed())

	Expect(s.handlers.SyncReminder(s.ctx, domain.JobInput{ListID: listID})).To(Succeed())

	Expect(s.geofences.Fences()).To(HaveKey(listID))
}

func (s *JobHandlersTestSuite) TestSyncReminder_CancelsDeletedList() {
	s.alarms.armed[99] = time.Now().Add(time.Hour)

	Expect(s.handlers.SyncReminder(s.ctx, domain.JobInput{ListID: 99})).To(Succeed())

	Expect(s.alarms.Armed()).To(BeEmpty())
}

func (s *JobHandlersTestSuite) TestSyncReminder_RetriesFailedCancel() {
	s.alarms.cancelErr = errors.New("alarm service down")

	err := s.handlers.SyncReminder(s.ctx, domain.JobInput{ListID: 99})

	Expect(err).To(MatchError(ContainSubstring("alarm service down")))
	Expect(domain.IsPermanent(err)).To(BeFalse())
}

func (s *JobHandlersTestSuite) TestBootSequence_RecoversReminders() {
	cache := memory.NewMemoryRepository()
	jobs := &fakeJobs{}
	dispatcher := service.NewDispatcher(jobs, nil, zap.NewNop(), 0)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	go func() { _ = dispatcher.Run(ctx) }()

	alarms := platform.NewAlarmClock(cache, dispatcher, zap.NewNop())
	defer alarms.Stop()
	geofences := platform.NewGeofenceMonitor(cache, dispatcher, zap.NewNop())

	scheduler := service.NewReminderScheduler(s.store, alarms, geofences, s.permissions, nil, nil, zap.NewNop())
	notifier := service.NewNotificationService(s.store, s.presenter, nil, zap.NewNop())
	handlers := service.NewJobHandlers(s.store, scheduler, notifier, zap.NewNop())

	groceries, err := s.store.InsertListAtEnd(s.ctx, domain.TodoList{Name: "Groceries"})
	Expect(err).To(BeNil())
	hardware, err := s.store.InsertListAtEnd(s.ctx, domain.TodoList{Name: "Hardware"})
	Expect(err).To(BeNil())

	Expect(s.store.SetReminder(s.ctx, groceries, domain.NewTimeReminder(time.Now().Add(-time.Hour)))).To(Succeed())
	Expect(s.store.SetReminder(s.ctx, hardware, domain.LocationReminder{Location: home})).To(Succeed())

	Expect(handlers.ClearAllNotifications(s.ctx, domain.JobInput{})).To(Succeed())
	Expect(handlers.RearmReminders(s.ctx, domain.JobInput{ReminderKind: domain.ReminderKindTime})).To(Succeed())
	Expect(handlers.RearmReminders(s.ctx, domain.JobInput{ReminderKind: domain.ReminderKindLocation})).To(Succeed())

	Eventually(jobs.Specs).Should(ContainElement(domain.SendReminderNotificationsJob(groceries)))
	Consistently(jobs.Specs, 100*time.Millisecond).ShouldNot(ContainElement(domain.SendReminderNotificationsJob(hardware)))

	fences, err := geofences.Geofences(s.ctx)
	Expect(err).To(BeNil())
	Expect(fences).To(HaveKey(hardware))
	Expect(fences).NotTo(HaveKey(groceries))
}
