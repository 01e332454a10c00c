package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todolists/internal/core/domain"
	"todolists/internal/core/model/response"
	"todolists/pkg/auth"
	"todolists/pkg/test"
)

type DeviceHandlerSuite struct {
	suite.Suite
	f    *fixture
	stop func()
	ctx  context.Context
}

func (s *DeviceHandlerSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.f = newFixture("")
	s.stop = s.f.start()
	s.ctx = context.Background()
}

func (s *DeviceHandlerSuite) TearDownTest() {
	s.stop()
	test.TeardownDB(s.T(), s.f.DB)
}

func TestDeviceHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(DeviceHandlerSuite))
}

func (s *DeviceHandlerSuite) grant(permissions ...domain.Permission) {
	for _, permission := range permissions {
		w := s.f.do("POST", "/signals/permissions", map[string]any{
			"permission": string(permission),
			"granted":    true,
		})
		Expect(w.Code).To(Equal(http.StatusAccepted))
	}
}

func (s *DeviceHandlerSuite) groceriesWithLocationReminder() int64 {
	svc := s.f.Container.TodoService

	list, err := svc.AddList(s.ctx, "Groceries")
	Expect(err).To(BeNil())

	_, err = svc.AddItem(s.ctx, list.ID, "Milk", nil)
	Expect(err).To(BeNil())
	_, err = svc.AddItem(s.ctx, list.ID, "Eggs", nil)
	Expect(err).To(BeNil())

	w := s.f.do("PUT", fmt.Sprintf("/lists/%d/reminder", list.ID), map[string]any{
		"kind": "location",
		"location": map[string]any{
			"latitude":    52.52,
			"longitude":   13.405,
			"radius":      200,
			"description": "Market",
		},
	})
	Expect(w.Code).To(Equal(http.StatusOK))

	return list.ID
}

func (s *DeviceHandlerSuite) notifications() []response.NotificationResponse {
	w := s.f.do("GET", "/notifications", nil)
	Expect(w.Code).To(Equal(http.StatusOK))

	posted, _ := decode[[]response.NotificationResponse](w)
	return posted
}

func (s *DeviceHandlerSuite) TestHealth() {
	w := s.f.do("GET", "/health", nil)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(ContainSubstring(`"status":"ok"`))
}

func (s *DeviceHandlerSuite) TestSetPermission_Validates() {
	w := s.f.do("POST", "/signals/permissions", map[string]any{"permission": "camera", "granted": true})

	Expect(w.Code).To(Equal(http.StatusBadRequest))
}

func (s *DeviceHandlerSuite) TestGetPermissions() {
	s.grant(domain.PermissionExactAlarm)

	w := s.f.do("GET", "/signals/permissions", nil)
	Expect(w.Code).To(Equal(http.StatusOK))

	states, _ := decode[map[string]bool](w)
	Expect(states).To(HaveKeyWithValue("exact_alarm", true))
	Expect(states).To(HaveKeyWithValue("fine_location", false))
	Expect(states).To(HaveKeyWithValue("background_location", false))
}

func (s *DeviceHandlerSuite) TestBoot_RunsRecoveryChain() {
	w := s.f.do("POST", "/signals/boot", nil)
	Expect(w.Code).To(Equal(http.StatusAccepted))

	Eventually(func() []string {
		jobs, _, err := s.f.Container.JobRepo.List(s.ctx, 10, 0)
		Expect(err).To(BeNil())

		var kinds []string
		for _, job := range jobs {
			if job.State == domain.JobSucceeded {
				kinds = append(kinds, string(job.Kind))
			}
		}
		return kinds
	}, 2*time.Second, 20*time.Millisecond).Should(ConsistOf(
		string(domain.JobClearAllNotifications),
		string(domain.JobRearmReminders),
		string(domain.JobRearmReminders),
	))
}

// finishedJobs counts finished jobs, or -1 while any job is still pending.
func (s *DeviceHandlerSuite) finishedJobs() int {
	jobs, _, err := s.f.Container.JobRepo.List(s.ctx, 50, 0)
	Expect(err).To(BeNil())

	for _, job := range jobs {
		if !job.State.IsFinished() {
			return -1
		}
	}
	return len(jobs)
}

func (s *DeviceHandlerSuite) TestBoot_RestoresPersistedReminders() {
	s.grant(domain.PermissionExactAlarm, domain.PermissionFineLocation, domain.PermissionBackgroundLocation)
	// one re-arm per grant, all run against an empty database
	Eventually(s.finishedJobs, 2*time.Second, 20*time.Millisecond).Should(Equal(3))

	svc := s.f.Container.TodoService

	groceries, err := svc.AddList(s.ctx, "Groceries")
	Expect(err).To(BeNil())
	milk, err := svc.AddItem(s.ctx, groceries.ID, "Milk", nil)
	Expect(err).To(BeNil())
	eggs, err := svc.AddItem(s.ctx, groceries.ID, "Eggs", nil)
	Expect(err).To(BeNil())

	home, err := svc.AddList(s.ctx, "Home")
	Expect(err).To(BeNil())

	// stored as they would be after a restart, nothing armed yet
	pastDue := domain.NewTimeReminder(time.Now().Add(-48 * time.Hour))
	Expect(s.f.Container.TodoRepo.SetReminder(s.ctx, groceries.ID, pastDue)).To(Succeed())

	homeRegion := domain.Location{Latitude: 52.52, Longitude: 13.405, Radius: 150, Description: "Home"}
	Expect(s.f.Container.TodoRepo.SetReminder(s.ctx, home.ID, domain.LocationReminder{Location: homeRegion})).To(Succeed())

	w := s.f.do("POST", "/signals/boot", nil)
	Expect(w.Code).To(Equal(http.StatusAccepted))

	Eventually(s.notifications, 2*time.Second, 20*time.Millisecond).Should(HaveLen(3))

	posted := s.notifications()
	Expect(posted[0].GroupSummary).To(BeTrue())
	Expect(posted[0].ListID).To(Equal(groceries.ID))
	Expect(posted[0].Lines).To(Equal([]string{"Milk", "Eggs"}))

	var titles []string
	for _, n := range posted[1:] {
		titles = append(titles, n.Title)
	}
	Expect(titles).To(ConsistOf("Milk", "Eggs"))

	Eventually(func() domain.Reminder {
		snapshot, err := svc.GetList(s.ctx, groceries.ID)
		Expect(err).To(BeNil())
		return snapshot.List.Reminder
	}, 2*time.Second, 20*time.Millisecond).Should(BeNil())

	Eventually(func() map[int64]domain.Location {
		fences, err := s.f.Container.Geofences.Geofences(s.ctx)
		Expect(err).To(BeNil())
		return fences
	}, 2*time.Second, 20*time.Millisecond).Should(HaveKeyWithValue(home.ID, homeRegion))

	Expect(svc.CompleteItem(s.ctx, milk.ID, true)).To(Succeed())
	Expect(svc.DeleteItem(s.ctx, eggs.ID)).To(Succeed())

	Expect(s.notifications()).To(BeEmpty())

	snapshot, err := svc.GetList(s.ctx, groceries.ID)
	Expect(err).To(BeNil())
	Expect(snapshot.List.NotificationID).To(BeNil())
}

func (s *DeviceHandlerSuite) TestLocationReminder_EndToEnd() {
	listID := s.groceriesWithLocationReminder()

	// the reminder was saved without permission, granting re-arms it
	s.grant(domain.PermissionFineLocation, domain.PermissionBackgroundLocation)

	Eventually(func() int {
		fences, err := s.f.Container.Geofences.Geofences(s.ctx)
		Expect(err).To(BeNil())
		return len(fences)
	}, 2*time.Second, 20*time.Millisecond).Should(Equal(1))

	w := s.f.do("POST", "/signals/location", map[string]any{"latitude": 52.5201, "longitude": 13.4051})
	Expect(w.Code).To(Equal(http.StatusAccepted))

	Eventually(s.notifications, 2*time.Second, 20*time.Millisecond).Should(HaveLen(3))

	posted := s.notifications()
	Expect(posted[0].GroupSummary).To(BeTrue())
	Expect(posted[0].ListID).To(Equal(listID))
	Expect(posted[0].Lines).To(Equal([]string{"Milk", "Eggs"}))

	var milk response.NotificationResponse
	for _, n := range posted {
		if n.Title == "Milk" {
			milk = n
		}
	}
	Expect(milk.Actions).To(HaveKey("done"))

	w = s.f.do("POST", "/notifications/actions/"+milk.Actions["done"], nil)
	Expect(w.Code).To(Equal(http.StatusAccepted))

	Eventually(func() bool {
		item, err := s.f.Container.TodoService.GetItem(s.ctx, milk.ItemID)
		Expect(err).To(BeNil())
		return item.Completed
	}, 2*time.Second, 20*time.Millisecond).Should(BeTrue())

	Eventually(s.notifications, 2*time.Second, 20*time.Millisecond).Should(HaveLen(2))

	posted = s.notifications()
	Expect(posted[0].GroupSummary).To(BeTrue())
	Expect(posted[0].Lines).To(Equal([]string{"Eggs"}))
}

func (s *DeviceHandlerSuite) TestLocationOutsideRegion_PostsNothing() {
	s.grant(domain.PermissionFineLocation, domain.PermissionBackgroundLocation)
	s.groceriesWithLocationReminder()

	w := s.f.do("POST", "/signals/location", map[string]any{"latitude": 48.8566, "longitude": 2.3522})
	Expect(w.Code).To(Equal(http.StatusAccepted))

	Consistently(s.notifications, 200*time.Millisecond, 20*time.Millisecond).Should(BeEmpty())
}

func (s *DeviceHandlerSuite) TestReportLocation_Validates() {
	w := s.f.do("POST", "/signals/location", map[string]any{"latitude": 95, "longitude": 0})

	Expect(w.Code).To(Equal(http.StatusBadRequest))
}

func (s *DeviceHandlerSuite) TestPerformAction_RejectsForgedToken() {
	forged, err := auth.NewJWT("other-secret", time.Hour).CreateActionToken(1, "done")
	Expect(err).To(BeNil())

	w := s.f.do("POST", "/notifications/actions/"+forged, nil)

	Expect(w.Code).To(Equal(http.StatusUnauthorized))
}

func (s *DeviceHandlerSuite) TestSetNotificationsEnabled() {
	w := s.f.do("PUT", "/notifications/enabled", map[string]any{"enabled": false})
	Expect(w.Code).To(Equal(http.StatusOK))

	Expect(s.f.Container.Notifications.AreNotificationsEnabled(s.ctx)).To(BeFalse())

	w = s.f.do("PUT", "/notifications/enabled", map[string]any{})
	Expect(w.Code).To(Equal(http.StatusBadRequest))
}

func (s *DeviceHandlerSuite) TestGetJobs_Paginates() {
	for i := int64(1); i <= 3; i++ {
		_, err := s.f.Container.Runner.Enqueue(s.ctx, domain.SyncReminderJob(1000+i))
		Expect(err).To(BeNil())
	}

	w := s.f.do("GET", "/jobs?limit=2", nil)
	Expect(w.Code).To(Equal(http.StatusOK))

	var page response.CursorResponse
	Expect(decodeInto(w, &page)).To(Succeed())
	Expect(page.Size).To(Equal(2))
	Expect(page.Pagination.HasNext).To(BeTrue())
	Expect(page.Pagination.NextCursor).NotTo(BeEmpty())

	w = s.f.do("GET", "/jobs?limit=2&cursor="+page.Pagination.NextCursor, nil)
	Expect(w.Code).To(Equal(http.StatusOK))

	Expect(decodeInto(w, &page)).To(Succeed())
	Expect(page.Size).To(Equal(1))
	Expect(page.Pagination.HasNext).To(BeFalse())

	w = s.f.do("GET", "/jobs?cursor=forged.cursor", nil)
	Expect(w.Code).To(Equal(http.StatusBadRequest))
}

func TestDeviceKey_GuardsDeviceRoutes(t *testing.T) {
	RegisterTestingT(t)

	hash, err := auth.HashDeviceKey("device-secret")
	Expect(err).To(BeNil())

	f := newFixture(hash)
	defer test.TeardownDB(t, f.DB)

	Expect(f.do("GET", "/notifications", nil).Code).To(Equal(http.StatusUnauthorized))
	Expect(f.do("GET", "/notifications", nil, auth.DeviceKeyHeader, "wrong").Code).To(Equal(http.StatusUnauthorized))
	Expect(f.do("GET", "/notifications", nil, auth.DeviceKeyHeader, "device-secret").Code).To(Equal(http.StatusOK))

	Expect(f.do("GET", "/lists", nil).Code).To(Equal(http.StatusOK))
}
