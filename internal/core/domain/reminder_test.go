package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func TestTimeReminder_In(t *testing.T) {
	t.Run("should keep wall clock fields in the target zone", func(t *testing.T) {
		reminder, err := ParseTimeReminder("2025-03-10T08:30:00")
		assert.NoError(t, err)

		zone := time.FixedZone("UTC+10", 10*60*60)
		due := reminder.In(zone)

		assert.Equal(t, 8, due.Hour())
		assert.Equal(t, 30, due.Minute())
		assert.Equal(t, zone, due.Location())
	})

	t.Run("should reject malformed values", func(t *testing.T) {
		_, err := ParseTimeReminder("10/03/2025 08:30")
		assert.Error(t, err)
	})

	t.Run("should round trip through the storage layout", func(t *testing.T) {
		reminder := NewTimeReminder(time.Date(2025, 1, 2, 3, 4, 5, 999, time.Local))
		assert.Equal(t, "2025-01-02T03:04:05", reminder.String())
	})
}

func TestTodoList_ReminderKind(t *testing.T) {
	RegisterTestingT(t)

	list := TodoList{}
	Expect(list.ReminderKind()).To(Equal(ReminderKindNone))
	Expect(list.HasReminder()).To(BeFalse())

	list.Reminder = LocationReminder{Location: Location{Latitude: 1, Longitude: 2, Radius: 50}}
	Expect(list.ReminderKind()).To(Equal(ReminderKindLocation))

	list.Reminder = NewTimeReminder(time.Now())
	Expect(list.ReminderKind()).To(Equal(ReminderKindTime))
}

func TestParseReminderKind(t *testing.T) {
	RegisterTestingT(t)

	kind, err := ParseReminderKind("")
	Expect(err).To(BeNil())
	Expect(kind).To(Equal(ReminderKindNone))

	_, err = ParseReminderKind("weekly")
	Expect(err).ToNot(BeNil())
}

func TestPermissionError(t *testing.T) {
	err := fmt.Errorf("arm list 3: %w", NewPermissionError(PermissionFineLocation, PermissionBackgroundLocation))

	assert.True(t, errors.Is(err, ErrPermissionMissing))
	assert.Contains(t, err.Error(), "fine_location, background_location")

	var permissionErr *PermissionError
	assert.True(t, errors.As(err, &permissionErr))
	assert.Len(t, permissionErr.Missing, 2)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(fmt.Errorf("job: %w", ErrInvalidJobInput)))
	assert.True(t, IsPermanent(ErrNotificationsDisabled))
	assert.True(t, IsPermanent(fmt.Errorf("load: %w", ErrListNotFound)))
	assert.False(t, IsPermanent(errors.New("database is locked")))
	assert.False(t, IsPermanent(NewPermissionError(PermissionExactAlarm)))
}

func TestReminderKeys(t *testing.T) {
	assert.Equal(t, "REMINDER.42", ReminderGroupKey(42))
	assert.Equal(t, "0000000007", ReminderSortKey(7))
}
