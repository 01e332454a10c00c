package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobSendReminderNotifications JobKind = "send-reminder-notifications"
	JobCompleteItem              JobKind = "complete-item"
	JobClearItemNotification     JobKind = "clear-item-notification"
	JobClearAllNotifications     JobKind = "clear-all-notifications"
	JobRearmReminders            JobKind = "rearm-reminders"
	JobSyncReminder              JobKind = "sync-reminder"
)

// ClearNotificationScope serializes every job that reconciles list summary state.
const ClearNotificationScope = "clear-notification"

type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

func (s JobState) IsFinished() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

type UniquePolicy string

const (
	UniqueAppend  UniquePolicy = "append"
	UniqueReplace UniquePolicy = "replace"
)

type JobInput struct {
	ListID       int64        `json:"list_id,omitempty"`
	ItemID       int64        `json:"item_id,omitempty"`
	ReminderKind ReminderKind `json:"reminder_kind,omitempty"`
}

type JobSpec struct {
	Kind  JobKind
	Input JobInput
}

type Job struct {
	ID               int64
	UUID             uuid.UUID
	Kind             JobKind
	Input            JobInput
	Scope            string
	State            JobState
	Attempts         int
	MaxAttempts      int
	RunAfter         time.Time
	DependsOn        *int64
	StrictDependency bool
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func SendReminderNotificationsJob(listID int64) JobSpec {
	return JobSpec{Kind: JobSendReminderNotifications, Input: JobInput{ListID: listID}}
}

func CompleteItemJob(itemID int64) JobSpec {
	return JobSpec{Kind: JobCompleteItem, Input: JobInput{ItemID: itemID}}
}

func ClearItemNotificationJob(itemID int64) JobSpec {
	return JobSpec{Kind: JobClearItemNotification, Input: JobInput{ItemID: itemID}}
}

func ClearAllNotificationsJob() JobSpec {
	return JobSpec{Kind: JobClearAllNotifications}
}

func RearmRemindersJob(kind ReminderKind) JobSpec {
	return JobSpec{Kind: JobRearmReminders, Input: JobInput{ReminderKind: kind}}
}

func SyncReminderJob(listID int64) JobSpec {
	return JobSpec{Kind: JobSyncReminder, Input: JobInput{ListID: listID}}
}
