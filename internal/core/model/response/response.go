package response

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LocationResponse struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Radius      float64 `json:"radius"`
	Description string  `json:"description"`
}

type ReminderResponse struct {
	Kind     string            `json:"kind"`
	DateTime string            `json:"date_time,omitempty"`
	Location *LocationResponse `json:"location,omitempty"`
}

type ListResponse struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Position       int               `json:"position"`
	Reminder       *ReminderResponse `json:"reminder,omitempty"`
	NotificationID *int              `json:"notification_id,omitempty"`
	Items          []ItemResponse    `json:"items,omitempty"`
}

type ItemResponse struct {
	ID             int64  `json:"id"`
	ListID         int64  `json:"list_id"`
	Summary        string `json:"summary"`
	Completed      bool   `json:"completed"`
	Position       int    `json:"position"`
	NotificationID *int   `json:"notification_id,omitempty"`
}

type NotificationResponse struct {
	ID           int               `json:"id"`
	ListID       int64             `json:"list_id"`
	ItemID       int64             `json:"item_id,omitempty"`
	Title        string            `json:"title"`
	Text         string            `json:"text"`
	Lines        []string          `json:"lines,omitempty"`
	GroupKey     string            `json:"group_key"`
	SortKey      string            `json:"sort_key,omitempty"`
	GroupSummary bool              `json:"group_summary"`
	DeepLink     string            `json:"deep_link"`
	Actions      map[string]string `json:"actions,omitempty"`
	PostedAt     time.Time         `json:"posted_at"`
}

type JobResponse struct {
	UUID      uuid.UUID `json:"uuid"`
	Kind      string    `json:"kind"`
	Scope     string    `json:"scope,omitempty"`
	State     string    `json:"state"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	RunAfter  time.Time `json:"run_after"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CursorResponse struct {
	Size       int             `json:"size"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		HasNext    bool   `json:"has_next"`
		NextCursor string `json:"next_cursor"`
	} `json:"pagination"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
