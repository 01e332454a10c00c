package request

type ListRequest struct {
	Name string `json:"name" validate:"max=255"`
}

type MoveRequest struct {
	AfterPosition *int `json:"after_position" validate:"required,min=-1"`
}

type ItemRequest struct {
	Summary       string `json:"summary" validate:"max=1000"`
	AfterPosition *int   `json:"after_position,omitempty" validate:"omitempty,min=0"`
}

// ItemUpdateRequest changes the summary, the completed flag or both.
type ItemUpdateRequest struct {
	Summary   *string `json:"summary,omitempty" validate:"omitempty,max=1000"`
	Completed *bool   `json:"completed,omitempty"`
}

type LocationRequest struct {
	Latitude    float64 `json:"latitude" validate:"latitude"`
	Longitude   float64 `json:"longitude" validate:"longitude"`
	Radius      float64 `json:"radius" validate:"gt=0"`
	Description string  `json:"description" validate:"max=255"`
}

// ReminderRequest sets or clears a list reminder. Kind "none" clears it,
// "time" needs DateTime and "location" needs Location.
type ReminderRequest struct {
	Kind     string           `json:"kind" validate:"required,oneof=none time location"`
	DateTime string           `json:"date_time,omitempty" validate:"required_if=Kind time"`
	Location *LocationRequest `json:"location,omitempty" validate:"required_if=Kind location"`
}

type PermissionRequest struct {
	Permission string `json:"permission" validate:"required,oneof=exact_alarm fine_location background_location"`
	Granted    bool   `json:"granted"`
}

type LocationFixRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type NotificationsEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
