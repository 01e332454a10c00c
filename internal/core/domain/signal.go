package domain

type Permission string

const (
	PermissionExactAlarm         Permission = "exact_alarm"
	PermissionFineLocation       Permission = "fine_location"
	PermissionBackgroundLocation Permission = "background_location"
)

func ParsePermission(permission string) (Permission, bool) {
	switch Permission(permission) {
	case PermissionExactAlarm, PermissionFineLocation, PermissionBackgroundLocation:
		return Permission(permission), true
	default:
		return "", false
	}
}

func (p Permission) IsLocation() bool {
	return p == PermissionFineLocation || p == PermissionBackgroundLocation
}

type GeofenceTransitionKind string

const (
	GeofenceEnter GeofenceTransitionKind = "enter"
	GeofenceExit  GeofenceTransitionKind = "exit"
)

// Signal is a system event delivered to the dispatcher.
type Signal interface {
	SignalName() string
}

type BootCompleted struct{}

type PermissionChanged struct {
	Permission Permission
	Granted    bool
}

type AlarmFired struct {
	ListID int64
}

type GeofenceTransition struct {
	Transition GeofenceTransitionKind
	ListIDs    []int64
}

type NotificationActionReceived struct {
	Action NotificationActionKind
	ItemID int64
}

func (BootCompleted) SignalName() string              { return "boot_completed" }
func (PermissionChanged) SignalName() string          { return "permission_changed" }
func (AlarmFired) SignalName() string                 { return "alarm_fired" }
func (GeofenceTransition) SignalName() string         { return "geofence_transition" }
func (NotificationActionReceived) SignalName() string { return "notification_action" }
