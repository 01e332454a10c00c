package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrListNotFound          = errors.New("todo list not found")
	ErrItemNotFound          = errors.New("todo item not found")
	ErrPermissionMissing     = errors.New("permission missing")
	ErrNotificationsDisabled = errors.New("notifications are disabled")
	ErrInvalidJobInput       = errors.New("invalid job input")
	ErrUnknownJobKind        = errors.New("unknown job kind")
)

// PermissionError reports the runtime permissions an arm attempt lacked.
type PermissionError struct {
	Missing []Permission
}

func NewPermissionError(missing ...Permission) *PermissionError {
	return &PermissionError{Missing: missing}
}

func (e *PermissionError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, p := range e.Missing {
		names = append(names, string(p))
	}

	return fmt.Sprintf("permission missing: %s", strings.Join(names, ", "))
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionMissing
}

// IsPermanent reports whether retrying the failed work cannot help.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidJobInput) ||
		errors.Is(err, ErrNotificationsDisabled) ||
		errors.Is(err, ErrUnknownJobKind) ||
		errors.Is(err, ErrListNotFound) ||
		errors.Is(err, ErrItemNotFound)
}
