package platform

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	"todolists/internal/core/telemetry"
	"todolists/pkg/auth"
)

// PostedNotification is a notification currently shown on the device.
// ActionTokens carry one signed token per action button.
type PostedNotification struct {
	ID           int
	Notification domain.Notification
	ActionTokens map[domain.NotificationActionKind]string
	PostedAt     time.Time
}

// NotificationCenter is the device notification tray: posting the same id
// again replaces the notification.
type NotificationCenter struct {
	tokens  *auth.JWT
	metrics *telemetry.AppMetrics
	logger  *zap.Logger

	mu      sync.RWMutex
	posted  map[int]PostedNotification
	enabled bool
}

func NewNotificationCenter(tokens *auth.JWT, metrics *telemetry.AppMetrics, logger *zap.Logger) *NotificationCenter {
	return &NotificationCenter{
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
		posted:  make(map[int]PostedNotification),
		enabled: true,
	}
}

var _ port.NotificationPresenter = (*NotificationCenter)(nil)

func (n *NotificationCenter) Post(ctx context.Context, id int, notification domain.Notification) error {
	posted := PostedNotification{
		ID:           id,
		Notification: notification,
		ActionTokens: make(map[domain.NotificationActionKind]string, len(notification.Actions)),
		PostedAt:     time.Now(),
	}

	for _, action := range notification.Actions {
		token, err := n.tokens.CreateActionToken(notification.ItemID, string(action))
		if err != nil {
			return err
		}

		posted.ActionTokens[action] = token
	}

	n.mu.Lock()
	n.posted[id] = posted
	n.mu.Unlock()

	kind := "item"
	if notification.GroupSummary {
		kind = "summary"
	}

	if n.metrics != nil {
		n.metrics.RecordNotificationPosted(ctx, kind)
	}

	n.logger.Debug("Notification posted",
		zap.Int("notification_id", id),
		zap.String("type", kind),
		zap.Int64("list_id", notification.ListID))

	return nil
}

func (n *NotificationCenter) Cancel(ctx context.Context, id int) error {
	n.mu.Lock()
	_, found := n.posted[id]
	delete(n.posted, id)
	n.mu.Unlock()

	if found && n.metrics != nil {
		n.metrics.RecordNotificationCancelled(ctx)
	}

	return nil
}

func (n *NotificationCenter) AreNotificationsEnabled(ctx context.Context) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.enabled
}

func (n *NotificationCenter) SetEnabled(ctx context.Context, enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()

	n.logger.Info("Notifications toggled", zap.Bool("enabled", enabled))
}

func (n *NotificationCenter) ActiveIDs(ctx context.Context) (map[int]struct{}, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make(map[int]struct{}, len(n.posted))
	for id := range n.posted {
		ids[id] = struct{}{}
	}

	return ids, nil
}

func (n *NotificationCenter) Get(ctx context.Context, id int) (PostedNotification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	posted, ok := n.posted[id]
	return posted, ok
}

// List returns the tray grouped by list, summary first, then by sort key.
func (n *NotificationCenter) List(ctx context.Context) []PostedNotification {
	n.mu.RLock()
	list := make([]PostedNotification, 0, len(n.posted))
	for _, posted := range n.posted {
		list = append(list, posted)
	}
	n.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Notification, list[j].Notification

		if a.GroupKey != b.GroupKey {
			return a.GroupKey < b.GroupKey
		}

		if a.GroupSummary != b.GroupSummary {
			return a.GroupSummary
		}

		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}

		return list[i].ID < list[j].ID
	})

	return list
}

// Clear empties the tray, as a device reboot does.
func (n *NotificationCenter) Clear(ctx context.Context) {
	n.mu.Lock()
	n.posted = make(map[int]PostedNotification)
	n.mu.Unlock()
}
