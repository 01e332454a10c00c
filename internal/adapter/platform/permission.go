package platform

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
)

const permissionKeyPrefix = "permission:"

var knownPermissions = []domain.Permission{
	domain.PermissionExactAlarm,
	domain.PermissionFineLocation,
	domain.PermissionBackgroundLocation,
}

// PermissionStore holds the runtime permission flags reported by the device.
type PermissionStore struct {
	cache      port.CacheRepository
	dispatcher port.Dispatcher
	logger     *zap.Logger
	mu         sync.Mutex
}

func NewPermissionStore(cache port.CacheRepository, dispatcher port.Dispatcher, logger *zap.Logger) *PermissionStore {
	return &PermissionStore{
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

var _ port.PermissionChecker = (*PermissionStore)(nil)

func (p *PermissionStore) IsGranted(ctx context.Context, permission domain.Permission) bool {
	value, err := p.cache.Get(ctx, permissionKeyPrefix+string(permission))

	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			p.logger.Warn("Failed to read permission", zap.String("permission", string(permission)), zap.Error(err))
		}

		return false
	}

	return string(value) == "granted"
}

// Set records the permission state and submits a PermissionChanged signal
// when it differs from the previous one.
func (p *PermissionStore) Set(ctx context.Context, permission domain.Permission, granted bool) error {
	p.mu.Lock()

	previous := p.IsGranted(ctx, permission)

	state := "revoked"
	if granted {
		state = "granted"
	}

	err := p.cache.Set(ctx, permissionKeyPrefix+string(permission), []byte(state), 0)
	p.mu.Unlock()

	if err != nil {
		return err
	}

	if previous == granted {
		return nil
	}

	p.logger.Info("Permission changed", zap.String("permission", string(permission)), zap.Bool("granted", granted))

	return p.dispatcher.Submit(ctx, domain.PermissionChanged{Permission: permission, Granted: granted})
}

func (p *PermissionStore) All(ctx context.Context) map[domain.Permission]bool {
	states := make(map[domain.Permission]bool, len(knownPermissions))

	for _, permission := range knownPermissions {
		states[permission] = p.IsGranted(ctx, permission)
	}

	return states
}
