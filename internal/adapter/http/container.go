package http

import (
	"context"
	"fmt"

	"todolists/internal/adapter/database/memory"
	"todolists/internal/adapter/database/redis"
	"todolists/internal/adapter/database/sqlite"
	repository "todolists/internal/adapter/database/sqlite/repository"
	"todolists/internal/adapter/http/handler"
	"todolists/internal/adapter/http/routes"
	"todolists/internal/adapter/jobs"
	"todolists/internal/adapter/platform"
	"todolists/internal/core/port"
	"todolists/internal/core/service"
	"todolists/internal/core/telemetry"
	"todolists/pkg/auth"
	"todolists/pkg/config"
	"todolists/pkg/db/cursor"
)

// Container holds every collaborator of the running service.
type Container struct {
	TodoRepo *repository.TodoRepository
	JobRepo  *repository.JobRepository

	Runner     *jobs.Runner
	Dispatcher *service.Dispatcher

	Alarms        *platform.AlarmClock
	Geofences     *platform.GeofenceMonitor
	Permissions   *platform.PermissionStore
	Notifications *platform.NotificationCenter

	Scheduler   *service.ReminderScheduler
	Notifier    *service.NotificationService
	TodoService *service.TodoService
	JobHandlers *service.JobHandlers

	Handlers routes.HandlersConfig
}

func NewContainer(
	cfg *config.AppConfig,
	db *sqlite.DB,
	cache port.CacheRepository,
	metrics *telemetry.AppMetrics,
	probe port.Telemetry,
	logger *config.LokiLogger,
) *Container {
	log := logger.Zap()

	todoRepo := repository.NewTodoRepository(db, probe)
	jobRepo := repository.NewJobRepository(db, probe)

	runner := jobs.NewRunner(jobRepo, cfg.Jobs, metrics, log)
	dispatcher := service.NewDispatcher(runner, metrics, log, cfg.Jobs.SignalBuffer)

	tokens := auth.NewJWT(cfg.Auth.ActionSecret, cfg.Auth.ActionTokenTTL)

	alarms := platform.NewAlarmClock(cache, dispatcher, log)
	geofences := platform.NewGeofenceMonitor(cache, dispatcher, log)
	permissions := platform.NewPermissionStore(cache, dispatcher, log)
	notifications := platform.NewNotificationCenter(tokens, metrics, log)

	scheduler := service.NewReminderScheduler(todoRepo, alarms, geofences, permissions, probe, metrics, log)
	notifier := service.NewNotificationService(todoRepo, notifications, probe, log)
	todoSvc := service.NewTodoService(todoRepo, scheduler, notifier, runner, probe, log)

	jobHandlers := service.NewJobHandlers(todoRepo, scheduler, notifier, log)
	runner.RegisterAll(jobHandlers.Handlers())

	return &Container{
		TodoRepo: todoRepo,
		JobRepo:  jobRepo,

		Runner:     runner,
		Dispatcher: dispatcher,

		Alarms:        alarms,
		Geofences:     geofences,
		Permissions:   permissions,
		Notifications: notifications,

		Scheduler:   scheduler,
		Notifier:    notifier,
		TodoService: todoSvc,
		JobHandlers: jobHandlers,

		Handlers: routes.HandlersConfig{
			ListHandler:         handler.NewListHandler(todoSvc, logger),
			ItemHandler:         handler.NewItemHandler(todoSvc, logger),
			SignalHandler:       handler.NewSignalHandler(dispatcher, permissions, geofences, logger),
			NotificationHandler: handler.NewNotificationHandler(notifications, tokens, dispatcher, logger),
			JobHandler:          handler.NewJobHandler(jobRepo, cursor.NewCodec(cfg.Auth.CursorSecret), logger),
			HealthHandler:       handler.NewHealthHandler(db),
		},
	}
}

// NewCache opens the trigger and permission registry selected by cfg.Driver.
func NewCache(ctx context.Context, cfg config.CacheConfig) (port.CacheRepository, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewMemoryRepository(), nil
	case "redis":
		client := redis.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}

		return redis.NewRedisRepository(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
