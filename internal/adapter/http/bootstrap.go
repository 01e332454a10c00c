package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todolists/internal/adapter/database/sqlite"
	"todolists/internal/adapter/http/routes"
	"todolists/internal/adapter/telemetry"
	"todolists/internal/core/domain"
	"todolists/pkg/config"
)

// App runs the HTTP server, the signal dispatcher and the job runner
// together. Start returns once everything is running, Stop tears it down.
type App struct {
	Config    *config.AppConfig
	Logger    *config.LokiLogger
	Telemetry *telemetry.Container
	DB        *sqlite.DB
	Container *Container
	Server    *http.Server

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewApp(ctx context.Context, cfg *config.AppConfig, logger *config.LokiLogger) (*App, error) {
	tel, err := telemetry.NewContainer(cfg.Telemetry, cfg.Environment, logger.Zap())

	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	db, err := sqlite.New(cfg.Database)

	if err != nil {
		tel.Shutdown(ctx)
		return nil, fmt.Errorf("init database: %w", err)
	}

	cache, err := NewCache(ctx, cfg.Cache)

	if err != nil {
		db.Close()
		tel.Shutdown(ctx)
		return nil, fmt.Errorf("init cache: %w", err)
	}

	probe := tel.NewTelemetryProbe(logger.Logger)
	container := NewContainer(cfg, db, cache, tel.AppMetrics, probe, logger)

	router := routes.SetupRouterWithConfig(container.Handlers, tel.AppMetrics, logger, cfg)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Telemetry: tel,
		DB:        db,
		Container: container,
		Server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Start restores persisted alarms, starts the background loops and reports
// BootCompleted so stale notifications are cleared and reminders re-armed.
func (a *App) Start(ctx context.Context) error {
	log := a.Logger.Zap()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	group, groupCtx := errgroup.WithContext(runCtx)
	a.group = group

	a.Telemetry.AppMetrics.StartSystemMetrics(groupCtx)

	if err := a.Container.Runner.Start(groupCtx); err != nil {
		cancel()
		return fmt.Errorf("start job runner: %w", err)
	}

	group.Go(func() error {
		return a.Container.Dispatcher.Run(groupCtx)
	})

	group.Go(func() error {
		a.Logger.InfoWithTrace(groupCtx, "Server starting",
			zap.String("port", a.Config.Server.Port),
			zap.String("environment", a.Config.Environment),
			zap.Bool("rate_limit_enabled", a.Config.RateLimitEnabled),
			zap.Bool("https_enforced", a.Config.EnforceHTTPS),
		)

		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	restored, err := a.Container.Alarms.Restore(groupCtx)

	if err != nil {
		log.Error("Failed to restore alarms", zap.Error(err))
	} else {
		log.Info("Alarms restored", zap.Int("count", restored))
	}

	if err := a.Container.Dispatcher.Submit(groupCtx, domain.BootCompleted{}); err != nil {
		log.Error("Failed to submit boot signal", zap.Error(err))
	}

	// a component that dies on its own takes the whole process down
	go func() {
		<-groupCtx.Done()

		if runCtx.Err() == nil {
			log.Error("Component stopped unexpectedly, shutting down")

			if process, err := os.FindProcess(os.Getpid()); err == nil {
				process.Signal(syscall.SIGTERM)
			}
		}
	}()

	return nil
}

// Stop drains HTTP first so no new signals arrive, then stops the loops,
// the alarm timers, telemetry and the database.
func (a *App) Stop(ctx context.Context) error {
	log := a.Logger.Zap()
	log.Info("Shutting down gracefully...")

	var errs []error

	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}

	if err := a.Container.Runner.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("job runner: %w", err))
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.group != nil {
		if err := a.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}

	a.Container.Alarms.Stop()

	if err := a.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	a.Logger.Sync()

	return errors.Join(errs...)
}
