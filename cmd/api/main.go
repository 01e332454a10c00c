package main

import (
	"context"
	"flag"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"

	api "todolists/internal/adapter/http"
	. "todolists/pkg/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("TODOLISTS_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)

	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := NewLokiLogger(cfg.Telemetry.ServiceName, cfg.Logging.LokiURL, cfg.Logging.Level)

	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	ctx := context.Background()

	app, err := api.NewApp(ctx, cfg, logger)

	if err != nil {
		logger.Zap().Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := app.Start(ctx); err != nil {
		logger.Zap().Fatal("Failed to start application", zap.Error(err))
	}

	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"todolists": func(ctx context.Context) error {
			return app.Stop(ctx)
		},
	})

	exitCode := <-wait
	if exitCode != 0 {
		log.Printf("Shutdown completed with exit code: %d", exitCode)
	}

	os.Exit(exitCode)
}
