package main

import (
	"context"
	"fmt"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/database"
	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"github.com/hairizuan-noorazman/browser-bridge/metrics"
	"github.com/hairizuan-noorazman/browser-bridge/runner"
	"github.com/hairizuan-noorazman/browser-bridge/session"
	"github.com/hairizuan-noorazman/browser-bridge/step"
	"github.com/hairizuan-noorazman/browser-bridge/storage"
	"github.com/hairizuan-noorazman/browser-bridge/webhook"
	"gorm.io/gorm"
)

// app holds the long-lived components shared by serve and run.
type app struct {
	log        logger.Logger
	launcher   *browser.PlaywrightLauncher
	sessions   *session.Registry
	metrics    *metrics.Metrics
	dispatcher *webhook.Dispatcher
	history    history.Store
	db         *gorm.DB
	runner     *runner.Runner
}

func newApp(ctx context.Context, cfg *Config, log logger.Logger) (*app, error) {
	blob, err := storage.NewBlobStorage(storage.Config{
		Type:            cfg.Storage.Type,
		BaseDir:         cfg.Storage.BaseDir,
		S3Bucket:        cfg.Storage.S3Bucket,
		S3Region:        cfg.Storage.S3Region,
		S3PresignExpiry: cfg.Storage.S3PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info(ctx, "screenshot storage initialized", map[string]interface{}{
		"type":     cfg.Storage.Type,
		"base_dir": cfg.Storage.BaseDir,
	})

	a := &app{
		log:      log,
		launcher: browser.NewPlaywrightLauncher(cfg.Browser.Install),
		metrics:  metrics.New(),
	}
	a.sessions = session.NewRegistry(log, a.metrics)
	a.dispatcher = webhook.NewDispatcher(cfg.Webhook.Timeout, log, a.metrics)

	if cfg.History.Enabled {
		if err := a.openHistory(ctx, cfg); err != nil {
			return nil, err
		}
	}

	a.runner = runner.New(runner.Options{
		Launcher:    a.launcher,
		Sessions:    a.sessions,
		Screenshots: step.NewScreenshots(blob),
		Policy: step.Policy{
			MaxRetries:  cfg.Executor.MaxRetries,
			RetryDelay:  cfg.Executor.RetryDelay,
			SettleDelay: cfg.Executor.SettleDelay,
		},
		BrowserTimeout: cfg.Browser.DefaultTimeout,
		Notifier:       a.dispatcher,
		History:        a.history,
		Recorder:       a.metrics,
		StepRecorder:   a.metrics,
		Logger:         log,
	})

	return a, nil
}

func (a *app) openHistory(ctx context.Context, cfg *Config) error {
	dbCfg := databaseConfig(cfg)

	if cfg.History.AutoMigrate {
		if err := database.RunMigrations(dbCfg, ""); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	a.db = db
	a.history = history.NewGormStore(db, a.log)

	a.log.Info(ctx, "run history enabled", map[string]interface{}{
		"driver": dbCfg.Driver,
	})
	return nil
}

// close releases sessions left open, stops the browser driver and closes the database.
func (a *app) close(ctx context.Context) {
	if n := a.sessions.CloseAll(ctx); n > 0 {
		a.log.Warn(ctx, "closed browser sessions still open at shutdown", map[string]interface{}{
			"sessions": n,
		})
	}

	if err := a.launcher.Shutdown(); err != nil {
		a.log.Error(ctx, "failed to stop browser driver", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func databaseConfig(cfg *Config) database.Config {
	return database.Config{
		Driver:       cfg.History.Driver,
		Path:         cfg.History.DSN,
		Host:         cfg.History.Host,
		Port:         cfg.History.Port,
		User:         cfg.History.User,
		Password:     cfg.History.Password,
		Database:     cfg.History.Database,
		MaxOpenConns: cfg.History.MaxOpenConns,
		MaxIdleConns: cfg.History.MaxIdleConns,
	}
}
