package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"taskplanner/internal/config"
	"taskplanner/internal/notify"
	"taskplanner/internal/repository"
	"taskplanner/internal/service"
)

// app wires the repositories and services shared by the subcommands.
type app struct {
	cfg config.Config
	log *slog.Logger
	db  *gorm.DB

	taskRepo  *repository.TaskRepository
	stateRepo *repository.JobStateRepository
	userRepo  *repository.UserRepository

	generation *service.GenerationService
	reconciler *service.ReconcilerService
	cleanup    *service.CleanupService
	reminder   *service.ReminderService
	admin      *service.AdminService
	runner     *service.JobRunner
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := newLogger(cfg)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	stateRepo := repository.NewJobStateRepository(db)
	userRepo := repository.NewUserRepository(db)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("notifier: %w", err)
		}
		notifier = tg
	}

	generation := service.NewGenerationService(taskRepo, log)
	reconciler := service.NewReconcilerService(taskRepo, log)
	cleanup := service.NewCleanupService(taskRepo, cfg.CleanupRetentionDays, log)
	reminder := service.NewReminderService(taskRepo, userRepo, notifier, log)
	admin := service.NewAdminService(generation, reconciler, taskRepo, stateRepo)
	runner := service.NewJobRunner(stateRepo, cfg.JobTimeout(), log)

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		taskRepo:   taskRepo,
		stateRepo:  stateRepo,
		userRepo:   userRepo,
		generation: generation,
		reconciler: reconciler,
		cleanup:    cleanup,
		reminder:   reminder,
		admin:      admin,
		runner:     runner,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
