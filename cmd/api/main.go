package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/desguapro/catalog-sync/internal/application/catalog"
	"github.com/desguapro/catalog-sync/internal/bootstrap"
	"github.com/desguapro/catalog-sync/internal/config"
	"github.com/desguapro/catalog-sync/internal/infrastructure/db/models"
	"github.com/desguapro/catalog-sync/internal/infrastructure/repository"
	"github.com/desguapro/catalog-sync/internal/infrastructure/supplier"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ImportJob{},
		&models.SyncCursor{},
		&models.ImportSchedule{},
		&models.Vehicle{},
		&models.Part{},
	); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	jobRepo := repository.NewImportJobRepository(db)
	cursorRepo := repository.NewSyncCursorRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	reconciler := repository.NewCatalogReconciler(pool)
	if err := reconciler.EnsureStaging(context.Background()); err != nil {
		log.Fatalf("prepare staging tables: %v", err)
	}
	feed := supplier.NewClient(supplier.Config{
		BaseURL:        cfg.Supplier.BaseURL,
		APIKey:         cfg.Supplier.APIKey,
		CompanyID:      cfg.Supplier.CompanyID,
		Timeout:        cfg.Supplier.Timeout,
		RequestsPerMin: cfg.Supplier.RequestsPerMin,
	})

	gate := &app.SchedulerGate{}
	imports := app.NewImportService(jobRepo, cursorRepo, reconciler, gate)
	schedules := app.NewScheduleService(scheduleRepo)
	sweeper := app.NewSweeper(jobRepo, cfg.Recovery.StaleThreshold)
	scheduler := app.NewScheduler(scheduleRepo, jobRepo, gate)

	runner := app.NewRunner(jobRepo, cursorRepo, feed, reconciler, app.RunnerConfig{
		PageSize:          cfg.Supplier.PageSize,
		PollInterval:      cfg.Sync.PollInterval,
		MaxRetries:        cfg.Supplier.MaxRetries,
		RetryBackoffBase:  cfg.Supplier.RetryBackoffBase,
		PartialErrorRatio: cfg.Sync.PartialErrorRatio,
		MaxStoredErrors:   cfg.Sync.MaxStoredErrors,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	runner.Start(workerCtx)

	ticker := cron.New()
	if _, err := ticker.AddFunc(fmt.Sprintf("@every %s", cfg.Scheduler.TickInterval), func() {
		if err := scheduler.Tick(workerCtx); err != nil {
			log.Printf("scheduler tick failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("register scheduler tick: %v", err)
	}
	if _, err := ticker.AddFunc(fmt.Sprintf("@every %s", cfg.Recovery.SweepInterval), func() {
		if _, err := sweeper.Sweep(workerCtx, false); err != nil {
			log.Printf("recovery sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("register recovery sweep: %v", err)
	}
	ticker.Start()
	defer ticker.Stop()

	server := bootstrap.NewHTTPServer(imports, schedules, sweeper)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()
	ticker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}
