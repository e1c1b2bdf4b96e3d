package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"inventory/internal/config"
	"inventory/internal/core/catalog"
	"inventory/internal/core/dutchie"
	"inventory/internal/core/job"
	"inventory/internal/core/notify"
	"inventory/internal/core/publish"
	"inventory/internal/core/report"
	"inventory/internal/core/status"
	"inventory/internal/logger"
	"inventory/internal/platform/drive"
	rds "inventory/internal/platform/redis"
	"inventory/internal/platform/storage"
	tasks "inventory/internal/platform/tasks"
	"inventory/internal/server"
	"inventory/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("[inventory] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	// Initialize logger
	logr := logger.New("main")

	// Job directories must exist before anything runs
	for _, dir := range []string{cfg.DataDir, cfg.DownloadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create %s: %v", dir, err)
		}
	}

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server. Concurrency stays at 1: both job types share
	// the download directory and the portal tolerates one session at a time.
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{"default": 1},
	})

	// Core services
	jobSvc := job.NewJobService(redisSvc)
	statusSvc := status.New(redisSvc)

	stores, err := config.LoadStores(cfg.StoresFile)
	if err != nil {
		log.Fatalf("load store registry: %v", err)
	}
	logr.LogInfof("store registry: %d stores from %s", len(stores), cfg.StoresFile)

	sessionFactory := dutchie.Factory(dutchie.Config{
		URL:           cfg.PortalURL,
		Headless:      cfg.PortalHeadless,
		ExportTimeout: cfg.ExportTimeout,
		PollInterval:  cfg.PollInterval,
	})
	catalogSvc := catalog.NewService(jobSvc, taskClient, statusSvc, sessionFactory, cfg)

	driveStore, err := drive.New(context.Background(), cfg.DriveCredentialsFile)
	if err != nil {
		log.Fatalf("failed to initialize Drive client: %v", err)
	}
	publishSvc := publish.NewService(driveStore, cfg.DriveRootFolder)
	notifySvc := notify.NewService(cfg)

	archiveSvc := storage.New(cfg)
	if archiveSvc.Enabled() {
		logr.LogInfof("artifact archive enabled (bucket %s)", cfg.SupabaseBucket)
	}

	reportSvc := report.NewService(jobSvc, taskClient, statusSvc, publishSvc, notifySvc, archiveSvc, cfg)

	// Worker mux
	mux := worker.NewMux()
	mux.Use(worker.Logging(logger.New("Worker")))
	mux.HandleFunc(tasks.TaskTypeCatalog, catalogSvc.HandleCatalogTask)
	mux.HandleFunc(tasks.TaskTypeReport, reportSvc.HandleReportTask)

	// Start worker
	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Brand Inventory Engine",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	// Serve generated artifacts and raw extracts from DATA_DIR under /files
	app.Static("/files", cfg.DataDir)

	// Register routes with health handler
	deps := server.Dependencies{
		Config:  cfg,
		Job:     jobSvc,
		Catalog: catalogSvc,
		Report:  reportSvc,
		Stores:  stores,
		Status:  statusSvc,
		Redis:   redisSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(5 * time.Second) // Allow services to fully initialize
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = taskClient.Close()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
