package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thirdcoast.systems/reclip/internal/application"
	"thirdcoast.systems/reclip/internal/config"
	"thirdcoast.systems/reclip/internal/db"
	"thirdcoast.systems/reclip/internal/download"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
	"thirdcoast.systems/reclip/internal/storage"
	"thirdcoast.systems/reclip/internal/worker"
	"thirdcoast.systems/reclip/pkg/ytdlp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting downloader service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(conf.WorkDir, 0o755); err != nil {
		slog.Error("failed to create work dir", "dir", conf.WorkDir, "error", err)
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer dbc.Close()

	store, err := storage.NewClient(ctx, storage.Config{
		Region:          conf.S3Region,
		Endpoint:        conf.S3Endpoint,
		AccessKeyID:     conf.S3AccessKeyID,
		SecretAccessKey: conf.S3SecretAccessKey,
	})
	if err != nil {
		slog.Error("failed to create object store client", "error", err)
		os.Exit(1)
	}

	ytc := &ytdlp.Client{Path: conf.YtdlpPath}
	if version, err := ytc.Version(ctx); err != nil {
		slog.Warn("yt-dlp not available", "path", ytc.PathOrDefault(), "error", err)
	} else {
		slog.Info("yt-dlp ready", "version", version)
	}
	// Extractors rot quickly; keep the tool current across restarts
	if err := ytc.Update(ctx); err != nil {
		slog.Warn("yt-dlp self-update failed", "error", err)
	}

	// Use hostname (container ID) for unique worker ID since PID is always 1 in containers
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = fmt.Sprintf("pid-%d", os.Getpid())
	}
	workerID := fmt.Sprintf("downloader-%s", hostname)

	broker := queue.NewBroker(dbc.Pool)

	downloadTimeout := time.Duration(conf.DownloadTimeoutSec) * time.Second
	handler := &download.Downloader{
		DB:        dbc,
		Broker:    broker,
		Store:     store,
		Ytdlp:     ytc,
		RawBucket: conf.RawVideosBucket,
		WorkDir:   conf.WorkDir,
		Timeout:   downloadTimeout,
	}

	if n, err := broker.RequeueStuck(ctx, pipeline.QueueDownload, 2*downloadTimeout); err != nil {
		slog.Error("failed to requeue stuck tasks", "error", err)
	} else if n > 0 {
		slog.Info("requeued stuck tasks from previous instance", "count", n)
	}

	wake := make(chan struct{}, 1)
	go queue.ListenAndSignal(ctx, conf.DatabaseDSN, pipeline.QueueDownload, wake)

	runner := &worker.Runner{
		Queue:       pipeline.QueueDownload,
		Broker:      broker,
		Handler:     handler.Handle,
		Concurrency: conf.DownloadWorkers,
		TaskTimeout: 2 * downloadTimeout,
		StuckAfter:  2 * downloadTimeout,
		DrainGrace:  time.Duration(conf.ShutdownGraceSec) * time.Second,
		WorkerID:    workerID,
		Wake:        wake,
	}
	runner.Run(ctx)

	slog.Info("Downloader service stopped")
}
