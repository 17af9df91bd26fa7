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
	"thirdcoast.systems/reclip/internal/extract"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
	"thirdcoast.systems/reclip/internal/storage"
	"thirdcoast.systems/reclip/internal/transcribe"
	"thirdcoast.systems/reclip/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting extractor service")

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

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = fmt.Sprintf("pid-%d", os.Getpid())
	}
	workerID := fmt.Sprintf("extractor-%s", hostname)

	broker := queue.NewBroker(dbc.Pool)

	extractTimeout := time.Duration(conf.ExtractTimeoutSec) * time.Second
	handler := &extract.Extractor{
		DB:           dbc,
		Store:        store,
		RawBucket:    conf.RawVideosBucket,
		ShortsBucket: conf.ShortsBucket,
		ThumbBucket:  conf.ThumbnailsBucket,
		WorkDir:      conf.WorkDir,
		Timeout:      extractTimeout,
	}
	if conf.CaptionsConfigured() {
		handler.Transcriber = transcribe.NewClient(
			conf.TranscriptionURL, conf.TranscriptionAPIKey, conf.TranscriptionModel).
			WithLanguage(conf.TranscriptionLang)
	} else {
		slog.Info("captions disabled, producing clips without subtitles")
	}

	if n, err := broker.RequeueStuck(ctx, pipeline.QueueExtraction, 2*extractTimeout); err != nil {
		slog.Error("failed to requeue stuck tasks", "error", err)
	} else if n > 0 {
		slog.Info("requeued stuck tasks from previous instance", "count", n)
	}

	wake := make(chan struct{}, 1)
	go queue.ListenAndSignal(ctx, conf.DatabaseDSN, pipeline.QueueExtraction, wake)

	runner := &worker.Runner{
		Queue:       pipeline.QueueExtraction,
		Broker:      broker,
		Handler:     handler.Handle,
		Concurrency: conf.ExtractWorkers,
		RatePerSec:  conf.ExtractRatePerSec,
		TaskTimeout: 4 * extractTimeout,
		StuckAfter:  4 * extractTimeout,
		DrainGrace:  time.Duration(conf.ShutdownGraceSec) * time.Second,
		WorkerID:    workerID,
		Wake:        wake,
	}
	runner.Run(ctx)

	slog.Info("Extractor service stopped")
}
