/**
 * OCR Service Worker - Main Entry Point
 *
 * Wires the store (sole dispatch authority), the Tesseract-backed
 * OCR engine, the enrichment pipeline, the non-authoritative Redis
 * event notifier, the optional Qdrant similarity index, the webhook
 * sink, and the HTTP ingress/admin surface into a running Scheduler.
 */

package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/adverant/ocrservice/internal/config"
	"github.com/adverant/ocrservice/internal/events"
	"github.com/adverant/ocrservice/internal/httpapi"
	"github.com/adverant/ocrservice/internal/logging"
	"github.com/adverant/ocrservice/internal/maintenance"
	"github.com/adverant/ocrservice/internal/ocr"
	"github.com/adverant/ocrservice/internal/processor"
	"github.com/adverant/ocrservice/internal/scheduler"
	"github.com/adverant/ocrservice/internal/similarity"
	"github.com/adverant/ocrservice/internal/store"
	"github.com/adverant/ocrservice/internal/validator"
	"github.com/adverant/ocrservice/internal/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("main")
	logger.Info("OCR service starting", "app_domain", cfg.AppDomain, "max_concurrent_jobs", cfg.MaxConcurrentJobs)

	st, err := store.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store connected")

	engine := ocr.NewTesseractEngine(cfg.TesseractLangs)

	proc, err := processor.NewDocumentProcessor(&processor.ProcessorConfig{
		Engine:             engine,
		PDFPageConcurrency: cfg.PDFPageConcurrency,
		Language:           cfg.TesseractLangs,
	})
	if err != nil {
		logger.Error("failed to initialize document processor", "error", err)
		os.Exit(1)
	}
	logger.Info("document processor initialized")

	notifier, err := events.New(cfg.RedisURL)
	if err != nil {
		logger.Warn("event notifier unavailable, continuing without it", "error", err)
	} else if notifier != nil {
		logger.Info("event notifier connected", "redis_url", cfg.RedisURL)
	}
	defer notifier.Close()

	index, err := similarity.New(cfg.QdrantURL, cfg.QdrantCollection)
	if err != nil {
		logger.Warn("similarity index unavailable, continuing without it", "error", err)
	} else if index != nil {
		logger.Info("similarity index connected", "qdrant_url", cfg.QdrantURL, "collection", cfg.QdrantCollection)
	}
	defer index.Close()

	webhookSink := webhook.New(cfg.WebhookTimeout)
	contentValidator := validator.New()
	sweeper := maintenance.NewSweeper(st, cfg.StuckJobThreshold)

	periodicMgr, asynqSrv, asynqMux, err := maintenance.RegisterPeriodic(cfg.RedisURL, cfg.StuckJobThreshold, sweeper)
	if err != nil {
		logger.Warn("periodic stuck-job sweep unavailable, relying on in-process ticker only", "error", err)
	} else if periodicMgr != nil {
		if err := periodicMgr.Start(); err != nil {
			logger.Warn("failed to start periodic task manager", "error", err)
		} else {
			logger.Info("periodic stuck-job sweep registered", "interval", cfg.StuckJobThreshold.String())
		}
		if err := asynqSrv.Start(asynqMux); err != nil {
			logger.Warn("failed to start asynq sweep server", "error", err)
		}
		defer asynqSrv.Shutdown()
		defer periodicMgr.Shutdown()
	}

	sched := scheduler.New(scheduler.Config{
		Store:             st,
		Processor:         proc,
		Webhook:           webhookSink,
		Notifier:          notifier,
		Index:             index,
		Sweeper:           sweeper,
		Validator:         contentValidator,
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		PollInterval:      cfg.PollInterval,
		ProcessingTimeout: cfg.ProcessingTimeout,
		WebhookTimeout:    cfg.WebhookTimeout,
		StuckJobThreshold: cfg.StuckJobThreshold,
	})
	sched.Start()

	api := httpapi.New(st, cfg.MaxUploadBytes)
	httpServer := &http.Server{Addr: cfg.HTTPListenAddr, Handler: api.Routes()}
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	logger.Info("===========================================")
	logger.Info("OCR service is READY")
	logger.Info("===========================================")
	logger.Info("Workers", "count", cfg.MaxConcurrentJobs)
	logger.Info("Poll interval", "interval", cfg.PollInterval.String())
	logger.Info("PDF page concurrency", "count", cfg.PDFPageConcurrency)
	logger.Info("===========================================")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())

	if err := httpServer.Close(); err != nil {
		logger.Warn("error closing http server", "error", err)
	}

	sched.Stop()
	logger.Info("shutdown complete")
}
