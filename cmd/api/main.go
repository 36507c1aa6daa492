package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/api/handlers"
	"github.com/dvloznov/wallet-ledger/internal/api/middleware"
	"github.com/dvloznov/wallet-ledger/internal/config"
	"github.com/dvloznov/wallet-ledger/internal/gcsuploader"
	infraBQ "github.com/dvloznov/wallet-ledger/internal/infra/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/dvloznov/wallet-ledger/internal/metrics"
	"github.com/dvloznov/wallet-ledger/internal/pipeline"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Parse command-line flags
	var (
		port    = flag.String("port", cfg.Port, "HTTP server port (or set PORT)")
		bucket  = flag.String("bucket", cfg.GCP.Bucket, "GCS bucket for exported reports (or set GCS_BUCKET)")
		explain = flag.Bool("explain", false, "Ask Gemini to explain discrepancies found by reconciliation jobs")
	)
	flag.Parse()

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Require("gcp.project"); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - reports will not be exported")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Initialize repositories
	repo, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.Dataset{ProjectID: cfg.GCP.ProjectID, Name: cfg.GCP.Dataset})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger repository")
	}
	defer repo.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("wallet_ledger")
	if err := collector.Register(registry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	loader := snapshot.RepositoryLoader{Repo: repo}
	deps := pipeline.Deps{
		Runs:     repo,
		Loader:   loader,
		Uploader: gcsuploader.NewGCSStorageService(),
		Bucket:   *bucket,
		Metrics:  collector,
	}
	if *explain {
		explainer, err := pipeline.NewGeminiExplainer(ctx, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini explainer")
		}
		deps.Explainer = explainer
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithRecorder(collector))

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, pipeline.JobHandler(deps, "bigquery", cfg.Tolerance)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	// Initialize handlers
	mux := handlers.Router{
		Ledger:          handlers.NewLedgerHandler(loader, cfg.Tolerance, log),
		Reconciliations: handlers.NewReconciliationsHandler(jobQueue, repo, log),
		Jobs:            handlers.NewJobsHandler(jobStore, log),
		Metrics:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}.Mux()

	// Apply middleware. Metrics sits next to the mux so it sees the matched route.
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Metrics(collector, handlers.RouteLabel)(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
