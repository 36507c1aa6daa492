package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/config"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/gcsuploader"
	infraBQ "github.com/dvloznov/wallet-ledger/internal/infra/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/jobs"
	"github.com/dvloznov/wallet-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/dvloznov/wallet-ledger/internal/pipeline"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		interval = flag.Duration("interval", time.Hour, "Time between scheduled reconciliations")
		bucket   = flag.String("bucket", cfg.GCP.Bucket, "GCS bucket for exported reports (or set GCS_BUCKET)")
		snapPath = flag.String("snapshot", "", "Reconcile a snapshot (path or gs:// URI) instead of BigQuery")
		explain  = flag.Bool("explain", false, "Ask Gemini to explain discrepancies")
		once     = flag.Bool("once", false, "Run a single reconciliation and exit")
	)
	flag.Parse()

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Require("gcp.project"); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *interval <= 0 {
		log.Fatal().Dur("interval", *interval).Msg("Error: -interval must be positive")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.Dataset{ProjectID: cfg.GCP.ProjectID, Name: cfg.GCP.Dataset})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger repository")
	}
	defer repo.Close()

	storage := gcsuploader.NewGCSStorageService()

	var loader snapshot.Loader = snapshot.RepositoryLoader{Repo: repo}
	source := "bigquery"
	if *snapPath != "" {
		loader = snapshot.FileLoader{Source: *snapPath, Storage: storage}
		source = *snapPath
	}

	deps := pipeline.Deps{
		Runs:     repo,
		Loader:   loader,
		Uploader: storage,
		Bucket:   *bucket,
	}
	if *explain {
		explainer, err := pipeline.NewGeminiExplainer(ctx, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini explainer")
		}
		deps.Explainer = explainer
	}

	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(10, jobStore, inmemory.WithWorkers(1))

	handler := pipeline.JobHandler(deps, source, cfg.Tolerance)

	if *once {
		job := &jobs.ReconcileJob{JobID: "once"}
		if err := handler(ctx, job); err != nil {
			log.Fatal().Err(err).Msg("Reconciliation failed")
		}
		log.Info().
			Str("run_id", job.RunID).
			Bool("discrepancy", job.Discrepancy).
			Str("transaction_id", job.DiscrepancyTransactionID).
			Str("report_uri", job.ReportURI).
			Msg("Reconciliation completed")
		return
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Dur("interval", *interval).Str("source", source).Msg("Worker service started")

	go schedule(ctx, jobQueue, *interval)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop the scheduler and workers
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Worker service stopped")
}

// schedule enqueues a reconciliation of the previous UTC day immediately and then every interval.
func schedule(ctx context.Context, publisher jobs.Publisher, interval time.Duration) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cutoff, _ := domain.ParseCutoff(time.Now().UTC().AddDate(0, 0, -1).Format(domain.DateLayout))
		job := &jobs.ReconcileJob{Cutoff: cutoff}
		if err := publisher.PublishReconcile(ctx, job); err != nil {
			log.Error().Err(err).Msg("Failed to enqueue scheduled reconciliation")
		} else {
			log.Info().Str("job_id", job.JobID).Str("cutoff", domain.FormatCutoff(cutoff)).Msg("Scheduled reconciliation enqueued")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
