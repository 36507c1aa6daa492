package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/config"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/gcsuploader"
	infraBQ "github.com/dvloznov/wallet-ledger/internal/infra/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/dvloznov/wallet-ledger/internal/notionsync"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithLevel(cfg.LogLevel)

	// Parse CLI flags
	cutoffStr := flag.String("cutoff", "", "Balances as of YYYY-MM-DD or RFC 3339 (default: current stored balances)")
	snapPath := flag.String("snapshot", "", "Read the ledger from a snapshot (path or gs:// URI) instead of BigQuery")
	notionToken := flag.String("notion-token", cfg.Notion.Token, "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", cfg.Notion.DatabaseID, "Notion database ID (or set NOTION_DB_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	cutoff, err := domain.ParseCutoff(*cutoffStr)
	if err != nil {
		log.Fatal().Err(err).Str("cutoff", *cutoffStr).Msg("Error: invalid cutoff")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("cutoff", domain.FormatCutoff(cutoff)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	var loader snapshot.Loader
	if *snapPath != "" {
		loader = snapshot.FileLoader{Source: *snapPath, Storage: gcsuploader.NewGCSStorageService()}
	} else {
		if err := cfg.Require("gcp.project"); err != nil {
			log.Fatal().Err(err).Msg("Invalid configuration")
		}
		repo, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.Dataset{ProjectID: cfg.GCP.ProjectID, Name: cfg.GCP.Dataset})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
		}
		defer repo.Close()
		loader = snapshot.RepositoryLoader{Repo: repo}
	}

	l, err := loader.LoadLedger(ctx, cutoff)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	balances := notionsync.BalancesFor(l.Wallets, l.Transactions, cutoff)
	res, err := notionsync.SyncWalletBalances(ctx, notionClient, balances, notionsync.SyncOptions{
		DatabaseID: *notionDBID,
		DryRun:     *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		res.Created, res.Updated, res.Deleted, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
