package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/jomei/notionapi"
)

// SyncResult counts what a sync did, or would do in dry-run mode.
type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// SyncOptions controls SyncWalletBalances.
type SyncOptions struct {
	DatabaseID string
	DryRun     bool
	// Now stamps the Synced At property. Defaults to time.Now.
	Now func() time.Time
}

// SyncWalletBalances upserts one Notion page per wallet balance.
// Pages are matched on the Wallet ID title. Pages for wallets that are not in
// balances (or that have no wallet ID) are archived.
// Per-page failures are logged and counted; only a failed database query aborts the sync.
func SyncWalletBalances(ctx context.Context, notionClient NotionService, balances []WalletBalance, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	syncedAt := now()

	log.Info().
		Int("wallet_count", len(balances)).
		Bool("dry_run", opts.DryRun).
		Msg("Starting wallet balance sync to Notion")

	pages, err := queryAllNotionPages(ctx, notionClient, opts.DatabaseID)
	if err != nil {
		return res, fmt.Errorf("SyncWalletBalances: failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	wanted := make(map[string]bool, len(balances))
	for _, wb := range balances {
		wanted[wb.Wallet.ID] = true
	}

	// First page per wallet wins; duplicates are treated as stale.
	existing := make(map[string]string)
	for _, page := range pages {
		walletID := extractWalletID(page)
		if walletID != "" && wanted[walletID] {
			if _, dup := existing[walletID]; !dup {
				existing[walletID] = string(page.ID)
				continue
			}
		}

		pageLog := log.With().Str("wallet_id", walletID).Str("page_id", string(page.ID)).Logger()
		if opts.DryRun {
			pageLog.Info().Msg("[DRY RUN] Would archive stale Notion page")
			res.Deleted++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			pageLog.Warn().Err(err).Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		pageLog.Info().Msg("Archived stale Notion page")
		res.Deleted++
	}

	for _, wb := range balances {
		walletLog := log.With().Str("wallet_id", wb.Wallet.ID).Float64("balance", wb.Balance).Logger()
		pageID, found := existing[wb.Wallet.ID]

		if opts.DryRun {
			if found {
				walletLog.Info().Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				res.Updated++
			} else {
				walletLog.Info().Msg("[DRY RUN] Would create Notion page")
				res.Created++
			}
			continue
		}

		props := WalletToNotionProperties(wb, syncedAt)

		if found {
			if err := notionClient.UpdateBalancePage(ctx, pageID, props); err != nil {
				walletLog.Warn().Err(err).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			walletLog.Info().Str("page_id", pageID).Msg("Updated Notion page")
			res.Updated++
			continue
		}

		newID, err := notionClient.CreateBalancePage(ctx, opts.DatabaseID, props)
		if err != nil {
			walletLog.Warn().Err(err).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		walletLog.Info().Str("page_id", newID).Msg("Created Notion page")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("Wallet balance sync completed")

	return res, nil
}

// queryAllNotionPages reads every page of the database, following cursors.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	cursor := ""

	for {
		batch, err := notionClient.ListBalancePages(ctx, databaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, batch.Pages...)

		if batch.NextCursor == "" {
			break
		}
		cursor = batch.NextCursor
	}

	return allPages, nil
}
