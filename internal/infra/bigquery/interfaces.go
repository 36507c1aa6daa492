package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
)

// Re-export shared types so callers only import this package.
type (
	LedgerRepository     = bq.LedgerRepository
	LedgerWriter         = bq.LedgerWriter
	RunRepository        = bq.RunRepository
	RunParams            = bq.RunParams
	RunSummary           = bq.RunSummary
	WalletRow            = bq.WalletRow
	TransactionRow       = bq.TransactionRow
	ReconciliationRunRow = bq.ReconciliationRunRow
)

const (
	RunStatusRunning = bq.RunStatusRunning
	RunStatusSuccess = bq.RunStatusSuccess
	RunStatusFailed  = bq.RunStatusFailed
)

// BigQueryLedgerRepository implements LedgerRepository, LedgerWriter and RunRepository
// on a single shared BigQuery client.
type BigQueryLedgerRepository struct {
	client  *bigquery.Client
	dataset Dataset
}

// NewBigQueryLedgerRepository creates a repository for the tables in ds.
func NewBigQueryLedgerRepository(ctx context.Context, ds Dataset) (*BigQueryLedgerRepository, error) {
	if ds.ProjectID == "" || ds.Name == "" {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: creating client: %w", err)
	}
	return &BigQueryLedgerRepository{
		client:  client,
		dataset: ds,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryLedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListWallets delegates to ListWalletsWithClient.
func (r *BigQueryLedgerRepository) ListWallets(ctx context.Context) ([]*WalletRow, error) {
	return ListWalletsWithClient(ctx, r.client, r.dataset)
}

// ListTransactions delegates to ListTransactionsWithClient.
func (r *BigQueryLedgerRepository) ListTransactions(ctx context.Context) ([]*TransactionRow, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset)
}

// ListTransactionsUpTo delegates to ListTransactionsUpToWithClient.
func (r *BigQueryLedgerRepository) ListTransactionsUpTo(ctx context.Context, cutoff time.Time) ([]*TransactionRow, error) {
	return ListTransactionsUpToWithClient(ctx, r.client, r.dataset, cutoff)
}

// ImportLedger delegates to ImportLedgerWithClient.
func (r *BigQueryLedgerRepository) ImportLedger(ctx context.Context, wallets []*WalletRow, txs []*TransactionRow, replace bool) error {
	return ImportLedgerWithClient(ctx, r.client, r.dataset, wallets, txs, replace)
}

// StartReconciliationRun delegates to StartReconciliationRunWithClient.
func (r *BigQueryLedgerRepository) StartReconciliationRun(ctx context.Context, params RunParams) (string, error) {
	return StartReconciliationRunWithClient(ctx, r.client, r.dataset, params)
}

// MarkReconciliationRunSucceeded delegates to MarkReconciliationRunSucceededWithClient.
func (r *BigQueryLedgerRepository) MarkReconciliationRunSucceeded(ctx context.Context, runID string, summary RunSummary) error {
	return MarkReconciliationRunSucceededWithClient(ctx, r.client, r.dataset, runID, summary)
}

// MarkReconciliationRunFailed delegates to MarkReconciliationRunFailedWithClient.
func (r *BigQueryLedgerRepository) MarkReconciliationRunFailed(ctx context.Context, runID string, runErr error) {
	MarkReconciliationRunFailedWithClient(ctx, r.client, r.dataset, runID, runErr)
}

// ListReconciliationRuns delegates to ListReconciliationRunsWithClient.
func (r *BigQueryLedgerRepository) ListReconciliationRuns(ctx context.Context, limit int) ([]*ReconciliationRunRow, error) {
	return ListReconciliationRunsWithClient(ctx, r.client, r.dataset, limit)
}

var (
	_ LedgerRepository = (*BigQueryLedgerRepository)(nil)
	_ LedgerWriter     = (*BigQueryLedgerRepository)(nil)
	_ RunRepository    = (*BigQueryLedgerRepository)(nil)
)
