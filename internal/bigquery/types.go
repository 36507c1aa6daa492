package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// LedgerRepository provides read access to wallets and transactions.
type LedgerRepository interface {
	// ListWallets retrieves every wallet.
	ListWallets(ctx context.Context) ([]*WalletRow, error)

	// ListTransactions retrieves every transaction, dated or not.
	ListTransactions(ctx context.Context) ([]*TransactionRow, error)

	// ListTransactionsUpTo retrieves transactions that occurred at or before cutoff.
	ListTransactionsUpTo(ctx context.Context, cutoff time.Time) ([]*TransactionRow, error)
}

// LedgerWriter loads wallets and transactions in bulk.
type LedgerWriter interface {
	// ImportLedger appends the rows, or replaces both tables when replace is set.
	ImportLedger(ctx context.Context, wallets []*WalletRow, txs []*TransactionRow, replace bool) error
}

// RunRepository records reconciliation runs.
type RunRepository interface {
	// StartReconciliationRun inserts a run with status=RUNNING and returns its run_id.
	StartReconciliationRun(ctx context.Context, params RunParams) (string, error)

	// MarkReconciliationRunSucceeded sets status=SUCCESS, finished_ts and the run outcome.
	MarkReconciliationRunSucceeded(ctx context.Context, runID string, summary RunSummary) error

	// MarkReconciliationRunFailed sets status=FAILED, finished_ts and error_message.
	// Failures are logged, not returned.
	MarkReconciliationRunFailed(ctx context.Context, runID string, runErr error)

	// ListReconciliationRuns returns the most recent runs first.
	ListReconciliationRuns(ctx context.Context, limit int) ([]*ReconciliationRunRow, error)
}

// Run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// RunParams describes what a reconciliation run covers.
type RunParams struct {
	Cutoff   *time.Time
	WalletID string
	Source   string
}

// RunSummary is the outcome persisted on success.
type RunSummary struct {
	TotalPhysical            float64
	TotalLogical             float64
	Discrepancy              bool
	DiscrepancyTransactionID string
	IssueCount               int
	ReportURI                string
}

// WalletRow represents a wallet record in BigQuery.
type WalletRow struct {
	WalletID   string `bigquery:"wallet_id" json:"wallet_id"`
	WalletName string `bigquery:"wallet_name" json:"wallet_name"`
	Currency   string `bigquery:"currency" json:"currency"`

	WalletType   string              `bigquery:"wallet_type" json:"wallet_type"`
	PhysicalForm bigquery.NullString `bigquery:"physical_form" json:"physical_form,omitempty"`

	Balance        *big.Rat `bigquery:"balance" json:"balance"`
	InitialBalance *big.Rat `bigquery:"initial_balance" json:"initial_balance"`

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts" json:"created_ts,omitempty"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts" json:"updated_ts,omitempty"`
}

// TransactionRow represents a transaction record in BigQuery.
type TransactionRow struct {
	TransactionID   string `bigquery:"transaction_id" json:"transaction_id"`
	TransactionType string `bigquery:"transaction_type" json:"transaction_type"`

	Amount   *big.Rat `bigquery:"amount" json:"amount"`
	Currency string   `bigquery:"currency" json:"currency"`

	OccurredTS bigquery.NullTimestamp `bigquery:"occurred_ts" json:"occurred_ts,omitempty"`

	AffectedWalletIDs   []string            `bigquery:"affected_wallet_ids" json:"affected_wallet_ids,omitempty"`
	SourceWalletID      bigquery.NullString `bigquery:"source_wallet_id" json:"source_wallet_id,omitempty"`
	DestinationWalletID bigquery.NullString `bigquery:"destination_wallet_id" json:"destination_wallet_id,omitempty"`

	Tags        []string            `bigquery:"tags" json:"tags,omitempty"`
	Description bigquery.NullString `bigquery:"description" json:"description,omitempty"`

	CreatedTS time.Time `bigquery:"created_ts" json:"created_ts"`
}

// ReconciliationRunRow represents a reconciliation run record in BigQuery.
type ReconciliationRunRow struct {
	RunID string `bigquery:"run_id" json:"run_id"`

	StartedTS  time.Time              `bigquery:"started_ts" json:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts" json:"finished_ts,omitempty"`

	CutoffTS bigquery.NullTimestamp `bigquery:"cutoff_ts" json:"cutoff_ts,omitempty"`
	WalletID bigquery.NullString    `bigquery:"wallet_id" json:"wallet_id,omitempty"`
	Source   string                 `bigquery:"source" json:"source"`

	Status string `bigquery:"status" json:"status"`
	// ErrorMessage is NULL until the run is marked failed.
	ErrorMessage bigquery.NullString `bigquery:"error_message" json:"error_message,omitempty"`

	TotalPhysical            bigquery.NullFloat64 `bigquery:"total_physical" json:"total_physical,omitempty"`
	TotalLogical             bigquery.NullFloat64 `bigquery:"total_logical" json:"total_logical,omitempty"`
	Discrepancy              bigquery.NullBool    `bigquery:"discrepancy" json:"discrepancy,omitempty"`
	DiscrepancyTransactionID bigquery.NullString  `bigquery:"discrepancy_transaction_id" json:"discrepancy_transaction_id,omitempty"`
	IssueCount               bigquery.NullInt64   `bigquery:"issue_count" json:"issue_count,omitempty"`
	ReportURI                bigquery.NullString  `bigquery:"report_uri" json:"report_uri,omitempty"`
}

// ToDomain converts the row to a domain wallet.
func (r *WalletRow) ToDomain() domain.Wallet {
	w := domain.Wallet{
		ID:             r.WalletID,
		Name:           r.WalletName,
		Currency:       r.Currency,
		Type:           domain.WalletType(r.WalletType),
		Form:           domain.PhysicalForm(r.PhysicalForm.StringVal),
		Balance:        ratToFloat(r.Balance),
		InitialBalance: ratToFloat(r.InitialBalance),
	}
	if r.CreatedTS.Valid {
		ts := r.CreatedTS.Timestamp
		w.CreatedAt = &ts
	}
	return w
}

// ToDomain converts the row to a domain transaction.
func (r *TransactionRow) ToDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:                  r.TransactionID,
		Type:                domain.TransactionType(r.TransactionType),
		Amount:              ratToFloat(r.Amount),
		Currency:            r.Currency,
		AffectedWalletIDs:   r.AffectedWalletIDs,
		SourceWalletID:      r.SourceWalletID.StringVal,
		DestinationWalletID: r.DestinationWalletID.StringVal,
		Tags:                r.Tags,
		Description:         r.Description.StringVal,
	}
	if r.OccurredTS.Valid {
		ts := r.OccurredTS.Timestamp
		tx.Date = &ts
	}
	return tx
}

// WalletRowFromDomain converts a domain wallet for insertion.
func WalletRowFromDomain(w domain.Wallet) *WalletRow {
	row := &WalletRow{
		WalletID:       w.ID,
		WalletName:     w.Name,
		Currency:       w.Currency,
		WalletType:     string(w.Type),
		PhysicalForm:   nullString(string(w.Form)),
		Balance:        floatToRat(w.Balance),
		InitialBalance: floatToRat(w.InitialBalance),
	}
	if w.CreatedAt != nil {
		row.CreatedTS = bigquery.NullTimestamp{Timestamp: *w.CreatedAt, Valid: true}
	}
	return row
}

// TransactionRowFromDomain converts a domain transaction for insertion.
func TransactionRowFromDomain(tx domain.Transaction, created time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:       tx.ID,
		TransactionType:     string(tx.Type),
		Amount:              floatToRat(tx.Amount),
		Currency:            tx.Currency,
		AffectedWalletIDs:   tx.AffectedWalletIDs,
		SourceWalletID:      nullString(tx.SourceWalletID),
		DestinationWalletID: nullString(tx.DestinationWalletID),
		Tags:                tx.Tags,
		Description:         nullString(tx.Description),
		CreatedTS:           created,
	}
	if tx.Date != nil {
		row.OccurredTS = bigquery.NullTimestamp{Timestamp: *tx.Date, Valid: true}
	}
	return row
}

// WalletsToDomain converts rows in order.
func WalletsToDomain(rows []*WalletRow) []domain.Wallet {
	out := make([]domain.Wallet, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out
}

// TransactionsToDomain converts rows in order.
func TransactionsToDomain(rows []*TransactionRow) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out
}

func ratToFloat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

// floatToRat goes through decimal so 0.1 is stored as 1/10 rather than its binary expansion.
func floatToRat(v float64) *big.Rat {
	return decimal.NewFromFloat(v).Rat()
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
