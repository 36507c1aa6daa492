package bigquery

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const maxErrorMessageLen = 2000

// StartReconciliationRunWithClient inserts a new row into reconciliation_runs with status=RUNNING
// and returns the generated run_id.
func StartReconciliationRunWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, params RunParams) (string, error) {
	runID := uuid.NewString()

	cutoff := bigquery.NullTimestamp{}
	if params.Cutoff != nil {
		cutoff = bigquery.NullTimestamp{Timestamp: *params.Cutoff, Valid: true}
	}

	q := client.Query(`
		INSERT INTO ` + ds.Table(runsTable) + ` (
			run_id,
			started_ts,
			cutoff_ts,
			wallet_id,
			source,
			status
		)
		VALUES (
			@run_id,
			@started_ts,
			@cutoff_ts,
			@wallet_id,
			@source,
			@status
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "cutoff_ts", Value: cutoff},
		{Name: "wallet_id", Value: bigquery.NullString{StringVal: params.WalletID, Valid: params.WalletID != ""}},
		{Name: "source", Value: params.Source},
		{Name: "status", Value: RunStatusRunning},
	}

	if err := execQuery(ctx, q); err != nil {
		return "", fmt.Errorf("StartReconciliationRunWithClient: %w", err)
	}

	return runID, nil
}

// MarkReconciliationRunFailedWithClient sets status=FAILED, finished_ts and error_message.
// Errors are logged because the caller is already handling a failure.
func MarkReconciliationRunFailedWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = truncateMessage(runErr.Error(), maxErrorMessageLen)
	}

	q := client.Query(`
		UPDATE ` + ds.Table(runsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if err := execQuery(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkReconciliationRunFailed: updating run")
	}
}

// MarkReconciliationRunSucceededWithClient sets status=SUCCESS and finished_ts and stores the outcome.
func MarkReconciliationRunSucceededWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, summary RunSummary) error {
	q := client.Query(`
		UPDATE ` + ds.Table(runsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    total_physical = @total_physical,
		    total_logical = @total_logical,
		    discrepancy = @discrepancy,
		    discrepancy_transaction_id = @discrepancy_transaction_id,
		    issue_count = @issue_count,
		    report_uri = @report_uri
		WHERE run_id = @run_id
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "total_physical", Value: summary.TotalPhysical},
		{Name: "total_logical", Value: summary.TotalLogical},
		{Name: "discrepancy", Value: summary.Discrepancy},
		{Name: "discrepancy_transaction_id", Value: summary.DiscrepancyTransactionID},
		{Name: "issue_count", Value: summary.IssueCount},
		{Name: "report_uri", Value: summary.ReportURI},
		{Name: "run_id", Value: runID},
	}

	if err := execQuery(ctx, q); err != nil {
		return fmt.Errorf("MarkReconciliationRunSucceededWithClient: %w", err)
	}

	return nil
}

// ListReconciliationRunsWithClient returns up to limit runs, newest first.
func ListReconciliationRunsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, limit int) ([]*ReconciliationRunRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(`
		SELECT
			run_id,
			started_ts,
			finished_ts,
			cutoff_ts,
			wallet_id,
			source,
			status,
			error_message,
			total_physical,
			total_logical,
			discrepancy,
			discrepancy_transaction_id,
			issue_count,
			report_uri
		FROM ` + ds.Table(runsTable) + `
		ORDER BY started_ts DESC
		LIMIT @limit
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListReconciliationRunsWithClient: reading query: %w", err)
	}

	var runs []*ReconciliationRunRow
	for {
		var row ReconciliationRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListReconciliationRunsWithClient: iterating: %w", err)
		}
		runs = append(runs, &row)
	}

	return runs, nil
}

// truncateMessage cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateMessage(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
