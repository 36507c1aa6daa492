package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
)

// numericScale is the scale of BigQuery NUMERIC columns.
const numericScale = 9

// ImportLedgerWithClient writes wallets and transactions with load jobs.
// With replace set each job truncates its table first (WRITE_TRUNCATE). Load jobs, unlike DML,
// are accepted on tables that still have rows in the streaming buffer.
func ImportLedgerWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, wallets []*WalletRow, txs []*TransactionRow, replace bool) error {
	walletData, err := encodeWalletRows(wallets)
	if err != nil {
		return fmt.Errorf("ImportLedgerWithClient: encoding wallets: %w", err)
	}
	txData, err := encodeTransactionRows(txs)
	if err != nil {
		return fmt.Errorf("ImportLedgerWithClient: encoding transactions: %w", err)
	}

	if err := loadTable(ctx, client, ds, walletsTable, walletData, replace); err != nil {
		return fmt.Errorf("ImportLedgerWithClient: %w", err)
	}
	if err := loadTable(ctx, client, ds, transactionsTable, txData, replace); err != nil {
		return fmt.Errorf("ImportLedgerWithClient: %w", err)
	}
	return nil
}

func loadTable(ctx context.Context, client *bigquery.Client, ds Dataset, table string, data []byte, replace bool) error {
	if len(data) == 0 && !replace {
		return nil
	}

	src := bigquery.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bigquery.JSON

	loader := ds.handle(client, table).LoaderFrom(src)
	loader.CreateDisposition = bigquery.CreateNever
	loader.WriteDisposition = writeDisposition(replace)

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for %s load: %w", table, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s load job: %w", table, err)
	}
	return nil
}

func writeDisposition(replace bool) bigquery.TableWriteDisposition {
	if replace {
		return bigquery.WriteTruncate
	}
	return bigquery.WriteAppend
}

// encodeWalletRows renders rows as newline-delimited JSON keyed by column name.
func encodeWalletRows(rows []*WalletRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		rec := map[string]interface{}{
			"wallet_id":       r.WalletID,
			"wallet_name":     r.WalletName,
			"currency":        r.Currency,
			"wallet_type":     r.WalletType,
			"physical_form":   nullableString(r.PhysicalForm),
			"balance":         numeric(r.Balance),
			"initial_balance": numeric(r.InitialBalance),
			"created_ts":      nullableTimestamp(r.CreatedTS),
			"updated_ts":      nullableTimestamp(r.UpdatedTS),
		}
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("wallet %s: %w", r.WalletID, err)
		}
	}
	return buf.Bytes(), nil
}

// encodeTransactionRows renders rows as newline-delimited JSON keyed by column name.
func encodeTransactionRows(rows []*TransactionRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		rec := map[string]interface{}{
			"transaction_id":        r.TransactionID,
			"transaction_type":      r.TransactionType,
			"amount":                numeric(r.Amount),
			"currency":              r.Currency,
			"occurred_ts":           nullableTimestamp(r.OccurredTS),
			"affected_wallet_ids":   nonNil(r.AffectedWalletIDs),
			"source_wallet_id":      nullableString(r.SourceWalletID),
			"destination_wallet_id": nullableString(r.DestinationWalletID),
			"tags":                  nonNil(r.Tags),
			"description":           nullableString(r.Description),
			"created_ts":            timestamp(r.CreatedTS),
		}
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", r.TransactionID, err)
		}
	}
	return buf.Bytes(), nil
}

func numeric(r *big.Rat) interface{} {
	if r == nil {
		return nil
	}
	return r.FloatString(numericScale)
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999Z07:00")
}

func nullableTimestamp(t bigquery.NullTimestamp) interface{} {
	if !t.Valid {
		return nil
	}
	return timestamp(t.Timestamp)
}

func nullableString(s bigquery.NullString) interface{} {
	if !s.Valid {
		return nil
	}
	return s.StringVal
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
