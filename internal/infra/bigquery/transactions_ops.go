package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

func listTransactionsQuery(ds Dataset, withCutoff bool) string {
	where := ""
	if withCutoff {
		where = "WHERE occurred_ts IS NOT NULL AND occurred_ts <= @cutoff"
	}
	return `
		SELECT
			transaction_id,
			transaction_type,
			amount,
			currency,
			occurred_ts,
			affected_wallet_ids,
			source_wallet_id,
			destination_wallet_id,
			tags,
			description,
			created_ts
		FROM ` + ds.Table(transactionsTable) + `
		` + where + `
		ORDER BY occurred_ts, transaction_id
	`
}

// ListTransactionsWithClient retrieves every transaction using the provided BigQuery client.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]*TransactionRow, error) {
	return readTransactions(ctx, client.Query(listTransactionsQuery(ds, false)))
}

// ListTransactionsUpToWithClient retrieves transactions with occurred_ts <= cutoff.
// Undated transactions are never returned.
func ListTransactionsUpToWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, cutoff time.Time) ([]*TransactionRow, error) {
	q := client.Query(listTransactionsQuery(ds, true))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "cutoff", Value: cutoff},
	}

	rows, err := readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsUpToWithClient: %w", err)
	}
	return rows, nil
}

func readTransactions(ctx context.Context, q *bigquery.Query) ([]*TransactionRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var txs []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		txs = append(txs, &row)
	}

	return txs, nil
}
