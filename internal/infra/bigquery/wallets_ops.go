package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

func listWalletsQuery(ds Dataset) string {
	return `
		SELECT
			wallet_id,
			wallet_name,
			currency,
			wallet_type,
			physical_form,
			balance,
			initial_balance,
			created_ts,
			updated_ts
		FROM ` + ds.Table(walletsTable) + `
		ORDER BY wallet_id
	`
}

// ListWalletsWithClient retrieves all wallets using the provided BigQuery client.
func ListWalletsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]*WalletRow, error) {
	it, err := client.Query(listWalletsQuery(ds)).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListWalletsWithClient: reading query: %w", err)
	}

	var wallets []*WalletRow
	for {
		var row WalletRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListWalletsWithClient: iterating: %w", err)
		}
		wallets = append(wallets, &row)
	}

	return wallets, nil
}
