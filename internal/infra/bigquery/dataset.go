package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	walletsTable      = "wallets"
	transactionsTable = "transactions"
	runsTable         = "reconciliation_runs"
)

// Dataset locates the ledger tables.
type Dataset struct {
	ProjectID string
	Name      string
}

// Table returns the fully qualified, backquoted name of table for use in SQL.
func (d Dataset) Table(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, d.Name, table)
}

func (d Dataset) handle(client *bigquery.Client, table string) *bigquery.Table {
	return client.DatasetInProject(d.ProjectID, d.Name).Table(table)
}

// execQuery runs a DML statement and waits for it to finish.
func execQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
