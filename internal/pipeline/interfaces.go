package pipeline

import (
	"context"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
)

// RunRepository records reconciliation runs.
type RunRepository = bq.RunRepository

// LedgerLoader produces the ledger to reconcile.
type LedgerLoader = snapshot.Loader

// ReportUploader is the subset of the storage service used to export reports.
type ReportUploader interface {
	UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) (string, error)
}

// Explainer turns a discrepancy into a human readable explanation.
// This interface enables mocking and testing of the model call.
type Explainer interface {
	Explain(ctx context.Context, report *ledger.Report) (string, error)
}
