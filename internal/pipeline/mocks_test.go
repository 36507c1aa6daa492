package pipeline_test

import (
	"context"
	"time"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
)

// MockRunRepository is a mock implementation of RunRepository for testing.
type MockRunRepository struct {
	StartFunc     func(ctx context.Context, params bq.RunParams) (string, error)
	SucceededFunc func(ctx context.Context, runID string, summary bq.RunSummary) error
	FailedFunc    func(ctx context.Context, runID string, runErr error)

	Started   []bq.RunParams
	Succeeded map[string]bq.RunSummary
	Failed    map[string]error
}

func (m *MockRunRepository) StartReconciliationRun(ctx context.Context, params bq.RunParams) (string, error) {
	m.Started = append(m.Started, params)
	if m.StartFunc != nil {
		return m.StartFunc(ctx, params)
	}
	return "run-1", nil
}

func (m *MockRunRepository) MarkReconciliationRunSucceeded(ctx context.Context, runID string, summary bq.RunSummary) error {
	if m.Succeeded == nil {
		m.Succeeded = map[string]bq.RunSummary{}
	}
	m.Succeeded[runID] = summary
	if m.SucceededFunc != nil {
		return m.SucceededFunc(ctx, runID, summary)
	}
	return nil
}

func (m *MockRunRepository) MarkReconciliationRunFailed(ctx context.Context, runID string, runErr error) {
	if m.Failed == nil {
		m.Failed = map[string]error{}
	}
	m.Failed[runID] = runErr
	if m.FailedFunc != nil {
		m.FailedFunc(ctx, runID, runErr)
	}
}

func (m *MockRunRepository) ListReconciliationRuns(ctx context.Context, limit int) ([]*bq.ReconciliationRunRow, error) {
	return nil, nil
}

// MockLoader is a mock implementation of LedgerLoader for testing.
type MockLoader struct {
	LoadFunc func(ctx context.Context, cutoff *time.Time) (*snapshot.Ledger, error)
}

func (m *MockLoader) LoadLedger(ctx context.Context, cutoff *time.Time) (*snapshot.Ledger, error) {
	return m.LoadFunc(ctx, cutoff)
}

// MockUploader records uploads.
type MockUploader struct {
	UploadFunc func(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)

	Bucket string
	Object string
	Data   []byte
}

func (m *MockUploader) UploadBytes(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	m.Bucket, m.Object, m.Data = bucket, object, data
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, object, contentType, data)
	}
	return "gs://" + bucket + "/" + object, nil
}

// MockExplainer is a mock implementation of Explainer for testing.
type MockExplainer struct {
	ExplainFunc func(ctx context.Context, report *ledger.Report) (string, error)
	Calls       int
}

func (m *MockExplainer) Explain(ctx context.Context, report *ledger.Report) (string, error) {
	m.Calls++
	if m.ExplainFunc != nil {
		return m.ExplainFunc(ctx, report)
	}
	return "the expense was never mirrored", nil
}

// MockRecorder counts metric calls.
type MockRecorder struct {
	Runs          map[string]int
	Discrepancies int
	Physical      float64
	Logical       float64
}

func (m *MockRecorder) RecordRun(status string, _ time.Duration) {
	if m.Runs == nil {
		m.Runs = map[string]int{}
	}
	m.Runs[status]++
}

func (m *MockRecorder) RecordDiscrepancy(found bool) {
	if found {
		m.Discrepancies++
	}
}

func (m *MockRecorder) RecordTotals(physical, logical float64) {
	m.Physical, m.Logical = physical, logical
}

func (m *MockRecorder) RecordJob(string) {}

func (m *MockRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}
